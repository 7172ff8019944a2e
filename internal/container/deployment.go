package container

import (
	"fmt"
	"os"

	"github.com/tmichett/FedoraRemixPXE/internal/pxeconfig"
	"github.com/tmichett/FedoraRemixPXE/internal/source"
)

// Paths inside the container image.
const (
	ContainerTFTPRoot   = "/var/lib/tftpboot"
	ContainerHTTPRoot   = "/var/www/html"
	ContainerDHCPConfig = "/etc/dhcp/dhcpd.conf"
)

// Volumes are the host paths shared with the container.
type Volumes struct {
	TFTPRoot   string
	HTTPRoot   string
	DHCPConfig string
}

// Deployment is everything needed to (re)create the PXE server container for
// one run.
type Deployment struct {
	Handle  Handle
	Config  pxeconfig.ServerConfig
	Volumes Volumes
	RunID   string
}

// ServingSpec is the minimal template: host networking, the capabilities
// dhcpd needs for raw sockets, and the data volumes.
func (d Deployment) ServingSpec() RunSpec {
	return RunSpec{
		Name:        d.Handle.Name,
		Image:       d.Handle.Image,
		HostNetwork: true,
		CapAdd:      []string{"NET_ADMIN", "NET_RAW"},
		Labels:      d.labels(PhaseServing),
		Env: []EnvVar{
			{Name: "DHCP_INTERFACE", Value: d.Config.Interface},
			{Name: "PXE_SERVER_IP", Value: d.Config.ServerIP},
		},
		Mounts: []Mount{
			{Source: d.Volumes.TFTPRoot, Target: ContainerTFTPRoot, Options: []string{"Z"}},
			{Source: d.Volumes.HTTPRoot, Target: ContainerHTTPRoot, Options: []string{"Z"}},
			{Source: d.Volumes.DHCPConfig, Target: ContainerDHCPConfig, Options: []string{"Z"}},
		},
	}
}

// ExtractionSpec extends the serving template with privileged mode, needed
// to loop-mount an ISO, and a read-only mount of src at mountPath.
func (d Deployment) ExtractionSpec(src source.BootSource, mountPath string) RunSpec {
	spec := d.ServingSpec()
	spec.Privileged = true
	spec.Labels = d.labels(PhaseExtracting)
	spec.Mounts = append(spec.Mounts, Mount{Source: src.Path, Target: mountPath, Options: []string{"ro"}})
	return spec
}

func (d Deployment) labels(phase Phase) []Label {
	labels := []Label{{Key: LabelPhase, Value: string(phase)}}
	if d.RunID != "" {
		labels = append(labels, Label{Key: LabelRunID, Value: d.RunID})
	}
	return labels
}

// prepare creates the volume directories and writes dhcpd.conf.
func (d Deployment) prepare() error {
	for _, dir := range []string{d.Volumes.TFTPRoot, d.Volumes.HTTPRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return pxeconfig.WriteDHCPConfig(d.Volumes.DHCPConfig, d.Config)
}
