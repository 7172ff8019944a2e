package container

import "strings"

// Mount is a bind mount passed with -v.
type Mount struct {
	Source  string
	Target  string
	Options []string
}

func (m Mount) String() string {
	s := m.Source + ":" + m.Target
	if len(m.Options) > 0 {
		s += ":" + strings.Join(m.Options, ",")
	}
	return s
}

// EnvVar is an environment variable passed with -e.
type EnvVar struct {
	Name  string
	Value string
}

// Label is container metadata passed with --label.
type Label struct {
	Key   string
	Value string
}

// Label keys set on containers created by the launcher.
const (
	LabelPhase = "pxe.phase"
	LabelRunID = "pxe.run-id"
)

// RunSpec describes one "run -d" invocation.
type RunSpec struct {
	Name        string
	Image       string
	HostNetwork bool
	CapAdd      []string
	Privileged  bool
	Labels      []Label
	Env         []EnvVar
	Mounts      []Mount
}

// Args renders the engine arguments, starting with "run".
func (s RunSpec) Args() []string {
	args := []string{"run", "-d", "--name", s.Name}
	if s.HostNetwork {
		args = append(args, "--network=host")
	}
	for _, capability := range s.CapAdd {
		args = append(args, "--cap-add="+capability)
	}
	if s.Privileged {
		args = append(args, "--privileged")
	}
	for _, label := range s.Labels {
		args = append(args, "--label", label.Key+"="+label.Value)
	}
	for _, env := range s.Env {
		args = append(args, "-e", env.Name+"="+env.Value)
	}
	for _, mount := range s.Mounts {
		args = append(args, "-v", mount.String())
	}
	return append(args, s.Image)
}

// Phase returns the value of the phase label.
func (s RunSpec) Phase() Phase {
	for _, label := range s.Labels {
		if label.Key == LabelPhase {
			return Phase(label.Value)
		}
	}
	return ""
}
