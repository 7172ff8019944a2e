package extract

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmichett/FedoraRemixPXE/internal/container"
	"github.com/tmichett/FedoraRemixPXE/internal/pxeconfig"
	"github.com/tmichett/FedoraRemixPXE/internal/runner"
	"github.com/tmichett/FedoraRemixPXE/internal/runner/runnertest"
	"github.com/tmichett/FedoraRemixPXE/internal/source"
)

const inspect = `podman inspect --format {{.State.Status}}|{{index .Config.Labels "pxe.phase"}}|{{.State.Pid}} pxe-server`

type fixture struct {
	deployment container.Deployment
	profile    pxeconfig.BootProfile
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	cfg, err := pxeconfig.DeriveServerConfig("eno1", "192.168.0.1")
	require.NoError(t, err)
	src := source.BootSource{Kind: source.KindISO, Path: "/srv/iso/Remix.iso", Label: "Remix"}
	profile, err := pxeconfig.DeriveProfile(src, "", "Classroom Remix", "Fedora Remix LiveCD")
	require.NoError(t, err)
	return fixture{
		deployment: container.Deployment{
			Handle: container.Handle{Name: "pxe-server", Image: "quay.io/tmichett/fedoraremixpxe:latest"},
			Config: cfg,
			Volumes: container.Volumes{
				TFTPRoot:   filepath.Join(base, "tftpboot"),
				HTTPRoot:   filepath.Join(base, "http"),
				DHCPConfig: filepath.Join(base, "dhcpd.conf"),
			},
		},
		profile: profile,
	}
}

func (f fixture) extractingRun() string {
	return "podman " + strings.Join(f.deployment.ExtractionSpec(f.profile.Source, "/mnt/source").Args(), " ")
}

func (f fixture) servingRun() string {
	return "podman " + strings.Join(f.deployment.ServingSpec().Args(), " ")
}

func orchestrator(script *runnertest.Script, restore bool) *Orchestrator {
	return &Orchestrator{
		Manager:        &container.Manager{Engine: &container.Engine{Runner: script}},
		Entrypoint:     "/usr/local/bin/extract-boot-files.sh",
		MountPath:      "/mnt/source",
		ReadyTimeout:   time.Second,
		PollInterval:   time.Millisecond,
		RestoreServing: restore,
	}
}

// recreate is the command sequence for replacing a running container.
func recreate(run, phase string) []runnertest.Step {
	return []runnertest.Step{
		runnertest.Ok("podman container exists pxe-server", ""),
		runnertest.Ok(inspect, "running|serving|10"),
		runnertest.Ok("podman stop pxe-server", ""),
		runnertest.Ok("podman rm pxe-server", ""),
		runnertest.Ok(run, "id\n"),
		runnertest.Ok("podman container exists pxe-server", ""),
		runnertest.Ok(inspect, "running|"+phase+"|11"),
	}
}

func TestEntrypointArgs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	assert.Equal(t,
		[]string{"/mnt/source", "remix", "192.168.0.1", "Classroom Remix", "iso"},
		EntrypointArgs("/mnt/source", f.profile, "192.168.0.1"))
}

func TestRunSuccessRestoresServing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var steps []runnertest.Step
	steps = append(steps, recreate(f.extractingRun(), "extracting")...)
	steps = append(steps,
		runnertest.Ok("podman exec pxe-server true", ""),
		runnertest.Ok("podman exec pxe-server /usr/local/bin/extract-boot-files.sh /mnt/source remix 192.168.0.1 Classroom Remix iso", "done"),
	)
	steps = append(steps, recreate(f.servingRun(), "serving")...)
	script := runnertest.NewScript(steps...)

	report := orchestrator(script, true).Run(context.Background(), f.deployment, f.profile)
	require.NoError(t, report.Err)
	assert.True(t, report.Extracted)
	assert.True(t, report.Restored)
	assert.NoError(t, report.RestoreErr)
	script.AssertDone(t)

	entry := script.Calls[len(script.Calls)-8]
	assert.True(t, entry.Stream)
	assert.True(t, entry.Check)
}

func TestRunScriptFailureLeavesServerRunning(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var steps []runnertest.Step
	steps = append(steps, recreate(f.extractingRun(), "extracting")...)
	steps = append(steps,
		runnertest.Ok("podman exec pxe-server true", ""),
		runnertest.Fail("podman exec pxe-server /usr/local/bin/extract-boot-files.sh /mnt/source remix 192.168.0.1 Classroom Remix iso", 2, "mount: /mnt/iso: failed to setup loop device"),
	)
	steps = append(steps, recreate(f.servingRun(), "serving")...)
	script := runnertest.NewScript(steps...)

	report := orchestrator(script, true).Run(context.Background(), f.deployment, f.profile)
	require.Error(t, report.Err)
	assert.False(t, report.Extracted)
	assert.True(t, report.Restored)
	var cmdErr *runner.ExternalCommandError
	require.True(t, errors.As(report.Err, &cmdErr))
	assert.Equal(t, 2, cmdErr.ExitCode)
	script.AssertDone(t)
}

func TestRunStartFailureIsReportedNotRaised(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	script := runnertest.NewScript(
		runnertest.Ok("podman container exists pxe-server", ""),
		runnertest.Ok(inspect, "running|serving|10"),
		runnertest.Ok("podman stop pxe-server", ""),
		runnertest.Ok("podman rm pxe-server", ""),
		runnertest.Fail(f.extractingRun(), 125, "Error: statfs /srv/iso/Remix.iso: no such file or directory"),
		// restore from an absent container
		runnertest.Fail("podman container exists pxe-server", 1, ""),
		runnertest.Ok(f.servingRun(), "id\n"),
		runnertest.Ok("podman container exists pxe-server", ""),
		runnertest.Ok(inspect, "running|serving|12"),
	)

	report := orchestrator(script, true).Run(context.Background(), f.deployment, f.profile)
	var startErr *container.StartError
	require.True(t, errors.As(report.Err, &startErr))
	assert.Contains(t, startErr.Stderr, "no such file")
	assert.True(t, report.Restored)
	script.AssertDone(t)
}

func TestRunWithoutRestoreLeavesExtractionContainer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var steps []runnertest.Step
	steps = append(steps, recreate(f.extractingRun(), "extracting")...)
	steps = append(steps,
		runnertest.Ok("podman exec pxe-server true", ""),
		runnertest.Fail("podman exec pxe-server /usr/local/bin/extract-boot-files.sh /mnt/source remix 192.168.0.1 Classroom Remix iso", 1, ""),
	)
	script := runnertest.NewScript(steps...)

	report := orchestrator(script, false).Run(context.Background(), f.deployment, f.profile)
	require.Error(t, report.Err)
	assert.False(t, report.Restored)
	script.AssertDone(t)
}

func TestRunReadinessTimeout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	steps := recreate(f.extractingRun(), "extracting")
	for i := 0; i < 500; i++ {
		steps = append(steps, runnertest.Fail("podman exec pxe-server true", 125, "container is not running"))
	}
	script := runnertest.NewScript(steps...)
	o := orchestrator(script, false)
	o.ReadyTimeout = 20 * time.Millisecond
	o.PollInterval = 2 * time.Millisecond

	report := o.Run(context.Background(), f.deployment, f.profile)
	var readyErr *container.ReadinessError
	require.True(t, errors.As(report.Err, &readyErr))
	for _, call := range script.Calls {
		assert.NotContains(t, strings.Join(call.Args, " "), "extract-boot-files.sh")
	}
}

func TestRunRestoreFailureIsReported(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	var steps []runnertest.Step
	steps = append(steps, recreate(f.extractingRun(), "extracting")...)
	steps = append(steps,
		runnertest.Ok("podman exec pxe-server true", ""),
		runnertest.Ok("podman exec pxe-server /usr/local/bin/extract-boot-files.sh /mnt/source remix 192.168.0.1 Classroom Remix iso", ""),
		runnertest.Ok("podman container exists pxe-server", ""),
		runnertest.Ok(inspect, "running|extracting|11"),
		runnertest.Ok("podman stop pxe-server", ""),
		runnertest.Fail("podman rm pxe-server", 2, "Error: container is in use"),
	)
	script := runnertest.NewScript(steps...)

	report := orchestrator(script, true).Run(context.Background(), f.deployment, f.profile)
	assert.NoError(t, report.Err)
	assert.True(t, report.Extracted)
	assert.False(t, report.Restored)
	require.Error(t, report.RestoreErr)
	assert.Contains(t, report.RestoreErr.Error(), "container is in use")
}

func TestRunRejectsProfileWithoutSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	script := runnertest.NewScript()
	report := orchestrator(script, false).Run(context.Background(), f.deployment, pxeconfig.BootProfile{Name: "x"})
	assert.Error(t, report.Err)
	assert.Empty(t, script.Calls)
}
