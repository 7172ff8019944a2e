package container

// Status is the engine-reported container status.
type Status string

const (
	StatusAbsent  Status = "absent"
	StatusCreated Status = "created"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusExited  Status = "exited"
	StatusStopped Status = "stopped"
)

// Phase records which template the container was created from.
type Phase string

const (
	PhaseServing    Phase = "serving"
	PhaseExtracting Phase = "extracting"
)

// State is the observed state of the managed container.
type State struct {
	Status Status
	Phase  Phase
	Pid    int
}

// Exists reports whether the container is present in any status.
func (s State) Exists() bool {
	return s.Status != "" && s.Status != StatusAbsent
}

// Running reports whether the container is running.
func (s State) Running() bool {
	return s.Status == StatusRunning
}

// Summary collapses the status into absent, running or stopped.
func (s State) Summary() string {
	switch {
	case !s.Exists():
		return "absent"
	case s.Running():
		return "running"
	default:
		return "stopped"
	}
}

// Handle identifies the managed container.
type Handle struct {
	Name  string
	Image string
}
