package setup

import (
	"fmt"
	"os"
)

// PrerequisiteError reports a required host command that is not installed.
type PrerequisiteError struct {
	Command string
	Hint    string
	Err     error
}

func (e *PrerequisiteError) Error() string {
	msg := fmt.Sprintf("%s is not installed", e.Command)
	if e.Hint != "" {
		msg += ". Install with: " + e.Hint
	}
	return msg
}

func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}

// PrivilegeError reports that an action needs root.
type PrivilegeError struct {
	Action string
}

func (e *PrivilegeError) Error() string {
	if e.Action == "" {
		return "this command must be run as root (use sudo)"
	}
	return fmt.Sprintf("%s must be run as root (use sudo)", e.Action)
}

var geteuid = os.Geteuid

// RequirePrivilege fails with a *PrivilegeError unless running as root.
func RequirePrivilege(action string) error {
	if geteuid() != 0 {
		return &PrivilegeError{Action: action}
	}
	return nil
}

// installHints maps commands to the package that provides them.
var installHints = map[string]string{
	"podman": "sudo dnf install podman",
	"nmcli":  "sudo dnf install NetworkManager",
	"ip":     "sudo dnf install iproute",
}

// EnsureCommands checks that every name resolves with lookPath.
func EnsureCommands(lookPath func(string) (string, error), names ...string) error {
	for _, name := range names {
		if _, err := lookPath(name); err != nil {
			return &PrerequisiteError{Command: name, Hint: installHints[name], Err: err}
		}
	}
	return nil
}
