package runner

import "fmt"

// Policy decides what a failed step means for the overall run.
type Policy int

const (
	// PolicyAbort makes any failure fatal.
	PolicyAbort Policy = iota
	// PolicyDegrade records the failure and lets the run continue.
	PolicyDegrade
)

// Severity classifies a settled step.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityDegraded
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityDegraded:
		return "degraded"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Outcome is the result of applying a Policy to a step's error.
type Outcome struct {
	Step     string
	Severity Severity
	Err      error
}

// Settle classifies err for step according to policy.
func Settle(step string, err error, policy Policy) Outcome {
	if err == nil {
		return Outcome{Step: step, Severity: SeverityOK}
	}
	if policy == PolicyDegrade {
		return Outcome{Step: step, Severity: SeverityDegraded, Err: err}
	}
	return Outcome{Step: step, Severity: SeverityFatal, Err: err}
}

func (o Outcome) Fatal() bool {
	return o.Severity == SeverityFatal
}

func (o Outcome) Degraded() bool {
	return o.Severity == SeverityDegraded
}

// FatalError returns the wrapped error for fatal outcomes and nil otherwise.
func (o Outcome) FatalError() error {
	if !o.Fatal() {
		return nil
	}
	return fmt.Errorf("%s: %w", o.Step, o.Err)
}
