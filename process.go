package svscan

import "fmt"

// ProcessHandle is the supervisor's view of a child process it spawned.
// It exposes exactly the capabilities one reconciliation pass needs:
// identification for diagnostics, a graceful termination request, and a
// non-blocking exit check. The Scanner logic is written against this
// interface so it can be exercised with fake in-memory processes.
type ProcessHandle interface {
	// PID returns the OS process identifier for diagnostics
	PID() int

	// Terminate asks the process to shut down gracefully (SIGTERM). It
	// does not escalate to a forced kill and does not wait for exit.
	Terminate() error

	// TryWait polls for process exit without ever blocking. It reports
	// the exit status and true once the process has been reaped, or
	// false while it is still running.
	TryWait() (ExitStatus, bool, error)
}

// ExitStatus describes how a child process exited
type ExitStatus struct {
	// Code is the exit code when the process exited normally
	Code int
	// Signal is the terminating signal name when the process was killed
	Signal string
}

// String returns a human-readable rendering of the exit status
func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "signal: " + s.Signal
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// SpawnFunc launches the executable at path and returns a handle to the
// new process. It exists as a seam between the Scanner and the OS.
type SpawnFunc func(path string) (ProcessHandle, error)
