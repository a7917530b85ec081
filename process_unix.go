//go:build linux || darwin

package svscan

import (
	"os/exec"
	"syscall"

	"github.com/axondata/go-svscan/internal/unix"
)

// Spawn starts the executable at path with no arguments, no standard
// input, and standard output/error discarded (nil stdio descriptors are
// connected to the null device by os/exec). The working directory and
// environment are inherited from the supervisor.
func Spawn(path string) (ProcessHandle, error) {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return nil, &OpError{Op: OpSpawn, Path: path, Err: err}
	}
	return &childProcess{cmd: cmd}, nil
}

// childProcess is the real ProcessHandle over a spawned child. The child
// is reaped with a non-blocking wait4 instead of exec.Cmd.Wait, which
// would block until exit.
type childProcess struct {
	cmd *exec.Cmd
}

// PID returns the child's process identifier
func (c *childProcess) PID() int { return c.cmd.Process.Pid }

// Terminate sends SIGTERM to the child
func (c *childProcess) Terminate() error {
	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return &OpError{Op: OpTerm, Path: c.cmd.Path, Err: err}
	}
	return nil
}

// TryWait reaps the child if it has exited. A WNOHANG wait4 returns pid 0
// while the child is still running, so this never blocks.
func (c *childProcess) TryWait() (ExitStatus, bool, error) {
	pid, ws, err := unix.WaitNoHang(c.cmd.Process.Pid)
	if err != nil {
		return ExitStatus{}, false, &OpError{Op: OpReap, Path: c.cmd.Path, Err: err}
	}
	if pid == 0 {
		return ExitStatus{}, false, nil
	}

	var status ExitStatus
	if ws.Signaled() {
		status.Signal = ws.Signal().String()
	} else {
		status.Code = ws.ExitStatus()
	}

	// The child was reaped above; release the exec.Cmd bookkeeping so the
	// finalizer does not signal a recycled pid.
	_ = c.cmd.Process.Release()
	return status, true, nil
}
