//go:build linux

// Package unix provides platform-specific process wait primitives.
package unix

import "syscall"

// WaitNoHang performs a non-blocking wait4 on pid. It returns pid 0 when
// the process has not exited yet. Interrupted waits are retried.
func WaitNoHang(pid int) (int, syscall.WaitStatus, error) {
	var ws syscall.WaitStatus
	for {
		wpid, err := syscall.Wait4(pid, &ws, syscall.WNOHANG, nil)
		if err != syscall.EINTR {
			return wpid, ws, err
		}
	}
}
