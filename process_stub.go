//go:build !linux && !darwin

package svscan

// Spawn is not supported on this platform.
func Spawn(_ string) (ProcessHandle, error) {
	return nil, ErrUnsupportedPlatform
}
