//go:build !linux && !darwin

package svscan

import "context"

// Watch is not supported on this platform.
func (s *Scanner) Watch(_ context.Context) (<-chan struct{}, WatchCleanupFunc, error) {
	return nil, nil, ErrUnsupportedPlatform
}
