package svscan

import (
	"io/fs"
	"time"
)

// Scan directory constants
const (
	// RunScriptFile is the executable file name each service subdirectory
	// must contain
	RunScriptFile = "run"

	// DefaultScanInterval is the default pause between scan passes
	DefaultScanInterval = time.Second

	// DefaultWatchDebounce is the default debounce time for directory
	// watch events to coalesce rapid changes
	DefaultWatchDebounce = 25 * time.Millisecond

	// ShutdownPollInterval is the pause between reap polls during Shutdown
	ShutdownPollInterval = 50 * time.Millisecond
)

// File modes
const (
	// DirMode is the default mode for created directories
	DirMode = 0o755

	// FileMode is the default mode for created files
	FileMode fs.FileMode = 0o644

	// ExecMode is the default mode for executable scripts
	ExecMode fs.FileMode = 0o755
)

// Operation represents a supervisor operation type
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpScan is the directory listing at the start of a pass
	OpScan
	// OpFingerprint is the launch-script identity computation
	OpFingerprint
	// OpSpawn is the launch of a service process
	OpSpawn
	// OpTerm is the graceful-termination signal to a stale process
	OpTerm
	// OpReap is the non-blocking exit check on a tracked process
	OpReap
	// OpWatch is the scan-directory change watch
	OpWatch
)

// Operation string constants
const (
	opUnknownStr     = "unknown"
	opScanStr        = "scan"
	opFingerprintStr = "fingerprint"
	opSpawnStr       = "spawn"
	opTermStr        = "term"
	opReapStr        = "reap"
	opWatchStr       = "watch"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpScan:
		return opScanStr
	case OpFingerprint:
		return opFingerprintStr
	case OpSpawn:
		return opSpawnStr
	case OpTerm:
		return opTermStr
	case OpReap:
		return opReapStr
	case OpWatch:
		return opWatchStr
	default:
		return opUnknownStr
	}
}

// WatchCleanupFunc stops a directory watch and releases its resources
type WatchCleanupFunc func() error
