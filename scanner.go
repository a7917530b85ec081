package svscan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// Scanner reconciles a directory of service definitions against the set of
// child processes it has spawned. Each immediate subdirectory of the scan
// directory is expected to contain an executable named "run"; the Scanner
// keeps exactly one live process per distinct (path, content) identity of
// that script and retires processes whose definition disappeared or changed.
//
// The tracked map is private to the Scanner and only ever mutated from
// within a pass; one pass runs to completion before the next begins.
// Scanner is not safe for concurrent use.
type Scanner struct {
	dir           string
	log           *slog.Logger
	spawn         SpawnFunc
	watchDebounce time.Duration

	// running maps script digest to the live process spawned for it. The
	// Scanner exclusively owns every handle in it; an entry is removed
	// only after a confirmed reap.
	running map[Digest]*trackedProcess
}

// trackedProcess pairs a fingerprint with the process spawned for it
type trackedProcess struct {
	fp   Fingerprint
	proc ProcessHandle
}

// ScannerOption configures a Scanner
type ScannerOption func(*Scanner)

// WithLogger sets the logger used for per-entry diagnostics
func WithLogger(log *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.log = log
	}
}

// WithSpawnFunc replaces the process launcher, mainly for tests
func WithSpawnFunc(spawn SpawnFunc) ScannerOption {
	return func(s *Scanner) {
		s.spawn = spawn
	}
}

// WithWatchDebounce sets the debounce duration for directory watch events
func WithWatchDebounce(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		s.watchDebounce = d
	}
}

// NewScanner creates a Scanner for the given service directory. The
// directory is not required to exist yet; a missing directory surfaces as
// a pass-level error from Scan and is retried on the next pass.
func NewScanner(dir string, opts ...ScannerOption) (*Scanner, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving scan dir: %w", err)
	}

	s := &Scanner{
		dir:           abs,
		log:           slog.Default(),
		spawn:         Spawn,
		watchDebounce: DefaultWatchDebounce,
		running:       make(map[Digest]*trackedProcess),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Dir returns the canonical scan directory
func (s *Scanner) Dir() string {
	return s.dir
}

// Scan performs one reconciliation pass: fingerprint every service entry,
// spawn processes for identities not yet running, signal processes whose
// identity is no longer present, and reap exited children.
//
// Only a failure to list the scan directory itself is returned as an
// error, with the tracked state untouched. Every per-entry failure
// (unreadable script, failed spawn, failed signal, failed exit check) is
// logged and converted into a skip or retain decision so one bad service
// definition never blocks reconciliation of the others.
func (s *Scanner) Scan(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &OpError{Op: OpScan, Path: s.dir, Err: err}
	}

	desired := make(map[Digest]struct{}, len(entries))
	for _, entry := range entries {
		runPath := filepath.Join(s.dir, entry.Name(), RunScriptFile)

		fp, err := FingerprintFile(runPath)
		if err != nil {
			s.log.Error("skipping service entry", "path", runPath, "err", err)
			continue
		}

		if _, ok := s.running[fp.Digest()]; !ok {
			proc, err := s.spawn(runPath)
			if err != nil {
				// Not tracked and not desired: the next pass retries.
				s.log.Error("spawn failed", "service", fp, "err", err)
				continue
			}
			s.log.Info("spawned", "service", fp, "pid", proc.PID())
			s.running[fp.Digest()] = &trackedProcess{fp: fp, proc: proc}
		} else {
			s.log.Debug("already running", "service", fp)
		}
		desired[fp.Digest()] = struct{}{}
	}

	// Signal every stale process before polling any exit status, so a
	// retired child has had the chance to begin shutting down by the time
	// it is first reaped.
	for digest, tp := range s.running {
		if _, ok := desired[digest]; ok {
			continue
		}
		s.log.Info("stale", "service", tp.fp, "pid", tp.proc.PID())
		if err := tp.proc.Terminate(); err != nil {
			s.log.Error("terminate failed", "service", tp.fp, "err", err)
		}
	}

	for digest, tp := range s.running {
		status, exited, err := tp.proc.TryWait()
		switch {
		case err != nil:
			// Keep the entry: dropping it on a transient wait error
			// would lose track of a potentially live process.
			s.log.Error("exit check failed", "service", tp.fp, "err", err)
		case exited:
			s.log.Info("reaped", "service", tp.fp, "status", status)
			delete(s.running, digest)
		default:
			s.log.Debug("alive", "service", tp.fp, "pid", tp.proc.PID())
		}
	}

	return nil
}

// Running returns the fingerprints of all tracked processes, ordered by
// digest for stable iteration.
func (s *Scanner) Running() []Fingerprint {
	fps := make([]Fingerprint, 0, len(s.running))
	for _, tp := range s.running {
		fps = append(fps, tp.fp)
	}
	slices.SortFunc(fps, Fingerprint.Compare)
	return fps
}

// Shutdown asks every tracked process to terminate and reaps them as they
// exit, polling until all have been collected or ctx expires. Entries that
// could not be reaped in time stay tracked, so a later Scan or Shutdown
// picks them up again.
func (s *Scanner) Shutdown(ctx context.Context) error {
	merr := &MultiError{}
	for _, tp := range s.running {
		s.log.Info("terminating", "service", tp.fp, "pid", tp.proc.PID())
		if err := tp.proc.Terminate(); err != nil {
			s.log.Error("terminate failed", "service", tp.fp, "err", err)
			merr.Add(err)
		}
	}

	ticker := time.NewTicker(ShutdownPollInterval)
	defer ticker.Stop()

	for len(s.running) > 0 {
		for digest, tp := range s.running {
			status, exited, err := tp.proc.TryWait()
			switch {
			case err != nil:
				s.log.Error("exit check failed", "service", tp.fp, "err", err)
			case exited:
				s.log.Info("reaped", "service", tp.fp, "status", status)
				delete(s.running, digest)
			}
		}
		if len(s.running) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			merr.Add(ctx.Err())
			return merr.Err()
		case <-ticker.C:
		}
	}

	return merr.Err()
}
