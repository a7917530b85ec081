// Package svscan implements a minimal directory-driven process supervisor.
//
// A scan directory contains one subdirectory per service; each subdirectory
// holds an executable named "run". The Scanner keeps exactly one live child
// process per distinct (path, content) identity of that script:
//
//	scanner, err := svscan.NewScanner("/etc/svscan")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    if err := scanner.Scan(ctx); err != nil {
//	        slog.Error("scan pass failed", "err", err)
//	    }
//	    time.Sleep(time.Second)
//	}
//
// Each pass fingerprints every run script (SHA-256 over path, length, and
// content), spawns processes for identities that are not yet running, sends
// SIGTERM to processes whose definition disappeared or changed, and reaps
// exited children with a non-blocking wait so no zombies accumulate.
//
// # Failure isolation
//
// Only a failure to list the scan directory itself aborts a pass. An
// unreadable run script, a failed spawn, a failed signal, or a failed exit
// check is logged and isolated to its own entry; the affected service is
// skipped or retained and naturally retried on the next pass.
//
// # Design Philosophy
//
// This library prioritizes:
//
//   - Exclusive ownership of spawned children (no handle is dropped before
//     a confirmed reap)
//   - Non-blocking operation (a pass never waits for a process to exit)
//   - Per-entry failure isolation (one bad definition never blocks siblings)
//   - Testability (process handles are an interface, the spawner is a seam)
//
// The Scanner does not order services, restart with backoff, capture child
// output, or expose a remote control API. It supervises only the local
// processes it spawned itself.
package svscan
