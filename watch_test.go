//go:build linux || darwin

package svscan

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchNotifiesOnChange(t *testing.T) {
	dir := t.TempDir()

	scanner, err := NewScanner(dir,
		WithLogger(quietLogger()),
		WithSpawnFunc(newFakeSpawner().spawn),
		WithWatchDebounce(5*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed, cleanup, err := scanner.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}

	writeService(t, dir, "a", "#!/bin/sh\nexec sleep 60\n")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change notification")
	}

	if err := cleanup(); err != nil {
		t.Errorf("cleanup failed: %v", err)
	}
}

func TestWatchCoalescesBursts(t *testing.T) {
	dir := t.TempDir()

	scanner, err := NewScanner(dir,
		WithLogger(quietLogger()),
		WithSpawnFunc(newFakeSpawner().spawn),
		WithWatchDebounce(50*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed, cleanup, err := scanner.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cleanup() }()

	// A burst of definitions lands within one debounce window.
	for _, name := range []string{"a", "b", "c", "d"} {
		writeService(t, dir, name, "#!/bin/sh\nexec sleep "+name+"\n")
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for change notification")
	}

	// The channel holds at most one pending notification.
	time.Sleep(100 * time.Millisecond)
	select {
	case <-changed:
		// a second coalesced notification is acceptable
	default:
	}
	select {
	case <-changed:
		t.Error("burst produced more than one pending notification")
	default:
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")

	scanner, err := NewScanner(dir, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = scanner.Watch(context.Background())
	if err == nil {
		t.Fatal("expected error watching a missing directory")
	}
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Op != OpWatch {
		t.Errorf("err = %v, want *OpError with Op %v", err, OpWatch)
	}
}
