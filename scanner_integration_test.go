//go:build linux || darwin

package svscan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// buildSleeper creates a service whose run script sleeps long enough to
// survive the test unless terminated
func buildSleeper(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, NewServiceDirBuilder(name, dir).
		WithCmd([]string{"sleep", "60"}).
		WithEnv("SVC", name).
		Build())
}

func newIntegrationScanner(t *testing.T, dir string) *Scanner {
	t.Helper()
	scanner, err := NewScanner(dir, WithLogger(quietLogger()))
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = scanner.Shutdown(ctx)
	})
	return scanner
}

func TestIntegrationSpawnAndRetire(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	buildSleeper(t, dir, "sleeper")

	scanner := newIntegrationScanner(t, dir)
	ctx := context.Background()

	require.NoError(t, scanner.Scan(ctx))
	require.Len(t, scanner.Running(), 1)

	// Removing the definition makes the identity stale: a pass signals the
	// child and a later pass reaps it.
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "sleeper")))
	require.Eventually(t, func() bool {
		return scanner.Scan(ctx) == nil && len(scanner.Running()) == 0
	}, 10*time.Second, 50*time.Millisecond, "stale child was never reaped")
}

func TestIntegrationContentChangeRetiresOldProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	buildSleeper(t, dir, "svc")

	scanner := newIntegrationScanner(t, dir)
	ctx := context.Background()

	require.NoError(t, scanner.Scan(ctx))
	require.Len(t, scanner.Running(), 1)
	oldFP := scanner.Running()[0]

	// Rewrite the script: same path, new content, new identity.
	require.NoError(t, NewServiceDirBuilder("svc", dir).
		WithCmd([]string{"sleep", "120"}).
		Build())

	require.Eventually(t, func() bool {
		if scanner.Scan(ctx) != nil {
			return false
		}
		running := scanner.Running()
		return len(running) == 1 && !running[0].Equal(oldFP)
	}, 10*time.Second, 50*time.Millisecond, "old identity still tracked")
}

func TestIntegrationSelfExitIsReaped(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	require.NoError(t, NewServiceDirBuilder("oneshot", dir).
		WithCmd([]string{"true"}).
		Build())

	scanner := newIntegrationScanner(t, dir)
	ctx := context.Background()

	require.NoError(t, scanner.Scan(ctx))
	require.Len(t, scanner.Running(), 1)

	// The child exits immediately; a later pass must reap it (the pass
	// after that would respawn, so just observe one empty state).
	require.Eventually(t, func() bool {
		return scanner.Scan(ctx) == nil && len(scanner.Running()) == 0
	}, 10*time.Second, 50*time.Millisecond, "exited child was never reaped")
}

func TestIntegrationShutdown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	buildSleeper(t, dir, "a")
	buildSleeper(t, dir, "b")

	scanner := newIntegrationScanner(t, dir)
	require.NoError(t, scanner.Scan(context.Background()))
	require.Len(t, scanner.Running(), 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, scanner.Shutdown(ctx))
	require.Empty(t, scanner.Running())
}

func TestIntegrationTerminateAndTryWait(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	builder := NewServiceDirBuilder("sleeper", dir).WithCmd([]string{"sleep", "60"})
	require.NoError(t, builder.Build())

	proc, err := Spawn(builder.RunScriptPath())
	require.NoError(t, err)
	require.Greater(t, proc.PID(), 0)

	_, exited, err := proc.TryWait()
	require.NoError(t, err)
	require.False(t, exited, "freshly spawned child reported as exited")

	require.NoError(t, proc.Terminate())

	var status ExitStatus
	require.Eventually(t, func() bool {
		st, done, err := proc.TryWait()
		if err != nil || !done {
			return false
		}
		status = st
		return true
	}, 10*time.Second, 20*time.Millisecond, "terminated child was never reaped")

	require.Equal(t, "terminated", status.Signal)
}

func TestIntegrationExitCode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dir := t.TempDir()
	builder := NewServiceDirBuilder("failing", dir).WithCmd([]string{"sh", "-c", "exit 3"})
	require.NoError(t, builder.Build())

	proc, err := Spawn(builder.RunScriptPath())
	require.NoError(t, err)

	var status ExitStatus
	require.Eventually(t, func() bool {
		st, done, err := proc.TryWait()
		if err != nil || !done {
			return false
		}
		status = st
		return true
	}, 10*time.Second, 20*time.Millisecond)

	require.Equal(t, 3, status.Code)
	require.Empty(t, status.Signal)
	require.Equal(t, "exit status 3", status.String())
}
