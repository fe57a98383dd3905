//go:build e2e

package e2e

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startLoop launches the mirror loop in the background. The returned
// function sends SIGINT, waits for the process and returns its exit code.
func startLoop(t *testing.T, env *testEnv, args ...string) (stop func() int) {
	t.Helper()

	cmd := env.command(append(args, env.source, env.replica)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	require.NoError(t, cmd.Start())

	done := make(chan struct{})

	var waitErr error

	go func() {
		waitErr = cmd.Wait()
		close(done)
	}()

	t.Cleanup(func() {
		select {
		case <-done:
		default:
			cmd.Process.Kill()
			<-done
		}
	})

	return func() int {
		require.NoError(t, cmd.Process.Signal(syscall.SIGINT))

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Fatalf("dirmirror did not exit after SIGINT\nstderr: %s", stderr.String())
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return exitErr.ExitCode()
		}

		return 0
	}
}

func waitForFile(t *testing.T, path, content string) {
	t.Helper()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == content
	}, 10*time.Second, 50*time.Millisecond, "waiting for %s", path)
}

func waitForLog(t *testing.T, env *testEnv, msg string) {
	t.Helper()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(env.logFile)
		return err == nil && strings.Contains(string(data), msg)
	}, 10*time.Second, 50*time.Millisecond, "waiting for log %q", msg)
}

func TestE2E_LoopPicksUpChangesAndStopsOnSignal(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().Truncate(time.Second)

	env.write(t, env.source, "first.txt", "1", now.Add(-time.Hour))

	stop := startLoop(t, env, "--wait-time", "1")

	waitForFile(t, filepath.Join(env.replica, "first.txt"), "1")

	env.write(t, env.source, "later/second.txt", "2", now)
	waitForFile(t, filepath.Join(env.replica, "later", "second.txt"), "2")

	require.NoError(t, os.Remove(filepath.Join(env.source, "first.txt")))
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(env.replica, "first.txt"))
		return os.IsNotExist(err)
	}, 10*time.Second, 50*time.Millisecond)

	assert.Equal(t, 0, stop())

	log := env.logContents(t)
	assert.Contains(t, log, "synchronization process stopped")
	assert.Greater(t, strings.Count(log, "synchronization started"), 1)
}

func TestE2E_WatchTriggersEarlyPass(t *testing.T) {
	env := newTestEnv(t)

	stop := startLoop(t, env, "--watch", "--wait-time", "3600")

	waitForLog(t, env, "watching source for changes")
	waitForLog(t, env, "synchronization finished")

	env.write(t, env.source, "new.txt", "fresh", time.Now())
	waitForFile(t, filepath.Join(env.replica, "new.txt"), "fresh")

	assert.Equal(t, 0, stop())
}

func TestE2E_SecondProcessOnSameReplicaRefused(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, env.source, "f.txt", "x", time.Now().Add(-time.Hour))

	stop := startLoop(t, env, "--wait-time", "3600")
	waitForFile(t, filepath.Join(env.replica, "f.txt"), "x")

	_, stderr, code := env.run(t, "--once", env.source, env.replica)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already mirroring into this replica")

	assert.Equal(t, 0, stop())

	// Lock released: a fresh run succeeds.
	env.runOK(t, "--once", env.source, env.replica)
}
