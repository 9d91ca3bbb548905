//go:build linux

package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
)

func TestScan_CancelKillsScannerProcess(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "child.pid")
	fakeIw := filepath.Join(dir, "iw")
	require.NoError(t, os.WriteFile(fakeIw,
		[]byte("#!/bin/sh\necho $$ > "+pidFile+"\nexec sleep 30\n"), 0o755))

	te := newTestEnv(t, "scanner:\n  iw_path: "+fakeIw+"\n  iwlist_path: "+filepath.Join(dir, "missing-iwlist")+"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := te.runContext(t, ctx, "scan", "wlan0", "--duration", "20")
		done <- err
	}()

	var pid int
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(pidFile)
		if err != nil {
			return false
		}
		pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
		return err == nil && pid > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		var failure *domain.ScanFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, domain.CauseCancelled, failure.Cause)
	case <-time.After(10 * time.Second):
		t.Fatal("scan did not return after cancellation")
	}

	assert.Eventually(t, func() bool {
		return errors.Is(syscall.Kill(pid, 0), syscall.ESRCH)
	}, 5*time.Second, 20*time.Millisecond, "scanner process %d still running", pid)
}
