//go:build !windows

package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// DefaultAddress returns the control socket path inside dataDir.
func DefaultAddress(dataDir string) string {
	return filepath.Join(dataDir, "control.sock")
}

// Listen binds the control socket, replacing a stale one. It fails with
// domain.ErrInstanceRunning when another instance already serves it.
func Listen(address string) (net.Listener, error) {
	if probe, err := net.DialTimeout("unix", address, 200*time.Millisecond); err == nil {
		probe.Close()
		return nil, domain.ErrInstanceRunning
	}
	if err := os.Remove(address); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket %s: %w", address, err)
	}
	if err := os.MkdirAll(filepath.Dir(address), 0700); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", address)
	if err != nil {
		return nil, fmt.Errorf("listen unix %s: %w", address, err)
	}
	if err := os.Chmod(address, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return listener, nil
}

// Dial connects to the control socket.
func Dial(ctx context.Context, address string) (net.Conn, error) {
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "unix", address)
	if err != nil {
		return nil, fmt.Errorf("dial unix %s: %w (%w)", address, ErrNotRunning, err)
	}
	return conn, nil
}
