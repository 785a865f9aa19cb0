//go:build windows

package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"
	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// SDDL: SYSTEM gets full control, Interactive Users get read/write.
const pipeSecurity = "D:P(A;;GA;;;SY)(A;;GRGW;;;IU)"

// DefaultAddress returns the control pipe name of the caller's session.
func DefaultAddress(dataDir string) string {
	var session uint32 // stays 0 if the lookup fails
	_ = windows.ProcessIdToSessionId(windows.GetCurrentProcessId(), &session)
	return pipeName(session)
}

// Listen binds the control pipe. It fails with domain.ErrInstanceRunning
// when another instance already serves it.
func Listen(address string) (net.Listener, error) {
	if probe, err := dialPipe(context.Background(), address, 200*time.Millisecond); err == nil {
		probe.Close()
		return nil, domain.ErrInstanceRunning
	}

	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurity,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	}
	listener, err := winio.ListenPipe(address, cfg)
	if err != nil {
		// A second first-instance listener fails with access denied.
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
			return nil, domain.ErrInstanceRunning
		}
		return nil, fmt.Errorf("listen pipe %s: %w", address, err)
	}
	return listener, nil
}

// Dial connects to the control pipe.
func Dial(ctx context.Context, address string) (net.Conn, error) {
	conn, err := dialPipe(ctx, address, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial pipe %s: %w (%w)", address, ErrNotRunning, err)
	}
	return conn, nil
}

func dialPipe(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return winio.DialPipeContext(ctx, address)
}
