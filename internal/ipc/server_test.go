package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// pipeListener hands out in-memory connections.
type pipeListener struct {
	conns chan net.Conn
	done  chan struct{}
	once  sync.Once
}

func newPipeListener() *pipeListener {
	return &pipeListener{conns: make(chan net.Conn), done: make(chan struct{})}
}

func (l *pipeListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *pipeListener) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}

func (l *pipeListener) Addr() net.Addr { return &net.UnixAddr{Name: "pipe", Net: "unix"} }

func (l *pipeListener) dial(t *testing.T) *Conn {
	t.Helper()
	client, server := net.Pipe()
	select {
	case l.conns <- server:
	case <-time.After(time.Second):
		t.Fatal("server did not accept connection")
	}
	t.Cleanup(func() { client.Close() })
	return NewConn(client)
}

type fakeHandler struct {
	mu         sync.Mutex
	status     domain.Status
	setErr     error
	exitCalled bool
}

func (h *fakeHandler) Status() domain.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *fakeHandler) SetPolicy(_ context.Context, p domain.FreezePolicy) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.setErr != nil {
		return h.setErr
	}
	h.status.Policy = p
	return nil
}

func (h *fakeHandler) SetMode(_ context.Context, m domain.FreezeMode) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.setErr != nil {
		return h.setErr
	}
	h.status.Mode = m
	return nil
}

func (h *fakeHandler) RequestExit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exitCalled = true
}

func startServer(t *testing.T, h Handler) *pipeListener {
	t.Helper()
	l := newPipeListener()
	srv := NewServer(l, h, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()
	t.Cleanup(func() {
		require.NoError(t, srv.Close())
		require.NoError(t, <-done)
	})
	return l
}

func roundTrip(t *testing.T, c *Conn, id, msgType string, payload any) *Envelope {
	t.Helper()
	require.NoError(t, c.SendTyped(id, msgType, payload))
	env, err := c.Recv()
	require.NoError(t, err)
	require.Equal(t, id, env.ID)
	return env
}

func TestServer_Status(t *testing.T) {
	h := &fakeHandler{status: domain.Status{
		Policy:     domain.PolicyMaximized,
		Mode:       domain.ModeSuspend,
		TargetName: "Rainmeter",
		TargetPID:  4242,
		Frozen:     true,
	}}
	c := startServer(t, h).dial(t)

	env := roundTrip(t, c, "1", TypeStatus, nil)
	require.Empty(t, env.Error)

	var status domain.Status
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	assert.Equal(t, domain.PolicyMaximized, status.Policy)
	assert.Equal(t, 4242, status.TargetPID)
	assert.True(t, status.Frozen)
}

func TestServer_SetPolicyReturnsUpdatedStatus(t *testing.T) {
	h := &fakeHandler{status: domain.Status{Policy: domain.PolicyMaximized}}
	c := startServer(t, h).dial(t)

	env := roundTrip(t, c, "2", TypeSetPolicy, SetPolicyRequest{Policy: "Full_Screen"})
	require.Empty(t, env.Error)

	var status domain.Status
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	assert.Equal(t, domain.PolicyFullScreen, status.Policy)
}

func TestServer_SetModeReturnsUpdatedStatus(t *testing.T) {
	h := &fakeHandler{status: domain.Status{Mode: domain.ModeSuspend}}
	c := startServer(t, h).dial(t)

	env := roundTrip(t, c, "3", TypeSetMode, SetModeRequest{Mode: "low_priority"})
	require.Empty(t, env.Error)

	var status domain.Status
	require.NoError(t, json.Unmarshal(env.Payload, &status))
	assert.Equal(t, domain.ModeLowPriority, status.Mode)
}

func TestServer_RejectsUnknownValues(t *testing.T) {
	h := &fakeHandler{status: domain.Status{Policy: domain.PolicyMaximized, Mode: domain.ModeSuspend}}
	c := startServer(t, h).dial(t)

	env := roundTrip(t, c, "4", TypeSetPolicy, SetPolicyRequest{Policy: "sometimes"})
	assert.NotEmpty(t, env.Error)

	env = roundTrip(t, c, "5", TypeSetMode, SetModeRequest{Mode: "hibernate"})
	assert.NotEmpty(t, env.Error)

	env = roundTrip(t, c, "6", "reboot", nil)
	assert.Contains(t, env.Error, "unknown request type")

	assert.Equal(t, domain.PolicyMaximized, h.Status().Policy)
	assert.Equal(t, domain.ModeSuspend, h.Status().Mode)
}

func TestServer_HandlerErrorIsReported(t *testing.T) {
	h := &fakeHandler{setErr: errors.New("save failed")}
	c := startServer(t, h).dial(t)

	env := roundTrip(t, c, "7", TypeSetPolicy, SetPolicyRequest{Policy: "not_on_desktop"})
	assert.Equal(t, "save failed", env.Error)
}

func TestServer_Exit(t *testing.T) {
	h := &fakeHandler{}
	c := startServer(t, h).dial(t)

	env := roundTrip(t, c, "8", TypeExit, nil)
	assert.Empty(t, env.Error)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.True(t, h.exitCalled)
}

func TestServer_CloseUnblocksIdleConnections(t *testing.T) {
	l := newPipeListener()
	srv := NewServer(l, &fakeHandler{}, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()

	_ = l.dial(t)

	closed := make(chan struct{})
	go func() {
		_ = srv.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return with an idle connection open")
	}
	require.NoError(t, <-done)
}
