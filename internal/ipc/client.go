package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// ErrNotRunning is returned when no instance serves the control channel.
var ErrNotRunning = errors.New("widgetfreeze is not running")

// Client sends control requests to a running instance.
type Client struct {
	address string
}

// NewClient creates a client for the control channel at address.
func NewClient(address string) *Client {
	return &Client{address: address}
}

// Status returns the running instance's status.
func (c *Client) Status(ctx context.Context) (domain.Status, error) {
	var status domain.Status
	err := c.call(ctx, TypeStatus, nil, &status)
	return status, err
}

// SetPolicy switches the running instance's policy and returns its new status.
func (c *Client) SetPolicy(ctx context.Context, p domain.FreezePolicy) (domain.Status, error) {
	var status domain.Status
	err := c.call(ctx, TypeSetPolicy, SetPolicyRequest{Policy: string(p)}, &status)
	return status, err
}

// SetMode switches the running instance's mode and returns its new status.
func (c *Client) SetMode(ctx context.Context, m domain.FreezeMode) (domain.Status, error) {
	var status domain.Status
	err := c.call(ctx, TypeSetMode, SetModeRequest{Mode: string(m)}, &status)
	return status, err
}

// Exit asks the running instance to shut down. The instance may close the
// channel before its reply arrives; that counts as success.
func (c *Client) Exit(ctx context.Context) error {
	err := c.call(ctx, TypeExit, nil, nil)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return err
}

func (c *Client) call(ctx context.Context, msgType string, payload, out any) error {
	raw, err := Dial(ctx, c.address)
	if err != nil {
		return err
	}
	conn := NewConn(raw)
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	id := uuid.NewString()
	if err := conn.SendTyped(id, msgType, payload); err != nil {
		return err
	}
	resp, err := conn.Recv()
	if err != nil {
		return err
	}
	if resp.ID != id {
		return fmt.Errorf("ipc: response id %s does not match request %s", resp.ID, id)
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	if out != nil && len(resp.Payload) > 0 && string(resp.Payload) != "null" {
		if err := json.Unmarshal(resp.Payload, out); err != nil {
			return fmt.Errorf("ipc: unmarshal %s response: %w", msgType, err)
		}
	}
	return nil
}
