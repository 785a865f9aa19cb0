package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Conn wraps a net.Conn with length-prefixed JSON framing.
type Conn struct {
	conn net.Conn
	mu   sync.Mutex // serializes writes
}

// NewConn wraps a raw connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// SetDeadline sets the deadline on the underlying connection.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// Send marshals an Envelope and writes it as [4-byte BE length][JSON].
func (c *Conn) Send(env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ipc: marshal envelope: %w", err)
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("ipc: message too large: %d > %d", len(data), MaxMessageSize)
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("ipc: write frame: %w", err)
	}
	return nil
}

// Recv reads one length-prefixed JSON message.
func (c *Conn) Recv() (*Envelope, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		return nil, fmt.Errorf("ipc: read header: %w", err)
	}

	length := binary.BigEndian.Uint32(header)
	if length > uint32(MaxMessageSize) {
		return nil, fmt.Errorf("ipc: message too large: %d > %d", length, MaxMessageSize)
	}
	if length == 0 {
		return nil, fmt.Errorf("ipc: zero-length message")
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(c.conn, data); err != nil {
		return nil, fmt.Errorf("ipc: read payload: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("ipc: unmarshal envelope: %w", err)
	}
	return &env, nil
}

// SendTyped wraps a typed payload into an Envelope and sends it.
func (c *Conn) SendTyped(id, msgType string, payload any) error {
	env := &Envelope{ID: id, Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("ipc: marshal payload: %w", err)
		}
		env.Payload = raw
	}
	return c.Send(env)
}

// SendError sends an error envelope.
func (c *Conn) SendError(id, msgType, errMsg string) error {
	return c.Send(&Envelope{ID: id, Type: msgType, Error: errMsg})
}
