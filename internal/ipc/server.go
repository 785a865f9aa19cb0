package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// requestTimeout bounds one request/response exchange.
const requestTimeout = 30 * time.Second

// Handler executes control requests against the running instance.
type Handler interface {
	Status() domain.Status
	SetPolicy(ctx context.Context, p domain.FreezePolicy) error
	SetMode(ctx context.Context, m domain.FreezeMode) error
	RequestExit()
}

// Server accepts control connections and dispatches them to a Handler.
type Server struct {
	listener net.Listener
	handler  Handler
	logger   *zap.Logger

	mu     sync.Mutex
	conns  map[*Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a server on an already bound listener.
func NewServer(listener net.Listener, handler Handler, logger *zap.Logger) *Server {
	return &Server{
		listener: listener,
		handler:  handler,
		logger:   logger,
		conns:    make(map[*Conn]struct{}),
	}
}

// Serve accepts connections until Close is called.
func (s *Server) Serve(ctx context.Context) error {
	for {
		raw, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept control connection: %w", err)
		}

		conn := NewConn(raw)
		if !s.track(conn) {
			conn.Close()
			return nil
		}
		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}
}

// Close stops accepting, closes open connections and waits for handlers.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) serveConn(ctx context.Context, conn *Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	for {
		conn.SetDeadline(time.Now().Add(requestTimeout))
		env, err := conn.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("Control connection ended", zap.Error(err))
			}
			return
		}

		result, err := s.dispatch(ctx, env)
		if err != nil {
			s.logger.Info("Control request failed",
				zap.String("type", env.Type),
				zap.String("id", env.ID),
				zap.Error(err))
			if sendErr := conn.SendError(env.ID, TypeResult, err.Error()); sendErr != nil {
				return
			}
			continue
		}
		if err := conn.SendTyped(env.ID, TypeResult, result); err != nil {
			s.logger.Debug("Failed to send control response", zap.Error(err))
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, env *Envelope) (any, error) {
	s.logger.Debug("Control request",
		zap.String("type", env.Type),
		zap.String("id", env.ID))

	switch env.Type {
	case TypeStatus:
		return s.handler.Status(), nil

	case TypeSetPolicy:
		var req SetPolicyRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return nil, fmt.Errorf("invalid set_policy payload: %w", err)
		}
		p, err := domain.ParsePolicy(req.Policy)
		if err != nil {
			return nil, err
		}
		if err := s.handler.SetPolicy(ctx, p); err != nil {
			return nil, err
		}
		return s.handler.Status(), nil

	case TypeSetMode:
		var req SetModeRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return nil, fmt.Errorf("invalid set_mode payload: %w", err)
		}
		m, err := domain.ParseMode(req.Mode)
		if err != nil {
			return nil, err
		}
		if err := s.handler.SetMode(ctx, m); err != nil {
			return nil, err
		}
		return s.handler.Status(), nil

	case TypeExit:
		s.handler.RequestExit()
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown request type %q", env.Type)
	}
}
