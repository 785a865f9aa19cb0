// Package daemon runs the long-lived widgetfreeze instance: it feeds hook
// events to the freeze engine and serves the control channel.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/ipc"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/logging"
)

// Engine is the freeze engine as seen by the runner.
type Engine interface {
	domain.FreezeEngine
	Recover(ctx context.Context) error
}

// JournalStore is the part of the journal the runner maintains on exit.
type JournalStore interface {
	Prune(keep int) (int64, error)
	Close() error
}

// RunnerConfig holds runner configuration.
type RunnerConfig struct {
	Version          string
	ShutdownTimeout  time.Duration // bound on waiting for pass-through checks at exit
	JournalRetention int           // transitions kept when pruning at exit
	StacktraceFile   string        // panics are appended here; empty disables
}

// DefaultRunnerConfig returns default runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		ShutdownTimeout:  5 * time.Second,
		JournalRetention: infra.DefaultJournalRetention,
	}
}

// Runner owns the instance lifecycle.
// Hook callbacks only post a signal; evaluation runs on one consumer
// goroutine so the settle wait never holds up the hook thread.
type Runner struct {
	config  RunnerConfig
	hooks   domain.HookSource
	engine  Engine
	journal JournalStore
	logger  *zap.Logger

	signals   chan struct{}
	exit      chan struct{}
	exitOnce  sync.Once
	startedAt time.Time
}

// NewRunner creates a runner. journal may be nil.
func NewRunner(
	config RunnerConfig,
	hooks domain.HookSource,
	engine Engine,
	journal JournalStore,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		config:  config,
		hooks:   hooks,
		engine:  engine,
		journal: journal,
		logger:  logger,
		signals: make(chan struct{}, 1),
		exit:    make(chan struct{}),
	}
}

// Run installs the hooks and blocks until ctx is canceled or an exit is
// requested, then tears everything down. listener may be nil.
func (r *Runner) Run(ctx context.Context, listener net.Listener) error {
	r.startedAt = time.Now()

	if err := r.engine.Recover(ctx); err != nil {
		r.logger.Warn("Crash recovery failed", zap.Error(err))
	}

	r.hooks.OnForegroundChanged(r.signalForeground)
	r.hooks.OnMouseEvent(r.engine.HandleMouse)
	if err := r.hooks.Start(); err != nil {
		if listener != nil {
			listener.Close()
		}
		r.shutdownEngine()
		r.closeJournal()
		return fmt.Errorf("failed to install hooks: %w", err)
	}

	evalCtx, cancelEval := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	go r.consume(evalCtx, consumerDone)

	// Decide once for whatever is in front right now.
	r.signalForeground()

	var server *ipc.Server
	serverDone := make(chan struct{})
	if listener != nil {
		server = ipc.NewServer(listener, r, r.logger)
		go func() {
			defer close(serverDone)
			if err := server.Serve(evalCtx); err != nil {
				r.logger.Error("Control server stopped", zap.Error(err))
			}
		}()
	} else {
		close(serverDone)
	}

	status := r.engine.Status()
	r.logger.Info("widgetfreeze started",
		zap.String("policy", string(status.Policy)),
		zap.String("mode", string(status.Mode)),
		zap.String("target", status.TargetName),
		zap.String("version", r.config.Version))

	select {
	case <-ctx.Done():
		r.logger.Info("Shutdown signal received")
	case <-r.exit:
		r.logger.Info("Exit requested")
	}

	// No new events, no evaluation and no control requests before the
	// target is restored.
	if err := r.hooks.Stop(); err != nil {
		r.logger.Warn("Failed to remove hooks", zap.Error(err))
	}
	cancelEval()
	<-consumerDone
	if server != nil {
		if err := server.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			r.logger.Debug("Control server close", zap.Error(err))
		}
	}
	<-serverDone
	r.shutdownEngine()
	r.closeJournal()

	r.logger.Info("widgetfreeze stopped")
	return nil
}

// RequestExit asks Run to return. Safe to call more than once.
func (r *Runner) RequestExit() {
	r.exitOnce.Do(func() { close(r.exit) })
}

// Status returns the engine status with hook health and uptime details.
func (r *Runner) Status() domain.Status {
	status := r.engine.Status()
	status.Hooks = r.hooks.Health()
	status.StartedAt = r.startedAt
	status.Version = r.config.Version
	return status
}

// SetPolicy switches the freeze policy.
func (r *Runner) SetPolicy(ctx context.Context, p domain.FreezePolicy) error {
	return r.engine.SetPolicy(ctx, p)
}

// SetMode switches the freeze mode.
func (r *Runner) SetMode(ctx context.Context, m domain.FreezeMode) error {
	return r.engine.SetMode(ctx, m)
}

// signalForeground posts a pending evaluation; bursts collapse into one.
func (r *Runner) signalForeground() {
	select {
	case r.signals <- struct{}{}:
	default:
	}
}

func (r *Runner) consume(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.signals:
			r.evaluate(ctx)
		}
	}
}

func (r *Runner) evaluate(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic during foreground evaluation",
				zap.Any("panic", rec),
				zap.Stack("stack"))
			if r.config.StacktraceFile != "" {
				if err := logging.WriteStacktrace(r.config.StacktraceFile, rec); err != nil {
					r.logger.Warn("Failed to write stacktrace", zap.Error(err))
				}
			}
		}
	}()
	r.engine.Evaluate(ctx, domain.ReasonForeground)
}

func (r *Runner) shutdownEngine() {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
	defer cancel()
	r.engine.Shutdown(ctx)
}

func (r *Runner) closeJournal() {
	if r.journal == nil {
		return
	}
	if r.config.JournalRetention > 0 {
		removed, err := r.journal.Prune(r.config.JournalRetention)
		if err != nil {
			r.logger.Warn("Failed to prune journal", zap.Error(err))
		} else if removed > 0 {
			r.logger.Debug("Pruned journal", zap.Int64("removed", removed))
		}
	}
	if err := r.journal.Close(); err != nil {
		r.logger.Warn("Failed to close journal", zap.Error(err))
	}
}
