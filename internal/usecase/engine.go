// Package usecase contains application business logic.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/policy"
)

// Engine implements domain.FreezeEngine.
//
// One mutex guards the target PID, the frozen flag and the settings, so
// every decision and every policy or mode switch is applied as one step.
type Engine struct {
	mu             sync.Mutex
	settings       domain.Settings
	pid            int
	frozen         bool
	frozenPID      int
	lastTransition time.Time
	listeners      []func(domain.Settings)

	processes  domain.ProcessManager
	controller domain.ProcessController
	classifier domain.ForegroundClassifier
	rules      *policy.Registry
	store      domain.ConfigStore
	journal    domain.Journal
	logger     *zap.Logger

	// armed mirrors "frozen under a pass-through policy" for the hook thread.
	armed    atomic.Bool
	workerMu sync.Mutex
	closed   bool
	workers  sync.WaitGroup
}

// NewEngine creates a freeze engine. store and journal may be nil.
func NewEngine(
	settings domain.Settings,
	pm domain.ProcessManager,
	pc domain.ProcessController,
	classifier domain.ForegroundClassifier,
	rules *policy.Registry,
	store domain.ConfigStore,
	journal domain.Journal,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		settings:   settings,
		processes:  pm,
		controller: pc,
		classifier: classifier,
		rules:      rules,
		store:      store,
		journal:    journal,
		logger:     logger,
	}
}

// OnSettingsChanged registers a listener called after every policy or mode
// change. Listeners run under the engine lock and must not call back into it.
func (e *Engine) OnSettingsChanged(fn func(domain.Settings)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Evaluate re-decides the frozen state for the current foreground window.
func (e *Engine) Evaluate(ctx context.Context, reason domain.Reason) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evaluateLocked(ctx, reason)
}

// SetPolicy unfreezes the target, switches the policy, persists it and
// re-evaluates.
func (e *Engine) SetPolicy(ctx context.Context, p domain.FreezePolicy) error {
	if _, err := e.rules.Lookup(p); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.resolveTargetLocked() {
		e.unfreezeLocked(domain.ReasonPolicyChange)
	}
	old := e.settings.Policy
	e.settings.Policy = p
	e.updateArmedLocked()

	e.logger.Info("Freeze policy changed",
		zap.String("from", string(old)),
		zap.String("to", string(p)))

	e.notifyLocked()
	err := e.saveLocked()
	e.evaluateLocked(ctx, domain.ReasonPolicyChange)
	return err
}

// SetMode unfreezes the target with the old mode, switches the mode,
// persists it and re-evaluates.
func (e *Engine) SetMode(ctx context.Context, m domain.FreezeMode) error {
	if _, err := domain.ParseMode(string(m)); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.resolveTargetLocked() {
		e.unfreezeLocked(domain.ReasonModeChange)
	}
	old := e.settings.Mode
	e.settings.Mode = m

	e.logger.Info("Freeze mode changed",
		zap.String("from", string(old)),
		zap.String("to", string(m)))

	e.notifyLocked()
	err := e.saveLocked()
	e.evaluateLocked(ctx, domain.ReasonModeChange)
	return err
}

// Shutdown waits for in-flight pass-through checks until ctx is done, then
// restores the target if it is frozen: threads resumed and priority back
// to normal. A check still running after that finds the target thawed.
func (e *Engine) Shutdown(ctx context.Context) {
	e.workerMu.Lock()
	e.closed = true
	e.workerMu.Unlock()

	done := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("Pass-through checks still running at exit", zap.Error(ctx.Err()))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.frozen {
		return
	}
	// A restarted target clears the frozen flag during resolution.
	if !e.resolveTargetLocked() || !e.frozen {
		return
	}

	pid := e.pid
	if err := e.controller.Resume(pid); err != nil && !errors.Is(err, domain.ErrProcessNotFound) {
		e.logger.Warn("Failed to resume target on exit", zap.Int("pid", pid), zap.Error(err))
	}
	if err := e.controller.SetPriority(pid, domain.PriorityNormal); err != nil && !errors.Is(err, domain.ErrProcessNotFound) {
		e.logger.Warn("Failed to restore target priority on exit", zap.Int("pid", pid), zap.Error(err))
	}
	e.frozen = false
	e.frozenPID = 0
	e.recordLocked(domain.DirectionUnfreeze, domain.ReasonExit)
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() domain.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.Status{
		Policy:         e.settings.Policy,
		Mode:           e.settings.Mode,
		TargetName:     e.settings.TargetName,
		TargetPID:      e.pid,
		Frozen:         e.frozen,
		LastTransition: e.lastTransition,
	}
}

// Settings returns the active settings.
func (e *Engine) Settings() domain.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *Engine) evaluateLocked(ctx context.Context, reason domain.Reason) {
	if !e.resolveTargetLocked() {
		return
	}
	freeze := e.shouldFreezeLocked(ctx)
	if ctx.Err() != nil {
		return
	}
	if freeze {
		e.freezeLocked(reason)
	} else {
		e.unfreezeLocked(reason)
	}
}

func (e *Engine) shouldFreezeLocked(ctx context.Context) bool {
	fg := e.classifier.Foreground()
	if policy.Excluded(fg, e.classifier, e.settings.TargetName) {
		return false
	}
	rule, ok := e.rules.Get(e.settings.Policy)
	if !ok {
		e.logger.Warn("No rule for freeze policy", zap.String("policy", string(e.settings.Policy)))
		return false
	}
	return rule.ShouldFreeze(ctx, fg, e.classifier)
}

// resolveTargetLocked revalidates the cached PID, falling back to a lookup
// by name. It reports whether the target is running.
func (e *Engine) resolveTargetLocked() bool {
	name := e.settings.TargetName
	if e.pid != 0 {
		if e.processes.IsRunning(e.pid) {
			image, err := e.processes.ImageName(e.pid)
			if err == nil && domain.ProcessNameMatches(image, name) {
				return true
			}
		}
		e.logger.Info("Target process is gone", zap.Int("pid", e.pid))
		e.pid = 0
	}

	pids, err := e.processes.FindByName(name)
	if err != nil {
		e.logger.Warn("Failed to look up target process",
			zap.String("target", name),
			zap.Error(err))
		return false
	}
	if len(pids) == 0 {
		return false
	}

	e.pid = pids[0]
	if e.frozen && e.frozenPID != e.pid {
		// The frozen instance exited; its replacement was never frozen.
		e.frozen = false
		e.frozenPID = 0
		e.updateArmedLocked()
	}
	e.logger.Info("Target process located",
		zap.String("target", name),
		zap.Int("pid", e.pid))
	return true
}

func (e *Engine) freezeLocked(reason domain.Reason) {
	if e.frozen {
		return
	}

	var err error
	switch e.settings.Mode {
	case domain.ModeLowPriority:
		err = e.controller.SetPriority(e.pid, domain.PriorityBelowNormal)
	default:
		err = e.controller.Suspend(e.pid)
	}
	if err != nil {
		e.handleControlErrorLocked("freeze", err)
		return
	}

	e.frozen = true
	e.frozenPID = e.pid
	e.recordLocked(domain.DirectionFreeze, reason)
}

func (e *Engine) unfreezeLocked(reason domain.Reason) {
	if !e.frozen {
		return
	}

	var err error
	switch e.settings.Mode {
	case domain.ModeLowPriority:
		err = e.controller.SetPriority(e.pid, domain.PriorityNormal)
	default:
		err = e.controller.Resume(e.pid)
	}
	if err != nil {
		if errors.Is(err, domain.ErrProcessNotFound) {
			e.frozen = false
			e.frozenPID = 0
			e.updateArmedLocked()
		}
		e.handleControlErrorLocked("unfreeze", err)
		return
	}

	e.frozen = false
	e.frozenPID = 0
	e.recordLocked(domain.DirectionUnfreeze, reason)
}

func (e *Engine) handleControlErrorLocked(op string, err error) {
	if errors.Is(err, domain.ErrProcessNotFound) {
		e.logger.Debug("Target exited before "+op, zap.Int("pid", e.pid))
		e.pid = 0
		return
	}
	e.logger.Warn("Failed to "+op+" target",
		zap.Int("pid", e.pid),
		zap.String("mode", string(e.settings.Mode)),
		zap.Error(err))
}

func (e *Engine) recordLocked(dir domain.Direction, reason domain.Reason) {
	e.lastTransition = time.Now()
	e.updateArmedLocked()

	t := domain.Transition{
		At:        e.lastTransition,
		PID:       e.pid,
		Target:    e.settings.TargetName,
		Mode:      e.settings.Mode,
		Direction: dir,
		Reason:    reason,
	}
	msg := "Target frozen"
	if dir == domain.DirectionUnfreeze {
		msg = "Target unfrozen"
	}
	e.logger.Info(msg,
		zap.Int("pid", t.PID),
		zap.String("mode", string(t.Mode)),
		zap.String("reason", string(t.Reason)))
	e.appendJournal(t)
}

func (e *Engine) appendJournal(t domain.Transition) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(t); err != nil {
		e.logger.Warn("Failed to record transition", zap.Error(err))
	}
}

func (e *Engine) updateArmedLocked() {
	e.armed.Store(e.frozen && e.allowsPassThroughLocked())
}

func (e *Engine) allowsPassThroughLocked() bool {
	rule, ok := e.rules.Get(e.settings.Policy)
	return ok && rule.AllowsPassThrough()
}

func (e *Engine) notifyLocked() {
	for _, fn := range e.listeners {
		fn(e.settings)
	}
}

func (e *Engine) saveLocked() error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(e.settings); err != nil {
		e.logger.Warn("Failed to persist settings", zap.Error(err))
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// Ensure Engine implements domain.FreezeEngine.
var _ domain.FreezeEngine = (*Engine)(nil)
