package usecase

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// HandleMouse reacts to a mouse button or wheel event. It runs on the hook
// thread, so the hit test is handed to a short-lived worker.
func (e *Engine) HandleMouse(pt domain.Point) {
	if !e.armed.Load() {
		return
	}

	e.workerMu.Lock()
	defer e.workerMu.Unlock()
	if e.closed {
		return
	}
	e.workers.Add(1)
	go e.passThrough(pt)
}

// passThrough unfreezes the target when a click lands on one of its
// windows while the foreground window is neither maximized nor full-screen.
func (e *Engine) passThrough(pt domain.Point) {
	defer e.workers.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Pass-through check panicked",
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	e.mu.Lock()
	pid := e.pid
	armed := e.frozen && e.allowsPassThroughLocked()
	e.mu.Unlock()
	if !armed || pid == 0 {
		return
	}

	fg := e.classifier.Foreground()
	if e.classifier.IsMaximized(fg) || e.classifier.IsFullScreen(fg) {
		return
	}
	if !e.classifier.TargetWindowHit(pid, pt) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.frozen || e.pid != pid || !e.allowsPassThroughLocked() {
		return
	}
	e.logger.Debug("Click landed on target window",
		zap.Int32("x", pt.X),
		zap.Int32("y", pt.Y))
	e.unfreezeLocked(domain.ReasonPassThrough)
}

// WaitPassThrough blocks until in-flight pass-through checks finish.
func (e *Engine) WaitPassThrough() {
	e.workers.Wait()
}
