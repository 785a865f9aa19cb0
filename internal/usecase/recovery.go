package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// Recover restores a target left frozen by a previous run that did not
// exit cleanly. The journal's newest row tells which PID and mode to undo.
func (e *Engine) Recover(ctx context.Context) error {
	if e.journal == nil {
		return nil
	}

	last, err := e.journal.Latest()
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if last == nil || last.Direction != domain.DirectionFreeze {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.processes.IsRunning(last.PID) {
		e.logger.Info("Previously frozen process is gone", zap.Int("pid", last.PID))
		return nil
	}
	image, err := e.processes.ImageName(last.PID)
	if err != nil || !domain.ProcessNameMatches(image, last.Target) {
		e.logger.Info("Previously frozen PID now belongs to another process", zap.Int("pid", last.PID))
		return nil
	}

	switch last.Mode {
	case domain.ModeLowPriority:
		err = e.controller.SetPriority(last.PID, domain.PriorityNormal)
	default:
		err = e.controller.Resume(last.PID)
	}
	if err != nil {
		return fmt.Errorf("failed to restore process %d: %w", last.PID, err)
	}

	e.logger.Warn("Restored target left frozen by previous run",
		zap.Int("pid", last.PID),
		zap.String("mode", string(last.Mode)),
		zap.Time("frozen_at", last.At))

	e.appendJournal(domain.Transition{
		At:        time.Now(),
		PID:       last.PID,
		Target:    last.Target,
		Mode:      last.Mode,
		Direction: domain.DirectionUnfreeze,
		Reason:    domain.ReasonRecovery,
	})
	return nil
}
