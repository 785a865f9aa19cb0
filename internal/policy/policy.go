// Package policy implements the Strategy pattern for freeze rules.
// Each FreezePolicy has its own rule deciding whether a foreground window
// warrants freezing the target process.
package policy

import (
	"context"
	"time"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// DefaultSettleDelay gives a window time to finish maximizing before it is inspected.
const DefaultSettleDelay = 100 * time.Millisecond

// FreezeRule defines the strategy interface for one freeze policy.
type FreezeRule interface {
	// ID returns the policy this rule implements.
	ID() domain.FreezePolicy

	// Name returns human-readable name for display.
	Name() string

	// ShouldFreeze decides for a foreground window that passed the exclusions.
	ShouldFreeze(ctx context.Context, fg domain.WindowHandle, c domain.ForegroundClassifier) bool

	// AllowsPassThrough reports whether clicks on the target may unfreeze it.
	AllowsPassThrough() bool
}

// Excluded reports whether fg must never cause a freeze: the desktop and
// shell windows, non-interactive shell classes, and windows owned by the
// target itself.
func Excluded(fg domain.WindowHandle, c domain.ForegroundClassifier, targetName string) bool {
	if c.IsDesktopOrShell(fg) {
		return true
	}
	if c.IsShellClass(c.WindowClassName(fg)) {
		return true
	}
	return domain.ProcessNameMatches(c.OwningProcessName(fg), targetName)
}
