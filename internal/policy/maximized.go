package policy

import (
	"context"
	"time"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// MaximizedRule freezes while the foreground window is maximized.
type MaximizedRule struct {
	settle time.Duration
}

// NewMaximizedRule creates the maximized rule with the default settle delay.
func NewMaximizedRule() *MaximizedRule {
	return &MaximizedRule{settle: DefaultSettleDelay}
}

// NewMaximizedRuleWithSettle creates a maximized rule with a custom settle delay (for testing).
func NewMaximizedRuleWithSettle(settle time.Duration) *MaximizedRule {
	return &MaximizedRule{settle: settle}
}

func (r *MaximizedRule) ID() domain.FreezePolicy {
	return domain.PolicyMaximized
}

func (r *MaximizedRule) Name() string {
	return "Foreground window is maximized"
}

// ShouldFreeze waits once for the maximize animation to settle, then checks
// the zoomed state. A cancelled context answers false.
func (r *MaximizedRule) ShouldFreeze(ctx context.Context, fg domain.WindowHandle, c domain.ForegroundClassifier) bool {
	if r.settle > 0 {
		timer := time.NewTimer(r.settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}
	}
	return c.IsMaximized(fg)
}

func (r *MaximizedRule) AllowsPassThrough() bool {
	return false
}

// SettleDelay returns the configured settle delay.
func (r *MaximizedRule) SettleDelay() time.Duration {
	return r.settle
}

// Ensure MaximizedRule implements FreezeRule.
var _ FreezeRule = (*MaximizedRule)(nil)
