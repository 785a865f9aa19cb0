package policy

import (
	"context"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// FullScreenRule freezes while the foreground window exactly covers its monitor.
type FullScreenRule struct{}

// NewFullScreenRule creates the full-screen rule.
func NewFullScreenRule() *FullScreenRule {
	return &FullScreenRule{}
}

func (r *FullScreenRule) ID() domain.FreezePolicy {
	return domain.PolicyFullScreen
}

func (r *FullScreenRule) Name() string {
	return "When in full-screen mode"
}

func (r *FullScreenRule) ShouldFreeze(ctx context.Context, fg domain.WindowHandle, c domain.ForegroundClassifier) bool {
	return c.IsFullScreen(fg)
}

func (r *FullScreenRule) AllowsPassThrough() bool {
	return false
}

// Ensure FullScreenRule implements FreezeRule.
var _ FreezeRule = (*FullScreenRule)(nil)
