package policy

import (
	"context"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// NotOnDesktopRule freezes whenever a regular window has focus.
type NotOnDesktopRule struct{}

// NewNotOnDesktopRule creates the not-on-desktop rule.
func NewNotOnDesktopRule() *NotOnDesktopRule {
	return &NotOnDesktopRule{}
}

func (r *NotOnDesktopRule) ID() domain.FreezePolicy {
	return domain.PolicyNotOnDesktop
}

func (r *NotOnDesktopRule) Name() string {
	return "Not on desktop"
}

func (r *NotOnDesktopRule) ShouldFreeze(ctx context.Context, fg domain.WindowHandle, c domain.ForegroundClassifier) bool {
	return true
}

// AllowsPassThrough is true: widgets stay clickable through other windows.
func (r *NotOnDesktopRule) AllowsPassThrough() bool {
	return true
}

// Ensure NotOnDesktopRule implements FreezeRule.
var _ FreezeRule = (*NotOnDesktopRule)(nil)
