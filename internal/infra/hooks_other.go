//go:build !windows

package infra

import (
	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// Start fails: global window hooks exist only on Windows.
func (m *HookManager) Start() error {
	return domain.ErrUnsupportedPlatform
}

func (m *HookManager) Stop() error {
	return nil
}
