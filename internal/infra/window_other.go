//go:build !windows

package infra

import (
	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// unsupportedWindowSystem answers every query with nothing.
type unsupportedWindowSystem struct{}

// NewWindowSystem creates the window system for the current platform.
func NewWindowSystem() domain.WindowSystem {
	return unsupportedWindowSystem{}
}

func (unsupportedWindowSystem) ForegroundWindow() domain.WindowHandle { return 0 }
func (unsupportedWindowSystem) TrayWindow() domain.WindowHandle       { return 0 }
func (unsupportedWindowSystem) DesktopWindow() domain.WindowHandle    { return 0 }
func (unsupportedWindowSystem) ShellWindow() domain.WindowHandle      { return 0 }

func (unsupportedWindowSystem) ClassName(h domain.WindowHandle, maxChars int) (string, error) {
	return "", domain.ErrUnsupportedPlatform
}

func (unsupportedWindowSystem) WindowProcessID(h domain.WindowHandle) (int, error) {
	return 0, domain.ErrUnsupportedPlatform
}

func (unsupportedWindowSystem) IsZoomed(h domain.WindowHandle) bool { return false }

func (unsupportedWindowSystem) WindowRect(h domain.WindowHandle) (domain.Rect, error) {
	return domain.Rect{}, domain.ErrUnsupportedPlatform
}

func (unsupportedWindowSystem) MonitorRect(h domain.WindowHandle) (domain.Rect, error) {
	return domain.Rect{}, domain.ErrUnsupportedPlatform
}

func (unsupportedWindowSystem) ProcessWindows(pid int) ([]domain.WindowHandle, error) {
	return nil, domain.ErrUnsupportedPlatform
}
