package infra

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

func newCountingHookManager() (*HookManager, *int, *[]domain.Point) {
	m := NewHookManager(zap.NewNop())
	fired := 0
	var points []domain.Point
	m.OnForegroundChanged(func() { fired++ })
	m.OnMouseEvent(func(pt domain.Point) { points = append(points, pt) })
	return m, &fired, &points
}

// TestHookManager_ForegroundTrigger verifies the exact set of events that re-evaluate
func TestHookManager_ForegroundTrigger(t *testing.T) {
	const fg, other domain.WindowHandle = 100, 200

	tests := []struct {
		name     string
		event    uint32
		hwnd     domain.WindowHandle
		idObject int32
		want     bool
	}{
		{"foreground switch", eventSystemForeground, other, objIDWindow, true},
		{"foreground window minimizing", eventSystemMinimizeStart, fg, objIDWindow, true},
		{"background window minimizing", eventSystemMinimizeStart, other, objIDWindow, false},
		{"foreground window destroyed", eventObjectDestroy, fg, objIDWindow, true},
		{"foreground child object destroyed", eventObjectDestroy, fg, -4, false},
		{"background window destroyed", eventObjectDestroy, other, objIDWindow, false},
		{"unrelated event", 0x800B, fg, objIDWindow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fired, _ := newCountingHookManager()
			m.handleWinEvent(tt.event, tt.hwnd, tt.idObject, fg)
			assert.Equal(t, tt.want, *fired == 1)
		})
	}
}

// TestHookManager_MouseFilter verifies moves and negative codes are dropped
func TestHookManager_MouseFilter(t *testing.T) {
	m, _, points := newCountingHookManager()
	pt := domain.Point{X: 5, Y: 6}

	m.handleMouse(0, wmMouseMove, pt)
	m.handleMouse(-1, 0x0201, pt)
	assert.Empty(t, *points)

	m.handleMouse(0, 0x0201, pt) // WM_LBUTTONDOWN
	m.handleMouse(0, 0x020A, pt) // WM_MOUSEWHEEL
	assert.Equal(t, []domain.Point{pt, pt}, *points)
}

// TestHookManager_HealthStartsEmpty verifies nothing is reported before Start
func TestHookManager_HealthStartsEmpty(t *testing.T) {
	m := NewHookManager(zap.NewNop())
	assert.False(t, m.Health().Installed())
}

// TestHookManager_StopThreadRetriesQuit verifies a failed post is retried
// before waiting for the hook thread
func TestHookManager_StopThreadRetriesQuit(t *testing.T) {
	m := NewHookManager(zap.NewNop())
	require.True(t, activeHooks.CompareAndSwap(nil, m))
	t.Cleanup(func() { activeHooks.CompareAndSwap(m, nil) })

	done := make(chan struct{})
	posts := 0
	err := m.stopThread(func() error {
		posts++
		if posts < 2 {
			return errors.New("queue full")
		}
		close(done)
		return nil
	}, done)

	require.NoError(t, err)
	assert.Equal(t, 2, posts)
	assert.Nil(t, activeHooks.Load())
}

// TestHookManager_StopThreadReleasesOnFailure verifies a hook thread that
// cannot be reached does not block the next Start
func TestHookManager_StopThreadReleasesOnFailure(t *testing.T) {
	m := NewHookManager(zap.NewNop())
	require.True(t, activeHooks.CompareAndSwap(nil, m))
	t.Cleanup(func() { activeHooks.CompareAndSwap(m, nil) })

	posts := 0
	err := m.stopThread(func() error {
		posts++
		return errors.New("invalid thread id")
	}, make(chan struct{}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid thread id")
	assert.Equal(t, quitAttempts, posts)

	next := NewHookManager(zap.NewNop())
	assert.True(t, activeHooks.CompareAndSwap(nil, next))
	activeHooks.CompareAndSwap(next, nil)
}
