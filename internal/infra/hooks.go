package infra

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// Win32 event and message identifiers.
const (
	eventSystemForeground    = 0x0003
	eventSystemMinimizeStart = 0x0016
	eventObjectDestroy       = 0x8001
	objIDWindow              = 0
	wmMouseMove              = 0x0200
	wmQuit                   = 0x0012
)

// Posting WM_QUIT to the hook thread is retried this many times.
const (
	quitAttempts   = 3
	quitRetryDelay = 20 * time.Millisecond
)

// activeHooks is the manager the process-wide hook callbacks dispatch to.
var activeHooks atomic.Pointer[HookManager]

// HookManager implements domain.HookSource with global WinEvent and
// low-level mouse hooks serviced by one dedicated OS thread.
type HookManager struct {
	mu      sync.Mutex
	logger  *zap.Logger
	started bool
	health  domain.HookHealth

	foregroundListeners []func()
	mouseListeners      []func(domain.Point)

	// Owned by the hook thread.
	threadID uint32
	done     chan struct{}
}

// NewHookManager creates a hook manager. Listeners must be registered before Start.
func NewHookManager(logger *zap.Logger) *HookManager {
	return &HookManager{logger: logger}
}

func (m *HookManager) OnForegroundChanged(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foregroundListeners = append(m.foregroundListeners, fn)
}

func (m *HookManager) OnMouseEvent(fn func(domain.Point)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouseListeners = append(m.mouseListeners, fn)
}

func (m *HookManager) Health() domain.HookHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health
}

func (m *HookManager) setHealth(h domain.HookHealth) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health = h
}

// handleWinEvent turns a raw WinEvent into a foreground-changed signal:
// any foreground switch, the current foreground window starting to
// minimize, or the current foreground window being destroyed.
func (m *HookManager) handleWinEvent(event uint32, hwnd domain.WindowHandle, idObject int32, foreground domain.WindowHandle) {
	switch event {
	case eventSystemForeground:
	case eventSystemMinimizeStart:
		if hwnd != foreground {
			return
		}
	case eventObjectDestroy:
		if idObject != objIDWindow || hwnd != foreground {
			return
		}
	default:
		return
	}
	m.emitForeground()
}

// handleMouse forwards every mouse message except plain moves.
func (m *HookManager) handleMouse(nCode int32, msg uintptr, pt domain.Point) {
	if nCode < 0 || msg == wmMouseMove {
		return
	}
	m.mu.Lock()
	listeners := m.mouseListeners
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(pt)
	}
}

func (m *HookManager) emitForeground() {
	m.mu.Lock()
	listeners := m.foregroundListeners
	m.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// stopThread posts quit to the hook thread and waits for it to exit. The
// manager is released as the active one even when no post lands, so a
// later Start is not refused.
func (m *HookManager) stopThread(post func() error, done <-chan struct{}) error {
	defer activeHooks.CompareAndSwap(m, nil)

	var err error
	for i := 0; i < quitAttempts; i++ {
		if i > 0 {
			time.Sleep(quitRetryDelay)
		}
		if err = post(); err == nil {
			<-done
			return nil
		}
		m.logger.Warn("Failed to post quit to hook thread",
			zap.Int("attempt", i+1),
			zap.Error(err))
	}
	return fmt.Errorf("failed to post quit to hook thread: %w", err)
}

// Ensure HookManager implements domain.HookSource.
var _ domain.HookSource = (*HookManager)(nil)
