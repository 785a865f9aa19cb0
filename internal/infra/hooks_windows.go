//go:build windows

package infra

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

var (
	procSetWinEventHook     = modUser32.NewProc("SetWinEventHook")
	procUnhookWinEvent      = modUser32.NewProc("UnhookWinEvent")
	procSetWindowsHookExW   = modUser32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = modUser32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = modUser32.NewProc("CallNextHookEx")
	procGetMessageW         = modUser32.NewProc("GetMessageW")
	procTranslateMessage    = modUser32.NewProc("TranslateMessage")
	procDispatchMessageW    = modUser32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = modUser32.NewProc("PostThreadMessageW")
)

const (
	winEventOutOfContext = 0x0000
	whMouseLL            = 14
)

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      domain.Point
}

// MSLLHOOKSTRUCT
type msllHookStruct struct {
	Pt          domain.Point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// Hook callbacks are process-wide; they dispatch to the active manager.
var (
	callbacksOnce sync.Once
	winEventCB    uintptr
	mouseCB       uintptr
)

func initCallbacks() {
	callbacksOnce.Do(func() {
		winEventCB = windows.NewCallback(winEventProc)
		mouseCB = windows.NewCallback(lowLevelMouseProc)
	})
}

func winEventProc(hook, event, hwnd, idObject, idChild, eventThread, eventTime uintptr) uintptr {
	m := activeHooks.Load()
	if m == nil {
		return 0
	}
	fg, _, _ := procGetForegroundWindow.Call()
	m.handleWinEvent(uint32(event), domain.WindowHandle(hwnd), int32(idObject), domain.WindowHandle(fg))
	return 0
}

func lowLevelMouseProc(nCode, wParam, lParam uintptr) uintptr {
	if m := activeHooks.Load(); m != nil && lParam != 0 {
		info := (*msllHookStruct)(unsafe.Pointer(lParam))
		m.handleMouse(int32(nCode), wParam, info.Pt)
	}
	r, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return r
}

// Start installs the hooks on a dedicated OS thread and returns once they
// are registered. Hooks that fail to register are reported by Health.
func (m *HookManager) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	if !activeHooks.CompareAndSwap(nil, m) {
		m.mu.Unlock()
		return fmt.Errorf("another hook manager is active: %w", domain.ErrAlreadyStarted)
	}
	m.started = true
	m.done = make(chan struct{})
	m.mu.Unlock()

	initCallbacks()

	ready := make(chan uint32)
	go m.run(ready)
	m.threadID = <-ready
	return nil
}

// Stop ends the message loop, which unhooks every handle, and waits for the
// hook thread to exit.
func (m *HookManager) Stop() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	done := m.done
	m.mu.Unlock()

	threadID := m.threadID
	return m.stopThread(func() error {
		if r, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0); r == 0 {
			return err
		}
		return nil
	}, done)
}

func (m *HookManager) run(ready chan<- uint32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(m.done)

	var health domain.HookHealth
	foreground := m.setWinEventHook(eventSystemForeground, "foreground")
	minimize := m.setWinEventHook(eventSystemMinimizeStart, "minimize")
	destroy := m.setWinEventHook(eventObjectDestroy, "destroy")
	mouse := m.setMouseHook()
	health.Foreground = foreground != 0
	health.Minimize = minimize != 0
	health.Destroy = destroy != 0
	health.Mouse = mouse != 0
	m.setHealth(health)

	ready <- windows.GetCurrentThreadId()

	var message msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&message)), 0, 0, 0)
		if int32(r) <= 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&message)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&message)))
	}

	// WinEvent hooks must be removed from the thread that installed them.
	m.unhook(procUnhookWinEvent, foreground, "foreground")
	m.unhook(procUnhookWinEvent, minimize, "minimize")
	m.unhook(procUnhookWinEvent, destroy, "destroy")
	m.unhook(procUnhookWindowsHookEx, mouse, "mouse")
	m.setHealth(domain.HookHealth{})
}

func (m *HookManager) setWinEventHook(event uint32, name string) uintptr {
	h, _, err := procSetWinEventHook.Call(
		uintptr(event), uintptr(event),
		0, winEventCB,
		0, 0,
		winEventOutOfContext,
	)
	if h == 0 {
		m.logger.Warn("Failed to install window event hook",
			zap.String("hook", name),
			zap.Error(err))
	}
	return h
}

func (m *HookManager) setMouseHook() uintptr {
	module, _, _ := procGetModuleHandleW.Call(0)
	h, _, err := procSetWindowsHookExW.Call(whMouseLL, mouseCB, module, 0)
	if h == 0 {
		m.logger.Warn("Failed to install mouse hook", zap.Error(err))
	}
	return h
}

func (m *HookManager) unhook(proc *windows.LazyProc, h uintptr, name string) {
	if h == 0 {
		return
	}
	if r, _, err := proc.Call(h); r == 0 {
		m.logger.Warn("Failed to remove hook",
			zap.String("hook", name),
			zap.Error(err))
	}
}
