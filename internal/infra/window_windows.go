//go:build windows

package infra

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

var (
	modUser32                    = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow      = modUser32.NewProc("GetForegroundWindow")
	procFindWindowW              = modUser32.NewProc("FindWindowW")
	procGetDesktopWindow         = modUser32.NewProc("GetDesktopWindow")
	procGetShellWindow           = modUser32.NewProc("GetShellWindow")
	procGetClassNameW            = modUser32.NewProc("GetClassNameW")
	procGetWindowThreadProcessId = modUser32.NewProc("GetWindowThreadProcessId")
	procIsZoomed                 = modUser32.NewProc("IsZoomed")
	procGetWindowRect            = modUser32.NewProc("GetWindowRect")
	procMonitorFromWindow        = modUser32.NewProc("MonitorFromWindow")
	procGetMonitorInfoW          = modUser32.NewProc("GetMonitorInfoW")
	procEnumThreadWindows        = modUser32.NewProc("EnumThreadWindows")
)

const monitorDefaultToNearest = 0x00000002

// MONITORINFO
type monitorInfo struct {
	CbSize    uint32
	RcMonitor domain.Rect
	RcWork    domain.Rect
	DwFlags   uint32
}

var enumThreadWindowsCB = windows.NewCallback(func(hwnd uintptr, lParam uintptr) uintptr {
	out := (*[]domain.WindowHandle)(unsafe.Pointer(lParam))
	*out = append(*out, domain.WindowHandle(hwnd))
	return 1
})

// Win32WindowSystem implements domain.WindowSystem with user32.
type Win32WindowSystem struct{}

// NewWindowSystem creates the window system for the current platform.
func NewWindowSystem() domain.WindowSystem {
	return &Win32WindowSystem{}
}

func (w *Win32WindowSystem) ForegroundWindow() domain.WindowHandle {
	r, _, _ := procGetForegroundWindow.Call()
	return domain.WindowHandle(r)
}

func (w *Win32WindowSystem) TrayWindow() domain.WindowHandle {
	class, err := windows.UTF16PtrFromString("Shell_TrayWnd")
	if err != nil {
		return 0
	}
	r, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(class)), 0)
	return domain.WindowHandle(r)
}

func (w *Win32WindowSystem) DesktopWindow() domain.WindowHandle {
	r, _, _ := procGetDesktopWindow.Call()
	return domain.WindowHandle(r)
}

func (w *Win32WindowSystem) ShellWindow() domain.WindowHandle {
	r, _, _ := procGetShellWindow.Call()
	return domain.WindowHandle(r)
}

func (w *Win32WindowSystem) ClassName(h domain.WindowHandle, maxChars int) (string, error) {
	buf := make([]uint16, maxChars)
	n, _, err := procGetClassNameW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return "", fmt.Errorf("GetClassNameW: %w", err)
	}
	return windows.UTF16ToString(buf[:n]), nil
}

func (w *Win32WindowSystem) WindowProcessID(h domain.WindowHandle) (int, error) {
	var pid uint32
	tid, _, err := procGetWindowThreadProcessId.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	if tid == 0 {
		return 0, fmt.Errorf("GetWindowThreadProcessId: %w", err)
	}
	return int(pid), nil
}

func (w *Win32WindowSystem) IsZoomed(h domain.WindowHandle) bool {
	r, _, _ := procIsZoomed.Call(uintptr(h))
	return r != 0
}

func (w *Win32WindowSystem) WindowRect(h domain.WindowHandle) (domain.Rect, error) {
	var r domain.Rect
	ok, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return domain.Rect{}, fmt.Errorf("GetWindowRect: %w", err)
	}
	return r, nil
}

func (w *Win32WindowSystem) MonitorRect(h domain.WindowHandle) (domain.Rect, error) {
	mon, _, err := procMonitorFromWindow.Call(uintptr(h), monitorDefaultToNearest)
	if mon == 0 {
		return domain.Rect{}, fmt.Errorf("MonitorFromWindow: %w", err)
	}
	info := monitorInfo{CbSize: uint32(unsafe.Sizeof(monitorInfo{}))}
	ok, _, err := procGetMonitorInfoW.Call(mon, uintptr(unsafe.Pointer(&info)))
	if ok == 0 {
		return domain.Rect{}, fmt.Errorf("GetMonitorInfoW: %w", err)
	}
	return info.RcMonitor, nil
}

func (w *Win32WindowSystem) ProcessWindows(pid int) ([]domain.WindowHandle, error) {
	tids, err := snapshotThreadIDs(pid)
	if err != nil {
		return nil, err
	}
	var handles []domain.WindowHandle
	for _, tid := range tids {
		procEnumThreadWindows.Call(uintptr(tid), enumThreadWindowsCB, uintptr(unsafe.Pointer(&handles)))
	}
	return handles, nil
}

// Ensure Win32WindowSystem implements domain.WindowSystem.
var _ domain.WindowSystem = (*Win32WindowSystem)(nil)
