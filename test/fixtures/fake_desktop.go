// Package fixtures provides in-memory stand-ins for the window manager and
// the process table, shared by unit and integration tests.
package fixtures

import (
	"fmt"
	"sync"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// Well-known handles registered by NewFakeDesktop.
const (
	TrayHandle    domain.WindowHandle = 1
	DesktopHandle domain.WindowHandle = 2
	ShellHandle   domain.WindowHandle = 3
)

// Monitors of a FakeDesktop. The secondary sits to the right of the primary.
var (
	PrimaryMonitor   = domain.Rect{Left: 0, Top: 0, Right: 1920, Bottom: 1080}
	SecondaryMonitor = domain.Rect{Left: 1920, Top: 0, Right: 4480, Bottom: 1440}
)

// FakeWindow is one top-level window on a FakeDesktop.
type FakeWindow struct {
	Handle domain.WindowHandle
	Class  string
	PID    int
	Zoomed bool
	Rect   domain.Rect
}

// FakeDesktop simulates the window manager.
type FakeDesktop struct {
	mu         sync.Mutex
	windows    map[domain.WindowHandle]*FakeWindow
	foreground domain.WindowHandle
	monitors   []domain.Rect
}

// NewFakeDesktop creates a desktop holding only the taskbar, desktop and shell windows.
func NewFakeDesktop() *FakeDesktop {
	d := &FakeDesktop{
		windows:  make(map[domain.WindowHandle]*FakeWindow),
		monitors: []domain.Rect{PrimaryMonitor, SecondaryMonitor},
	}
	d.AddWindow(FakeWindow{Handle: TrayHandle, Class: "Shell_TrayWnd", PID: 4, Rect: domain.Rect{Top: 1040, Right: 1920, Bottom: 1080}})
	d.AddWindow(FakeWindow{Handle: DesktopHandle, Class: "#32769", PID: 4, Rect: PrimaryMonitor})
	d.AddWindow(FakeWindow{Handle: ShellHandle, Class: "Progman", PID: 4, Rect: PrimaryMonitor})
	d.foreground = DesktopHandle
	return d
}

// AddWindow registers a window.
func (d *FakeDesktop) AddWindow(w FakeWindow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := w
	d.windows[w.Handle] = &cp
}

// RemoveWindow destroys a window. The foreground falls back to the desktop.
func (d *FakeDesktop) RemoveWindow(h domain.WindowHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.windows, h)
	if d.foreground == h {
		d.foreground = DesktopHandle
	}
}

// SetForeground focuses a window.
func (d *FakeDesktop) SetForeground(h domain.WindowHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.foreground = h
}

// SetZoomed maximizes or restores a window.
func (d *FakeDesktop) SetZoomed(h domain.WindowHandle, zoomed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[h]; ok {
		w.Zoomed = zoomed
	}
}

// SetRect moves a window.
func (d *FakeDesktop) SetRect(h domain.WindowHandle, r domain.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w, ok := d.windows[h]; ok {
		w.Rect = r
	}
}

func (d *FakeDesktop) ForegroundWindow() domain.WindowHandle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.foreground
}

func (d *FakeDesktop) TrayWindow() domain.WindowHandle    { return TrayHandle }
func (d *FakeDesktop) DesktopWindow() domain.WindowHandle { return DesktopHandle }
func (d *FakeDesktop) ShellWindow() domain.WindowHandle   { return ShellHandle }

func (d *FakeDesktop) ClassName(h domain.WindowHandle, maxChars int) (string, error) {
	w, err := d.lookup(h)
	if err != nil {
		return "", err
	}
	name := w.Class
	if len(name) > maxChars-1 {
		name = name[:maxChars-1]
	}
	return name, nil
}

func (d *FakeDesktop) WindowProcessID(h domain.WindowHandle) (int, error) {
	w, err := d.lookup(h)
	if err != nil {
		return 0, err
	}
	return w.PID, nil
}

func (d *FakeDesktop) IsZoomed(h domain.WindowHandle) bool {
	w, err := d.lookup(h)
	return err == nil && w.Zoomed
}

func (d *FakeDesktop) WindowRect(h domain.WindowHandle) (domain.Rect, error) {
	w, err := d.lookup(h)
	if err != nil {
		return domain.Rect{}, err
	}
	return w.Rect, nil
}

// MonitorRect returns the monitor sharing the most area with the window, or
// the closest one when the window is off every monitor.
func (d *FakeDesktop) MonitorRect(h domain.WindowHandle) (domain.Rect, error) {
	w, err := d.lookup(h)
	if err != nil {
		return domain.Rect{}, err
	}
	best := d.monitors[0]
	bestArea, bestDist := overlap(w.Rect, best), distance(w.Rect, best)
	for _, m := range d.monitors[1:] {
		area, dist := overlap(w.Rect, m), distance(w.Rect, m)
		if area > bestArea || (area == bestArea && dist < bestDist) {
			best, bestArea, bestDist = m, area, dist
		}
	}
	return best, nil
}

func (d *FakeDesktop) ProcessWindows(pid int) ([]domain.WindowHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []domain.WindowHandle
	for h, w := range d.windows {
		if w.PID == pid {
			result = append(result, h)
		}
	}
	return result, nil
}

func (d *FakeDesktop) lookup(h domain.WindowHandle) (FakeWindow, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[h]
	if !ok {
		return FakeWindow{}, fmt.Errorf("invalid window handle %#x", uintptr(h))
	}
	return *w, nil
}

func overlap(a, b domain.Rect) int64 {
	w := int64(min(a.Right, b.Right)) - int64(max(a.Left, b.Left))
	h := int64(min(a.Bottom, b.Bottom)) - int64(max(a.Top, b.Top))
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// distance is the squared gap between two non-overlapping rects.
func distance(a, b domain.Rect) int64 {
	dx := max(int64(b.Left)-int64(a.Right), int64(a.Left)-int64(b.Right), 0)
	dy := max(int64(b.Top)-int64(a.Bottom), int64(a.Top)-int64(b.Bottom), 0)
	return dx*dx + dy*dy
}

// Ensure FakeDesktop implements domain.WindowSystem.
var _ domain.WindowSystem = (*FakeDesktop)(nil)
