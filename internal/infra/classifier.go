package infra

import (
	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// classNameMaxChars is the buffer size used for window class names.
const classNameMaxChars = 32

// shellClasses are window classes that never count as a user switching away
// from the desktop.
var shellClasses = []string{
	"WorkerW",
	"SysListView32",
	"SHELLDLL_DefView",
	"NotifyIconOverflowWindow",
}

// Classifier implements domain.ForegroundClassifier on top of a WindowSystem.
type Classifier struct {
	windows   domain.WindowSystem
	processes domain.ProcessManager
	trayClass string
}

// NewClassifier creates a classifier. trayClass is the target's own tray
// window class, treated like the shell classes.
func NewClassifier(ws domain.WindowSystem, pm domain.ProcessManager, trayClass string) *Classifier {
	return &Classifier{
		windows:   ws,
		processes: pm,
		trayClass: trayClass,
	}
}

func (c *Classifier) Foreground() domain.WindowHandle {
	return c.windows.ForegroundWindow()
}

// IsDesktopOrShell reports whether h is the taskbar, the desktop window or the shell window.
func (c *Classifier) IsDesktopOrShell(h domain.WindowHandle) bool {
	for _, known := range []domain.WindowHandle{
		c.windows.TrayWindow(),
		c.windows.DesktopWindow(),
		c.windows.ShellWindow(),
	} {
		if known != 0 && h == known {
			return true
		}
	}
	return false
}

func (c *Classifier) WindowClassName(h domain.WindowHandle) string {
	name, err := c.windows.ClassName(h, classNameMaxChars)
	if err != nil {
		return ""
	}
	return name
}

func (c *Classifier) IsShellClass(class string) bool {
	if class == "" {
		return false
	}
	if c.trayClass != "" && class == c.trayClass {
		return true
	}
	for _, known := range shellClasses {
		if class == known {
			return true
		}
	}
	return false
}

func (c *Classifier) OwningProcessName(h domain.WindowHandle) string {
	pid, err := c.windows.WindowProcessID(h)
	if err != nil || pid == 0 {
		return ""
	}
	name, err := c.processes.ImageName(pid)
	if err != nil {
		return ""
	}
	return name
}

func (c *Classifier) IsMaximized(h domain.WindowHandle) bool {
	return c.windows.IsZoomed(h)
}

// IsFullScreen reports whether h covers exactly the monitor nearest to it.
func (c *Classifier) IsFullScreen(h domain.WindowHandle) bool {
	win, err := c.windows.WindowRect(h)
	if err != nil {
		return false
	}
	mon, err := c.windows.MonitorRect(h)
	if err != nil {
		return false
	}
	return win == mon
}

func (c *Classifier) TargetWindowHit(pid int, pt domain.Point) bool {
	handles, err := c.windows.ProcessWindows(pid)
	if err != nil {
		return false
	}
	for _, h := range handles {
		r, err := c.windows.WindowRect(h)
		if err != nil {
			continue
		}
		if r.Contains(pt) {
			return true
		}
	}
	return false
}

// Ensure Classifier implements domain.ForegroundClassifier.
var _ domain.ForegroundClassifier = (*Classifier)(nil)
