package domain

import "context"

// ProcessManager handles OS process lookups.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes whose image name matches name.
	FindByName(name string) ([]int, error)

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// ImageName returns the image name of pid, or ErrProcessNotFound.
	ImageName(pid int) (string, error)

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// ProcessController pauses and restores a process.
// All calls return ErrProcessNotFound when the process is gone.
type ProcessController interface {
	// Suspend suspends every thread of pid once.
	Suspend(pid int) error

	// Resume resumes every thread of pid until its suspend count reaches zero.
	Resume(pid int) error

	// SetPriority changes the priority class of pid.
	SetPriority(pid int, level PriorityLevel) error
}

// WindowSystem exposes the raw window-manager queries.
type WindowSystem interface {
	ForegroundWindow() WindowHandle
	TrayWindow() WindowHandle
	DesktopWindow() WindowHandle
	ShellWindow() WindowHandle

	// ClassName returns at most maxChars characters of the window class.
	ClassName(h WindowHandle, maxChars int) (string, error)

	// WindowProcessID returns the PID owning h.
	WindowProcessID(h WindowHandle) (int, error)

	IsZoomed(h WindowHandle) bool
	WindowRect(h WindowHandle) (Rect, error)

	// MonitorRect returns the rectangle of the monitor nearest to h.
	MonitorRect(h WindowHandle) (Rect, error)

	// ProcessWindows returns every top-level window of every thread of pid.
	ProcessWindows(pid int) ([]WindowHandle, error)
}

// ForegroundClassifier answers questions about windows.
// Query failures answer false or "" rather than an error.
type ForegroundClassifier interface {
	// Foreground returns the current foreground window (may be zero).
	Foreground() WindowHandle

	// IsDesktopOrShell reports whether h is the taskbar, desktop or shell window.
	IsDesktopOrShell(h WindowHandle) bool

	// WindowClassName returns the class name of h.
	WindowClassName(h WindowHandle) string

	// IsShellClass reports whether class belongs to a non-interactive shell window.
	IsShellClass(class string) bool

	// OwningProcessName returns the image name of the process owning h.
	OwningProcessName(h WindowHandle) string

	IsMaximized(h WindowHandle) bool
	IsFullScreen(h WindowHandle) bool

	// TargetWindowHit reports whether pt lies inside any top-level window of pid.
	TargetWindowHit(pid int, pt Point) bool
}

// ConfigStore persists Settings.
// Implementation: viper JSON file in the user's config directory.
type ConfigStore interface {
	// Load returns the persisted settings, or defaults when none exist.
	Load() (Settings, error)

	// Save persists settings.
	Save(s Settings) error
}

// Journal records freeze transitions.
// Implementation: gorm over sqlite.
type Journal interface {
	// Record appends a transition.
	Record(t Transition) error

	// Latest returns the newest transition, or nil when the journal is empty.
	Latest() (*Transition, error)

	// Recent returns up to limit transitions, newest first.
	Recent(limit int) ([]Transition, error)

	// Close releases the underlying database.
	Close() error
}

// HookSource delivers global window and mouse events.
type HookSource interface {
	// OnForegroundChanged registers a listener. Must be called before Start.
	OnForegroundChanged(fn func())

	// OnMouseEvent registers a listener. Must be called before Start.
	OnMouseEvent(fn func(Point))

	// Start installs the hooks on a dedicated thread.
	Start() error

	// Stop removes the hooks and joins the hook thread.
	Stop() error

	// Health reports which hooks are installed.
	Health() HookHealth
}

// FreezeEngine decides and applies freeze transitions.
type FreezeEngine interface {
	// Evaluate re-decides the frozen state for the current foreground window.
	Evaluate(ctx context.Context, reason Reason)

	// SetPolicy switches the active policy.
	SetPolicy(ctx context.Context, p FreezePolicy) error

	// SetMode switches the freeze mode.
	SetMode(ctx context.Context, m FreezeMode) error

	// HandleMouse reacts to a non-move mouse event. Must not block.
	HandleMouse(pt Point)

	// Shutdown restores the target and waits for in-flight work.
	Shutdown(ctx context.Context)

	// Status returns a snapshot of the engine state.
	Status() Status
}

// AutostartManager registers the program to start at user logon.
type AutostartManager interface {
	// Install registers execPath, replacing an existing entry.
	Install(execPath string) error

	// Uninstall removes the entry if present.
	Uninstall() error

	// IsInstalled checks if an entry exists.
	IsInstalled() bool

	// NeedsUpdate checks if an entry exists but differs from execPath.
	NeedsUpdate(execPath string) bool
}
