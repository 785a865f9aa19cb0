// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// FreezePolicy selects when the target process is frozen.
type FreezePolicy string

const (
	// PolicyNotOnDesktop freezes whenever anything other than the desktop is focused.
	PolicyNotOnDesktop FreezePolicy = "not_on_desktop"
	// PolicyMaximized freezes while the foreground window is maximized.
	PolicyMaximized FreezePolicy = "maximized"
	// PolicyFullScreen freezes while the foreground window covers its monitor.
	PolicyFullScreen FreezePolicy = "full_screen"
)

// Policies lists every supported policy in display order.
var Policies = []FreezePolicy{PolicyNotOnDesktop, PolicyMaximized, PolicyFullScreen}

// ParsePolicy converts a string into a FreezePolicy.
func ParsePolicy(s string) (FreezePolicy, error) {
	p := FreezePolicy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown freeze policy %q", s)
}

// FreezeMode selects how the target process is frozen.
type FreezeMode string

const (
	// ModeSuspend suspends every thread of the target.
	ModeSuspend FreezeMode = "suspend"
	// ModeLowPriority drops the target to the below-normal priority class.
	ModeLowPriority FreezeMode = "low_priority"
)

// Modes lists every supported mode in display order.
var Modes = []FreezeMode{ModeSuspend, ModeLowPriority}

// ParseMode converts a string into a FreezeMode.
func ParseMode(s string) (FreezeMode, error) {
	m := FreezeMode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown freeze mode %q", s)
}

// PriorityLevel is the scheduling class applied in low-priority mode.
type PriorityLevel int

const (
	PriorityNormal PriorityLevel = iota
	PriorityBelowNormal
)

func (l PriorityLevel) String() string {
	if l == PriorityBelowNormal {
		return "below_normal"
	}
	return "normal"
}

// WindowHandle is an opaque top-level window identifier (HWND).
type WindowHandle uintptr

// Point is a screen coordinate.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Rect is a screen rectangle. Right and Bottom are part of the rectangle.
type Rect struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

// Contains reports whether p lies inside r, all four edges inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Settings is the persisted user configuration.
type Settings struct {
	Policy     FreezePolicy `json:"freeze_algorithm"`
	Mode       FreezeMode   `json:"freeze_mode"`
	TargetName string       `json:"target_process"`
	TrayClass  string       `json:"tray_class"`
	LogLevel   string       `json:"log_level"`
}

// DefaultSettings returns the configuration used when nothing is persisted.
func DefaultSettings() Settings {
	return Settings{
		Policy:     PolicyMaximized,
		Mode:       ModeSuspend,
		TargetName: "Rainmeter",
		TrayClass:  "RainmeterTrayClass",
		LogLevel:   "info",
	}
}

// Direction tells whether a transition froze or unfroze the target.
type Direction string

const (
	DirectionFreeze   Direction = "freeze"
	DirectionUnfreeze Direction = "unfreeze"
)

// Reason records what triggered a transition.
type Reason string

const (
	ReasonForeground   Reason = "foreground"
	ReasonPassThrough  Reason = "pass_through"
	ReasonPolicyChange Reason = "policy_change"
	ReasonModeChange   Reason = "mode_change"
	ReasonExit         Reason = "exit"
	ReasonRecovery     Reason = "recovery"
)

// Transition is one freeze or unfreeze applied to the target.
type Transition struct {
	At        time.Time  `json:"at"`
	PID       int        `json:"pid"`
	Target    string     `json:"target"`
	Mode      FreezeMode `json:"mode"`
	Direction Direction  `json:"direction"`
	Reason    Reason     `json:"reason"`
}

// HookHealth reports which global hooks were installed.
type HookHealth struct {
	Foreground bool `json:"foreground"`
	Minimize   bool `json:"minimize"`
	Destroy    bool `json:"destroy"`
	Mouse      bool `json:"mouse"`
}

// Installed reports whether every hook is in place.
func (h HookHealth) Installed() bool {
	return h.Foreground && h.Minimize && h.Destroy && h.Mouse
}

// Status is a point-in-time snapshot of the running instance.
type Status struct {
	Policy         FreezePolicy `json:"policy"`
	Mode           FreezeMode   `json:"mode"`
	TargetName     string       `json:"target_name"`
	TargetPID      int          `json:"target_pid"`
	Frozen         bool         `json:"frozen"`
	LastTransition time.Time    `json:"last_transition,omitempty"`
	Hooks          HookHealth   `json:"hooks"`
	StartedAt      time.Time    `json:"started_at"`
	Version        string       `json:"version,omitempty"`
}

// ProcessNameMatches reports whether an OS image name refers to target.
// The comparison is case-sensitive; a trailing ".exe" on the image is ignored.
func ProcessNameMatches(image, target string) bool {
	if target == "" {
		return false
	}
	if n := len(image); n > 4 && strings.EqualFold(image[n-4:], ".exe") {
		image = image[:n-4]
	}
	return image == target
}
