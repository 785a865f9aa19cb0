package infra

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// AutostartValueName is the value written under the per-user Run key.
const AutostartValueName = "widgetfreeze"

// runKey is the per-user "run at logon" store.
type runKey interface {
	get(name string) (value string, found bool, err error)
	set(name, value string) error
	remove(name string) error
}

// AutostartManager registers widgetfreeze to start at logon.
type AutostartManager struct {
	key     runKey
	name    string
	dataDir string
}

func newAutostartManager(key runKey, dataDir string) *AutostartManager {
	return &AutostartManager{key: key, name: AutostartValueName, dataDir: dataDir}
}

// Command returns the logon command line for execPath.
func (m *AutostartManager) Command(execPath string) string {
	args := []string{quoteArg(execPath), "start"}
	if m.dataDir != "" {
		args = append(args, "--data-dir", quoteArg(m.dataDir))
	}
	return strings.Join(args, " ")
}

// Install registers execPath to start at logon, replacing any older entry.
func (m *AutostartManager) Install(execPath string) error {
	if err := m.key.set(m.name, m.Command(execPath)); err != nil {
		return fmt.Errorf("failed to register autostart: %w", err)
	}
	return nil
}

// Uninstall removes the logon entry. A missing entry is not an error.
func (m *AutostartManager) Uninstall() error {
	if err := m.key.remove(m.name); err != nil && !errors.Is(err, errRunValueNotFound) {
		return fmt.Errorf("failed to remove autostart: %w", err)
	}
	return nil
}

// IsInstalled reports whether a logon entry exists.
func (m *AutostartManager) IsInstalled() bool {
	_, found, err := m.key.get(m.name)
	return err == nil && found
}

// Current returns the registered command line, if any.
func (m *AutostartManager) Current() (string, bool, error) {
	return m.key.get(m.name)
}

// NeedsUpdate reports whether an entry exists but points elsewhere.
func (m *AutostartManager) NeedsUpdate(execPath string) bool {
	current, found, err := m.key.get(m.name)
	if err != nil || !found {
		return false
	}
	return current != m.Command(execPath)
}

var errRunValueNotFound = errors.New("run value not found")

func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

var _ domain.AutostartManager = (*AutostartManager)(nil)
