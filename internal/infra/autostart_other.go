//go:build !windows

package infra

import "github.com/eliteGoblin/focusd/widget_freeze/internal/domain"

type unsupportedRunKey struct{}

func (unsupportedRunKey) get(string) (string, bool, error) { return "", false, domain.ErrUnsupportedPlatform }
func (unsupportedRunKey) set(string, string) error         { return domain.ErrUnsupportedPlatform }
func (unsupportedRunKey) remove(string) error              { return domain.ErrUnsupportedPlatform }

// NewAutostartManager returns a manager that reports the platform as
// unsupported.
func NewAutostartManager(dataDir string) *AutostartManager {
	return newAutostartManager(unsupportedRunKey{}, dataDir)
}
