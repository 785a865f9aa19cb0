//go:build !windows

package infra

import (
	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

type systemThreadOps struct{}

func newSystemThreadOps() threadOps {
	return systemThreadOps{}
}

func (systemThreadOps) processExists(pid int) bool { return pid > 0 }

func (systemThreadOps) threads(pid int) ([]uint32, error) {
	return nil, domain.ErrUnsupportedPlatform
}

func (systemThreadOps) openThread(tid uint32) (uintptr, error) {
	return 0, domain.ErrUnsupportedPlatform
}

func (systemThreadOps) suspendThread(h uintptr) (uint32, error) {
	return 0, domain.ErrUnsupportedPlatform
}

func (systemThreadOps) resumeThread(h uintptr) (uint32, error) {
	return 0, domain.ErrUnsupportedPlatform
}

func (systemThreadOps) closeHandle(h uintptr) {}

func (systemThreadOps) setPriorityClass(pid int, level domain.PriorityLevel) error {
	return domain.ErrUnsupportedPlatform
}
