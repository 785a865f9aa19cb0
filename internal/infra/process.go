// Package infra implements infrastructure concerns (processes, windows, hooks, storage).
package infra

import (
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// FindByName returns PIDs of processes whose image name matches name exactly.
// The match is case-sensitive and ignores a trailing ".exe".
func (pm *ProcessManagerImpl) FindByName(name string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	var found []int
	for _, p := range procs {
		image, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		if domain.ProcessNameMatches(image, name) {
			found = append(found, int(p.Pid))
		}
	}

	return found, nil
}

// IsRunning checks if a PID exists and is running.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, err := process.PidExists(int32(pid))
	return err == nil && exists
}

// ImageName returns the image name of pid.
func (pm *ProcessManagerImpl) ImageName(pid int) (string, error) {
	if pid <= 0 {
		return "", domain.ErrProcessNotFound
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return "", domain.ErrProcessNotFound
		}
		return "", fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	name, err := p.Name()
	if err != nil {
		return "", fmt.Errorf("failed to read name of process %d: %w", pid, err)
	}
	return name, nil
}

// GetCurrentPID returns the current process PID.
func (pm *ProcessManagerImpl) GetCurrentPID() int {
	return os.Getpid()
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
