package infra

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// maxSuspendCount bounds the resume loop; the OS caps a thread's suspend count at 127.
const maxSuspendCount = 128

// threadOps is the OS surface used by ThreadController.
type threadOps interface {
	// processExists reports whether pid is a live process.
	processExists(pid int) bool

	// threads returns the IDs of every thread owned by pid.
	threads(pid int) ([]uint32, error)

	// openThread opens tid for suspend/resume.
	openThread(tid uint32) (uintptr, error)

	// suspendThread returns the previous suspend count.
	suspendThread(h uintptr) (uint32, error)

	// resumeThread returns the previous suspend count.
	resumeThread(h uintptr) (uint32, error)

	closeHandle(h uintptr)

	setPriorityClass(pid int, level domain.PriorityLevel) error
}

// ThreadController implements domain.ProcessController by suspending and
// resuming each thread of the process.
type ThreadController struct {
	ops    threadOps
	logger *zap.Logger
}

// NewProcessController creates a controller for the current platform.
func NewProcessController(logger *zap.Logger) *ThreadController {
	return newThreadController(newSystemThreadOps(), logger)
}

func newThreadController(ops threadOps, logger *zap.Logger) *ThreadController {
	return &ThreadController{ops: ops, logger: logger}
}

// Suspend suspends every thread of pid once. Threads that cannot be opened are skipped.
func (c *ThreadController) Suspend(pid int) error {
	return c.eachThread(pid, func(tid uint32, h uintptr) {
		if _, err := c.ops.suspendThread(h); err != nil {
			c.logger.Debug("Failed to suspend thread",
				zap.Int("pid", pid),
				zap.Uint32("tid", tid),
				zap.Error(err))
		}
	})
}

// Resume resumes every thread of pid until its suspend count drops to zero,
// undoing any number of earlier suspends.
func (c *ThreadController) Resume(pid int) error {
	return c.eachThread(pid, func(tid uint32, h uintptr) {
		for i := 0; i < maxSuspendCount; i++ {
			prev, err := c.ops.resumeThread(h)
			if err != nil {
				c.logger.Debug("Failed to resume thread",
					zap.Int("pid", pid),
					zap.Uint32("tid", tid),
					zap.Error(err))
				return
			}
			if prev == 0 {
				return
			}
		}
	})
}

// SetPriority changes the priority class of pid.
func (c *ThreadController) SetPriority(pid int, level domain.PriorityLevel) error {
	if !c.ops.processExists(pid) {
		return domain.ErrProcessNotFound
	}
	if err := c.ops.setPriorityClass(pid, level); err != nil {
		return fmt.Errorf("failed to set priority of process %d to %s: %w", pid, level, err)
	}
	return nil
}

func (c *ThreadController) eachThread(pid int, fn func(tid uint32, h uintptr)) error {
	if !c.ops.processExists(pid) {
		return domain.ErrProcessNotFound
	}

	tids, err := c.ops.threads(pid)
	if err != nil {
		return fmt.Errorf("failed to enumerate threads of process %d: %w", pid, err)
	}

	for _, tid := range tids {
		h, err := c.ops.openThread(tid)
		if err != nil {
			continue // Thread may have exited or be protected
		}
		fn(tid, h)
		c.ops.closeHandle(h)
	}
	return nil
}

// Ensure ThreadController implements domain.ProcessController.
var _ domain.ProcessController = (*ThreadController)(nil)
