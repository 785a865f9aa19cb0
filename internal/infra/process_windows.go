//go:build windows

package infra

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// x/sys/windows has no wrappers for these two.
var (
	modKernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procSuspendThread    = modKernel32.NewProc("SuspendThread")
	procGetModuleHandleW = modKernel32.NewProc("GetModuleHandleW")
)

const threadCallFailed = 0xFFFFFFFF

type systemThreadOps struct{}

func newSystemThreadOps() threadOps {
	return systemThreadOps{}
}

func (systemThreadOps) processExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		// Access denied still means the process exists.
		return errors.Is(err, windows.ERROR_ACCESS_DENIED)
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return true
	}
	return code == 259 // STILL_ACTIVE
}

func (systemThreadOps) threads(pid int) ([]uint32, error) {
	return snapshotThreadIDs(pid)
}

func (systemThreadOps) openThread(tid uint32) (uintptr, error) {
	h, err := windows.OpenThread(windows.THREAD_SUSPEND_RESUME, false, tid)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func (systemThreadOps) suspendThread(h uintptr) (uint32, error) {
	r, _, err := procSuspendThread.Call(h)
	if uint32(r) == threadCallFailed {
		return 0, fmt.Errorf("SuspendThread: %w", err)
	}
	return uint32(r), nil
}

func (systemThreadOps) resumeThread(h uintptr) (uint32, error) {
	prev, err := windows.ResumeThread(windows.Handle(h))
	if err != nil {
		return 0, fmt.Errorf("ResumeThread: %w", err)
	}
	return prev, nil
}

func (systemThreadOps) closeHandle(h uintptr) {
	windows.CloseHandle(windows.Handle(h))
}

func (systemThreadOps) setPriorityClass(pid int, level domain.PriorityLevel) error {
	h, err := windows.OpenProcess(windows.PROCESS_SET_INFORMATION, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess: %w", err)
	}
	defer windows.CloseHandle(h)

	class := uint32(windows.NORMAL_PRIORITY_CLASS)
	if level == domain.PriorityBelowNormal {
		class = windows.BELOW_NORMAL_PRIORITY_CLASS
	}
	if err := windows.SetPriorityClass(h, class); err != nil {
		return fmt.Errorf("SetPriorityClass: %w", err)
	}
	return nil
}

// snapshotThreadIDs lists the threads owned by pid from a toolhelp snapshot.
func snapshotThreadIDs(pid int) ([]uint32, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPTHREAD, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ThreadEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Thread32First(snap, &entry); err != nil {
		if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
			return nil, nil
		}
		return nil, fmt.Errorf("Thread32First: %w", err)
	}

	var ids []uint32
	for {
		if entry.OwnerProcessID == uint32(pid) {
			ids = append(ids, entry.ThreadID)
		}
		entry.Size = uint32(unsafe.Sizeof(entry))
		if err := windows.Thread32Next(snap, &entry); err != nil {
			break
		}
	}
	return ids, nil
}
