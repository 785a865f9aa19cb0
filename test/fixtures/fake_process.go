package fixtures

import (
	"sort"
	"sync"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// FakeProcessTable simulates running processes and the effect of
// suspend/resume and priority changes on them.
type FakeProcessTable struct {
	mu       sync.Mutex
	nextPID  int
	names    map[int]string
	suspends map[int]int
	priority map[int]domain.PriorityLevel

	suspendCalls  int
	resumeCalls   int
	priorityCalls int
}

// NewFakeProcessTable creates an empty process table.
func NewFakeProcessTable() *FakeProcessTable {
	return &FakeProcessTable{
		nextPID:  1000,
		names:    make(map[int]string),
		suspends: make(map[int]int),
		priority: make(map[int]domain.PriorityLevel),
	}
}

// Start launches a process and returns its PID.
func (t *FakeProcessTable) Start(image string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextPID++
	pid := t.nextPID
	t.names[pid] = image
	t.priority[pid] = domain.PriorityNormal
	return pid
}

// Kill terminates a process.
func (t *FakeProcessTable) Kill(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.names, pid)
	delete(t.suspends, pid)
	delete(t.priority, pid)
}

// SuspendCount returns the current suspend count of pid.
func (t *FakeProcessTable) SuspendCount(pid int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspends[pid]
}

// Priority returns the current priority of pid.
func (t *FakeProcessTable) Priority(pid int) domain.PriorityLevel {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority[pid]
}

// CallCounts returns the number of Suspend, Resume and SetPriority calls.
func (t *FakeProcessTable) CallCounts() (suspend, resume, priority int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspendCalls, t.resumeCalls, t.priorityCalls
}

// Calls returns the total number of controller calls.
func (t *FakeProcessTable) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspendCalls + t.resumeCalls + t.priorityCalls
}

func (t *FakeProcessTable) FindByName(name string) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var pids []int
	for pid, image := range t.names {
		if domain.ProcessNameMatches(image, name) {
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	return pids, nil
}

func (t *FakeProcessTable) IsRunning(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.names[pid]
	return ok
}

func (t *FakeProcessTable) ImageName(pid int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	image, ok := t.names[pid]
	if !ok {
		return "", domain.ErrProcessNotFound
	}
	return image, nil
}

func (t *FakeProcessTable) GetCurrentPID() int {
	return 1
}

func (t *FakeProcessTable) Suspend(pid int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suspendCalls++
	if _, ok := t.names[pid]; !ok {
		return domain.ErrProcessNotFound
	}
	t.suspends[pid]++
	return nil
}

func (t *FakeProcessTable) Resume(pid int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resumeCalls++
	if _, ok := t.names[pid]; !ok {
		return domain.ErrProcessNotFound
	}
	t.suspends[pid] = 0
	return nil
}

func (t *FakeProcessTable) SetPriority(pid int, level domain.PriorityLevel) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.priorityCalls++
	if _, ok := t.names[pid]; !ok {
		return domain.ErrProcessNotFound
	}
	t.priority[pid] = level
	return nil
}

// Ensure FakeProcessTable implements the process interfaces.
var (
	_ domain.ProcessManager    = (*FakeProcessTable)(nil)
	_ domain.ProcessController = (*FakeProcessTable)(nil)
)
