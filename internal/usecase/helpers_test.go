package usecase

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/policy"
	"github.com/eliteGoblin/focusd/widget_freeze/test/fixtures"
)

// Windows placed on the fake desktop by newTestRig.
const (
	editorWindow   domain.WindowHandle = 100
	widgetWindow   domain.WindowHandle = 200
	trayIconWindow domain.WindowHandle = 201
	workerWindow   domain.WindowHandle = 300
)

var widgetRect = domain.Rect{Left: 1700, Top: 50, Right: 1900, Bottom: 250}

// memoryConfigStore implements domain.ConfigStore for testing
type memoryConfigStore struct {
	mu      sync.Mutex
	saved   []domain.Settings
	saveErr error
}

func (m *memoryConfigStore) Load() (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return domain.DefaultSettings(), nil
	}
	return m.saved[len(m.saved)-1], nil
}

func (m *memoryConfigStore) Save(s domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, s)
	return nil
}

func (m *memoryConfigStore) last() (domain.Settings, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return domain.Settings{}, false
	}
	return m.saved[len(m.saved)-1], true
}

// memoryJournal implements domain.Journal for testing
type memoryJournal struct {
	mu          sync.Mutex
	transitions []domain.Transition
	latestErr   error
}

func (m *memoryJournal) Record(t domain.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, t)
	return nil
}

func (m *memoryJournal) Latest() (*domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	if len(m.transitions) == 0 {
		return nil, nil
	}
	t := m.transitions[len(m.transitions)-1]
	return &t, nil
}

func (m *memoryJournal) Recent(limit int) ([]domain.Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Transition
	for i := len(m.transitions) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.transitions[i])
	}
	return result, nil
}

func (m *memoryJournal) Close() error {
	return nil
}

func (m *memoryJournal) reasons() []domain.Reason {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []domain.Reason
	for _, t := range m.transitions {
		result = append(result, t.Reason)
	}
	return result
}

func (m *memoryJournal) all() []domain.Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Transition(nil), m.transitions...)
}

// testRig is a desktop with an editor, the widget engine and a shell window.
type testRig struct {
	desktop   *fixtures.FakeDesktop
	procs     *fixtures.FakeProcessTable
	store     *memoryConfigStore
	journal   *memoryJournal
	engine    *Engine
	targetPID int
	editorPID int
}

func newTestRig(p domain.FreezePolicy, m domain.FreezeMode) *testRig {
	desktop := fixtures.NewFakeDesktop()
	procs := fixtures.NewFakeProcessTable()

	editorPID := procs.Start("notepad.exe")
	explorerPID := procs.Start("explorer.exe")
	targetPID := procs.Start("Rainmeter.exe")

	desktop.AddWindow(fixtures.FakeWindow{Handle: editorWindow, Class: "Notepad", PID: editorPID, Rect: domain.Rect{Left: 100, Top: 100, Right: 800, Bottom: 600}})
	desktop.AddWindow(fixtures.FakeWindow{Handle: widgetWindow, Class: "RainmeterMeterWindow", PID: targetPID, Rect: widgetRect})
	desktop.AddWindow(fixtures.FakeWindow{Handle: trayIconWindow, Class: "RainmeterTrayClass", PID: targetPID})
	desktop.AddWindow(fixtures.FakeWindow{Handle: workerWindow, Class: "WorkerW", PID: explorerPID, Rect: fixtures.PrimaryMonitor})

	settings := domain.DefaultSettings()
	settings.Policy = p
	settings.Mode = m

	rules := policy.NewRegistryWithRules(
		policy.NewNotOnDesktopRule(),
		policy.NewMaximizedRuleWithSettle(0),
		policy.NewFullScreenRule(),
	)
	store := &memoryConfigStore{}
	journal := &memoryJournal{}
	classifier := infra.NewClassifier(desktop, procs, settings.TrayClass)

	return &testRig{
		desktop:   desktop,
		procs:     procs,
		store:     store,
		journal:   journal,
		engine:    NewEngine(settings, procs, procs, classifier, rules, store, journal, zap.NewNop()),
		targetPID: targetPID,
		editorPID: editorPID,
	}
}

// focus makes h the foreground window.
func (r *testRig) focus(h domain.WindowHandle) {
	r.desktop.SetForeground(h)
}

// failingController implements domain.ProcessController and fails every call.
type failingController struct {
	err error
}

func (f *failingController) Suspend(pid int) error                                 { return f.err }
func (f *failingController) Resume(pid int) error                                  { return f.err }
func (f *failingController) SetPriority(pid int, level domain.PriorityLevel) error { return f.err }

var errAccessDenied = errors.New("access denied")
