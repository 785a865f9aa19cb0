//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/policy"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/usecase"
	"github.com/eliteGoblin/focusd/widget_freeze/test/fixtures"
)

const (
	editorWindow domain.WindowHandle = 100
	widgetWindow domain.WindowHandle = 200
)

// instance is one simulated run of the daemon against shared on-disk state.
type instance struct {
	store   *infra.FileConfigStore
	journal *infra.SQLiteJournal
	engine  *usecase.Engine
}

func startInstance(paths *infra.Paths, desktop *fixtures.FakeDesktop, procs *fixtures.FakeProcessTable) *instance {
	logger := zap.NewNop()
	store := infra.NewConfigStore(paths.ConfigFile, logger)
	settings, err := store.Load()
	Expect(err).NotTo(HaveOccurred())

	journal, err := infra.OpenJournal(paths.JournalFile)
	Expect(err).NotTo(HaveOccurred())

	rules := policy.NewRegistryWithRules(
		policy.NewNotOnDesktopRule(),
		policy.NewMaximizedRuleWithSettle(0),
		policy.NewFullScreenRule(),
	)
	classifier := infra.NewClassifier(desktop, procs, settings.TrayClass)
	engine := usecase.NewEngine(settings, procs, procs, classifier, rules, store, journal, logger)
	return &instance{store: store, journal: journal, engine: engine}
}

var _ = Describe("State across restarts", func() {
	var (
		tmpDir    string
		paths     *infra.Paths
		desktop   *fixtures.FakeDesktop
		procs     *fixtures.FakeProcessTable
		targetPID int
		ctx       context.Context
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "widgetfreeze-integration-*")
		Expect(err).NotTo(HaveOccurred())
		paths = infra.PathsIn(tmpDir)
		Expect(paths.Ensure()).To(Succeed())

		ctx = context.Background()
		desktop = fixtures.NewFakeDesktop()
		procs = fixtures.NewFakeProcessTable()
		editorPID := procs.Start("notepad.exe")
		targetPID = procs.Start("Rainmeter.exe")
		desktop.AddWindow(fixtures.FakeWindow{Handle: editorWindow, Class: "Notepad", PID: editorPID,
			Rect: domain.Rect{Left: 100, Top: 100, Right: 800, Bottom: 600}})
		desktop.AddWindow(fixtures.FakeWindow{Handle: widgetWindow, Class: "RainmeterMeterWindow", PID: targetPID,
			Rect: domain.Rect{Left: 1700, Top: 50, Right: 1900, Bottom: 250}})
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Settings", func() {
		It("starts from defaults and writes nothing until a change", func() {
			inst := startInstance(paths, desktop, procs)
			defer inst.journal.Close()

			status := inst.engine.Status()
			Expect(status.Policy).To(Equal(domain.PolicyMaximized))
			Expect(status.Mode).To(Equal(domain.ModeSuspend))
			Expect(status.TargetName).To(Equal("Rainmeter"))
		})

		It("persists policy and mode changes for the next run", func() {
			first := startInstance(paths, desktop, procs)
			Expect(first.engine.SetPolicy(ctx, domain.PolicyFullScreen)).To(Succeed())
			Expect(first.engine.SetMode(ctx, domain.ModeLowPriority)).To(Succeed())
			first.engine.Shutdown(ctx)
			Expect(first.journal.Close()).To(Succeed())

			second := startInstance(paths, desktop, procs)
			defer second.journal.Close()
			status := second.engine.Status()
			Expect(status.Policy).To(Equal(domain.PolicyFullScreen))
			Expect(status.Mode).To(Equal(domain.ModeLowPriority))
		})

		It("resets a corrupt config file to defaults", func() {
			Expect(os.WriteFile(paths.ConfigFile, []byte("{not json"), 0600)).To(Succeed())

			inst := startInstance(paths, desktop, procs)
			defer inst.journal.Close()
			Expect(inst.engine.Status().Policy).To(Equal(domain.PolicyMaximized))

			data, err := os.ReadFile(paths.ConfigFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"freeze_algorithm"`))
		})
	})

	Describe("Crash recovery", func() {
		It("resumes a target left suspended by a run that did not exit", func() {
			first := startInstance(paths, desktop, procs)
			Expect(first.engine.SetPolicy(ctx, domain.PolicyNotOnDesktop)).To(Succeed())
			desktop.SetForeground(editorWindow)
			first.engine.Evaluate(ctx, domain.ReasonForeground)
			Expect(procs.SuspendCount(targetPID)).To(Equal(1))

			// Simulated crash: no Shutdown.
			Expect(first.journal.Close()).To(Succeed())

			second := startInstance(paths, desktop, procs)
			defer second.journal.Close()
			Expect(second.engine.Recover(ctx)).To(Succeed())
			Expect(procs.SuspendCount(targetPID)).To(Equal(0))

			latest, err := second.journal.Latest()
			Expect(err).NotTo(HaveOccurred())
			Expect(latest).NotTo(BeNil())
			Expect(latest.Reason).To(Equal(domain.ReasonRecovery))
			Expect(latest.PID).To(Equal(targetPID))
		})

		It("restores priority when the previous run used low priority", func() {
			first := startInstance(paths, desktop, procs)
			Expect(first.engine.SetPolicy(ctx, domain.PolicyNotOnDesktop)).To(Succeed())
			Expect(first.engine.SetMode(ctx, domain.ModeLowPriority)).To(Succeed())
			desktop.SetForeground(editorWindow)
			first.engine.Evaluate(ctx, domain.ReasonForeground)
			Expect(procs.Priority(targetPID)).To(Equal(domain.PriorityBelowNormal))
			Expect(first.journal.Close()).To(Succeed())

			second := startInstance(paths, desktop, procs)
			defer second.journal.Close()
			Expect(second.engine.Recover(ctx)).To(Succeed())
			Expect(procs.Priority(targetPID)).To(Equal(domain.PriorityNormal))
		})

		It("leaves a reused PID alone", func() {
			first := startInstance(paths, desktop, procs)
			Expect(first.engine.SetPolicy(ctx, domain.PolicyNotOnDesktop)).To(Succeed())
			desktop.SetForeground(editorWindow)
			first.engine.Evaluate(ctx, domain.ReasonForeground)
			Expect(first.journal.Close()).To(Succeed())

			procs.Kill(targetPID)
			resumesBefore := resumeCalls(procs)

			second := startInstance(paths, desktop, procs)
			defer second.journal.Close()
			Expect(second.engine.Recover(ctx)).To(Succeed())
			Expect(resumeCalls(procs)).To(Equal(resumesBefore))
		})

		It("does nothing after a clean exit", func() {
			first := startInstance(paths, desktop, procs)
			Expect(first.engine.SetPolicy(ctx, domain.PolicyNotOnDesktop)).To(Succeed())
			desktop.SetForeground(editorWindow)
			first.engine.Evaluate(ctx, domain.ReasonForeground)
			first.engine.Shutdown(ctx)
			Expect(procs.SuspendCount(targetPID)).To(Equal(0))
			Expect(first.journal.Close()).To(Succeed())

			second := startInstance(paths, desktop, procs)
			defer second.journal.Close()
			Expect(second.engine.Recover(ctx)).To(Succeed())

			latest, err := second.journal.Latest()
			Expect(err).NotTo(HaveOccurred())
			Expect(latest.Reason).To(Equal(domain.ReasonExit))
		})
	})

	Describe("Journal", func() {
		It("lists transitions newest first and prunes old rows", func() {
			inst := startInstance(paths, desktop, procs)
			defer inst.journal.Close()
			Expect(inst.engine.SetPolicy(ctx, domain.PolicyNotOnDesktop)).To(Succeed())

			for i := 0; i < 3; i++ {
				desktop.SetForeground(editorWindow)
				inst.engine.Evaluate(ctx, domain.ReasonForeground)
				desktop.SetForeground(fixtures.DesktopHandle)
				inst.engine.Evaluate(ctx, domain.ReasonForeground)
			}

			recent, err := inst.journal.Recent(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(6))
			Expect(recent[0].Direction).To(Equal(domain.DirectionUnfreeze))
			Expect(recent[5].Direction).To(Equal(domain.DirectionFreeze))

			removed, err := inst.journal.Prune(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeEquivalentTo(4))

			recent, err = inst.journal.Recent(10)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(2))
		})
	})

	It("keeps its files inside the data directory", func() {
		inst := startInstance(paths, desktop, procs)
		Expect(inst.engine.SetMode(ctx, domain.ModeLowPriority)).To(Succeed())
		Expect(inst.journal.Close()).To(Succeed())

		for _, f := range []string{paths.ConfigFile, paths.JournalFile} {
			Expect(filepath.Dir(f)).To(Equal(tmpDir))
			_, err := os.Stat(f)
			Expect(err).NotTo(HaveOccurred())
		}
	})
})

func resumeCalls(procs *fixtures.FakeProcessTable) int {
	_, resume, _ := procs.CallCounts()
	return resume
}
