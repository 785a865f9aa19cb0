package usecase

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/policy"
	"github.com/eliteGoblin/focusd/widget_freeze/test/fixtures"
)

var _ = Describe("Freeze engine", func() {
	var (
		ctx context.Context
		rig *testRig
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("maximize animation", func() {
		BeforeEach(func() {
			rig = newTestRig(domain.PolicyMaximized, domain.ModeSuspend)
			settle := 50 * time.Millisecond
			classifier := infra.NewClassifier(rig.desktop, rig.procs, "RainmeterTrayClass")
			rules := policy.NewRegistryWithRules(policy.NewMaximizedRuleWithSettle(settle))
			rig.engine = NewEngine(rig.engine.Settings(), rig.procs, rig.procs, classifier, rules, rig.store, rig.journal, zap.NewNop())
		})

		It("freezes once the window finishes maximizing within the settle delay", func() {
			rig.focus(editorWindow)
			go func() {
				time.Sleep(10 * time.Millisecond)
				rig.desktop.SetZoomed(editorWindow, true)
			}()

			rig.engine.Evaluate(ctx, domain.ReasonForeground)

			Expect(rig.engine.Status().Frozen).To(BeTrue())
		})

		It("unfreezes after the window is restored", func() {
			rig.desktop.SetZoomed(editorWindow, true)
			rig.focus(editorWindow)
			rig.engine.Evaluate(ctx, domain.ReasonForeground)
			Expect(rig.engine.Status().Frozen).To(BeTrue())

			rig.desktop.SetZoomed(editorWindow, false)
			rig.engine.Evaluate(ctx, domain.ReasonForeground)

			Expect(rig.engine.Status().Frozen).To(BeFalse())
			Expect(rig.procs.SuspendCount(rig.targetPID)).To(Equal(0))
		})
	})

	Context("pass-through click", func() {
		BeforeEach(func() {
			rig = newTestRig(domain.PolicyNotOnDesktop, domain.ModeSuspend)
			rig.focus(editorWindow)
			rig.engine.Evaluate(ctx, domain.ReasonForeground)
		})

		It("starts frozen while a regular window has focus", func() {
			Expect(rig.engine.Status().Frozen).To(BeTrue())
		})

		It("resumes the target when the click lands on a widget", func() {
			rig.engine.HandleMouse(domain.Point{X: 1800, Y: 150})
			rig.engine.WaitPassThrough()

			Expect(rig.engine.Status().Frozen).To(BeFalse())
		})

		It("stays running when the widget then takes focus", func() {
			rig.engine.HandleMouse(domain.Point{X: 1800, Y: 150})
			rig.engine.WaitPassThrough()

			rig.focus(widgetWindow)
			rig.engine.Evaluate(ctx, domain.ReasonForeground)

			Expect(rig.engine.Status().Frozen).To(BeFalse())
			suspends, _, _ := rig.procs.CallCounts()
			Expect(suspends).To(Equal(1))
		})
	})

	Context("policy switching", func() {
		DescribeTable("never leaves the target frozen by the old policy",
			func(from, to domain.FreezePolicy, mode domain.FreezeMode) {
				rig = newTestRig(from, mode)
				rig.desktop.SetZoomed(editorWindow, true)
				rig.desktop.SetRect(editorWindow, fixtures.PrimaryMonitor)
				rig.focus(editorWindow)
				rig.engine.Evaluate(ctx, domain.ReasonForeground)
				Expect(rig.engine.Status().Frozen).To(BeTrue())

				rig.focus(fixtures.DesktopHandle)
				Expect(rig.engine.SetPolicy(ctx, to)).To(Succeed())

				Expect(rig.engine.Status().Frozen).To(BeFalse())
				Expect(rig.procs.SuspendCount(rig.targetPID)).To(Equal(0))
				Expect(rig.procs.Priority(rig.targetPID)).To(Equal(domain.PriorityNormal))
			},
			Entry("not on desktop to maximized", domain.PolicyNotOnDesktop, domain.PolicyMaximized, domain.ModeSuspend),
			Entry("maximized to full screen", domain.PolicyMaximized, domain.PolicyFullScreen, domain.ModeSuspend),
			Entry("full screen to not on desktop", domain.PolicyFullScreen, domain.PolicyNotOnDesktop, domain.ModeLowPriority),
			Entry("maximized to maximized", domain.PolicyMaximized, domain.PolicyMaximized, domain.ModeLowPriority),
		)
	})

	Context("target restart", func() {
		It("tracks the new process after the old one exits", func() {
			rig = newTestRig(domain.PolicyNotOnDesktop, domain.ModeLowPriority)
			rig.focus(editorWindow)
			rig.engine.Evaluate(ctx, domain.ReasonForeground)
			oldPID := rig.targetPID

			rig.procs.Kill(oldPID)
			rig.engine.Evaluate(ctx, domain.ReasonForeground)
			Expect(rig.engine.Status().TargetPID).To(BeZero())

			newPID := rig.procs.Start("Rainmeter.exe")
			rig.engine.Evaluate(ctx, domain.ReasonForeground)

			Expect(rig.engine.Status().TargetPID).To(Equal(newPID))
			Expect(rig.procs.Priority(newPID)).To(Equal(domain.PriorityBelowNormal))
		})
	})
})
