package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/ipc"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/policy"
)

const controlTimeout = 10 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the watcher runs and whether the target is frozen",
	RunE:  runStatus,
}

var setPolicyCmd = &cobra.Command{
	Use:       "set-policy <not_on_desktop|maximized|full_screen>",
	Short:     "Switch the freeze policy",
	Long:      `Switches the policy of the running watcher, or of the saved config when none runs.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: policyNames(),
	RunE:      runSetPolicy,
}

var setModeCmd = &cobra.Command{
	Use:       "set-mode <suspend|low_priority>",
	Short:     "Switch the freeze mode",
	Long:      `Switches the mode of the running watcher, or of the saved config when none runs.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: modeNames(),
	RunE:      runSetMode,
}

var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Stop the watcher and restore the target",
	RunE:  runExit,
}

var listPoliciesCmd = &cobra.Command{
	Use:   "list-policies",
	Short: "List the available freeze policies",
	Run:   runListPolicies,
}

func policyNames() []string {
	names := make([]string, len(domain.Policies))
	for i, p := range domain.Policies {
		names[i] = string(p)
	}
	return names
}

func modeNames() []string {
	names := make([]string, len(domain.Modes))
	for i, m := range domain.Modes {
		names[i] = string(m)
	}
	return names
}

func runStatus(cmd *cobra.Command, args []string) error {
	paths, err := resolvePaths()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	status, err := newClient(paths).Status(ctx)
	if errors.Is(err, ipc.ErrNotRunning) {
		fmt.Println("\n=== widgetfreeze Status ===")
		color.Yellow("Status: NOT RUNNING")
		fmt.Println("\nRun 'widgetfreeze start' to begin watching.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println("\n=== widgetfreeze Status ===")
	color.New(color.FgGreen, color.Bold).Println("Status: RUNNING")
	printStatus(status)
	fmt.Println("===========================")
	return nil
}

func printStatus(s domain.Status) {
	fmt.Printf("Policy: %s\n", s.Policy)
	fmt.Printf("Mode:   %s\n", s.Mode)

	switch {
	case s.TargetPID == 0:
		color.Yellow("Target: %s (not running)", s.TargetName)
	case s.Frozen:
		color.Cyan("Target: %s (pid %d) FROZEN", s.TargetName, s.TargetPID)
	default:
		color.Green("Target: %s (pid %d) active", s.TargetName, s.TargetPID)
	}

	if !s.LastTransition.IsZero() {
		fmt.Printf("Last change: %s ago\n", time.Since(s.LastTransition).Round(time.Second))
	}
	if !s.StartedAt.IsZero() {
		fmt.Printf("Uptime: %s\n", time.Since(s.StartedAt).Round(time.Second))
	}
	if s.Version != "" {
		fmt.Printf("Version: %s\n", s.Version)
	}

	if !s.Hooks.Installed() {
		var missing []string
		for _, h := range []struct {
			name string
			ok   bool
		}{
			{"foreground", s.Hooks.Foreground},
			{"minimize", s.Hooks.Minimize},
			{"destroy", s.Hooks.Destroy},
			{"mouse", s.Hooks.Mouse},
		} {
			if !h.ok {
				missing = append(missing, h.name)
			}
		}
		color.Red("Hooks missing: %s", strings.Join(missing, ", "))
	}
}

func runSetPolicy(cmd *cobra.Command, args []string) error {
	p, err := domain.ParsePolicy(args[0])
	if err != nil {
		return err
	}
	return applySetting(
		func(ctx context.Context, c *ipc.Client) (domain.Status, error) { return c.SetPolicy(ctx, p) },
		func(s *domain.Settings) { s.Policy = p },
	)
}

func runSetMode(cmd *cobra.Command, args []string) error {
	m, err := domain.ParseMode(args[0])
	if err != nil {
		return err
	}
	return applySetting(
		func(ctx context.Context, c *ipc.Client) (domain.Status, error) { return c.SetMode(ctx, m) },
		func(s *domain.Settings) { s.Mode = m },
	)
}

// applySetting sends a change to the running instance, or writes it to the
// config file when no instance runs.
func applySetting(
	remote func(context.Context, *ipc.Client) (domain.Status, error),
	local func(*domain.Settings),
) error {
	paths, err := resolvePaths()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	status, err := remote(ctx, newClient(paths))
	if err == nil {
		printStatus(status)
		return nil
	}
	if !errors.Is(err, ipc.ErrNotRunning) {
		return err
	}

	if err := paths.Ensure(); err != nil {
		return err
	}
	store := infra.NewConfigStore(paths.ConfigFile, zap.NewNop())
	settings, err := store.Load()
	if err != nil {
		return err
	}
	local(&settings)
	if err := store.Save(settings); err != nil {
		return err
	}
	fmt.Printf("widgetfreeze is not running; saved policy %s, mode %s to %s\n",
		settings.Policy, settings.Mode, store.Path())
	return nil
}

func runExit(cmd *cobra.Command, args []string) error {
	paths, err := resolvePaths()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	err = newClient(paths).Exit(ctx)
	if errors.Is(err, ipc.ErrNotRunning) {
		fmt.Println("widgetfreeze is not running")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println("widgetfreeze stopped")
	return nil
}

func runListPolicies(cmd *cobra.Command, args []string) {
	registry := policy.NewRegistry()

	fmt.Println("\n=== Freeze Policies ===")
	for _, rule := range registry.GetAll() {
		fmt.Printf("\n[%s] %s\n", rule.ID(), rule.Name())
		if rule.AllowsPassThrough() {
			fmt.Println("  Clicking a widget unfreezes the target")
		}
	}
	fmt.Println("\n=======================")
}
