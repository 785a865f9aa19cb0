package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage starting widgetfreeze at logon",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start widgetfreeze in the background at logon",
	RunE:  runAutostartEnable,
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting widgetfreeze at logon",
	RunE:  runAutostartDisable,
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the logon entry",
	RunE:  runAutostartStatus,
}

func init() {
	autostartCmd.AddCommand(autostartEnableCmd)
	autostartCmd.AddCommand(autostartDisableCmd)
	autostartCmd.AddCommand(autostartStatusCmd)
	rootCmd.AddCommand(autostartCmd)
}

// newAutostart returns the manager for the data dir the CLI was given. Only
// an explicit --data-dir is baked into the logon command.
func newAutostart() *infra.AutostartManager {
	return infra.NewAutostartManager(dataDir)
}

func runAutostartEnable(cmd *cobra.Command, args []string) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	m := newAutostart()
	if m.IsInstalled() && !m.NeedsUpdate(execPath) {
		fmt.Println("Autostart already enabled")
		return nil
	}
	if err := m.Install(execPath); err != nil {
		return err
	}
	color.Green("Autostart enabled: %s", m.Command(execPath))
	return nil
}

func runAutostartDisable(cmd *cobra.Command, args []string) error {
	if err := newAutostart().Uninstall(); err != nil {
		return err
	}
	fmt.Println("Autostart disabled")
	return nil
}

func runAutostartStatus(cmd *cobra.Command, args []string) error {
	current, found, err := newAutostart().Current()
	if err != nil {
		return err
	}
	if !found {
		color.Yellow("Autostart: disabled")
		return nil
	}
	color.Green("Autostart: enabled")
	fmt.Printf("Command: %s\n", current)
	return nil
}
