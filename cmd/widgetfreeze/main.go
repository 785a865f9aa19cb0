// Package main is the CLI entry point for widgetfreeze.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/ipc"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "widgetfreeze",
	Short: "Freeze a desktop widget engine while it is hidden",
	Long: `widgetfreeze watches the foreground window and suspends (or lowers the
priority of) a widget engine such as Rainmeter while its widgets cannot be
seen, then restores it when the desktop comes back.

Policies:
  not_on_desktop  freeze whenever anything but the desktop is in front
  maximized       freeze while a maximized window is in front
  full_screen     freeze while a window covers its whole monitor`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	dataDir    string
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"Directory for config, journal and logs (default: per-user config dir)")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setPolicyCmd)
	rootCmd.AddCommand(setModeCmd)
	rootCmd.AddCommand(exitCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(listPoliciesCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolvePaths honours --data-dir, then the environment, then the default.
func resolvePaths() (*infra.Paths, error) {
	if dataDir != "" {
		return infra.PathsIn(dataDir), nil
	}
	return infra.DetectPaths()
}

func newClient(paths *infra.Paths) *ipc.Client {
	return ipc.NewClient(ipc.DefaultAddress(paths.DataDir))
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		out, _ := json.Marshal(map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		fmt.Println(string(out))
		return
	}
	fmt.Printf("widgetfreeze %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
}
