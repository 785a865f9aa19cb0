package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/daemon"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/infra"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/ipc"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/logging"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/policy"
	"github.com/eliteGoblin/focusd/widget_freeze/internal/usecase"
)

var runCmd = &cobra.Command{
	Use:   daemon.RunCommand,
	Short: "Run the watcher in this process",
	Long: `Installs the window hooks and runs until 'widgetfreeze exit' or Ctrl+C.
Use 'widgetfreeze start' to run it in the background instead.`,
	RunE: runRun,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the watcher in the background",
	RunE:  runStart,
}

var foreground bool

func init() {
	runCmd.Flags().BoolVar(&foreground, "foreground", false, "Also log to the console")
}

func runRun(cmd *cobra.Command, args []string) error {
	paths, err := resolvePaths()
	if err != nil {
		return err
	}
	if err := paths.Ensure(); err != nil {
		return err
	}

	opts := logging.DefaultOptions(paths.LogFile)
	opts.Console = foreground
	logger, level, err := logging.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Fatal panic", zap.Any("panic", rec), zap.Stack("stack"))
			_ = logging.WriteStacktrace(paths.StacktraceFile, rec)
			_ = logger.Sync()
			os.Exit(2)
		}
	}()

	// Single instance: claim the control channel before touching any state.
	listener, err := ipc.Listen(ipc.DefaultAddress(paths.DataDir))
	if errors.Is(err, domain.ErrInstanceRunning) {
		fmt.Println("widgetfreeze is already running")
		return nil
	}
	if err != nil {
		return err
	}

	store := infra.NewConfigStore(paths.ConfigFile, logger)
	settings, err := store.Load()
	if err != nil {
		logger.Warn("Using default settings", zap.Error(err))
		settings = domain.DefaultSettings()
	}
	level.SetLevel(logging.ParseLevel(settings.LogLevel))

	journal, journalStore := openJournal(paths.JournalFile, logger)

	pm := infra.NewProcessManager()
	classifier := infra.NewClassifier(infra.NewWindowSystem(), pm, settings.TrayClass)
	engine := usecase.NewEngine(
		settings,
		pm,
		infra.NewProcessController(logger),
		classifier,
		policy.NewRegistry(),
		store,
		journal,
		logger,
	)
	engine.OnSettingsChanged(func(s domain.Settings) {
		logger.Info("Settings changed",
			zap.String("policy", string(s.Policy)),
			zap.String("mode", string(s.Mode)))
	})

	config := daemon.DefaultRunnerConfig()
	config.Version = Version
	config.StacktraceFile = paths.StacktraceFile
	runner := daemon.NewRunner(config, infra.NewHookManager(logger), engine, journalStore, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if foreground {
		fmt.Printf("widgetfreeze running (policy %s, mode %s). Press Ctrl+C to stop.\n",
			settings.Policy, settings.Mode)
	}
	return runner.Run(ctx, listener)
}

// openJournal opens the transition journal. Both results are nil when it
// cannot be opened (builds without cgo, unwritable data dir); the watcher
// then runs without history.
func openJournal(path string, logger *zap.Logger) (domain.Journal, daemon.JournalStore) {
	j, err := infra.OpenJournal(path)
	if err != nil {
		logger.Warn("Journal unavailable, running without history",
			zap.String("path", path), zap.Error(err))
		return nil, nil
	}
	return j, j
}

func runStart(cmd *cobra.Command, args []string) error {
	paths, err := resolvePaths()
	if err != nil {
		return err
	}
	client := newClient(paths)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Status(ctx); err == nil {
		fmt.Println("widgetfreeze is already running")
		return nil
	}

	var childArgs []string
	if dataDir != "" {
		childArgs = append(childArgs, "--data-dir", dataDir)
	}
	pid, err := daemon.StartDetached(childArgs...)
	if err != nil {
		return err
	}

	// Wait for the child to claim the control channel.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		status, err := client.Status(ctx)
		cancel()
		if err == nil {
			fmt.Printf("widgetfreeze started (pid %d)\n", pid)
			printStatus(status)
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("background instance (pid %d) did not come up; see %s", pid, paths.LogFile)
}
