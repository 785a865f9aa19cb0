package infra

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppDirName is the directory holding all per-user state.
const AppDirName = "widgetfreeze"

// DataDirEnv overrides the data directory.
const DataDirEnv = "WIDGETFREEZE_DATA_DIR"

// Paths holds the file locations used by the daemon.
type Paths struct {
	DataDir        string
	ConfigFile     string
	JournalFile    string
	LogFile        string
	StacktraceFile string
}

// DetectPaths returns the per-user paths: %APPDATA%\widgetfreeze on Windows,
// the XDG config directory elsewhere.
func DetectPaths() (*Paths, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return PathsIn(dir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return PathsIn(filepath.Join(base, AppDirName)), nil
}

// PathsIn returns the paths rooted at dataDir.
func PathsIn(dataDir string) *Paths {
	return &Paths{
		DataDir:        dataDir,
		ConfigFile:     filepath.Join(dataDir, "config.json"),
		JournalFile:    filepath.Join(dataDir, "journal.db"),
		LogFile:        filepath.Join(dataDir, "widgetfreeze.log"),
		StacktraceFile: filepath.Join(dataDir, "stacktrace.log"),
	}
}

// Ensure creates the data directory.
func (p *Paths) Ensure() error {
	if err := os.MkdirAll(p.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
