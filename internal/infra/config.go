package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// Config keys.
const (
	keyPolicy    = "freeze_algorithm"
	keyMode      = "freeze_mode"
	keyTarget    = "target_process"
	keyTrayClass = "tray_class"
	keyLogLevel  = "log_level"
)

// EnvPrefix prefixes environment overrides, e.g. WIDGETFREEZE_FREEZE_MODE.
const EnvPrefix = "WIDGETFREEZE"

// FileConfigStore implements domain.ConfigStore with a viper-managed JSON file.
type FileConfigStore struct {
	mu     sync.Mutex
	path   string
	v      *viper.Viper
	logger *zap.Logger
}

// NewConfigStore creates a store backed by the JSON file at path.
func NewConfigStore(path string, logger *zap.Logger) *FileConfigStore {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	d := domain.DefaultSettings()
	v.SetDefault(keyPolicy, string(d.Policy))
	v.SetDefault(keyMode, string(d.Mode))
	v.SetDefault(keyTarget, d.TargetName)
	v.SetDefault(keyTrayClass, d.TrayClass)
	v.SetDefault(keyLogLevel, d.LogLevel)

	return &FileConfigStore{path: path, v: v, logger: logger}
}

// Load reads the config file. A missing file yields defaults; an
// unreadable one is reset to defaults and rewritten.
func (s *FileConfigStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
			s.logger.Info("No config file, using defaults", zap.String("path", s.path))
		default:
			s.logger.Warn("Config file is corrupt, resetting to defaults",
				zap.String("path", s.path),
				zap.Error(err))
			defaults := domain.DefaultSettings()
			if err := s.writeLocked(defaults); err != nil {
				return defaults, err
			}
			return defaults, nil
		}
	}

	return s.settingsLocked(), nil
}

// Save persists s to the config file.
func (s *FileConfigStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(settings)
}

// Path returns the config file path.
func (s *FileConfigStore) Path() string {
	return s.path
}

func (s *FileConfigStore) settingsLocked() domain.Settings {
	d := domain.DefaultSettings()
	settings := domain.Settings{
		TargetName: s.v.GetString(keyTarget),
		TrayClass:  s.v.GetString(keyTrayClass),
		LogLevel:   s.v.GetString(keyLogLevel),
	}

	policy, err := domain.ParsePolicy(s.v.GetString(keyPolicy))
	if err != nil {
		s.logger.Warn("Invalid freeze policy in config, using default",
			zap.String("value", s.v.GetString(keyPolicy)),
			zap.String("default", string(d.Policy)))
		policy = d.Policy
	}
	settings.Policy = policy

	mode, err := domain.ParseMode(s.v.GetString(keyMode))
	if err != nil {
		s.logger.Warn("Invalid freeze mode in config, using default",
			zap.String("value", s.v.GetString(keyMode)),
			zap.String("default", string(d.Mode)))
		mode = d.Mode
	}
	settings.Mode = mode

	if settings.TargetName == "" {
		settings.TargetName = d.TargetName
	}
	if settings.LogLevel == "" {
		settings.LogLevel = d.LogLevel
	}
	return settings
}

func (s *FileConfigStore) writeLocked(settings domain.Settings) error {
	s.v.Set(keyPolicy, string(settings.Policy))
	s.v.Set(keyMode, string(settings.Mode))
	s.v.Set(keyTarget, settings.TargetName)
	s.v.Set(keyTrayClass, settings.TrayClass)
	s.v.Set(keyLogLevel, settings.LogLevel)

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Ensure FileConfigStore implements domain.ConfigStore.
var _ domain.ConfigStore = (*FileConfigStore)(nil)
