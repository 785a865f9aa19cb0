package main

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{
		"run", "start", "status", "set-policy", "set-mode",
		"exit", "history", "list-policies", "version", "autostart",
	} {
		assert.Contains(t, names, want)
	}
}

func TestValidArgs(t *testing.T) {
	assert.Equal(t, []string{"not_on_desktop", "maximized", "full_screen"}, policyNames())
	assert.Equal(t, []string{"suspend", "low_priority"}, modeNames())
}

func TestSetCommands_RequireOneArgument(t *testing.T) {
	assert.Error(t, setPolicyCmd.Args(setPolicyCmd, nil))
	assert.NoError(t, setPolicyCmd.Args(setPolicyCmd, []string{"maximized"}))
	assert.Error(t, setModeCmd.Args(setModeCmd, []string{"suspend", "extra"}))
}

func TestDirectionLabel(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	assert.Equal(t, "freeze", directionLabel(domain.DirectionFreeze))
	assert.Equal(t, "unfreeze", directionLabel(domain.DirectionUnfreeze))
}

func TestResolvePaths_HonoursDataDirFlag(t *testing.T) {
	prev := dataDir
	dataDir = t.TempDir()
	defer func() { dataDir = prev }()

	paths, err := resolvePaths()
	assert.NoError(t, err)
	assert.Equal(t, dataDir, paths.DataDir)
}
