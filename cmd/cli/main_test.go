package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmichett/FedoraRemixPXE/internal/logging"
)

func execute(t *testing.T, args ...string) (*slog.LevelVar, error) {
	t.Helper()
	var levelVar slog.LevelVar
	logger := logging.NewCLI(io.Discard, &levelVar)
	root := newRootCommand(logger, &levelVar)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return &levelVar, root.ExecuteContext(context.Background())
}

func TestRootRejectsConflictingModes(t *testing.T) {
	_, err := execute(t, "--status", "--stop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestRootProbeRequiresStatus(t *testing.T) {
	_, err := execute(t, "--probe", "--log-level", "debug")
	assert.EqualError(t, err, "--probe requires --status")
}

func TestRootRejectsUnknownLogSettings(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "--status")
	assert.EqualError(t, err, `unknown log level "loud"`)

	_, err = execute(t, "--log-format", "xml", "--status")
	assert.EqualError(t, err, `unknown log format "xml"`)
}

func TestRootAppliesLogLevel(t *testing.T) {
	levelVar, err := execute(t, "--log-level", "warning", "--probe")
	require.Error(t, err)
	assert.Equal(t, slog.LevelWarn, levelVar.Level())
}

func TestRootRejectsArguments(t *testing.T) {
	_, err := execute(t, "extra")
	assert.Error(t, err)
}
