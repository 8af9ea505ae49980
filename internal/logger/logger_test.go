package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, false)
	require.NoError(t, err)
	defer l.Close()

	l.Info("counted %s", "Face_1")
	l.Warning("slow tick")
	l.Error("camera gone")
	l.Debug("hidden")

	info, err := os.ReadFile(filepath.Join(dir, InfoFile))
	require.NoError(t, err)
	assert.Contains(t, string(info), "counted Face_1")
	assert.NotContains(t, string(info), "hidden")

	warning, _ := os.ReadFile(filepath.Join(dir, WarningFile))
	assert.Contains(t, string(warning), "slow tick")

	errs, _ := os.ReadFile(filepath.Join(dir, ErrorFile))
	assert.Contains(t, string(errs), "camera gone")
}

func TestDebugEnabled(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, true)
	require.NoError(t, err)
	defer l.Close()

	l.Debug("tick %d skipped", 3)

	info, _ := os.ReadFile(filepath.Join(dir, InfoFile))
	assert.Contains(t, string(info), "tick 3 skipped")
}

func TestCleanLogs(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, false)
	require.NoError(t, err)
	defer l.Close()

	l.Warning("something")
	require.NoError(t, l.CleanLogs(WarningFile))

	warning, _ := os.ReadFile(filepath.Join(dir, WarningFile))
	assert.Empty(t, warning)

	assert.Error(t, l.CleanLogs("../passwd"))
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	l.Error("nothing")
	assert.NoError(t, l.Close())
}
