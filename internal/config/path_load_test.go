package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrefersExplicit(t *testing.T) {
	path, err := ResolvePath("/tmp/custom.conf")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.conf", path)
}

func TestResolvePathUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")

	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/xdg/config", "segno", "config.conf"), path)
}

func TestResolvePathFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/tester")

	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/home/tester", ".config", "segno", "config.conf"), path)
}

func TestResolveHistoryPathUsesXDGStateHome(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	path, err := ResolveHistoryPath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/xdg/state", "segno", "history.db"), path)
}

func TestResolveHistoryPathPrefersExplicit(t *testing.T) {
	path, err := ResolveHistoryPath("/data/history.db")
	require.NoError(t, err)
	require.Equal(t, "/data/history.db", path)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.conf")

	loaded, err := Load(missing)
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, missing, loaded.Path)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadReadsAndParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"api": {"model": "llava"}}`), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, "llava", loaded.Config.API.Model)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.conf")
	require.NoError(t, os.WriteFile(path, []byte(`{"api": {`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), path)
}
