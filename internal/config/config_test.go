package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, DefaultPlatformType, cfg.Platform.Type)
	assert.Equal(t, DefaultAIProvider, cfg.AI.Provider)
	assert.Equal(t, DefaultAIModel, cfg.AI.Model)
	assert.Equal(t, DefaultGraphURL, cfg.Graph.URL)
	assert.Equal(t, DefaultBridgeMaxDepth, cfg.Graph.BridgeMaxDepth)
	assert.Equal(t, DefaultVectorURL, cfg.Vector.URL)
	assert.Equal(t, DefaultVectorDimensions, cfg.Vector.Dimensions)
	assert.Equal(t, DefaultCredentialsStorage, cfg.Credentials.Storage)
	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CV_PLATFORM_TYPE", "gitlab")
	t.Setenv("CV_GRAPH_URL", "bolt://graph.internal:7687")
	t.Setenv("CV_LOG_LEVEL", "debug")
	t.Setenv("CV_LOG_JSON", "false")

	cfg := loadEnv(Defaults())

	assert.Equal(t, "gitlab", cfg.Platform.Type)
	assert.Equal(t, "bolt://graph.internal:7687", cfg.Graph.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadEnvDebugForcesLogLevel(t *testing.T) {
	t.Setenv("CV_DEBUG", "true")

	cfg := loadEnv(Defaults())

	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestMergePreservesUnsetGroups(t *testing.T) {
	base := Defaults()
	override := &Config{Logging: LoggingConfig{Level: "warn", Format: "text"}}

	merged := merge(base, override)

	assert.Equal(t, "warn", merged.Logging.Level)
	assert.Equal(t, DefaultPlatformType, merged.Platform.Type)
	assert.Equal(t, DefaultGraphURL, merged.Graph.URL)
}

func TestLoadFileIfExistsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	fileCfg := &Config{Platform: PlatformConfig{Type: "gitea", URL: "https://git.example.com"}}
	data, err := json.Marshal(fileCfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := loadFileIfExists(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "gitea", loaded.Platform.Type)
	assert.Equal(t, "https://git.example.com", loaded.Platform.URL)
}

func TestLoadFileIfExistsMissingReturnsNil(t *testing.T) {
	loaded, err := loadFileIfExists(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadPrecedenceEnvOverFile(t *testing.T) {
	repoDir := t.TempDir()
	cvDir := filepath.Join(repoDir, ".cv")
	require.NoError(t, os.MkdirAll(cvDir, 0o755))

	fileCfg := &Config{Logging: LoggingConfig{Level: "warn", Format: "json"}}
	data, err := json.Marshal(fileCfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cvDir, "config.json"), data, 0o600))

	t.Setenv("CV_LOG_LEVEL", "error")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(context.Background(), repoDir)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownCredentialsStorage(t *testing.T) {
	cfg := Defaults()
	cfg.Credentials.Storage = "vault"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroWorkerPools(t *testing.T) {
	cfg := Defaults()
	cfg.Indexer.ParseWorkers = 0
	assert.Error(t, cfg.Validate())
}

func TestContains(t *testing.T) {
	assert.True(t, contains([]string{"a", "b"}, "a"))
	assert.False(t, contains([]string{"a", "b"}, "c"))
}
