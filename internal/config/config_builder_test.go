package config

import (
	"encoding/json"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// validRemote returns a config fragment satisfying the remote section of
// validate, the only section defaults cannot fill.
func validRemote() *StructuredConfig {
	return &StructuredConfig{
		Remote: Remote{BaseURL: "https://sync.example.com"},
	}
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilderFailsValidation verifies that building with no
// sources fails: the remote base URL has no default and is required.
func TestBuild_EmptyBuilderFailsValidation(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRemoteConfigs)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_EarlierSourceWins verifies merge precedence: a field set by an
// earlier config is not overwritten by a later one.
func TestBuild_EarlierSourceWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Engine: Engine{BatchSize: 10}},
		&StructuredConfig{Engine: Engine{BatchSize: 99}, Remote: Remote{BaseURL: "https://sync.example.com"}},
	)
	b.withDefaults()

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Engine.BatchSize)
	assert.Equal(t, "https://sync.example.com", cfg.Remote.BaseURL)
}

// TestBuild_DefaultsFillGaps verifies that fields no source provided come
// out with their default values.
func TestBuild_DefaultsFillGaps(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, validRemote())
	b.withDefaults()

	cfg, err := b.build()
	require.NoError(t, err)

	defaults := defaultConfig()
	assert.Equal(t, defaults.Engine.BatchSize, cfg.Engine.BatchSize)
	assert.Equal(t, defaults.Engine.MaxRetries, cfg.Engine.MaxRetries)
	assert.Equal(t, defaults.Engine.BackoffBase, cfg.Engine.BackoffBase)
	assert.Equal(t, defaults.Engine.SyncInterval, cfg.Engine.SyncInterval)
	assert.Equal(t, defaults.Storage.DSN, cfg.Storage.DSN)
	assert.Equal(t, defaults.Monitor.ProbeInterval, cfg.Monitor.ProbeInterval)
	assert.Equal(t, defaults.Server.HTTPAddress, cfg.Server.HTTPAddress)
	assert.Equal(t, defaults.Remote.RequestTimeout, cfg.Remote.RequestTimeout)
}

// ── withEnv ───────────────────────────────────────────────────────────────────

// TestWithEnv_ReturnsBuilder verifies the fluent interface.
func TestWithEnv_ReturnsBuilder(t *testing.T) {
	clearEnvVars(t)
	b := newConfigBuilder()
	assert.Same(t, b, b.withEnv())
}

// TestWithEnv_AppendsOneConfig verifies that withEnv appends exactly one entry.
func TestWithEnv_AppendsOneConfig(t *testing.T) {
	clearEnvVars(t)
	b := newConfigBuilder()
	b.withEnv()
	assert.Len(t, b.configs, 1)
}

// TestWithEnv_PicksUpValues verifies that env values land in the appended
// config.
func TestWithEnv_PicksUpValues(t *testing.T) {
	setEnvVars(t, map[string]string{
		"REMOTE_BASE_URL":      "https://env.example.com",
		"ENGINE_SYNC_INTERVAL": "90s",
	})

	b := newConfigBuilder().withEnv()
	require.NoError(t, b.err)
	require.Len(t, b.configs, 1)

	assert.Equal(t, "https://env.example.com", b.configs[0].Remote.BaseURL)
	assert.Equal(t, 90*time.Second, b.configs[0].Engine.SyncInterval)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

// TestWithJSON_UsesPathFromEarlierSource verifies that the JSON path set by
// a higher-priority source (env or flags) is the one loaded.
func TestWithJSON_UsesPathFromEarlierSource(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"storage": map[string]any{"dsn": "/from/json.db"},
	})

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})
	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 2)
	assert.Equal(t, "/from/json.db", b.configs[1].Storage.DSN)
}

// TestWithJSON_NoPath verifies that withJSON is a no-op when no source
// provided a config file path.
func TestWithJSON_NoPath(t *testing.T) {
	b := newConfigBuilder()
	b.withJSON()

	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// TestWithJSON_FileNotFound verifies that a dangling config path is recorded
// as a builder error and surfaces from build.
func TestWithJSON_FileNotFound(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/nonexistent/config.json"})
	b.withJSON()

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

// ── withDefaults ──────────────────────────────────────────────────────────────

// TestWithDefaults_AppendsDefaults verifies that withDefaults appends the
// built-in defaults as the lowest-priority source.
func TestWithDefaults_AppendsDefaults(t *testing.T) {
	b := newConfigBuilder().withDefaults()
	require.Len(t, b.configs, 1)
	assert.Equal(t, defaultConfig(), b.configs[0])
}

// ── GetConfig ─────────────────────────────────────────────────────────────────

// TestGetConfig_EndToEnd runs the full chain: env supplies the remote URL,
// defaults fill everything else.
func TestGetConfig_EndToEnd(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	oldArgs := os.Args
	os.Args = []string{"cmd"}
	defer func() { os.Args = oldArgs }()

	setEnvVars(t, map[string]string{
		"REMOTE_BASE_URL": "https://sync.example.com",
	})

	cfg, err := GetConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://sync.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, defaultConfig().Engine.BatchSize, cfg.Engine.BatchSize)
	assert.Equal(t, defaultConfig().Server.HTTPAddress, cfg.Server.HTTPAddress)
	assert.False(t, cfg.Engine.DisableAutoSync)
}

// TestGetConfig_EnvBeatsJSON verifies source priority end to end: the env
// value wins over the JSON file it points at.
func TestGetConfig_EnvBeatsJSON(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	oldArgs := os.Args
	os.Args = []string{"cmd"}
	defer func() { os.Args = oldArgs }()

	path := writeTempJSONConfig(t, map[string]any{
		"remote":  map[string]any{"base_url": "https://json.example.com"},
		"storage": map[string]any{"dsn": "/from/json.db"},
	})

	setEnvVars(t, map[string]string{
		"CONFIG":          path,
		"REMOTE_BASE_URL": "https://env.example.com",
	})

	cfg, err := GetConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Remote.BaseURL)
	assert.Equal(t, "/from/json.db", cfg.Storage.DSN)
}
