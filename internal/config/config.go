package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the loreleaf
// sync engine. It aggregates all sub-configurations and is populated by
// merging values from environment variables, command-line flags, an optional
// JSON file, and built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Engine holds sync-cycle tuning: batch sizes, retry policy, backoff
	// shape, and the background sync cadence.
	Engine Engine `envPrefix:"ENGINE_"`

	// Remote holds the endpoint and credentials of the remote store the
	// engine reconciles against.
	Remote Remote `envPrefix:"REMOTE_"`

	// Storage holds the local persistence settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Monitor holds connectivity-probe settings.
	Monitor Monitor `envPrefix:"MONITOR_"`

	// Server holds the local control API listen settings.
	Server Server `envPrefix:"SERVER_"`

	// Log holds logging output settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged below the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Engine tunes the sync orchestrator and operation queue.
type Engine struct {
	// BatchSize caps how many ready operations one sync cycle drains.
	// Env: ENGINE_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// MaxConcurrent bounds how many entity groups are submitted in
	// parallel within a cycle. Operations of one entity stay serialized.
	// Env: ENGINE_MAX_CONCURRENT
	MaxConcurrent int `env:"MAX_CONCURRENT"`

	// MaxRetries bounds transient-failure retries per operation before it
	// is terminally failed.
	// Env: ENGINE_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// BackoffBase is the first retry delay; each further retry doubles it.
	// Env: ENGINE_BACKOFF_BASE
	BackoffBase time.Duration `env:"BACKOFF_BASE"`

	// BackoffMax caps the exponential retry delay.
	// Env: ENGINE_BACKOFF_MAX
	BackoffMax time.Duration `env:"BACKOFF_MAX"`

	// SubmitTimeout bounds every remote submission; expiry is treated as a
	// transient failure.
	// Env: ENGINE_SUBMIT_TIMEOUT
	SubmitTimeout time.Duration `env:"SUBMIT_TIMEOUT"`

	// SyncInterval is the periodic background sync cadence.
	// Env: ENGINE_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// DisableAutoSync turns off both the periodic sync job and the
	// sync-on-reconnect trigger; syncing then only happens on demand.
	// Env: ENGINE_DISABLE_AUTO_SYNC
	DisableAutoSync bool `env:"DISABLE_AUTO_SYNC"`

	// ConflictStrategy is the automatic resolution applied when the
	// remote rejects a submission with a conflict: "local", "remote",
	// "merge" or "manual".
	// Env: ENGINE_CONFLICT_STRATEGY
	ConflictStrategy string `env:"CONFLICT_STRATEGY"`

	// MergePriority names payload fields that keep the local value when
	// a field-level merge ties on modification time. Unnamed fields take
	// the remote side.
	// Env: ENGINE_MERGE_PRIORITY (comma-separated)
	MergePriority []string `env:"MERGE_PRIORITY" envSeparator:","`
}

// Remote configures the HTTP adapter for the remote store.
type Remote struct {
	// BaseURL is the remote submit endpoint base, e.g. "https://sync.loreleaf.app".
	// Env: REMOTE_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// Token is the bearer token presented on every remote call.
	// Env: REMOTE_TOKEN
	Token string `env:"TOKEN"`

	// RequestTimeout is the transport-level timeout of the HTTP client.
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage configures local persistence.
type Storage struct {
	// DSN is the SQLite database path. ":memory:" keeps everything
	// in-process, which loses the queue on exit.
	// Env: STORAGE_DSN
	DSN string `env:"DSN"`
}

// Monitor configures the connectivity prober.
type Monitor struct {
	// ProbeURL is the endpoint probed to detect connectivity. Defaults to
	// the remote base URL when empty.
	// Env: MONITOR_PROBE_URL
	ProbeURL string `env:"PROBE_URL"`

	// ProbeInterval is how often connectivity is re-checked.
	// Env: MONITOR_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// ProbeTimeout bounds a single probe request.
	// Env: MONITOR_PROBE_TIMEOUT
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT"`
}

// Server configures the local control API.
type Server struct {
	// HTTPAddress is the TCP address the control API listens on,
	// in "host:port" format. The API is meant for the local UI layer, so
	// the default binds to loopback only.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`
}

// Log configures logging output.
type Log struct {
	// FilePath, when set, mirrors log output into a size-rotated file.
	// Env: LOG_FILE_PATH
	FilePath string `env:"FILE_PATH"`
}

// GetConfig assembles the engine configuration from all sources and
// validates it.
func GetConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
