package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Duration wraps time.Duration to support JSON config values given either as
// duration strings ("30s", "5m") or as raw nanosecond numbers.
type Duration struct {
	time.Duration
}

// UnmarshalJSON implements json.Unmarshaler for Duration.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var value any
	if err := json.Unmarshal(b, &value); err != nil {
		return err
	}

	switch typed := value.(type) {
	case float64:
		d.Duration = time.Duration(typed)
		return nil
	case string:
		parsed, err := time.ParseDuration(typed)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrParsingDuration, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrParsingDuration, value)
	}
}

// structuredJSONConfig mirrors StructuredConfig for JSON files, using Duration
// wrappers so intervals can be written as human-readable strings.
type structuredJSONConfig struct {
	Engine  jsonEngine  `json:"engine"`
	Remote  jsonRemote  `json:"remote"`
	Storage jsonStorage `json:"storage"`
	Monitor jsonMonitor `json:"monitor"`
	Server  jsonServer  `json:"server"`
	Log     jsonLog     `json:"log"`
}

type jsonEngine struct {
	BatchSize       int      `json:"batch_size"`
	MaxConcurrent   int      `json:"max_concurrent"`
	MaxRetries      int      `json:"max_retries"`
	BackoffBase     Duration `json:"backoff_base"`
	BackoffMax      Duration `json:"backoff_max"`
	SubmitTimeout   Duration `json:"submit_timeout"`
	SyncInterval    Duration `json:"sync_interval"`
	DisableAutoSync bool     `json:"disable_auto_sync"`
}

type jsonRemote struct {
	BaseURL        string   `json:"base_url"`
	Token          string   `json:"token"`
	RequestTimeout Duration `json:"request_timeout"`
}

type jsonStorage struct {
	DSN string `json:"dsn"`
}

type jsonMonitor struct {
	ProbeURL      string   `json:"probe_url"`
	ProbeInterval Duration `json:"probe_interval"`
	ProbeTimeout  Duration `json:"probe_timeout"`
}

type jsonServer struct {
	HTTPAddress string `json:"http_address"`
}

type jsonLog struct {
	FilePath string `json:"file_path"`
}

// parseJSON reads the JSON config file at path and converts it into a
// StructuredConfig. A missing path yields an empty config without error.
func parseJSON(path string) (*StructuredConfig, error) {
	if path == "" {
		return &StructuredConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}

	var jsonCfg structuredJSONConfig
	if err := json.Unmarshal(data, &jsonCfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsingConfigFile, err)
	}

	return jsonCfg.toStructuredConfig(), nil
}

func (j *structuredJSONConfig) toStructuredConfig() *StructuredConfig {
	return &StructuredConfig{
		Engine: Engine{
			BatchSize:       j.Engine.BatchSize,
			MaxConcurrent:   j.Engine.MaxConcurrent,
			MaxRetries:      j.Engine.MaxRetries,
			BackoffBase:     j.Engine.BackoffBase.Duration,
			BackoffMax:      j.Engine.BackoffMax.Duration,
			SubmitTimeout:   j.Engine.SubmitTimeout.Duration,
			SyncInterval:    j.Engine.SyncInterval.Duration,
			DisableAutoSync: j.Engine.DisableAutoSync,
		},
		Remote: Remote{
			BaseURL:        j.Remote.BaseURL,
			Token:          j.Remote.Token,
			RequestTimeout: j.Remote.RequestTimeout.Duration,
		},
		Storage: Storage{
			DSN: j.Storage.DSN,
		},
		Monitor: Monitor{
			ProbeURL:      j.Monitor.ProbeURL,
			ProbeInterval: j.Monitor.ProbeInterval.Duration,
			ProbeTimeout:  j.Monitor.ProbeTimeout.Duration,
		},
		Server: Server{
			HTTPAddress: j.Server.HTTPAddress,
		},
		Log: Log{
			FilePath: j.Log.FilePath,
		},
	}
}
