package config

import "github.com/loreleaf/loreleaf/models"

// validate checks that the final merged [StructuredConfig] satisfies the
// invariants the engine relies on at startup.
//
// Defaults are merged in before validation runs, so a zero value here means
// an explicit override broke the setting rather than omitted it.
func (cfg *StructuredConfig) validate() error {
	if cfg.Remote.BaseURL == "" || cfg.Remote.RequestTimeout <= 0 {
		return ErrInvalidRemoteConfigs
	}

	if cfg.Engine.BatchSize < 1 || cfg.Engine.MaxConcurrent < 1 || cfg.Engine.MaxRetries < 0 {
		return ErrInvalidEngineConfigs
	}

	if cfg.Engine.BackoffBase <= 0 || cfg.Engine.BackoffMax < cfg.Engine.BackoffBase || cfg.Engine.SyncInterval <= 0 {
		return ErrInvalidEngineConfigs
	}

	if !models.KnownStrategy(models.ResolutionStrategy(cfg.Engine.ConflictStrategy)) {
		return ErrInvalidEngineConfigs
	}

	if cfg.Monitor.ProbeInterval <= 0 || cfg.Monitor.ProbeTimeout <= 0 {
		return ErrInvalidMonitorConfigs
	}

	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	return nil
}
