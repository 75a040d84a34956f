package config

import "time"

// Default values applied when no other source supplies a field. The engine
// section mirrors the tuning the sync orchestrator was designed around; the
// server default binds to loopback because the control API carries no auth.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		Engine: Engine{
			BatchSize:        25,
			MaxConcurrent:    4,
			MaxRetries:       3,
			BackoffBase:      2 * time.Second,
			BackoffMax:       5 * time.Minute,
			SubmitTimeout:    30 * time.Second,
			SyncInterval:     5 * time.Minute,
			ConflictStrategy: "merge",
		},
		Remote: Remote{
			RequestTimeout: 30 * time.Second,
		},
		Storage: Storage{
			DSN: "loreleaf.db",
		},
		Monitor: Monitor{
			ProbeInterval: 30 * time.Second,
			ProbeTimeout:  5 * time.Second,
		},
		Server: Server{
			HTTPAddress: "127.0.0.1:7473",
		},
	}
}
