// Package app assembles the sync engine from its parts: local store,
// remote adapter, network monitor, queue, arena, orchestrator, engine
// facade, background jobs, and the control API server.
package app
