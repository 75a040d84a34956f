// Package netmon watches connectivity to the remote store and publishes
// status changes to subscribers.
package netmon

import (
	"context"

	"github.com/loreleaf/loreleaf/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/netmon_mock.go -package=mock

// Monitor tracks the last known network status and notifies subscribers
// when it changes.
//
// The monitor only observes; it never triggers a sync itself. Components
// that care about connectivity (the orchestrator, the sync job) subscribe
// and react.
type Monitor interface {
	// Start launches the background probe loop. It stops any previously
	// running loop first. The loop exits when ctx is cancelled or Stop is
	// called.
	Start(ctx context.Context)

	// Stop halts the probe loop and blocks until it has exited. Safe to
	// call when the monitor is not running.
	Stop()

	// IsOnline reports the last known connectivity.
	IsOnline() bool

	// Status returns the last known network status.
	Status() models.NetworkStatus

	// IsSlowConnection reports whether the link quality is too poor for
	// eager syncing (effective type slow-2g/2g or downlink under 1 Mbit/s).
	IsSlowConnection() bool

	// Subscribe registers a listener invoked with the new status after
	// every online/offline transition or link-quality change. Listeners
	// run in registration order; delivery is decoupled from the probe
	// that observed the change. The returned function removes the
	// listener.
	Subscribe(listener func(models.NetworkStatus)) (unsubscribe func())

	// SetStatus overrides the current status, feeding the same change
	// detection and dispatch path as a probe result. Used by the control
	// API and by tests.
	SetStatus(status models.NetworkStatus)
}

// Prober performs a single connectivity check.
type Prober interface {
	// Probe measures reachability of the probe target and returns the
	// observed status. It returns an error only when the check could not
	// run at all (context cancelled); an unreachable target is reported
	// as an offline status with a nil error.
	Probe(ctx context.Context) (models.NetworkStatus, error)
}
