package service

import "errors"

var (
	// ErrOffline is returned when a sync cycle is requested while the
	// network is down.
	ErrOffline = errors.New("network is offline")

	// ErrConflictNotFound is returned when ResolveConflict is given an id
	// with no parked conflict behind it.
	ErrConflictNotFound = errors.New("conflict not found")

	// ErrManualResolution is returned when ResolveConflict is called with
	// the manual strategy, which cannot settle anything.
	ErrManualResolution = errors.New("manual strategy does not resolve a conflict")

	// ErrEngineClosed is returned for mutations after Close.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrInvalidUpdate is returned when a runtime config update fails
	// validation; nothing is applied.
	ErrInvalidUpdate = errors.New("invalid config update")
)
