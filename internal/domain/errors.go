package domain

import "errors"

var (
	// ErrSyncInProgress is returned when a sync is triggered while another run is in flight
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrSyncDisabled is returned when the upstream configuration disables syncing
	ErrSyncDisabled = errors.New("catalog sync is disabled")

	// ErrNoAPIKey is returned when no upstream API credential is configured
	ErrNoAPIKey = errors.New("no API key configured")
)
