package domain

import "time"

// SyncState describes where a sync run is in its lifecycle.
type SyncState string

const (
	// SyncStateIdle means no run has started yet
	SyncStateIdle SyncState = "idle"
	// SyncStateRunning means a run is currently in flight
	SyncStateRunning SyncState = "running"
	// SyncStateSucceeded means the most recent run completed fully
	SyncStateSucceeded SyncState = "succeeded"
	// SyncStateFailed means the most recent run ended with an error
	SyncStateFailed SyncState = "failed"
)

// SyncCounts holds the per-collection row counts produced by a sync run.
type SyncCounts struct {
	Services          int `json:"services"`
	Plans             int `json:"plans"`
	RateCards         int `json:"rate_cards"`
	BillingCycles     int `json:"billing_cycles"`
	Products          int `json:"products"`
	Licences          int `json:"licences"`
	OperatingSystems  int `json:"operating_systems"`
	Templates         int `json:"templates"`
	StorageCategories int `json:"storage_categories"`
	PlanCategories    int `json:"plan_categories"`
	UnitPricings      int `json:"unit_pricings"`
}

// SyncStatus is a snapshot of the syncer's in-memory state. It is not
// persisted; the per-table sync metadata rows are the durable record.
type SyncStatus struct {
	State         SyncState  `json:"state"`
	RunID         string     `json:"run_id,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	Counts        SyncCounts `json:"counts"`
}

// IsRunning reports whether a run is currently in flight.
func (s SyncStatus) IsRunning() bool {
	return s.State == SyncStateRunning
}
