package models

import "time"

// PipelineRun is the persisted summary of one rebuild cycle. Per-record
// failures are aggregated here instead of failing the run.
type PipelineRun struct {
	RunID              string     `json:"run_id" db:"run_id"`
	Status             string     `json:"status" db:"status"` // running, succeeded, failed, skipped
	Forced             bool       `json:"forced" db:"forced"`
	PrincipalsIn       int        `json:"principals_in" db:"principals_in"`
	PrincipalsDropped  int        `json:"principals_dropped" db:"principals_dropped"`
	CanonicalCount     int        `json:"canonical_count" db:"canonical_count"`
	PropertiesLinked   int        `json:"properties_linked" db:"properties_linked"`
	PropertiesUnlinked int        `json:"properties_unlinked" db:"properties_unlinked"`
	EdgeCount          int        `json:"edge_count" db:"edge_count"`
	NetworkCount       int        `json:"network_count" db:"network_count"`
	MembershipCount    int        `json:"membership_count" db:"membership_count"`
	WarningCount       int        `json:"warning_count" db:"warning_count"`
	StartedAt          time.Time  `json:"started_at" db:"started_at"`
	FinishedAt         *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Error              *string    `json:"error,omitempty" db:"error"`
}
