package ipc

import (
	"time"

	"rostersync/internal/roster"
	"rostersync/internal/scheduler"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime and store health.
type StatusResponse struct {
	Running       bool            `json:"running"`
	PID           int             `json:"pid"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StorePath     string          `json:"store_path"`
	LockPath      string          `json:"lock_path"`
	Total         int             `json:"total"`
	Resolved      int             `json:"resolved"`
	Unresolved    int             `json:"unresolved"`
	Scheduler     scheduler.Stats `json:"scheduler"`
	CachedTargets int             `json:"cached_targets"`
}

// AuditRequest triggers an audit run.
type AuditRequest struct {
	Force bool `json:"force"`
}

// AuditResponse reports the audit outcome.
type AuditResponse struct {
	Total   int      `json:"total"`
	Sample  []string `json:"sample"`
	Emitted bool     `json:"emitted"`
}

// SweepRequest triggers a full linking sweep.
type SweepRequest struct{}

// SweepResponse reports the sweep outcome.
type SweepResponse struct {
	Linked    int `json:"linked"`
	Ambiguous int `json:"ambiguous"`
	Unmatched int `json:"unmatched"`
}

// RecordsRequest lists roster records.
type RecordsRequest struct {
	UnresolvedOnly bool `json:"unresolved_only"`
}

// Record mirrors roster.Record for IPC callers.
type Record struct {
	ID               int64  `json:"id"`
	EntityID         string `json:"entity_id"`
	Handle           string `json:"handle"`
	DisplayName      string `json:"display_name"`
	Tier             string `json:"tier"`
	Position         string `json:"position"`
	PositionOverride string `json:"position_override"`
	Squad            string `json:"squad"`
	Captain          bool   `json:"captain"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// FromRecord converts a store record into its IPC form.
func FromRecord(rec *roster.Record) Record {
	if rec == nil {
		return Record{}
	}
	out := Record{
		ID:               rec.ID,
		EntityID:         rec.EntityID,
		Handle:           rec.Handle,
		DisplayName:      rec.DisplayName,
		Tier:             rec.Tier,
		Position:         rec.Position,
		PositionOverride: rec.PositionOverride,
		Squad:            rec.Squad,
		Captain:          rec.Captain,
	}
	if !rec.CreatedAt.IsZero() {
		out.CreatedAt = rec.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !rec.UpdatedAt.IsZero() {
		out.UpdatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// ToRecord converts the IPC form back into a store record.
func (r Record) ToRecord() *roster.Record {
	return &roster.Record{
		ID:               r.ID,
		EntityID:         r.EntityID,
		Handle:           r.Handle,
		DisplayName:      r.DisplayName,
		Tier:             r.Tier,
		Position:         r.Position,
		PositionOverride: r.PositionOverride,
		Squad:            r.Squad,
		Captain:          r.Captain,
	}
}

// RecordsResponse contains roster records.
type RecordsResponse struct {
	Records []Record `json:"records"`
}

// PutRecordRequest upserts one record.
type PutRecordRequest struct {
	Record Record `json:"record"`
}

// PutRecordResponse returns the stored record.
type PutRecordResponse struct {
	Record Record `json:"record"`
}

// TestNotifyRequest triggers a notification test.
type TestNotifyRequest struct{}

// TestNotifyResponse reports the notification test outcome.
type TestNotifyResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// StopRequest stops the daemon process.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}
