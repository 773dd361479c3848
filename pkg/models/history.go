package models

import "time"

// HistoryEntry is one phase-occupancy interval of a dossier. Entries are
// append-only: for each dossier exactly one entry is open (ExitedAt nil) and
// it mirrors the live WorkflowInstance. DurationDays and WasLate are set
// only when the interval closes.
type HistoryEntry struct {
	ID           int64      `json:"id" db:"id"`
	DossierID    int64      `json:"dossier_id" db:"dossier_id"`
	PhaseID      int64      `json:"phase_id" db:"phase_id"`
	Designation  string     `json:"designation" db:"designation"`
	Location     Location   `json:"location" db:"location"`
	EnteredAt    time.Time  `json:"entered_at" db:"entered_at"`
	ExitedAt     *time.Time `json:"exited_at,omitempty" db:"exited_at"`
	ActorID      int64      `json:"actor_id" db:"actor_id"`
	Comment      string     `json:"comment,omitempty" db:"comment"`
	DurationDays *int       `json:"duration_working_days,omitempty" db:"duration_days"`
	WasLate      *bool      `json:"was_late,omitempty" db:"was_late"`
}

// Open reports whether the interval is still running.
func (h HistoryEntry) Open() bool {
	return h.ExitedAt == nil
}
