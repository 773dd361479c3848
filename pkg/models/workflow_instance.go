package models

import "time"

// WorkflowInstance is the single live workflow record of a dossier. It is
// created once at initialization and mutated in place by every transition.
//
// PhaseID, Location, EnteredAt and DeadlineAt are the stored ground truth.
// RemainingDays, OverdueDays and Overdue are derived from DeadlineAt against
// the wall clock on every read and are never persisted.
type WorkflowInstance struct {
	ID         int64     `json:"id" db:"id"`
	DossierID  int64     `json:"dossier_id" db:"dossier_id"`
	PhaseID    int64     `json:"phase_id" db:"phase_id"`
	Location   Location  `json:"location" db:"location"`
	EnteredAt  time.Time `json:"entered_at" db:"entered_at"`
	DeadlineAt time.Time `json:"deadline_at" db:"deadline_at"`
	Version    int64     `json:"version" db:"version"` // optimistic concurrency guard
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	RemainingDays int  `json:"remaining_working_days" db:"-"`
	OverdueDays   int  `json:"overdue_working_days" db:"-"`
	Overdue       bool `json:"is_overdue" db:"-"`
}
