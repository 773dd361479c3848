package storage

import (
	"time"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an instance update loses the optimistic
// version check (another transition committed first).
var ErrConflict = errors.New("conflict: stale workflow instance version")

// Store defines the persistence operations of the workflow engine.
// Begin returns a transactional Store; all writes of a transition go
// through one transaction.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Dossier operations. The engine reads dossiers for routing and
	// permission decisions; only the calling layer applies outcome statuses.
	SaveDossier(d models.Dossier) (int64, error)
	GetDossier(id int64) (models.Dossier, error)
	UpdateDossierStatus(id int64, status models.DossierStatus) error

	// Workflow instance operations. UpdateInstance enforces the version
	// check and returns ErrConflict on a stale write.
	SaveInstance(wi models.WorkflowInstance) (int64, error)
	GetInstanceByDossier(dossierID int64) (models.WorkflowInstance, error)
	UpdateInstance(wi models.WorkflowInstance) error

	// History ledger operations. CloseHistory sets the exit fields of an
	// open entry; entries are never deleted.
	SaveHistory(h models.HistoryEntry) (int64, error)
	GetOpenHistory(dossierID int64) (models.HistoryEntry, error)
	CloseHistory(h models.HistoryEntry) error
	ListHistory(dossierID int64) ([]models.HistoryEntry, error)

	// Holiday calendar operations.
	SaveHoliday(h models.Holiday) (int64, error)
	ListHolidays(from, to time.Time) ([]models.Holiday, error)

	// Audit trail operations.
	SaveAuditEvent(e models.AuditEvent) (int64, error)
	ListAuditEvents(entityType string, entityID int64) ([]models.AuditEvent, error)
}
