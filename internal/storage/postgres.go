package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/storage"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// PostgresStore implements storage.Store over sqlx. The same type serves
// plain connections and transactions: Begin wraps the underlying *sqlx.Tx
// behind the same interface.
type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// SaveDossier creates a dossier and returns its ID.
func (s *PostgresStore) SaveDossier(d models.Dossier) (int64, error) {
	var id int64
	err := s.db.QueryRowx(
		`INSERT INTO dossiers (reference, status, rubrique_id, sous_rubrique_id, antenne_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		d.Reference, d.Status, d.RubriqueID, d.SousRubriqueID, d.AntenneID, d.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save dossier: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetDossier(id int64) (models.Dossier, error) {
	var d models.Dossier
	err := s.db.Get(&d,
		`SELECT id, reference, status, rubrique_id, sous_rubrique_id, antenne_id, created_at
		 FROM dossiers WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return models.Dossier{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Dossier{}, fmt.Errorf("get dossier %d: %w", id, err)
	}
	return d, nil
}

func (s *PostgresStore) UpdateDossierStatus(id int64, status models.DossierStatus) error {
	res, err := s.db.Exec(`UPDATE dossiers SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update dossier %d status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SaveInstance creates the live workflow instance of a dossier.
func (s *PostgresStore) SaveInstance(wi models.WorkflowInstance) (int64, error) {
	var id int64
	err := s.db.QueryRowx(
		`INSERT INTO workflow_instances (dossier_id, phase_id, location, entered_at, deadline_at, version, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP) RETURNING id`,
		wi.DossierID, wi.PhaseID, wi.Location, wi.EnteredAt, wi.DeadlineAt, wi.Version).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save workflow instance: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetInstanceByDossier(dossierID int64) (models.WorkflowInstance, error) {
	var wi models.WorkflowInstance
	err := s.db.Get(&wi,
		`SELECT id, dossier_id, phase_id, location, entered_at, deadline_at, version, updated_at
		 FROM workflow_instances WHERE dossier_id = $1`, dossierID)
	if err == sql.ErrNoRows {
		return models.WorkflowInstance{}, storage.ErrNotFound
	}
	if err != nil {
		return models.WorkflowInstance{}, fmt.Errorf("get workflow instance for dossier %d: %w", dossierID, err)
	}
	return wi, nil
}

// UpdateInstance mutates the live instance in place. The WHERE clause on
// version is the optimistic concurrency check: zero rows affected means a
// concurrent transition won and the caller must re-read.
func (s *PostgresStore) UpdateInstance(wi models.WorkflowInstance) error {
	res, err := s.db.Exec(
		`UPDATE workflow_instances
		 SET phase_id = $1, location = $2, entered_at = $3, deadline_at = $4,
		     version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5 AND version = $6`,
		wi.PhaseID, wi.Location, wi.EnteredAt, wi.DeadlineAt, wi.ID, wi.Version)
	if err != nil {
		return fmt.Errorf("update workflow instance %d: %w", wi.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrConflict
	}
	return nil
}

func (s *PostgresStore) SaveHistory(h models.HistoryEntry) (int64, error) {
	var id int64
	err := s.db.QueryRowx(
		`INSERT INTO workflow_history
		     (dossier_id, phase_id, designation, location, entered_at, exited_at, actor_id, comment, duration_days, was_late)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		h.DossierID, h.PhaseID, h.Designation, h.Location, h.EnteredAt, h.ExitedAt,
		h.ActorID, h.Comment, h.DurationDays, h.WasLate).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save history entry: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetOpenHistory(dossierID int64) (models.HistoryEntry, error) {
	var h models.HistoryEntry
	err := s.db.Get(&h,
		`SELECT id, dossier_id, phase_id, designation, location, entered_at, exited_at, actor_id, comment, duration_days, was_late
		 FROM workflow_history WHERE dossier_id = $1 AND exited_at IS NULL`, dossierID)
	if err == sql.ErrNoRows {
		return models.HistoryEntry{}, storage.ErrNotFound
	}
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("get open history entry for dossier %d: %w", dossierID, err)
	}
	return h, nil
}

func (s *PostgresStore) CloseHistory(h models.HistoryEntry) error {
	res, err := s.db.Exec(
		`UPDATE workflow_history SET exited_at = $1, duration_days = $2, was_late = $3 WHERE id = $4`,
		h.ExitedAt, h.DurationDays, h.WasLate, h.ID)
	if err != nil {
		return fmt.Errorf("close history entry %d: %w", h.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListHistory(dossierID int64) ([]models.HistoryEntry, error) {
	entries := []models.HistoryEntry{}
	err := s.db.Select(&entries,
		`SELECT id, dossier_id, phase_id, designation, location, entered_at, exited_at, actor_id, comment, duration_days, was_late
		 FROM workflow_history WHERE dossier_id = $1 ORDER BY entered_at, id`, dossierID)
	if err != nil {
		return nil, fmt.Errorf("list history for dossier %d: %w", dossierID, err)
	}
	return entries, nil
}

func (s *PostgresStore) SaveHoliday(h models.Holiday) (int64, error) {
	var id int64
	err := s.db.QueryRowx(
		`INSERT INTO holidays (date, label, fixed) VALUES ($1, $2, $3) RETURNING id`,
		h.Date, h.Label, h.Fixed).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save holiday: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListHolidays(from, to time.Time) ([]models.Holiday, error) {
	holidays := []models.Holiday{}
	err := s.db.Select(&holidays,
		`SELECT id, date, label, fixed FROM holidays WHERE date >= $1 AND date <= $2 ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

func (s *PostgresStore) SaveAuditEvent(e models.AuditEvent) (int64, error) {
	var id int64
	err := s.db.QueryRowx(
		`INSERT INTO audit_trail (timestamp, user_id, action, entity_type, entity_id, old_value, new_value, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		e.Timestamp, e.UserID, e.Action, e.EntityType, e.EntityID, e.OldValue, e.NewValue, e.Details).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save audit event: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListAuditEvents(entityType string, entityID int64) ([]models.AuditEvent, error) {
	events := []models.AuditEvent{}
	err := s.db.Select(&events,
		`SELECT id, timestamp, user_id, action, entity_type, entity_id, old_value, new_value, details
		 FROM audit_trail WHERE entity_type = $1 AND entity_id = $2 ORDER BY timestamp, id`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
