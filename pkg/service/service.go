package service

import (
	"sync"
	"time"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/storage"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for WorkflowService.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// WorkflowService is the workflow/SLA engine: it owns the transition
// algorithm, the deadline arithmetic and the per-phase authorization
// decisions for dossiers. It is invoked synchronously by the surrounding
// CRUD layer; nothing here advances phases on its own.
type WorkflowService struct {
	store  storage.Store
	cal    *Calendar
	logger Logger
	now    func() time.Time

	// Per-dossier mutexes serialize transitions within this process; the
	// version column on workflow_instances covers concurrent processes.
	locks sync.Map
}

// Option configures a WorkflowService.
type Option func(*WorkflowService)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *WorkflowService) { s.now = now }
}

// WithHolidaySource overrides the default store-backed cached holiday source.
func WithHolidaySource(src HolidaySource) Option {
	return func(s *WorkflowService) { s.cal = NewCalendar(src) }
}

func NewWorkflowService(store storage.Store, logger Logger, opts ...Option) *WorkflowService {
	s := &WorkflowService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	s.cal = NewCalendar(NewCachedHolidaySource(storeHolidaySource{store: store}, time.Hour))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calendar exposes the engine's working-day calculator.
func (s *WorkflowService) Calendar() *Calendar {
	return s.cal
}

// InitializeWorkflow creates the live workflow instance of a dossier at
// phase 1 and opens its first history entry. Fails with
// ErrAlreadyInitialized when a live instance already exists.
func (s *WorkflowService) InitializeWorkflow(dossierID, actorID int64) (wi models.WorkflowInstance, err error) {
	defer s.lockDossier(dossierID)()

	txStore, err := s.store.Begin()
	if err != nil {
		return models.WorkflowInstance{}, errors.Wrap(err, "begin transaction")
	}
	defer s.endTx(txStore, &err)

	if _, err = txStore.GetDossier(dossierID); err != nil {
		return models.WorkflowInstance{}, errors.Wrapf(err, "load dossier %d", dossierID)
	}
	if _, err = txStore.GetInstanceByDossier(dossierID); err == nil {
		return models.WorkflowInstance{}, errors.Wrapf(ErrAlreadyInitialized, "dossier %d", dossierID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.WorkflowInstance{}, err
	}

	phase, err := models.GetPhase(1)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	now := s.now()
	deadline, err := s.cal.Deadline(now, phase.DurationDays)
	if err != nil {
		return models.WorkflowInstance{}, err
	}

	wi = models.WorkflowInstance{
		DossierID:  dossierID,
		PhaseID:    phase.ID,
		Location:   phase.Location,
		EnteredAt:  now,
		DeadlineAt: deadline,
		Version:    1,
		UpdatedAt:  now,
	}
	if wi.ID, err = txStore.SaveInstance(wi); err != nil {
		return models.WorkflowInstance{}, errors.Wrap(err, "save workflow instance")
	}

	if _, err = txStore.SaveHistory(models.HistoryEntry{
		DossierID:   dossierID,
		PhaseID:     phase.ID,
		Designation: phase.Designation,
		Location:    phase.Location,
		EnteredAt:   now,
		ActorID:     actorID,
		Comment:     "Initialisation du workflow",
	}); err != nil {
		return models.WorkflowInstance{}, errors.Wrap(err, "open history entry")
	}

	if err = s.recordAudit(txStore, actorID, "WORKFLOW_INIT", dossierID, "", "Phase 1", "Workflow initialized"); err != nil {
		return models.WorkflowInstance{}, err
	}

	if err = s.refreshDerived(&wi); err != nil {
		return models.WorkflowInstance{}, err
	}
	s.logger.Infof("Initialized workflow for dossier %d with deadline %s", dossierID, deadline.Format(time.RFC3339))
	return wi, nil
}

// Advance moves the dossier along its forward edge. Phase 8 has no forward
// edge; phase 4 advances straight to 6, skipping the halt state.
func (s *WorkflowService) Advance(dossierID, actorID int64, comment string) (models.WorkflowInstance, error) {
	defer s.lockDossier(dossierID)()

	wi, err := s.currentInstance(dossierID)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	target, ok, err := models.NextPhase(wi.PhaseID)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	if !ok {
		return models.WorkflowInstance{}, errors.Wrapf(ErrNoForwardEdge, "phase %d", wi.PhaseID)
	}
	return s.transition(dossierID, target, actorID, comment)
}

// Retreat moves the dossier along its backward edge. Phase 1 has none.
func (s *WorkflowService) Retreat(dossierID, actorID int64, comment string) (models.WorkflowInstance, error) {
	defer s.lockDossier(dossierID)()

	wi, err := s.currentInstance(dossierID)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	target, ok, err := models.PrevPhase(wi.PhaseID)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	if !ok {
		return models.WorkflowInstance{}, errors.Wrapf(ErrNoBackwardEdge, "phase %d", wi.PhaseID)
	}
	return s.transition(dossierID, target, actorID, comment)
}

// JumpTo moves the dossier directly to an arbitrary phase, bypassing the
// sequential tables. This is how phase 5 (approved, awaiting farmer pickup
// of the approval slip) is entered, and how administrative overrides work.
// Callers are expected to have checked authorization via CanAct.
func (s *WorkflowService) JumpTo(dossierID, targetPhaseID, actorID int64, comment string) (models.WorkflowInstance, error) {
	target, err := models.GetPhase(targetPhaseID)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	defer s.lockDossier(dossierID)()
	return s.transition(dossierID, target, actorID, comment)
}

// transition is the shared primitive behind Advance/Retreat/JumpTo: close
// the open history interval, mutate the live instance, open the next
// interval, append the audit event — atomically. The caller holds the
// per-dossier lock.
func (s *WorkflowService) transition(dossierID int64, target models.Phase, actorID int64, comment string) (wi models.WorkflowInstance, err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return models.WorkflowInstance{}, errors.Wrap(err, "begin transaction")
	}
	defer s.endTx(txStore, &err)

	wi, err = txStore.GetInstanceByDossier(dossierID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.WorkflowInstance{}, errors.Wrapf(ErrNoActiveWorkflow, "dossier %d", dossierID)
		}
		return models.WorkflowInstance{}, err
	}
	oldPhase, err := models.GetPhase(wi.PhaseID)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	now := s.now()

	open, err := txStore.GetOpenHistory(dossierID)
	if err != nil {
		return models.WorkflowInstance{}, errors.Wrapf(err, "open history entry for dossier %d", dossierID)
	}
	elapsed, err := s.cal.WorkingDaysBetween(open.EnteredAt, now)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	wasLate := elapsed > oldPhase.DurationDays
	open.ExitedAt = &now
	open.DurationDays = &elapsed
	open.WasLate = &wasLate
	if err = txStore.CloseHistory(open); err != nil {
		return models.WorkflowInstance{}, errors.Wrap(err, "close history entry")
	}

	deadline, err := s.cal.Deadline(now, target.DurationDays)
	if err != nil {
		return models.WorkflowInstance{}, err
	}
	wi.PhaseID = target.ID
	wi.Location = target.Location
	wi.EnteredAt = now
	wi.DeadlineAt = deadline
	if err = txStore.UpdateInstance(wi); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.WorkflowInstance{}, errors.Wrapf(ErrConcurrentModification, "dossier %d", dossierID)
		}
		return models.WorkflowInstance{}, errors.Wrap(err, "update workflow instance")
	}
	wi.Version++

	if _, err = txStore.SaveHistory(models.HistoryEntry{
		DossierID:   dossierID,
		PhaseID:     target.ID,
		Designation: target.Designation,
		Location:    target.Location,
		EnteredAt:   now,
		ActorID:     actorID,
		Comment:     comment,
	}); err != nil {
		return models.WorkflowInstance{}, errors.Wrap(err, "open history entry")
	}

	if err = s.recordAudit(txStore, actorID, "WORKFLOW_MOVE", dossierID,
		"Phase "+oldPhase.Designation, "Phase "+target.Designation, comment); err != nil {
		return models.WorkflowInstance{}, err
	}

	if err = s.refreshDerived(&wi); err != nil {
		return models.WorkflowInstance{}, err
	}
	s.logger.Infof("Moved dossier %d from phase %d to phase %d (deadline %s)",
		dossierID, oldPhase.ID, target.ID, deadline.Format(time.RFC3339))
	return wi, nil
}

// PhaseInfo is the read model for the current phase of a dossier. The
// remaining/overdue counters are recomputed from the stored deadline on
// every call; at most one of them is non-zero.
type PhaseInfo struct {
	PhaseID              int64             `json:"phase_id"`
	Designation          string            `json:"designation"`
	Group                models.PhaseGroup `json:"group"`
	Location             models.Location   `json:"location"`
	NominalDurationDays  int               `json:"nominal_duration_days"`
	EnteredAt            time.Time         `json:"entered_at"`
	DeadlineAt           time.Time         `json:"deadline_at"`
	RemainingWorkingDays int               `json:"remaining_working_days"`
	OverdueWorkingDays   int               `json:"overdue_working_days"`
	IsOverdue            bool              `json:"is_overdue"`
}

// CurrentPhaseInfo returns the dossier's current phase with time-derived
// fields refreshed against the wall clock.
func (s *WorkflowService) CurrentPhaseInfo(dossierID int64) (PhaseInfo, error) {
	wi, err := s.currentInstance(dossierID)
	if err != nil {
		return PhaseInfo{}, err
	}
	phase, err := models.GetPhase(wi.PhaseID)
	if err != nil {
		return PhaseInfo{}, err
	}
	if err := s.refreshDerived(&wi); err != nil {
		return PhaseInfo{}, err
	}
	return PhaseInfo{
		PhaseID:              phase.ID,
		Designation:          phase.Designation,
		Group:                phase.Group,
		Location:             wi.Location,
		NominalDurationDays:  phase.DurationDays,
		EnteredAt:            wi.EnteredAt,
		DeadlineAt:           wi.DeadlineAt,
		RemainingWorkingDays: wi.RemainingDays,
		OverdueWorkingDays:   wi.OverdueDays,
		IsOverdue:            wi.Overdue,
	}, nil
}

// History returns the dossier's phase-occupancy ledger ordered by entry time.
func (s *WorkflowService) History(dossierID int64) ([]models.HistoryEntry, error) {
	if _, err := s.currentInstance(dossierID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(dossierID)
}

func (s *WorkflowService) currentInstance(dossierID int64) (models.WorkflowInstance, error) {
	wi, err := s.store.GetInstanceByDossier(dossierID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.WorkflowInstance{}, errors.Wrapf(ErrNoActiveWorkflow, "dossier %d", dossierID)
		}
		return models.WorkflowInstance{}, err
	}
	return wi, nil
}

// refreshDerived recomputes the read-time SLA counters. Remaining and
// overdue are mutually exclusive by construction.
func (s *WorkflowService) refreshDerived(wi *models.WorkflowInstance) error {
	remaining, err := s.cal.RemainingWorkingDays(s.now(), wi.DeadlineAt)
	if err != nil {
		return err
	}
	if remaining < 0 {
		wi.RemainingDays = 0
		wi.OverdueDays = -remaining
	} else {
		wi.RemainingDays = remaining
		wi.OverdueDays = 0
	}
	wi.Overdue = wi.OverdueDays > 0
	return nil
}

func (s *WorkflowService) lockDossier(dossierID int64) func() {
	v, _ := s.locks.LoadOrStore(dossierID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// endTx commits on success and rolls back on error, preserving the
// original error over a rollback failure.
func (s *WorkflowService) endTx(txStore storage.Store, err *error) {
	if *err != nil {
		if rollbackErr := txStore.Rollback(); rollbackErr != nil {
			s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, *err)
		}
		return
	}
	if commitErr := txStore.Commit(); commitErr != nil {
		s.logger.Errorf("Failed to commit: %v", commitErr)
		*err = commitErr
	}
}
