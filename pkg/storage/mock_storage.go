package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/pkg/errors"
)

// mockStore implements Store with in-memory slices, for unit tests and the
// CLI dry-run mode. Begin returns the store itself: every write is applied
// immediately and Commit/Rollback are no-ops, which is fine for the
// single-writer unit tests this backs.
type mockStore struct {
	mu sync.Mutex

	dossiers  []models.Dossier
	instances []models.WorkflowInstance
	history   []models.HistoryEntry
	holidays  []models.Holiday
	audit     []models.AuditEvent

	nextDossierID  int64
	nextInstanceID int64
	nextHistoryID  int64
	nextHolidayID  int64
	nextAuditID    int64
}

// NewMockStore returns an empty in-memory Store.
func NewMockStore() Store {
	return &mockStore{}
}

func (m *mockStore) Begin() (Store, error) { return m, nil }
func (m *mockStore) Commit() error         { return nil }
func (m *mockStore) Rollback() error       { return nil }
func (m *mockStore) Close() error          { return nil }

func (m *mockStore) SaveDossier(d models.Dossier) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextDossierID++
	d.ID = m.nextDossierID
	m.dossiers = append(m.dossiers, d)
	return d.ID, nil
}

func (m *mockStore) GetDossier(id int64) (models.Dossier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.dossiers {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Dossier{}, errors.Wrapf(ErrNotFound, "dossier %d", id)
}

func (m *mockStore) UpdateDossierStatus(id int64, status models.DossierStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.dossiers {
		if m.dossiers[i].ID == id {
			m.dossiers[i].Status = status
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "dossier %d", id)
}

func (m *mockStore) SaveInstance(wi models.WorkflowInstance) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextInstanceID++
	wi.ID = m.nextInstanceID
	m.instances = append(m.instances, wi)
	return wi.ID, nil
}

func (m *mockStore) GetInstanceByDossier(dossierID int64) (models.WorkflowInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wi := range m.instances {
		if wi.DossierID == dossierID {
			return wi, nil
		}
	}
	return models.WorkflowInstance{}, errors.Wrapf(ErrNotFound, "workflow instance for dossier %d", dossierID)
}

func (m *mockStore) UpdateInstance(wi models.WorkflowInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.instances {
		if m.instances[i].ID == wi.ID {
			if m.instances[i].Version != wi.Version {
				return errors.Wrapf(ErrConflict, "instance %d: have version %d, want %d",
					wi.ID, wi.Version, m.instances[i].Version)
			}
			wi.Version++
			wi.UpdatedAt = time.Now()
			m.instances[i] = wi
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "workflow instance %d", wi.ID)
}

func (m *mockStore) SaveHistory(h models.HistoryEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHistoryID++
	h.ID = m.nextHistoryID
	m.history = append(m.history, h)
	return h.ID, nil
}

func (m *mockStore) GetOpenHistory(dossierID int64) (models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.history {
		if h.DossierID == dossierID && h.ExitedAt == nil {
			return h, nil
		}
	}
	return models.HistoryEntry{}, errors.Wrapf(ErrNotFound, "open history entry for dossier %d", dossierID)
}

func (m *mockStore) CloseHistory(h models.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.history {
		if m.history[i].ID == h.ID {
			m.history[i] = h
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "history entry %d", h.ID)
}

func (m *mockStore) ListHistory(dossierID int64) ([]models.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.HistoryEntry
	for _, h := range m.history {
		if h.DossierID == dossierID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EnteredAt.Equal(out[j].EnteredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].EnteredAt.Before(out[j].EnteredAt)
	})
	return out, nil
}

func (m *mockStore) SaveHoliday(h models.Holiday) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHolidayID++
	h.ID = m.nextHolidayID
	m.holidays = append(m.holidays, h)
	return h.ID, nil
}

func (m *mockStore) ListHolidays(from, to time.Time) ([]models.Holiday, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Holiday
	for _, h := range m.holidays {
		if !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockStore) SaveAuditEvent(e models.AuditEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextAuditID++
	e.ID = m.nextAuditID
	m.audit = append(m.audit, e)
	return e.ID, nil
}

func (m *mockStore) ListAuditEvents(entityType string, entityID int64) ([]models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditEvent
	for _, e := range m.audit {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
