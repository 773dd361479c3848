package storage_test

import (
	"testing"
	"time"

	internal_storage "github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/storage"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/internal/testutil"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	newStore := func(t *testing.T) *internal_storage.PostgresStore {
		store, err := internal_storage.InitStore(testDB.ConnStr)
		assert.NoError(t, err)
		t.Cleanup(func() {
			_, err := testDB.DB.Exec("TRUNCATE TABLE dossiers RESTART IDENTITY CASCADE")
			assert.NoError(t, err)
			_, err = testDB.DB.Exec("TRUNCATE TABLE holidays, audit_trail RESTART IDENTITY")
			assert.NoError(t, err)
			store.Close()
		})
		return store
	}

	saveDossier := func(t *testing.T, store *internal_storage.PostgresStore, ref string) int64 {
		id, err := store.SaveDossier(models.Dossier{
			Reference:      ref,
			Status:         models.StatusDraft,
			RubriqueID:     1,
			SousRubriqueID: 11,
			AntenneID:      3,
			CreatedAt:      time.Now().UTC(),
		})
		assert.NoError(t, err)
		return id
	}

	t.Run("DossierRoundTrip", func(t *testing.T) {
		store := newStore(t)
		id := saveDossier(t, store, "D-2026-100")

		d, err := store.GetDossier(id)
		assert.NoError(t, err)
		assert.Equal(t, "D-2026-100", d.Reference)
		assert.Equal(t, models.StatusDraft, d.Status)

		assert.NoError(t, store.UpdateDossierStatus(id, models.StatusSubmitted))
		d, err = store.GetDossier(id)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, d.Status)

		_, err = store.GetDossier(9999)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("InstanceOptimisticVersioning", func(t *testing.T) {
		store := newStore(t)
		dossierID := saveDossier(t, store, "D-2026-101")

		now := time.Now().UTC().Truncate(time.Second)
		wi := models.WorkflowInstance{
			DossierID:  dossierID,
			PhaseID:    1,
			Location:   models.LocationAntenne,
			EnteredAt:  now,
			DeadlineAt: now.AddDate(0, 0, 3),
			Version:    1,
		}
		id, err := store.SaveInstance(wi)
		assert.NoError(t, err)
		wi.ID = id

		got, err := store.GetInstanceByDossier(dossierID)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), got.PhaseID)
		assert.Equal(t, int64(1), got.Version)

		// Update with the current version succeeds and bumps it.
		got.PhaseID = 2
		got.Location = models.LocationGUC
		assert.NoError(t, store.UpdateInstance(got))

		refreshed, err := store.GetInstanceByDossier(dossierID)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), refreshed.PhaseID)
		assert.Equal(t, int64(2), refreshed.Version)

		// Replaying the stale version fails the optimistic check.
		err = store.UpdateInstance(got)
		assert.True(t, errors.Is(err, storage.ErrConflict))
	})

	t.Run("HistoryLedger", func(t *testing.T) {
		store := newStore(t)
		dossierID := saveDossier(t, store, "D-2026-102")

		entered := time.Now().UTC().Truncate(time.Second)
		id, err := store.SaveHistory(models.HistoryEntry{
			DossierID:   dossierID,
			PhaseID:     1,
			Designation: "AP - Phase Antenne",
			Location:    models.LocationAntenne,
			EnteredAt:   entered,
			ActorID:     7,
			Comment:     "Initialisation du workflow",
		})
		assert.NoError(t, err)

		open, err := store.GetOpenHistory(dossierID)
		assert.NoError(t, err)
		assert.Equal(t, id, open.ID)
		assert.True(t, open.Open())

		exited := entered.Add(24 * time.Hour)
		duration := 1
		late := false
		open.ExitedAt = &exited
		open.DurationDays = &duration
		open.WasLate = &late
		assert.NoError(t, store.CloseHistory(open))

		_, err = store.GetOpenHistory(dossierID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))

		_, err = store.SaveHistory(models.HistoryEntry{
			DossierID:   dossierID,
			PhaseID:     2,
			Designation: "AP - Phase GUC",
			Location:    models.LocationGUC,
			EnteredAt:   exited,
			ActorID:     7,
		})
		assert.NoError(t, err)

		entries, err := store.ListHistory(dossierID)
		assert.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.False(t, entries[0].Open())
		assert.Equal(t, 1, *entries[0].DurationDays)
		assert.True(t, entries[1].Open())
	})

	t.Run("TransactionRollback", func(t *testing.T) {
		store := newStore(t)
		dossierID := saveDossier(t, store, "D-2026-103")

		tx, err := store.Begin()
		assert.NoError(t, err)
		assert.NoError(t, tx.UpdateDossierStatus(dossierID, models.StatusSubmitted))
		assert.NoError(t, tx.Rollback())

		d, err := store.GetDossier(dossierID)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusDraft, d.Status)
	})

	t.Run("TransactionCommit", func(t *testing.T) {
		store := newStore(t)
		dossierID := saveDossier(t, store, "D-2026-104")

		tx, err := store.Begin()
		assert.NoError(t, err)
		assert.NoError(t, tx.UpdateDossierStatus(dossierID, models.StatusSubmitted))
		assert.NoError(t, tx.Commit())

		d, err := store.GetDossier(dossierID)
		assert.NoError(t, err)
		assert.Equal(t, models.StatusSubmitted, d.Status)
	})

	t.Run("Holidays", func(t *testing.T) {
		store := newStore(t)
		_, err := store.SaveHoliday(models.Holiday{
			Date:  time.Date(2026, 11, 18, 0, 0, 0, 0, time.UTC),
			Label: "Fête de l'Indépendance",
			Fixed: true,
		})
		assert.NoError(t, err)

		holidays, err := store.ListHolidays(
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
		assert.NoError(t, err)
		assert.Len(t, holidays, 1)
		assert.Equal(t, "Fête de l'Indépendance", holidays[0].Label)

		outside, err := store.ListHolidays(
			time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC))
		assert.NoError(t, err)
		assert.Len(t, outside, 0)
	})

	t.Run("AuditTrail", func(t *testing.T) {
		store := newStore(t)
		dossierID := saveDossier(t, store, "D-2026-105")

		_, err := store.SaveAuditEvent(models.AuditEvent{
			Timestamp:  time.Now().UTC(),
			UserID:     7,
			Action:     "WORKFLOW_INIT",
			EntityType: "Dossier",
			EntityID:   dossierID,
			NewValue:   "Phase 1",
			Details:    "Workflow initialized",
		})
		assert.NoError(t, err)

		events, err := store.ListAuditEvents("Dossier", dossierID)
		assert.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "WORKFLOW_INIT", events[0].Action)
	})
}
