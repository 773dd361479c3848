package models_test

import (
	"testing"

	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPhaseRegistry(t *testing.T) {
	t.Run("AllEightPhasesPresent", func(t *testing.T) {
		all := models.AllPhases()
		assert.Len(t, all, 8)
		for i, p := range all {
			assert.Equal(t, int64(i+1), p.ID)
			assert.NotEmpty(t, p.Designation)
			assert.Greater(t, p.DurationDays, 0)
		}
	})

	t.Run("UnknownPhase", func(t *testing.T) {
		_, err := models.GetPhase(0)
		assert.True(t, errors.Is(err, models.ErrUnknownPhase))
		_, err = models.GetPhase(9)
		assert.True(t, errors.Is(err, models.ErrUnknownPhase))
		_, err = models.OwningRole(42)
		assert.True(t, errors.Is(err, models.ErrUnknownPhase))
	})

	t.Run("GroupSplit", func(t *testing.T) {
		for id := int64(1); id <= 4; id++ {
			approval, err := models.IsApprovalGroup(id)
			assert.NoError(t, err)
			assert.True(t, approval, "phase %d", id)
		}
		for id := int64(5); id <= 8; id++ {
			approval, err := models.IsApprovalGroup(id)
			assert.NoError(t, err)
			assert.False(t, approval, "phase %d", id)
		}
	})

	t.Run("OwningRoles", func(t *testing.T) {
		expected := map[int64]models.Role{
			1: models.RoleAgentAntenne,
			2: models.RoleAgentGUC,
			3: models.RoleAgentCommission,
			4: models.RoleAgentGUC,
			5: models.RoleAgentAntenne,
			6: models.RoleAgentGUC,
			7: models.RoleServiceTechnique,
			8: models.RoleAgentGUC,
		}
		for id, want := range expected {
			role, err := models.OwningRole(id)
			assert.NoError(t, err)
			assert.Equal(t, want, role, "phase %d", id)
		}
	})

	t.Run("ForwardEdges", func(t *testing.T) {
		next := map[int64]int64{1: 2, 2: 3, 3: 4, 4: 6, 5: 6, 6: 7, 7: 8, 8: 0}
		for id, want := range next {
			p, err := models.GetPhase(id)
			assert.NoError(t, err)
			assert.Equal(t, want, p.NextID, "phase %d", id)
		}
	})

	t.Run("BackwardEdges", func(t *testing.T) {
		prev := map[int64]int64{1: 0, 2: 1, 3: 2, 4: 3, 5: 1, 6: 2, 7: 6, 8: 7}
		for id, want := range prev {
			p, err := models.GetPhase(id)
			assert.NoError(t, err)
			assert.Equal(t, want, p.PrevID, "phase %d", id)
		}
	})

	t.Run("EdgeResolvers", func(t *testing.T) {
		next, ok, err := models.NextPhase(4)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(6), next.ID)

		_, ok, err = models.NextPhase(8)
		assert.NoError(t, err)
		assert.False(t, ok)

		prev, ok, err := models.PrevPhase(5)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(1), prev.ID)

		_, ok, err = models.PrevPhase(1)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("HaltStateNeverTargeted", func(t *testing.T) {
		// Phase 5 is entered only via an explicit jump.
		for _, p := range models.AllPhases() {
			assert.NotEqual(t, int64(5), p.NextID, "phase %d advances into the halt state", p.ID)
		}
	})
}

func TestTeamForRubrique(t *testing.T) {
	assert.Equal(t, models.TeamAHA, models.TeamForRubrique(1))
	assert.Equal(t, models.TeamAHA, models.TeamForRubrique(2))
	assert.Equal(t, models.TeamAF, models.TeamForRubrique(3))
	assert.Equal(t, models.TeamAF, models.TeamForRubrique(4))
	// Unmapped rubriques fall back to the AHA team.
	assert.Equal(t, models.TeamAHA, models.TeamForRubrique(99))
}
