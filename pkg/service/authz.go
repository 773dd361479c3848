package service

import (
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/pkg/errors"
)

// Action is a fine-grained permission a caller may hold on a dossier.
type Action string

const (
	ActionEdit                Action = "edit"
	ActionSubmit              Action = "submit"
	ActionDelete              Action = "delete"
	ActionAddNote             Action = "add_note"
	ActionReturnToAntenne     Action = "return_to_antenne"
	ActionSendToCommission    Action = "send_to_commission"
	ActionReject              Action = "reject"
	ActionApprove             Action = "approve"
	ActionViewDocuments       Action = "view_documents"
	ActionDownloadDocuments   Action = "download_documents"
	ActionScheduleVisit       Action = "schedule_visit"
	ActionCompleteRealization Action = "complete_realization"
)

type capKey struct {
	phaseID int64
	role    models.Role
}

// capabilities maps (phase, role) to the actions exposed there. A role only
// ever appears under phases it owns; the admin super-role bypasses the
// table entirely.
var capabilities = map[capKey][]Action{
	{1, models.RoleAgentAntenne}: {ActionEdit, ActionSubmit, ActionDelete, ActionAddNote, ActionViewDocuments, ActionDownloadDocuments},
	{2, models.RoleAgentGUC}:     {ActionReturnToAntenne, ActionSendToCommission, ActionReject, ActionAddNote, ActionViewDocuments, ActionDownloadDocuments},
	{3, models.RoleAgentCommission}: {ActionApprove, ActionReject, ActionReturnToAntenne, ActionScheduleVisit, ActionAddNote,
		ActionViewDocuments, ActionDownloadDocuments},
	{4, models.RoleAgentGUC}:         {ActionApprove, ActionReject, ActionReturnToAntenne, ActionAddNote, ActionViewDocuments, ActionDownloadDocuments},
	{5, models.RoleAgentAntenne}:     {ActionSubmit, ActionAddNote, ActionViewDocuments, ActionDownloadDocuments},
	{6, models.RoleAgentGUC}:         {ActionApprove, ActionReturnToAntenne, ActionReject, ActionAddNote, ActionViewDocuments, ActionDownloadDocuments},
	{7, models.RoleServiceTechnique}: {ActionScheduleVisit, ActionCompleteRealization, ActionAddNote, ActionViewDocuments, ActionDownloadDocuments},
	{8, models.RoleAgentGUC}:         {ActionApprove, ActionAddNote, ActionViewDocuments, ActionDownloadDocuments},
}

// allActions is what the admin super-role gets regardless of phase.
var allActions = []Action{
	ActionEdit, ActionSubmit, ActionDelete, ActionAddNote, ActionReturnToAntenne,
	ActionSendToCommission, ActionReject, ActionApprove, ActionViewDocuments,
	ActionDownloadDocuments, ActionScheduleVisit, ActionCompleteRealization,
}

// statusAllows restricts individual actions by the dossier's outcome
// status: editing and submitting only while the dossier is a draft or was
// returned for completion, deletion only for drafts, and the GUC review
// verdicts only while the dossier is actually under review.
func statusAllows(a Action, status models.DossierStatus) bool {
	switch a {
	case ActionEdit, ActionSubmit:
		return status == models.StatusDraft || status == models.StatusReturnedForCompletion
	case ActionDelete:
		return status == models.StatusDraft
	case ActionReturnToAntenne, ActionReject:
		return status == models.StatusSubmitted || status == models.StatusInReview
	case ActionSendToCommission:
		return status == models.StatusSubmitted
	default:
		return true
	}
}

// CanAct reports whether a caller with the given role (and, for commission
// agents, team) may act on the dossier in its current phase. The admin
// super-role always may; otherwise the role must own the current phase, and
// a commission agent must additionally belong to the team covering the
// dossier's rubrique.
func (s *WorkflowService) CanAct(dossierID int64, role models.Role, team models.CommissionTeam) (bool, error) {
	if role == models.RoleAdmin {
		return true, nil
	}
	wi, err := s.currentInstance(dossierID)
	if err != nil {
		return false, err
	}
	owner, err := models.OwningRole(wi.PhaseID)
	if err != nil {
		return false, err
	}
	if role != owner {
		return false, nil
	}
	if role == models.RoleAgentCommission {
		dossier, err := s.store.GetDossier(dossierID)
		if err != nil {
			return false, errors.Wrapf(err, "load dossier %d", dossierID)
		}
		if models.TeamForRubrique(dossier.RubriqueID) != team {
			return false, nil
		}
	}
	return true, nil
}

// PermissionsFor returns the actions the caller may take on the dossier at
// its current phase, given the dossier's outcome status. The result is the
// (phase, role) capability set filtered by the status rules; admins get the
// full set.
func (s *WorkflowService) PermissionsFor(dossierID int64, role models.Role, status models.DossierStatus) ([]Action, error) {
	wi, err := s.currentInstance(dossierID)
	if err != nil {
		return nil, err
	}
	var granted []Action
	if role == models.RoleAdmin {
		granted = allActions
	} else {
		granted = capabilities[capKey{wi.PhaseID, role}]
	}
	out := make([]Action, 0, len(granted))
	for _, a := range granted {
		if statusAllows(a, status) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Authorize is the gate the calling layer runs before every workflow
// mutation: ErrUnauthorized unless CanAct holds.
func (s *WorkflowService) Authorize(dossierID int64, role models.Role, team models.CommissionTeam) error {
	ok, err := s.CanAct(dossierID, role, team)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrUnauthorized, "role %s on dossier %d", role, dossierID)
	}
	return nil
}
