package models

import "time"

type DossierStatus string

const (
	StatusDraft                  DossierStatus = "DRAFT"
	StatusSubmitted              DossierStatus = "SUBMITTED"
	StatusInReview               DossierStatus = "IN_REVIEW"
	StatusApproved               DossierStatus = "APPROVED"
	StatusApprovedAwaitingFarmer DossierStatus = "APPROVED_AWAITING_FARMER"
	StatusRealizationInProgress  DossierStatus = "REALIZATION_IN_PROGRESS"
	StatusRejected               DossierStatus = "REJECTED"
	StatusCompleted              DossierStatus = "COMPLETED"
	StatusCancelled              DossierStatus = "CANCELLED"
	StatusReturnedForCompletion  DossierStatus = "RETURNED_FOR_COMPLETION"
	StatusPendingCorrection      DossierStatus = "PENDING_CORRECTION"
)

// Dossier is the subsidy case file tracked through the workflow. The engine
// only reads it (status and rubrique routing); mutations belong to the
// surrounding CRUD layer.
type Dossier struct {
	ID             int64         `json:"id" db:"id"`
	Reference      string        `json:"reference" db:"reference"`
	Status         DossierStatus `json:"status" db:"status"`
	RubriqueID     int64         `json:"rubrique_id" db:"rubrique_id"`
	SousRubriqueID int64         `json:"sous_rubrique_id" db:"sous_rubrique_id"`
	AntenneID      int64         `json:"antenne_id" db:"antenne_id"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// CommissionTeam identifies one of the two terrain-inspection teams of the
// AHA-AF commission.
type CommissionTeam string

const (
	TeamAHA CommissionTeam = "EQUIPE_AHA"
	TeamAF  CommissionTeam = "EQUIPE_AF"
)

// teamByRubrique routes each subsidy rubrique to the commission team in
// charge of its terrain visits.
var teamByRubrique = map[int64]CommissionTeam{
	1: TeamAHA, // aménagements hydro-agricoles
	2: TeamAHA, // irrigation localisée
	3: TeamAF,  // améliorations foncières
	4: TeamAF,  // équipements des exploitations
}

// TeamForRubrique returns the commission team assigned to the rubrique.
// Unmapped rubriques default to the AHA team.
func TeamForRubrique(rubriqueID int64) CommissionTeam {
	if team, ok := teamByRubrique[rubriqueID]; ok {
		return team
	}
	return TeamAHA
}
