package models

import "github.com/pkg/errors"

// ErrUnknownPhase is returned by registry lookups for ids outside 1..8.
var ErrUnknownPhase = errors.New("unknown phase")

// Role is an organizational role acting on dossiers.
type Role string

const (
	RoleAdmin            Role = "ADMIN"
	RoleAgentAntenne     Role = "AGENT_ANTENNE"
	RoleAgentGUC         Role = "AGENT_GUC"
	RoleAgentCommission  Role = "AGENT_COMMISSION"
	RoleServiceTechnique Role = "SERVICE_TECHNIQUE"
)

// Location is the physical/organizational unit holding a dossier.
type Location string

const (
	LocationAntenne          Location = "ANTENNE"
	LocationGUC              Location = "GUC"
	LocationCommissionAHAAF  Location = "COMMISSION_AHA_AF"
	LocationServiceTechnique Location = "SERVICE_TECHNIQUE"
)

// PhaseGroup splits the lifecycle into the approval and realization halves.
type PhaseGroup string

const (
	GroupApproval    PhaseGroup = "APPROVAL"
	GroupRealization PhaseGroup = "REALIZATION"
)

// Phase is one row of the static 8-phase registry. Ids are stable and
// never renumbered; everything downstream keys off the numeric id.
type Phase struct {
	ID           int64      `json:"id"`
	Designation  string     `json:"designation"`
	OwningRole   Role       `json:"owning_role"`
	Location     Location   `json:"location"`
	DurationDays int        `json:"duration_days"` // nominal SLA in working days
	Ordre        int        `json:"ordre"`         // display ordering within the group
	Group        PhaseGroup `json:"group"`

	// NextID/PrevID encode the sequential edge tables. 0 means no edge.
	// Phase 5 is deliberately absent from any NextID target: it is a halt
	// state entered only via an explicit jump (4 advances straight to 6).
	NextID int64 `json:"-"`
	PrevID int64 `json:"-"`
}

// phases is the single source of truth for all phase-dependent behavior.
var phases = map[int64]Phase{
	1: {ID: 1, Designation: "AP - Phase Antenne", OwningRole: RoleAgentAntenne, Location: LocationAntenne, DurationDays: 3, Ordre: 1, Group: GroupApproval, NextID: 2, PrevID: 0},
	2: {ID: 2, Designation: "AP - Phase GUC", OwningRole: RoleAgentGUC, Location: LocationGUC, DurationDays: 5, Ordre: 2, Group: GroupApproval, NextID: 3, PrevID: 1},
	3: {ID: 3, Designation: "AP - Phase AHA-AF", OwningRole: RoleAgentCommission, Location: LocationCommissionAHAAF, DurationDays: 10, Ordre: 3, Group: GroupApproval, NextID: 4, PrevID: 2},
	4: {ID: 4, Designation: "AP - Phase GUC (Approbation)", OwningRole: RoleAgentGUC, Location: LocationGUC, DurationDays: 5, Ordre: 4, Group: GroupApproval, NextID: 6, PrevID: 3},
	5: {ID: 5, Designation: "RP - Phase Antenne", OwningRole: RoleAgentAntenne, Location: LocationAntenne, DurationDays: 15, Ordre: 1, Group: GroupRealization, NextID: 6, PrevID: 1},
	6: {ID: 6, Designation: "RP - Phase GUC", OwningRole: RoleAgentGUC, Location: LocationGUC, DurationDays: 5, Ordre: 2, Group: GroupRealization, NextID: 7, PrevID: 2},
	7: {ID: 7, Designation: "RP - Phase Service Technique", OwningRole: RoleServiceTechnique, Location: LocationServiceTechnique, DurationDays: 30, Ordre: 3, Group: GroupRealization, NextID: 8, PrevID: 6},
	8: {ID: 8, Designation: "RP - Phase GUC (Clôture)", OwningRole: RoleAgentGUC, Location: LocationGUC, DurationDays: 5, Ordre: 4, Group: GroupRealization, NextID: 0, PrevID: 7},
}

// GetPhase returns the registry row for the given phase id.
func GetPhase(id int64) (Phase, error) {
	p, ok := phases[id]
	if !ok {
		return Phase{}, errors.Wrapf(ErrUnknownPhase, "phase %d", id)
	}
	return p, nil
}

// OwningRole returns the single role authorized to act while a dossier
// sits in the given phase.
func OwningRole(id int64) (Role, error) {
	p, err := GetPhase(id)
	if err != nil {
		return "", err
	}
	return p.OwningRole, nil
}

// PhaseLocation returns where the dossier physically sits during the phase.
func PhaseLocation(id int64) (Location, error) {
	p, err := GetPhase(id)
	if err != nil {
		return "", err
	}
	return p.Location, nil
}

// NominalDuration returns the phase SLA in working days.
func NominalDuration(id int64) (int, error) {
	p, err := GetPhase(id)
	if err != nil {
		return 0, err
	}
	return p.DurationDays, nil
}

// DisplayName returns the phase designation shown to users.
func DisplayName(id int64) (string, error) {
	p, err := GetPhase(id)
	if err != nil {
		return "", err
	}
	return p.Designation, nil
}

// NextPhase resolves the forward edge of the given phase. ok is false when
// the phase ends its sequential path.
func NextPhase(id int64) (next Phase, ok bool, err error) {
	p, err := GetPhase(id)
	if err != nil {
		return Phase{}, false, err
	}
	if p.NextID == 0 {
		return Phase{}, false, nil
	}
	next, err = GetPhase(p.NextID)
	if err != nil {
		return Phase{}, false, err
	}
	return next, true, nil
}

// PrevPhase resolves the backward edge of the given phase. ok is false when
// the phase starts its sequential path.
func PrevPhase(id int64) (prev Phase, ok bool, err error) {
	p, err := GetPhase(id)
	if err != nil {
		return Phase{}, false, err
	}
	if p.PrevID == 0 {
		return Phase{}, false, nil
	}
	prev, err = GetPhase(p.PrevID)
	if err != nil {
		return Phase{}, false, err
	}
	return prev, true, nil
}

// IsApprovalGroup reports whether the phase belongs to the approval half
// of the lifecycle (ids 1..4).
func IsApprovalGroup(id int64) (bool, error) {
	p, err := GetPhase(id)
	if err != nil {
		return false, err
	}
	return p.Group == GroupApproval, nil
}

// AllPhases returns the registry rows ordered by id, for listings.
func AllPhases() []Phase {
	out := make([]Phase, 0, len(phases))
	for id := int64(1); id <= int64(len(phases)); id++ {
		out = append(out, phases[id])
	}
	return out
}
