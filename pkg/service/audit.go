package service

import (
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/models"
	"github.com/migi-gluttony/SADSA-ORMVAT-sub000/pkg/storage"
	"github.com/pkg/errors"
)

const auditEntityDossier = "Dossier"

// recordAudit appends one audit event inside the caller's transaction so a
// rejected transition leaves no trace.
func (s *WorkflowService) recordAudit(txStore storage.Store, userID int64, action string, dossierID int64, oldValue, newValue, details string) error {
	_, err := txStore.SaveAuditEvent(models.AuditEvent{
		Timestamp:  s.now(),
		UserID:     userID,
		Action:     action,
		EntityType: auditEntityDossier,
		EntityID:   dossierID,
		OldValue:   oldValue,
		NewValue:   newValue,
		Details:    details,
	})
	if err != nil {
		return errors.Wrap(err, "save audit event")
	}
	return nil
}

// AuditTrail returns the audit events recorded for a dossier, oldest first.
func (s *WorkflowService) AuditTrail(dossierID int64) ([]models.AuditEvent, error) {
	return s.store.ListAuditEvents(auditEntityDossier, dossierID)
}
