package legal

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arriendoseguro/legal-api/pkg/models"
)

// appendAudit writes one append-only audit row. It runs inside the caller's
// transaction: an audit failure must abort the whole operation, never pass
// silently. previous/next snapshots are serialized as JSON; nil is allowed.
func appendAudit(tx *gorm.DB, caseID, actorID uuid.UUID, action, details string, previous, next any) error {
	entry := models.LegalAuditLog{
		LegalCaseID: caseID,
		UserID:      actorID,
		Action:      action,
		Details:     details,
	}
	if previous != nil {
		b, err := json.Marshal(previous)
		if err != nil {
			return err
		}
		entry.PreviousValue = string(b)
	}
	if next != nil {
		b, err := json.Marshal(next)
		if err != nil {
			return err
		}
		entry.NewValue = string(b)
	}
	return tx.Create(&entry).Error
}
