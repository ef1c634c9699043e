package legal

import (
	"gorm.io/gorm"

	"github.com/arriendoseguro/legal-api/pkg/models"
)

// dispatch persists a batch of pending notification rows in one insert.
// Dispatch means "insert a pending record": email/push delivery is handled
// by a separate consumer. Runs inside the caller's transaction.
func dispatch(tx *gorm.DB, batch []models.LegalNotification) error {
	if len(batch) == 0 {
		return nil
	}
	for i := range batch {
		if batch[i].Status == "" {
			batch[i].Status = "pending"
		}
	}
	return tx.Create(&batch).Error
}
