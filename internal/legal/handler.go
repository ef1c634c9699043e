package legal

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arriendoseguro/legal-api/internal/storage"
	"github.com/arriendoseguro/legal-api/pkg/models"
)

// Handler serves the legal-case endpoints. Everything it needs is injected;
// there is no package-level state.
type Handler struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	store *storage.Supabase
}

func NewHandler(db *gorm.DB, log *zap.SugaredLogger, store *storage.Supabase) *Handler {
	return &Handler{db: db, log: log, store: store}
}

// loadCase fetches a legal case by route id. Missing case maps to 404 with
// the message clients match on.
func (h *Handler) loadCase(id string) (*models.LegalCase, error) {
	var lc models.LegalCase
	err := h.db.Preload("Contract").First(&lc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Caso legal no encontrado")
		}
		return nil, fiber.ErrInternalServerError
	}
	return &lc, nil
}

// canManageCase: admins, the case owner and the case broker may mutate the
// case. Tenants and unrelated users may not.
func canManageCase(userID string, role models.Role, lc *models.LegalCase) bool {
	if role == models.RoleAdmin {
		return true
	}
	if lc.OwnerID.String() == userID {
		return true
	}
	if lc.BrokerID != nil && lc.BrokerID.String() == userID {
		return true
	}
	return false
}

// canViewCase: read access additionally covers the tenant.
func canViewCase(userID string, role models.Role, lc *models.LegalCase) bool {
	if canManageCase(userID, role, lc) {
		return true
	}
	return lc.TenantID.String() == userID
}

// parseDate converts an already-validated RFC 3339 string to a time pointer.
func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}

// success wraps data in the {success, data, message} envelope.
func success(c *fiber.Ctx, data any, message string) error {
	resp := models.SuccessResponse{Success: true, Data: data, Message: message}
	return c.JSON(resp)
}
