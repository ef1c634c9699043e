package legal

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arriendoseguro/legal-api/internal/auth"
	"github.com/arriendoseguro/legal-api/pkg/models"
	"github.com/arriendoseguro/legal-api/pkg/validation"
)

/* ================================ DTOs ================================= */

type CreateNoticeRequest struct {
	NoticeType     string   `json:"noticeType" validate:"required,oneof=PAYMENT_REQUIREMENT DAMAGE_NOTICE CONTRACT_VIOLATION EVICTION_WARNING FINAL_NOTICE SETTLEMENT_OFFER"`
	DeliveryMethod string   `json:"deliveryMethod" validate:"required,oneof=CERTIFIED_MAIL NOTARIAL_NOTICE PERSONAL_DELIVERY ELECTRONIC_NOTICE COURT_NOTICE"`
	Content        string   `json:"content" validate:"required,min=10"`
	Amount         *float64 `json:"amount" validate:"required,gte=0"`
	Deadline       string   `json:"deadline" validate:"required,rfc3339"`
	DeliveryProof  string   `json:"deliveryProof"`
}

type UpdateNoticeRequest struct {
	DeliveryStatus   *string  `json:"deliveryStatus" validate:"omitempty,oneof=PENDING SENT DELIVERED RECEIVED RETURNED FAILED"`
	SentDate         *string  `json:"sentDate" validate:"omitempty,rfc3339"`
	DeliveredDate    *string  `json:"deliveredDate" validate:"omitempty,rfc3339"`
	ReceivedBy       *string  `json:"receivedBy"`
	ResponseReceived *bool    `json:"responseReceived"`
	ResponseDate     *string  `json:"responseDate" validate:"omitempty,rfc3339"`
	ResponseContent  *string  `json:"responseContent"`
	ResponseAmount   *float64 `json:"responseAmount" validate:"omitempty,gte=0"`
	FollowUpSent     *bool    `json:"followUpSent"`
	EscalationSent   *bool    `json:"escalationSent"`
}

// Case statuses from which an extrajudicial notice may be sent.
var noticeEligible = map[models.CaseStatus]bool{
	models.CasePreJudicial:         true,
	models.CaseExtrajudicialNotice: true,
}

/* ================================ Create ================================ */

// Create Extrajudicial Notice godoc
// @Summary      Create extrajudicial notice
// @Description  Owner, broker or admin sends a pre-court notice to the tenant
// @Tags         extrajudicial
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "legal case id (uuid)"
// @Param        payload  body  CreateNoticeRequest  true  "Notice payload"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/cases/{id}/extrajudicial [post]
func (h *Handler) CreateNotice(c *fiber.Ctx) error {
	var in CreateNoticeRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "JSON inválido")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	lc, err := h.loadCase(c.Params("id"))
	if err != nil {
		return err
	}

	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))
	if !canManageCase(userID, role, lc) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para crear notificaciones extrajudiciales para este caso")
	}

	if !noticeEligible[lc.Status] {
		return fiber.NewError(fiber.StatusBadRequest,
			"El caso legal no está en fase para enviar notificaciones extrajudiciales")
	}

	deadline, _ := time.Parse(time.RFC3339, in.Deadline)
	now := time.Now()

	notice := models.ExtrajudicialNotice{
		NoticeNumber:   GenerateNumber("EN"),
		LegalCaseID:    lc.ID,
		NoticeType:     models.NoticeType(in.NoticeType),
		DeliveryMethod: models.DeliveryMethod(in.DeliveryMethod),
		DeliveryStatus: models.DeliveryPending,
		Content:        in.Content,
		Amount:         *in.Amount,
		Deadline:       deadline,
		DeliveryProof:  in.DeliveryProof,
	}

	actorID, _ := uuid.Parse(userID)

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&notice).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.LegalCase{}).Where("id = ?", lc.ID).Updates(map[string]any{
			"status":                  models.CaseExtrajudicialNotice,
			"current_phase":           models.PhaseExtrajudicial,
			"extrajudicial_sent_date": now,
			"next_deadline":           deadline,
		}).Error; err != nil {
			return err
		}

		if err := appendAudit(tx, lc.ID, actorID, models.ActionNoticeCreated,
			"Notificación extrajudicial creada: "+in.NoticeType, nil, notice); err != nil {
			return err
		}

		return dispatch(tx, []models.LegalNotification{
			{
				LegalCaseID:      lc.ID,
				UserID:           lc.TenantID,
				NotificationType: models.NotifActionRequired,
				Title:            "Notificación Extrajudicial Recibida",
				Message:          "Ha recibido una notificación extrajudicial relacionada con su contrato. Por favor revise los detalles y responda antes de la fecha límite.",
				Priority:         models.NotifPriorityHigh,
				ActionRequired:   true,
				ActionDeadline:   &deadline,
			},
			{
				LegalCaseID:      lc.ID,
				UserID:           lc.OwnerID,
				NotificationType: models.NotifStatusUpdate,
				Title:            "Notificación Extrajudicial Enviada",
				Message:          "Se ha enviado exitosamente la notificación extrajudicial. El siguiente paso es esperar la respuesta del inquilino.",
				Priority:         models.NotifPriorityMedium,
			},
		})
	})
	if err != nil {
		h.log.Errorw("Error al crear notificación extrajudicial",
			"context", "legal.extrajudicial.create",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	h.log.Infow("Notificación extrajudicial creada exitosamente",
		"context", "legal.extrajudicial.create",
		"userId", userID,
		"caseId", lc.ID.String(),
		"noticeId", notice.ID.String(),
		"noticeNumber", notice.NoticeNumber)

	return success(c, notice, "Notificación extrajudicial creada exitosamente")
}

/* ================================= List ================================= */

// List Extrajudicial Notices godoc
// @Summary      List extrajudicial notices
// @Tags         extrajudicial
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "legal case id (uuid)"
// @Success      200  {object}  models.SuccessResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/cases/{id}/extrajudicial [get]
func (h *Handler) ListNotices(c *fiber.Ctx) error {
	lc, err := h.loadCase(c.Params("id"))
	if err != nil {
		return err
	}

	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))
	if !canViewCase(userID, role, lc) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para ver las notificaciones extrajudiciales de este caso")
	}

	notices := make([]models.ExtrajudicialNotice, 0)
	if err := h.db.
		Where("legal_case_id = ?", lc.ID).
		Order("created_at DESC").
		Find(&notices).Error; err != nil {
		h.log.Errorw("Error al obtener notificaciones extrajudiciales",
			"context", "legal.extrajudicial.list",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	h.log.Infow("Notificaciones extrajudiciales obtenidas exitosamente",
		"context", "legal.extrajudicial.list",
		"userId", userID,
		"caseId", lc.ID.String(),
		"count", len(notices))

	return success(c, notices, "")
}

/* ================================ Update ================================ */

// Update Extrajudicial Notice godoc
// @Summary      Update extrajudicial notice
// @Description  Partial update of the latest notice for a case
// @Tags         extrajudicial
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "legal case id (uuid)"
// @Param        payload  body  UpdateNoticeRequest  true  "Fields to update (all optional)"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/cases/{id}/extrajudicial [put]
func (h *Handler) UpdateNotice(c *fiber.Ctx) error {
	var in UpdateNoticeRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "JSON inválido")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	lc, err := h.loadCase(c.Params("id"))
	if err != nil {
		return err
	}

	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))
	if !canManageCase(userID, role, lc) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para actualizar notificaciones extrajudiciales de este caso")
	}

	var latest models.ExtrajudicialNotice
	if err := h.db.
		Where("legal_case_id = ?", lc.ID).
		Order("created_at DESC").
		First(&latest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound,
				"No se encontró notificación extrajudicial para actualizar")
		}
		return fiber.ErrInternalServerError
	}

	updates := map[string]any{}
	if in.DeliveryStatus != nil {
		updates["delivery_status"] = *in.DeliveryStatus
	}
	if d := parseDate(in.SentDate); d != nil {
		updates["sent_date"] = *d
	}
	if d := parseDate(in.DeliveredDate); d != nil {
		updates["delivered_date"] = *d
	}
	if in.ReceivedBy != nil {
		updates["received_by"] = *in.ReceivedBy
	}
	if in.ResponseReceived != nil {
		updates["response_received"] = *in.ResponseReceived
	}
	if d := parseDate(in.ResponseDate); d != nil {
		updates["response_date"] = *d
	}
	if in.ResponseContent != nil {
		updates["response_content"] = *in.ResponseContent
	}
	if in.ResponseAmount != nil {
		updates["response_amount"] = *in.ResponseAmount
	}
	if in.FollowUpSent != nil {
		updates["follow_up_sent"] = *in.FollowUpSent
	}
	if in.EscalationSent != nil {
		updates["escalation_sent"] = *in.EscalationSent
	}

	// First response moves the case back to evaluating the tenant's answer.
	gotFirstResponse := in.ResponseReceived != nil && *in.ResponseReceived && !latest.ResponseReceived

	actorID, _ := uuid.Parse(userID)
	var updated models.ExtrajudicialNotice

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.ExtrajudicialNotice{}).
				Where("id = ?", latest.ID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		if err := tx.First(&updated, "id = ?", latest.ID).Error; err != nil {
			return err
		}

		if gotFirstResponse {
			evaluationDeadline := time.Now().Add(5 * 24 * time.Hour)
			if err := tx.Model(&models.LegalCase{}).Where("id = ?", lc.ID).Updates(map[string]any{
				"status":        models.CaseWaitingResponse,
				"current_phase": models.PhaseExtrajudicial,
				"next_deadline": evaluationDeadline,
			}).Error; err != nil {
				return err
			}
		}

		if err := appendAudit(tx, lc.ID, actorID, models.ActionNoticeUpdated,
			"Notificación extrajudicial actualizada", latest, updated); err != nil {
			return err
		}

		if gotFirstResponse {
			return dispatch(tx, []models.LegalNotification{{
				LegalCaseID:      lc.ID,
				UserID:           lc.OwnerID,
				NotificationType: models.NotifStatusUpdate,
				Title:            "Respuesta Recibida",
				Message:          "El inquilino ha respondido a la notificación extrajudicial. Por favor revise la respuesta.",
				Priority:         models.NotifPriorityMedium,
			}})
		}
		return nil
	})
	if err != nil {
		h.log.Errorw("Error al actualizar notificación extrajudicial",
			"context", "legal.extrajudicial.update",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	h.log.Infow("Notificación extrajudicial actualizada exitosamente",
		"context", "legal.extrajudicial.update",
		"userId", userID,
		"caseId", lc.ID.String(),
		"noticeId", updated.ID.String())

	return success(c, updated, "Notificación extrajudicial actualizada exitosamente")
}
