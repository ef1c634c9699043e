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

type CreateProceedingRequest struct {
	ProceedingType string   `json:"proceedingType" validate:"required,oneof=EVICTION_DEMAND MONITORIO_PROCEDURE ORDINARY_PROCEDURE SUMMARY_PROCEDURE EXECUTION_PROCEDURE APPEAL OTHER"`
	Court          string   `json:"court" validate:"required,min=1,max=200"`
	Judge          string   `json:"judge" validate:"omitempty,max=120"`
	CourtFees      *float64 `json:"courtFees" validate:"required,gte=0"`
	LegalFees      *float64 `json:"legalFees" validate:"required,gte=0"`
	Notes          string   `json:"notes"`
	NextAction     string   `json:"nextAction"`
	NextDeadline   *string  `json:"nextDeadline" validate:"omitempty,rfc3339"`
}

// Every field is optional: this is a partial update even though the route
// uses PUT. proceedingId names the target explicitly; when absent the most
// recently created proceeding of the case is updated. expectedVersion lets
// clients reject lost updates (409 on mismatch).
type UpdateProceedingRequest struct {
	ProceedingID    *string `json:"proceedingId" validate:"omitempty,uuid"`
	ExpectedVersion *int    `json:"expectedVersion" validate:"omitempty,gte=1"`

	Status             *string `json:"status" validate:"omitempty,oneof=INITIATED NOTIFIED OPPOSITION_PERIOD EVIDENCE_PERIOD HEARING_SCHEDULED HEARING_COMPLETED JUDGMENT_PENDING JUDGMENT_ISSUED EXECUTION_PENDING EXECUTION_COMPLETED APPEALED CLOSED"`
	FiledDate          *string `json:"filedDate" validate:"omitempty,rfc3339"`
	NotificationDate   *string `json:"notificationDate" validate:"omitempty,rfc3339"`
	OppositionDeadline *string `json:"oppositionDeadline" validate:"omitempty,rfc3339"`
	HearingDate        *string `json:"hearingDate" validate:"omitempty,rfc3339"`
	EvidenceDeadline   *string `json:"evidenceDeadline" validate:"omitempty,rfc3339"`
	JudgmentDeadline   *string `json:"judgmentDeadline" validate:"omitempty,rfc3339"`
	Outcome            *string `json:"outcome" validate:"omitempty,oneof=FAVORABLE PARTIALLY_FAVORABLE UNFAVORABLE DISMISSED SETTLEMENT OTHER"`
	JudgmentText       *string `json:"judgmentText"`
	JudgmentDate       *string `json:"judgmentDate" validate:"omitempty,rfc3339"`
	AppealDeadline     *string `json:"appealDeadline" validate:"omitempty,rfc3339"`
	AppealFiled        *bool   `json:"appealFiled"`
	Notes              *string `json:"notes"`
	NextAction         *string `json:"nextAction"`
	NextDeadline       *string `json:"nextDeadline" validate:"omitempty,rfc3339"`
}

/* =========================== Transition table =========================== */

// Case statuses from which a court proceeding may be opened.
var courtFilingEligible = map[models.CaseStatus]bool{
	models.CaseWaitingResponse:   true,
	models.CaseDemandPreparation: true,
}

// caseCascades maps a newly reported proceeding status to the transition it
// forces on the parent case. Statuses missing here leave the case untouched.
var caseCascades = map[models.ProceedingStatus]struct {
	Status models.CaseStatus
	Phase  models.CasePhase
}{
	models.ProceedingHearingScheduled:   {models.CaseHearingScheduled, models.PhaseHearing},
	models.ProceedingJudgmentIssued:     {models.CaseJudgmentIssued, models.PhaseJudgment},
	models.ProceedingExecutionCompleted: {models.CaseEvictionOrdered, models.PhaseEviction},
}

/* ================================ Create ================================ */

// Create Court Proceeding godoc
// @Summary      Create court proceeding
// @Description  Owner, broker or admin files a judicial proceeding for a case
// @Tags         court-proceedings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "legal case id (uuid)"
// @Param        payload  body  CreateProceedingRequest  true  "Proceeding payload"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/cases/{id}/court-proceedings [post]
func (h *Handler) CreateProceeding(c *fiber.Ctx) error {
	var in CreateProceedingRequest
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
			"No tienes permisos para crear procedimientos judiciales para este caso")
	}

	if !courtFilingEligible[lc.Status] {
		return fiber.NewError(fiber.StatusBadRequest,
			"El caso legal no está en fase para iniciar procedimientos judiciales")
	}

	now := time.Now()
	totalCosts := *in.CourtFees + *in.LegalFees

	// Case deadline and tenant action deadline default to 30 days out.
	caseDeadline := parseDate(in.NextDeadline)
	if caseDeadline == nil {
		d := now.Add(30 * 24 * time.Hour)
		caseDeadline = &d
	}

	proceeding := models.CourtProceeding{
		LegalCaseID:      lc.ID,
		ProceedingType:   models.ProceedingType(in.ProceedingType),
		ProceedingNumber: GenerateProceedingNumber(models.ProceedingType(in.ProceedingType)),
		Court:            in.Court,
		Judge:            in.Judge,
		Status:           models.ProceedingInitiated,
		CourtFees:        *in.CourtFees,
		LegalFees:        *in.LegalFees,
		TotalCosts:       totalCosts, // frozen here, never recomputed
		Notes:            in.Notes,
		NextAction:       in.NextAction,
		NextDeadline:     parseDate(in.NextDeadline),
	}

	actorID, _ := uuid.Parse(userID)

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&proceeding).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.LegalCase{}).Where("id = ?", lc.ID).Updates(map[string]any{
			"status":            models.CaseDemandFiled,
			"current_phase":     models.PhaseCourtFiling,
			"demand_filed_date": now,
			"legal_fees":        *in.LegalFees,
			"court_fees":        *in.CourtFees,
			"total_amount":      lc.TotalAmount + totalCosts,
			"next_deadline":     *caseDeadline,
		}).Error; err != nil {
			return err
		}

		if err := appendAudit(tx, lc.ID, actorID, models.ActionProceedingCreated,
			"Procedimiento judicial creado: "+in.ProceedingType, nil, proceeding); err != nil {
			return err
		}

		return dispatch(tx, []models.LegalNotification{
			{
				LegalCaseID:      lc.ID,
				UserID:           lc.TenantID,
				NotificationType: models.NotifCourtOrder,
				Title:            "Demanda Judicial Presentada",
				Message:          "Se ha presentado una demanda judicial relacionada con su contrato. Por favor revise los documentos y consulte con un abogado.",
				Priority:         models.NotifPriorityHigh,
				ActionRequired:   true,
				ActionDeadline:   caseDeadline,
			},
			{
				LegalCaseID:      lc.ID,
				UserID:           lc.OwnerID,
				NotificationType: models.NotifStatusUpdate,
				Title:            "Procedimiento Judicial Iniciado",
				Message:          "Se ha iniciado exitosamente el procedimiento judicial. El siguiente paso es esperar la notificación del tribunal.",
				Priority:         models.NotifPriorityMedium,
			},
		})
	})
	if err != nil {
		h.log.Errorw("Error al crear procedimiento judicial",
			"context", "legal.court-proceedings.create",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	h.log.Infow("Procedimiento judicial creado exitosamente",
		"context", "legal.court-proceedings.create",
		"userId", userID,
		"caseId", lc.ID.String(),
		"proceedingId", proceeding.ID.String(),
		"proceedingType", in.ProceedingType)

	return success(c, proceeding, "Procedimiento judicial creado exitosamente")
}

/* ================================= List ================================= */

// List Court Proceedings godoc
// @Summary      List court proceedings
// @Description  Case participants (tenant included) list proceedings, newest first
// @Tags         court-proceedings
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "legal case id (uuid)"
// @Success      200  {object}  models.SuccessResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/cases/{id}/court-proceedings [get]
func (h *Handler) ListProceedings(c *fiber.Ctx) error {
	lc, err := h.loadCase(c.Params("id"))
	if err != nil {
		return err
	}

	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))
	if !canViewCase(userID, role, lc) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para ver los procedimientos judiciales de este caso")
	}

	proceedings := make([]models.CourtProceeding, 0)
	if err := h.db.
		Where("legal_case_id = ?", lc.ID).
		Order("created_at DESC").
		Find(&proceedings).Error; err != nil {
		h.log.Errorw("Error al obtener procedimientos judiciales",
			"context", "legal.court-proceedings.list",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	h.log.Infow("Procedimientos judiciales obtenidos exitosamente",
		"context", "legal.court-proceedings.list",
		"userId", userID,
		"caseId", lc.ID.String(),
		"count", len(proceedings))

	return success(c, proceedings, "")
}

/* ================================ Update ================================ */

// Update Court Proceeding godoc
// @Summary      Update court proceeding
// @Description  Partial update; targets proceedingId when given, else the latest proceeding
// @Tags         court-proceedings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "legal case id (uuid)"
// @Param        payload  body  UpdateProceedingRequest  true  "Fields to update (all optional)"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /legal/cases/{id}/court-proceedings [put]
func (h *Handler) UpdateProceeding(c *fiber.Ctx) error {
	var in UpdateProceedingRequest
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
			"No tienes permisos para actualizar procedimientos judiciales de este caso")
	}

	// Resolve the target: explicit id wins, otherwise the newest proceeding.
	var target models.CourtProceeding
	q := h.db.Where("legal_case_id = ?", lc.ID)
	if in.ProceedingID != nil {
		q = q.Where("id = ?", *in.ProceedingID)
	} else {
		q = q.Order("created_at DESC")
	}
	if err := q.First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound,
				"No se encontró procedimiento judicial para actualizar")
		}
		return fiber.ErrInternalServerError
	}

	if in.ExpectedVersion != nil && *in.ExpectedVersion != target.Version {
		return fiber.NewError(fiber.StatusConflict,
			"El procedimiento judicial fue modificado por otra persona")
	}

	// Sparse update: only fields present in the payload. appealFiled is
	// applied even when false so clients can un-flag an appeal.
	updates := map[string]any{"version": target.Version + 1}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if d := parseDate(in.FiledDate); d != nil {
		updates["filed_date"] = *d
	}
	if d := parseDate(in.NotificationDate); d != nil {
		updates["notification_date"] = *d
	}
	if d := parseDate(in.OppositionDeadline); d != nil {
		updates["opposition_deadline"] = *d
	}
	if d := parseDate(in.HearingDate); d != nil {
		updates["hearing_date"] = *d
	}
	if d := parseDate(in.EvidenceDeadline); d != nil {
		updates["evidence_deadline"] = *d
	}
	if d := parseDate(in.JudgmentDeadline); d != nil {
		updates["judgment_deadline"] = *d
	}
	if in.Outcome != nil {
		updates["outcome"] = *in.Outcome
	}
	if in.JudgmentText != nil {
		updates["judgment_text"] = *in.JudgmentText
	}
	if d := parseDate(in.JudgmentDate); d != nil {
		updates["judgment_date"] = *d
	}
	if d := parseDate(in.AppealDeadline); d != nil {
		updates["appeal_deadline"] = *d
	}
	if in.AppealFiled != nil {
		updates["appeal_filed"] = *in.AppealFiled
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.NextAction != nil {
		updates["next_action"] = *in.NextAction
	}
	if d := parseDate(in.NextDeadline); d != nil {
		updates["next_deadline"] = *d
	}

	actorID, _ := uuid.Parse(userID)
	var updated models.CourtProceeding

	err = h.db.Transaction(func(tx *gorm.DB) error {
		// Guarded by version: a concurrent writer makes RowsAffected zero.
		res := tx.Model(&models.CourtProceeding{}).
			Where("id = ? AND version = ?", target.ID, target.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict,
				"El procedimiento judicial fue modificado por otra persona")
		}

		if err := tx.First(&updated, "id = ?", target.ID).Error; err != nil {
			return err
		}

		// Cascade onto the case only when the payload carries a status.
		if in.Status != nil {
			newStatus := models.ProceedingStatus(*in.Status)
			if cascade, ok := caseCascades[newStatus]; ok {
				caseUpdates := map[string]any{
					"status":        cascade.Status,
					"current_phase": cascade.Phase,
				}
				switch newStatus {
				case models.ProceedingHearingScheduled:
					if d := parseDate(in.HearingDate); d != nil {
						caseUpdates["hearing_date"] = *d
					}
				case models.ProceedingJudgmentIssued:
					if d := parseDate(in.JudgmentDate); d != nil {
						caseUpdates["judgment_date"] = *d
					}
				case models.ProceedingExecutionCompleted:
					caseUpdates["eviction_date"] = time.Now()
				}
				if err := tx.Model(&models.LegalCase{}).
					Where("id = ?", lc.ID).
					Updates(caseUpdates).Error; err != nil {
					return err
				}
			}
		}

		details := "Procedimiento judicial actualizado: varios campos"
		if in.Status != nil {
			details = "Procedimiento judicial actualizado: " + *in.Status
		}
		if err := appendAudit(tx, lc.ID, actorID, models.ActionProceedingUpdated,
			details, target, updated); err != nil {
			return err
		}

		// Fan-out only for the two milestone transitions. Every other
		// status stays silent on purpose.
		if in.Status != nil {
			switch models.ProceedingStatus(*in.Status) {
			case models.ProceedingHearingScheduled:
				return dispatch(tx, hearingNotifications(lc, parseDate(in.HearingDate)))
			case models.ProceedingJudgmentIssued:
				return dispatch(tx, judgmentNotifications(lc))
			}
		}
		return nil
	})
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			return e
		}
		h.log.Errorw("Error al actualizar procedimiento judicial",
			"context", "legal.court-proceedings.update",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	h.log.Infow("Procedimiento judicial actualizado exitosamente",
		"context", "legal.court-proceedings.update",
		"userId", userID,
		"caseId", lc.ID.String(),
		"proceedingId", updated.ID.String())

	return success(c, updated, "Procedimiento judicial actualizado exitosamente")
}

/* ============================ Notifications ============================= */

func hearingNotifications(lc *models.LegalCase, hearingDate *time.Time) []models.LegalNotification {
	msg := "Se ha programado una audiencia judicial para su caso. Por favor asista en la fecha y hora indicada."
	return []models.LegalNotification{
		{
			LegalCaseID:      lc.ID,
			UserID:           lc.TenantID,
			NotificationType: models.NotifHearingScheduled,
			Title:            "Audiencia Programada",
			Message:          msg,
			Priority:         models.NotifPriorityHigh,
			ActionRequired:   true,
			ActionDeadline:   hearingDate,
		},
		{
			LegalCaseID:      lc.ID,
			UserID:           lc.OwnerID,
			NotificationType: models.NotifHearingScheduled,
			Title:            "Audiencia Programada",
			Message:          msg,
			Priority:         models.NotifPriorityHigh,
			ActionRequired:   true,
			ActionDeadline:   hearingDate,
		},
	}
}

func judgmentNotifications(lc *models.LegalCase) []models.LegalNotification {
	msg := "Se ha emitido la sentencia judicial para su caso. Por favor revise los detalles."
	return []models.LegalNotification{
		{
			LegalCaseID:      lc.ID,
			UserID:           lc.TenantID,
			NotificationType: models.NotifJudgmentIssued,
			Title:            "Sentencia Emitida",
			Message:          msg,
			Priority:         models.NotifPriorityHigh,
			ActionRequired:   true,
		},
		{
			LegalCaseID:      lc.ID,
			UserID:           lc.OwnerID,
			NotificationType: models.NotifJudgmentIssued,
			Title:            "Sentencia Emitida",
			Message:          msg,
			Priority:         models.NotifPriorityHigh,
			ActionRequired:   true,
		},
	}
}
