package legal

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arriendoseguro/legal-api/internal/auth"
	"github.com/arriendoseguro/legal-api/pkg/models"
	"github.com/arriendoseguro/legal-api/pkg/validation"
)

/* ================================ DTOs ================================= */

type CreateCaseRequest struct {
	ContractID       string   `json:"contractId" validate:"required,uuid"`
	CaseType         string   `json:"caseType" validate:"required,oneof=EVICTION_NON_PAYMENT DAMAGE_CLAIM BREACH_OF_CONTRACT ILLEGAL_OCCUPATION RENT_INCREASE_DISPUTE SECURITY_DEPOSIT_DISPUTE UTILITY_PAYMENT_DISPUTE OTHER"`
	Priority         string   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT CRITICAL"`
	TotalDebt        *float64 `json:"totalDebt" validate:"required,gte=0"`
	InterestRate     *float64 `json:"interestRate" validate:"omitempty,gte=0,lte=1"`
	FirstDefaultDate string   `json:"firstDefaultDate" validate:"required,rfc3339"`
	Notes            string   `json:"notes"`
	InternalNotes    string   `json:"internalNotes"`
}

type casePagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type caseListResponse struct {
	Cases      []models.LegalCase `json:"cases"`
	Pagination casePagination     `json:"pagination"`
	Stats      map[string]int64   `json:"stats"`
}

// Terminal statuses: a contract may only carry one non-terminal case.
var terminalCaseStatuses = []models.CaseStatus{
	models.CaseClosed,
	models.CaseSettlementReached,
	models.CaseDismissed,
}

/* ================================ Create ================================ */

// Create Legal Case godoc
// @Summary      Create legal case
// @Description  Owner, broker or admin opens a legal case against a contract
// @Tags         legal-cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateCaseRequest  true  "Case payload"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/cases [post]
func (h *Handler) CreateCase(c *fiber.Ctx) error {
	var in CreateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "JSON inválido")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	var contract models.Contract
	if err := h.db.First(&contract, "id = ?", in.ContractID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Contrato no encontrado")
		}
		return fiber.ErrInternalServerError
	}

	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))
	canCreate := role == models.RoleAdmin ||
		contract.OwnerID.String() == userID ||
		(contract.BrokerID != nil && contract.BrokerID.String() == userID)
	if !canCreate {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para crear casos legales para este contrato")
	}

	var active int64
	if err := h.db.Model(&models.LegalCase{}).
		Where("contract_id = ? AND status NOT IN ?", contract.ID, terminalCaseStatuses).
		Count(&active).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if active > 0 {
		return fiber.NewError(fiber.StatusBadRequest,
			"Ya existe un caso legal activo para este contrato")
	}

	priority := models.PriorityMedium
	if in.Priority != "" {
		priority = models.CasePriority(in.Priority)
	}
	rate := 0.05
	if in.InterestRate != nil {
		rate = *in.InterestRate
	}

	firstDefault, _ := time.Parse(time.RFC3339, in.FirstDefaultDate)
	monthsSinceDefault := math.Ceil(time.Since(firstDefault).Hours() / 24 / 30)
	accumulatedInterest := *in.TotalDebt * rate * monthsSinceDefault

	now := time.Now()
	responseDeadline := now.Add(10 * 24 * time.Hour)

	lc := models.LegalCase{
		CaseNumber:          GenerateNumber("LC"),
		ContractID:          contract.ID,
		TenantID:            contract.TenantID,
		OwnerID:             contract.OwnerID,
		BrokerID:            contract.BrokerID,
		CaseType:            models.CaseType(in.CaseType),
		Priority:            priority,
		Status:              models.CasePreJudicial,
		CurrentPhase:        models.PhasePreJudicial,
		TotalDebt:           *in.TotalDebt,
		InterestRate:        rate,
		AccumulatedInterest: accumulatedInterest,
		TotalAmount:         *in.TotalDebt + accumulatedInterest,
		FirstDefaultDate:    firstDefault,
		NextDeadline:        &responseDeadline,
		Notes:               in.Notes,
		InternalNotes:       in.InternalNotes,
	}

	actorID, _ := uuid.Parse(userID)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lc).Error; err != nil {
			return err
		}
		if err := appendAudit(tx, lc.ID, actorID, models.ActionCaseCreated,
			"Caso legal creado: "+in.CaseType, nil, lc); err != nil {
			return err
		}
		return dispatch(tx, []models.LegalNotification{
			{
				LegalCaseID:      lc.ID,
				UserID:           contract.TenantID,
				NotificationType: models.NotifActionRequired,
				Title:            "Caso Legal Iniciado",
				Message:          "Se ha iniciado un caso legal relacionado con su contrato. Por favor revise los detalles.",
				Priority:         models.NotifPriorityHigh,
				ActionRequired:   true,
				ActionDeadline:   &responseDeadline,
			},
			{
				LegalCaseID:      lc.ID,
				UserID:           contract.OwnerID,
				NotificationType: models.NotifStatusUpdate,
				Title:            "Caso Legal Creado",
				Message:          "Se ha creado exitosamente el caso legal. El siguiente paso es enviar la notificación extrajudicial.",
				Priority:         models.NotifPriorityMedium,
			},
		})
	})
	if err != nil {
		h.log.Errorw("Error al crear caso legal",
			"context", "legal.cases.create",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	h.log.Infow("Caso legal creado exitosamente",
		"context", "legal.cases.create",
		"userId", userID,
		"caseId", lc.ID.String(),
		"caseNumber", lc.CaseNumber)

	return success(c, lc, "Caso legal creado exitosamente")
}

/* ================================= List ================================= */

// List Legal Cases godoc
// @Summary      List legal cases
// @Description  Role-scoped listing with pagination, filters and status stats
// @Tags         legal-cases
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "page"
// @Param        limit     query  int     false  "page size (max 100)"
// @Param        status    query  string  false  "case status filter"
// @Param        caseType  query  string  false  "case type filter"
// @Param        priority  query  string  false  "priority filter"
// @Param        search    query  string  false  "matches case number and notes"
// @Success      200  {object}  models.SuccessResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /legal/cases [get]
func (h *Handler) ListCases(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	switch role {
	case models.RoleAdmin, models.RoleOwner, models.RoleBroker, models.RoleTenant:
	default:
		return fiber.NewError(fiber.StatusForbidden, "Rol de usuario no válido")
	}

	// Fresh filtered query per finalizer; count, page and stats must not
	// share clauses.
	filtered := func() *gorm.DB {
		q := h.db.Model(&models.LegalCase{})
		switch role {
		case models.RoleOwner:
			q = q.Where("owner_id = ?", userID)
		case models.RoleBroker:
			q = q.Where("broker_id = ?", userID)
		case models.RoleTenant:
			q = q.Where("tenant_id = ?", userID)
		}
		if s := c.Query("status"); s != "" {
			q = q.Where("status = ?", s)
		}
		if t := c.Query("caseType"); t != "" {
			q = q.Where("case_type = ?", t)
		}
		if p := c.Query("priority"); p != "" {
			q = q.Where("priority = ?", p)
		}
		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			q = q.Where("case_number LIKE ? OR notes LIKE ? OR internal_notes LIKE ?", like, like, like)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	cases := make([]models.LegalCase, 0, limit)
	if err := filtered().
		Preload("Contract.Property").
		Preload("CourtProceedings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("ExtrajudicialNotices", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&cases).Error; err != nil {
		h.log.Errorw("Error al obtener casos legales",
			"context", "legal.cases.list",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	// Per-status counts over the same filter set.
	var rows []struct {
		Status string
		Count  int64
	}
	if err := filtered().Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.Status] = r.Count
	}

	h.log.Infow("Casos legales obtenidos exitosamente",
		"context", "legal.cases.list",
		"userId", userID,
		"count", len(cases),
		"totalCount", total)

	return success(c, caseListResponse{
		Cases: cases,
		Pagination: casePagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
		Stats: stats,
	}, "")
}

// Get Legal Case godoc
// @Summary      Get legal case detail
// @Description  Full record of one case with its proceedings, notices, documents and audit trail
// @Tags         legal-cases
// @Security     BearerAuth
// @Produce      json
// @Param        id  path string true "legal case id (uuid)"
// @Success      200  {object}  models.SuccessResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/cases/{id} [get]
func (h *Handler) GetCase(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))

	var lc models.LegalCase
	err := h.db.
		Preload("Contract").
		Preload("Contract.Property").
		Preload("CourtProceedings", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("ExtrajudicialNotices", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&lc, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Caso legal no encontrado")
		}
		return fiber.ErrInternalServerError
	}

	if !canViewCase(userID, role, &lc) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para ver este caso legal")
	}

	var trail []models.LegalAuditLog
	if err := h.db.Where("legal_case_id = ?", lc.ID).
		Order("created_at DESC").Find(&trail).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	h.log.Infow("Caso legal obtenido exitosamente",
		"context", "legal.cases.get",
		"userId", userID,
		"caseId", lc.ID.String())

	return success(c, fiber.Map{
		"case":       lc,
		"auditTrail": trail,
	}, "")
}
