package legal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arriendoseguro/legal-api/internal/auth"
	"github.com/arriendoseguro/legal-api/pkg/logging"
	"github.com/arriendoseguro/legal-api/pkg/models"
)

/* ============================================================================
   Helpers
   ============================================================================ */

// openTestDB opens an in-memory SQLite database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Property{}, &models.Contract{},
		&models.LegalCase{}, &models.CourtProceeding{}, &models.ExtrajudicialNotice{},
		&models.LegalDocument{}, &models.LegalAuditLog{}, &models.LegalNotification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// injectAuth fills the locals RequireAuth would set, without a real JWT.
func injectAuth(userID uuid.UUID, role models.Role) fiber.Handler {
	id := userID.String()
	return func(c *fiber.Ctx) error {
		c.Locals("userID", id)
		c.Locals("role", string(role))
		return c.Next()
	}
}

// newTestApp mounts the legal routes behind a fake-auth middleware.
func newTestApp(h *Handler, userID uuid.UUID, role models.Role) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler})
	app.Use(injectAuth(userID, role))

	app.Post("/api/legal/cases", h.CreateCase)
	app.Get("/api/legal/cases", h.ListCases)
	app.Get("/api/legal/cases/:id", h.GetCase)

	app.Post("/api/legal/cases/:id/court-proceedings", h.CreateProceeding)
	app.Get("/api/legal/cases/:id/court-proceedings", h.ListProceedings)
	app.Put("/api/legal/cases/:id/court-proceedings", h.UpdateProceeding)

	app.Post("/api/legal/cases/:id/extrajudicial", h.CreateNotice)
	app.Get("/api/legal/cases/:id/extrajudicial", h.ListNotices)
	app.Put("/api/legal/cases/:id/extrajudicial", h.UpdateNotice)

	app.Post("/api/legal/cases/:id/documents", h.UploadDocuments)
	app.Get("/api/legal/cases/:id/documents", h.ListDocuments)
	app.Get("/api/legal/documents/:docID/signed-url", h.SignedDocumentURL)
	app.Delete("/api/legal/documents/:docID", h.DeleteDocument)

	return app
}

func newHandler(db *gorm.DB) *Handler {
	return NewHandler(db, logging.NewNop(), nil)
}

// doJSON builds a request with a JSON body and runs it through the app.
func doJSON(t *testing.T, app *fiber.App, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

// errorMessage extracts the message from an {"error": "..."} response.
func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body models.ErrorResponse
	decodeBody(t, resp, &body)
	return body.Error
}

type caseSeed struct {
	OwnerID    uuid.UUID
	TenantID   uuid.UUID
	BrokerID   uuid.UUID
	ContractID uuid.UUID
	CaseID     uuid.UUID
}

// seedUser inserts one user with the given role.
func seedUser(t *testing.T, db *gorm.DB, role models.Role) uuid.UUID {
	t.Helper()
	u := models.User{
		Email:        string(role) + "_" + uuid.NewString()[:8] + "@x.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u.ID
}

// seedContract inserts an owner, tenant, broker, property and contract.
func seedContract(t *testing.T, db *gorm.DB) caseSeed {
	t.Helper()
	s := caseSeed{
		OwnerID:  seedUser(t, db, models.RoleOwner),
		TenantID: seedUser(t, db, models.RoleTenant),
		BrokerID: seedUser(t, db, models.RoleBroker),
	}

	prop := models.Property{OwnerID: s.OwnerID, Title: "Depto 501", Address: "Av. Las Condes 1000"}
	if err := db.Create(&prop).Error; err != nil {
		t.Fatal(err)
	}

	brokerID := s.BrokerID
	contract := models.Contract{
		PropertyID:  prop.ID,
		TenantID:    s.TenantID,
		OwnerID:     s.OwnerID,
		BrokerID:    &brokerID,
		MonthlyRent: 500000,
	}
	if err := db.Create(&contract).Error; err != nil {
		t.Fatal(err)
	}
	s.ContractID = contract.ID
	return s
}

// seedCase inserts the full chain ending in a legal case with the given status.
func seedCase(t *testing.T, db *gorm.DB, status models.CaseStatus) caseSeed {
	t.Helper()
	s := seedContract(t, db)

	brokerID := s.BrokerID
	phase := models.PhasePreJudicial
	if status == models.CaseWaitingResponse || status == models.CaseExtrajudicialNotice {
		phase = models.PhaseExtrajudicial
	}
	lc := models.LegalCase{
		CaseNumber:       GenerateNumber("LC"),
		ContractID:       s.ContractID,
		TenantID:         s.TenantID,
		OwnerID:          s.OwnerID,
		BrokerID:         &brokerID,
		CaseType:         models.CaseTypeEvictionNonPayment,
		Priority:         models.PriorityMedium,
		Status:           status,
		CurrentPhase:     phase,
		TotalDebt:        1000,
		InterestRate:     0.05,
		TotalAmount:      1000,
		FirstDefaultDate: time.Now().Add(-60 * 24 * time.Hour),
	}
	if err := db.Create(&lc).Error; err != nil {
		t.Fatal(err)
	}
	s.CaseID = lc.ID
	return s
}

// seedProceeding inserts one proceeding directly, bypassing the handler.
func seedProceeding(t *testing.T, db *gorm.DB, caseID uuid.UUID, createdAt time.Time) models.CourtProceeding {
	t.Helper()
	p := models.CourtProceeding{
		LegalCaseID:      caseID,
		ProceedingType:   models.ProceedingEvictionDemand,
		ProceedingNumber: GenerateProceedingNumber(models.ProceedingEvictionDemand),
		Court:            "1er Juzgado Civil de Santiago",
		Status:           models.ProceedingInitiated,
		CourtFees:        100,
		LegalFees:        200,
		TotalCosts:       300,
		Version:          1,
		CreatedAt:        createdAt,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func reloadCase(t *testing.T, db *gorm.DB, id uuid.UUID) models.LegalCase {
	t.Helper()
	var lc models.LegalCase
	if err := db.First(&lc, "id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return lc
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}
