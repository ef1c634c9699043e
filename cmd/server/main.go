// @title           Arriendo Seguro Legal API
// @version         1.0
// @description     API for the legal workflow of a rental platform: owners open cases against defaulting tenants, send extrajudicial notices, file court proceedings and track every deadline.
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/arriendoseguro/legal-api/pkg/database"
	"github.com/arriendoseguro/legal-api/pkg/logging"
	"github.com/arriendoseguro/legal-api/pkg/models"

	"github.com/arriendoseguro/legal-api/internal/auth"
	"github.com/arriendoseguro/legal-api/internal/legal"
	"github.com/arriendoseguro/legal-api/internal/reminders"
	"github.com/arriendoseguro/legal-api/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := logging.New()
	defer logger.Sync()

	db := database.Init()
	if err := db.AutoMigrate(
		&models.User{}, &models.Property{}, &models.Contract{},
		&models.LegalCase{}, &models.CourtProceeding{}, &models.ExtrajudicialNotice{},
		&models.LegalDocument{}, &models.LegalAuditLog{}, &models.LegalNotification{},
	); err != nil {
		log.Fatal("migration failed:", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler,
	})

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	api := app.Group("/api")

	// Auth
	authH := auth.NewHandler(db)
	api.Post("/signup", authH.Signup)
	api.Post("/login", authH.Login)
	api.Get("/me", auth.RequireAuth(), authH.Me)

	// Storage helper
	sb := storage.NewSupabase() // uses SUPABASE_URL / SUPABASE_SERVICE_KEY / SUPABASE_BUCKET

	// Legal cases
	legalH := legal.NewHandler(db, logger, sb)
	manage := auth.RequireRole(models.RoleAdmin, models.RoleOwner, models.RoleBroker)

	api.Post("/legal/cases", auth.RequireAuth(), manage, legalH.CreateCase)
	api.Get("/legal/cases", auth.RequireAuth(), legalH.ListCases)
	api.Get("/legal/cases/:id", auth.RequireAuth(), legalH.GetCase)

	// Court proceedings
	api.Post("/legal/cases/:id/court-proceedings", auth.RequireAuth(), manage, legalH.CreateProceeding)
	api.Get("/legal/cases/:id/court-proceedings", auth.RequireAuth(), legalH.ListProceedings)
	api.Put("/legal/cases/:id/court-proceedings", auth.RequireAuth(), manage, legalH.UpdateProceeding)

	// Extrajudicial notices
	api.Post("/legal/cases/:id/extrajudicial", auth.RequireAuth(), manage, legalH.CreateNotice)
	api.Get("/legal/cases/:id/extrajudicial", auth.RequireAuth(), legalH.ListNotices)
	api.Put("/legal/cases/:id/extrajudicial", auth.RequireAuth(), manage, legalH.UpdateNotice)

	// Documents
	api.Post("/legal/cases/:id/documents", auth.RequireAuth(), manage, legalH.UploadDocuments)
	api.Get("/legal/cases/:id/documents", auth.RequireAuth(), legalH.ListDocuments)
	api.Get("/legal/documents/:docID/signed-url", auth.RequireAuth(), legalH.SignedDocumentURL)
	api.Delete("/legal/documents/:docID", auth.RequireAuth(), manage, legalH.DeleteDocument)

	// Deadline reminders
	scanner := reminders.NewScanner(db, logger)
	cronJobs, err := scanner.Start()
	if err != nil {
		log.Fatal("scheduler failed:", err)
	}
	defer cronJobs.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	logger.Infow("Servidor iniciado", "context", "main", "port", port)
	log.Fatal(app.Listen(":" + port))
}
