package legal

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arriendoseguro/legal-api/internal/auth"
	"github.com/arriendoseguro/legal-api/pkg/models"
)

// Upload Legal Documents godoc
// @Summary      Upload legal documents (PDF/PNG)
// @Description  Owner, broker or admin uploads up to 10 files to Supabase Storage
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string   true  "legal case id (uuid)"
// @Param        files  formData  []file   true  "PDF/PNG (max 10)"
// @Success      201    {array}   map[string]any  "id, key, name, size"
// @Failure      400    {object}  models.ErrorResponse
// @Failure      403    {object}  models.ErrorResponse
// @Failure      500    {object}  models.ErrorResponse
// @Router       /legal/cases/{id}/documents [post]
func (h *Handler) UploadDocuments(c *fiber.Ctx) error {
	lc, err := h.loadCase(c.Params("id"))
	if err != nil {
		return err
	}

	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))
	if !canManageCase(userID, role, lc) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para subir documentos a este caso")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Se requiere un formulario multipart; use files[]")
	}
	// Algunos clientes envían la clave "files" en lugar de "files[]".
	files := form.File["files[]"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Se requieren archivos (use la clave files[])")
	}
	if len(files) > 10 {
		return fiber.NewError(fiber.StatusBadRequest, "Máximo 10 archivos por solicitud")
	}

	actorID, _ := uuid.Parse(userID)
	results := make([]fiber.Map, 0, len(files))

	for _, fh := range files {
		res := fiber.Map{
			"name": fh.Filename,
			"size": fh.Size,
		}

		if fh.Size <= 0 {
			res["error"] = "archivo vacío"
			results = append(results, res)
			continue
		}
		if fh.Size > 10*1024*1024 {
			res["error"] = "máximo 10MB por archivo"
			results = append(results, res)
			continue
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = mime.TypeByExtension(filepath.Ext(fh.Filename))
		}
		switch ct {
		case "application/pdf", "image/png":
			// ok
		default:
			res["error"] = "solo se permiten archivos PDF o PNG"
			results = append(results, res)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			res["error"] = "no se pudo abrir el archivo"
			results = append(results, res)
			continue
		}
		defer f.Close()

		// Prefijo con timestamp para evitar colisiones de nombre.
		key := h.store.MakeObjectKey(lc.ID.String(),
			fmt.Sprintf("%d_%s", time.Now().UnixMilli(), fh.Filename))

		if err := h.store.Upload(key, f, ct, fh.Size); err != nil {
			res["error"] = "error al subir el archivo"
			results = append(results, res)
			continue
		}

		rec := models.LegalDocument{
			LegalCaseID:  lc.ID,
			UploadedByID: actorID,
			Key:          key,
			Mime:         ct,
			Size:         int(fh.Size),
			OriginalName: fh.Filename,
		}
		// Record and audit together: a document without its audit entry
		// must not exist.
		err = h.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			return appendAudit(tx, lc.ID, actorID, models.ActionDocumentUploaded,
				"Documento legal subido: "+fh.Filename, nil, rec)
		})
		if err != nil {
			h.log.Errorw("Error al registrar documento legal",
				"context", "legal.documents.upload",
				"error", err.Error())
			res["error"] = "error de base de datos"
			results = append(results, res)
			continue
		}

		res["id"] = rec.ID
		res["key"] = rec.Key
		results = append(results, res)
	}

	// 201 aunque haya fallos parciales; cada item lleva su propio campo "error".
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"results": results})
}

// List Legal Documents godoc
// @Summary      List legal documents for a case
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "legal case id (uuid)"
// @Success      200  {object}  models.SuccessResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/cases/{id}/documents [get]
func (h *Handler) ListDocuments(c *fiber.Ctx) error {
	lc, err := h.loadCase(c.Params("id"))
	if err != nil {
		return err
	}

	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))
	if !canViewCase(userID, role, lc) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para ver los documentos de este caso")
	}

	docs := make([]models.LegalDocument, 0)
	if err := h.db.
		Where("legal_case_id = ?", lc.ID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return success(c, docs, "")
}

// Signed Download URL godoc
// @Summary      Get signed URL
// @Description  Any case participant obtains a short-lived signed URL
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        docID  path string true "document id (uuid)"
// @Success      200  {object}  map[string]any  "url, expires_in, now"
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /legal/documents/{docID}/signed-url [get]
func (h *Handler) SignedDocumentURL(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))

	var doc models.LegalDocument
	if err := h.db.Preload("LegalCase").First(&doc, "id = ?", c.Params("docID")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Documento no encontrado")
		}
		return fiber.ErrInternalServerError
	}

	if !canViewCase(userID, role, &doc.LegalCase) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para descargar este documento")
	}

	url, err := h.store.SignedURL(doc.Key, 60) // seconds
	if err != nil {
		h.log.Errorw("Error al firmar URL de documento",
			"context", "legal.documents.sign",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"url": url, "expires_in": 60, "now": time.Now().UTC()})
}

// Delete Legal Document godoc
// @Summary      Delete legal document
// @Description  Owner, broker or admin removes a document and its stored object
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        docID  path string true "document id (uuid)"
// @Success      200  {object}  models.SuccessResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /legal/documents/{docID} [delete]
func (h *Handler) DeleteDocument(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	role := models.Role(auth.MustRole(c))

	var doc models.LegalDocument
	if err := h.db.Preload("LegalCase").First(&doc, "id = ?", c.Params("docID")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Documento no encontrado")
		}
		return fiber.ErrInternalServerError
	}

	if !canManageCase(userID, role, &doc.LegalCase) {
		return fiber.NewError(fiber.StatusForbidden,
			"No tienes permisos para eliminar este documento")
	}

	actorID, _ := uuid.Parse(userID)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.LegalDocument{}, "id = ?", doc.ID).Error; err != nil {
			return err
		}
		return appendAudit(tx, doc.LegalCaseID, actorID, models.ActionDocumentDeleted,
			"Documento legal eliminado: "+doc.OriginalName, doc, nil)
	})
	if err != nil {
		h.log.Errorw("Error al eliminar documento legal",
			"context", "legal.documents.delete",
			"error", err.Error())
		return fiber.ErrInternalServerError
	}

	// Object removal is idempotent; a storage hiccup leaves an orphan object
	// but never resurrects the row.
	if err := h.store.Delete(doc.Key); err != nil {
		h.log.Errorw("Error al eliminar objeto de almacenamiento",
			"context", "legal.documents.delete",
			"key", doc.Key,
			"error", err.Error())
	}

	h.log.Infow("Documento legal eliminado exitosamente",
		"context", "legal.documents.delete",
		"userId", userID,
		"caseId", doc.LegalCaseID.String(),
		"documentId", doc.ID.String())

	return success(c, fiber.Map{"id": doc.ID}, "Documento legal eliminado exitosamente")
}
