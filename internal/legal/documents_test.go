package legal

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"

	"github.com/arriendoseguro/legal-api/pkg/models"
)

// multipartPDF builds a files[] form with one fake PDF part.
func multipartPDF(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="files[]"; filename="`+filename+`"`)
	hdr.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func Test_UploadDocuments_CreatesRecordAndAudit(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CasePreJudicial)
	app := newTestApp(newHandler(db), s.OwnerID, models.RoleOwner)

	body, contentType := multipartPDF(t, "demanda.pdf", []byte("%PDF-1.4 fake"))
	req := httptest.NewRequest("POST", "/api/legal/cases/"+s.CaseID.String()+"/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("want 201, got %d", resp.StatusCode)
	}

	var out struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 1 {
		t.Fatalf("want 1 result, got %d", len(out.Results))
	}
	if _, failed := out.Results[0]["error"]; failed {
		t.Fatalf("upload should succeed, got %#v", out.Results[0])
	}

	var docs []models.LegalDocument
	if err := db.Where("legal_case_id = ?", s.CaseID).Find(&docs).Error; err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].OriginalName != "demanda.pdf" || docs[0].Mime != "application/pdf" {
		t.Fatalf("unexpected document row: %#v", docs)
	}
	if n := countRows(t, db, &models.LegalAuditLog{},
		"legal_case_id = ? AND action = ?", s.CaseID, models.ActionDocumentUploaded); n != 1 {
		t.Fatalf("want 1 audit entry, got %d", n)
	}
}

func Test_UploadDocuments_RejectsOtherMimeTypes(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CasePreJudicial)
	app := newTestApp(newHandler(db), s.OwnerID, models.RoleOwner)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="files[]"; filename="malware.exe"`)
	hdr.Set("Content-Type", "application/octet-stream")
	part, _ := w.CreatePart(hdr)
	_, _ = part.Write([]byte("MZ"))
	_ = w.Close()

	req := httptest.NewRequest("POST", "/api/legal/cases/"+s.CaseID.String()+"/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("want 201 with per-item error, got %d", resp.StatusCode)
	}

	var out struct {
		Results []map[string]any `json:"results"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if len(out.Results) != 1 {
		t.Fatalf("want 1 result, got %d", len(out.Results))
	}
	if out.Results[0]["error"] != "solo se permiten archivos PDF o PNG" {
		t.Fatalf("unexpected per-item error: %#v", out.Results[0])
	}
	if n := countRows(t, db, &models.LegalDocument{}, "legal_case_id = ?", s.CaseID); n != 0 {
		t.Fatalf("rejected file must not be recorded, got %d rows", n)
	}
}

func Test_UploadDocuments_TenantForbidden(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CasePreJudicial)
	app := newTestApp(newHandler(db), s.TenantID, models.RoleTenant)

	body, contentType := multipartPDF(t, "x.pdf", []byte("%PDF"))
	req := httptest.NewRequest("POST", "/api/legal/cases/"+s.CaseID.String()+"/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 403 {
		t.Fatalf("want 403, got %d", resp.StatusCode)
	}
}

func Test_SignedDocumentURL_ParticipantsOnly(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CasePreJudicial)

	doc := models.LegalDocument{
		LegalCaseID:  s.CaseID,
		UploadedByID: s.OwnerID,
		Key:          "legal/" + s.CaseID.String() + "/1_sentencia.pdf",
		Mime:         "application/pdf",
		Size:         10,
		OriginalName: "sentencia.pdf",
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatal(err)
	}

	// Tenant is a participant and may download.
	app := newTestApp(newHandler(db), s.TenantID, models.RoleTenant)
	resp := doJSON(t, app, "GET", "/api/legal/documents/"+doc.ID.String()+"/signed-url", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("tenant want 200, got %d", resp.StatusCode)
	}
	var out map[string]any
	decodeBody(t, resp, &out)
	if _, ok := out["url"]; !ok {
		t.Fatalf("missing url in response: %#v", out)
	}

	// An unrelated owner may not.
	outsider := seedUser(t, db, models.RoleOwner)
	app = newTestApp(newHandler(db), outsider, models.RoleOwner)
	resp = doJSON(t, app, "GET", "/api/legal/documents/"+doc.ID.String()+"/signed-url", nil)
	if resp.StatusCode != 403 {
		t.Fatalf("outsider want 403, got %d", resp.StatusCode)
	}
}

func Test_DeleteDocument_RemovesRowAndAudits(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CasePreJudicial)

	doc := models.LegalDocument{
		LegalCaseID:  s.CaseID,
		UploadedByID: s.OwnerID,
		Key:          "legal/" + s.CaseID.String() + "/1_contrato.pdf",
		Mime:         "application/pdf",
		Size:         10,
		OriginalName: "contrato.pdf",
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatal(err)
	}

	app := newTestApp(newHandler(db), s.OwnerID, models.RoleOwner)
	resp := doJSON(t, app, "DELETE", "/api/legal/documents/"+doc.ID.String(), nil)
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	if n := countRows(t, db, &models.LegalDocument{}, "id = ?", doc.ID); n != 0 {
		t.Fatalf("document row must be gone, got %d", n)
	}
	if n := countRows(t, db, &models.LegalAuditLog{},
		"legal_case_id = ? AND action = ?", s.CaseID, models.ActionDocumentDeleted); n != 1 {
		t.Fatalf("want 1 deletion audit entry, got %d", n)
	}
}

func Test_DeleteDocument_TenantForbidden(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CasePreJudicial)

	doc := models.LegalDocument{
		LegalCaseID:  s.CaseID,
		UploadedByID: s.OwnerID,
		Key:          "legal/" + s.CaseID.String() + "/1_recibo.pdf",
		Mime:         "application/pdf",
		Size:         10,
		OriginalName: "recibo.pdf",
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatal(err)
	}

	app := newTestApp(newHandler(db), s.TenantID, models.RoleTenant)
	resp := doJSON(t, app, "DELETE", "/api/legal/documents/"+doc.ID.String(), nil)
	if resp.StatusCode != 403 {
		t.Fatalf("want 403, got %d", resp.StatusCode)
	}
	if n := countRows(t, db, &models.LegalDocument{}, "id = ?", doc.ID); n != 1 {
		t.Fatalf("document row must survive, got %d", n)
	}
}

func Test_DeleteDocument_UnknownID(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CasePreJudicial)
	app := newTestApp(newHandler(db), s.OwnerID, models.RoleOwner)

	resp := doJSON(t, app, "DELETE", "/api/legal/documents/"+uuid.NewString(), nil)
	if resp.StatusCode != 404 {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
	if errorMessage(t, resp) != "Documento no encontrado" {
		t.Fatalf("unexpected error message")
	}
}
