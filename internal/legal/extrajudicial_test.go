package legal

import (
	"strings"
	"testing"
	"time"

	"github.com/arriendoseguro/legal-api/pkg/models"
)

func Test_CreateNotice_CascadesCase(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CasePreJudicial)
	app := newTestApp(newHandler(db), s.OwnerID, models.RoleOwner)

	deadline := time.Now().Add(10 * 24 * time.Hour).UTC().Truncate(time.Second)
	resp := doJSON(t, app, "POST", "/api/legal/cases/"+s.CaseID.String()+"/extrajudicial", map[string]any{
		"noticeType":     "PAYMENT_REQUIREMENT",
		"deliveryMethod": "NOTARIAL_NOTICE",
		"content":        "Se le requiere el pago de las rentas adeudadas.",
		"amount":         1000,
		"deadline":       deadline.Format(time.RFC3339),
	})
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	var body struct {
		Data    models.ExtrajudicialNotice `json:"data"`
		Message string                     `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Message != "Notificación extrajudicial creada exitosamente" {
		t.Fatalf("unexpected message: %q", body.Message)
	}
	if !strings.HasPrefix(body.Data.NoticeNumber, "EN-") {
		t.Fatalf("notice number should have EN- prefix, got %q", body.Data.NoticeNumber)
	}
	if body.Data.DeliveryStatus != models.DeliveryPending {
		t.Fatalf("new notice should be PENDING, got %s", body.Data.DeliveryStatus)
	}

	lc := reloadCase(t, db, s.CaseID)
	if lc.Status != models.CaseExtrajudicialNotice || lc.CurrentPhase != models.PhaseExtrajudicial {
		t.Fatalf("case should cascade to EXTRAJUDICIAL_NOTICE/EXTRAJUDICIAL, got %s/%s", lc.Status, lc.CurrentPhase)
	}
	if lc.ExtrajudicialSentDate == nil {
		t.Fatal("extrajudicialSentDate should be stamped")
	}
	if lc.NextDeadline == nil || !lc.NextDeadline.Equal(deadline) {
		t.Fatalf("case nextDeadline should match the notice deadline, got %v", lc.NextDeadline)
	}

	if n := countRows(t, db, &models.LegalAuditLog{},
		"legal_case_id = ? AND action = ?", s.CaseID, models.ActionNoticeCreated); n != 1 {
		t.Fatalf("want 1 audit entry, got %d", n)
	}
	if n := countRows(t, db, &models.LegalNotification{}, "legal_case_id = ?", s.CaseID); n != 2 {
		t.Fatalf("want 2 notifications, got %d", n)
	}
}

func Test_CreateNotice_PhaseGate(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CaseDemandFiled)
	app := newTestApp(newHandler(db), s.OwnerID, models.RoleOwner)

	resp := doJSON(t, app, "POST", "/api/legal/cases/"+s.CaseID.String()+"/extrajudicial", map[string]any{
		"noticeType":     "FINAL_NOTICE",
		"deliveryMethod": "CERTIFIED_MAIL",
		"content":        "Último aviso antes de demanda.",
		"amount":         500,
		"deadline":       time.Now().Add(5 * 24 * time.Hour).UTC().Format(time.RFC3339),
	})
	if resp.StatusCode != 400 {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "El caso legal no está en fase para enviar notificaciones extrajudiciales" {
		t.Fatalf("unexpected message: %q", msg)
	}
	if n := countRows(t, db, &models.ExtrajudicialNotice{}, "legal_case_id = ?", s.CaseID); n != 0 {
		t.Fatalf("no notice should exist, got %d", n)
	}
}

func Test_UpdateNotice_FirstResponseMovesCase(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CaseExtrajudicialNotice)

	notice := models.ExtrajudicialNotice{
		NoticeNumber:   GenerateNumber("EN"),
		LegalCaseID:    s.CaseID,
		NoticeType:     models.NoticePaymentRequirement,
		DeliveryMethod: models.DeliveryNotarialNotice,
		DeliveryStatus: models.DeliveryDelivered,
		Content:        "Requerimiento de pago",
		Amount:         1000,
		Deadline:       time.Now().Add(10 * 24 * time.Hour),
	}
	if err := db.Create(&notice).Error; err != nil {
		t.Fatal(err)
	}

	app := newTestApp(newHandler(db), s.OwnerID, models.RoleOwner)
	url := "/api/legal/cases/" + s.CaseID.String() + "/extrajudicial"

	resp := doJSON(t, app, "PUT", url, map[string]any{
		"responseReceived": true,
		"responseContent":  "Propongo un plan de pago en cuotas.",
		"responseAmount":   600,
	})
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	lc := reloadCase(t, db, s.CaseID)
	if lc.Status != models.CaseWaitingResponse {
		t.Fatalf("case should move to WAITING_RESPONSE, got %s", lc.Status)
	}
	if lc.NextDeadline == nil {
		t.Fatal("evaluation deadline should be set")
	}
	if d := time.Until(*lc.NextDeadline); d < 4*24*time.Hour || d > 6*24*time.Hour {
		t.Fatalf("evaluation deadline should be ~5 days out, got %v", d)
	}

	var notifs []models.LegalNotification
	if err := db.Where("legal_case_id = ?", s.CaseID).Find(&notifs).Error; err != nil {
		t.Fatal(err)
	}
	if len(notifs) != 1 || notifs[0].Title != "Respuesta Recibida" || notifs[0].UserID != s.OwnerID {
		t.Fatalf("owner should get exactly one response notification, got %#v", notifs)
	}

	// A repeat update with responseReceived=true must not notify again.
	resp = doJSON(t, app, "PUT", url, map[string]any{
		"responseReceived": true,
		"followUpSent":     true,
	})
	if resp.StatusCode != 200 {
		t.Fatalf("second update want 200, got %d", resp.StatusCode)
	}
	if n := countRows(t, db, &models.LegalNotification{}, "legal_case_id = ?", s.CaseID); n != 1 {
		t.Fatalf("repeat response should stay silent, got %d notifications", n)
	}

	var reloaded models.ExtrajudicialNotice
	if err := db.First(&reloaded, "id = ?", notice.ID).Error; err != nil {
		t.Fatal(err)
	}
	if !reloaded.FollowUpSent || reloaded.ResponseContent != "Propongo un plan de pago en cuotas." {
		t.Fatalf("sparse updates should accumulate, got %+v", reloaded)
	}
}

func Test_UpdateNotice_NoNotice_NotFound(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CaseExtrajudicialNotice)
	app := newTestApp(newHandler(db), s.OwnerID, models.RoleOwner)

	resp := doJSON(t, app, "PUT", "/api/legal/cases/"+s.CaseID.String()+"/extrajudicial", map[string]any{
		"deliveryStatus": "SENT",
	})
	if resp.StatusCode != 404 {
		t.Fatalf("want 404, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "No se encontró notificación extrajudicial para actualizar" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func Test_ListNotices_TenantCanRead(t *testing.T) {
	db := openTestDB(t)
	s := seedCase(t, db, models.CaseExtrajudicialNotice)

	notice := models.ExtrajudicialNotice{
		NoticeNumber:   GenerateNumber("EN"),
		LegalCaseID:    s.CaseID,
		NoticeType:     models.NoticeFinal,
		DeliveryMethod: models.DeliveryCertifiedMail,
		Content:        "Último aviso",
		Amount:         100,
		Deadline:       time.Now().Add(48 * time.Hour),
	}
	if err := db.Create(&notice).Error; err != nil {
		t.Fatal(err)
	}

	app := newTestApp(newHandler(db), s.TenantID, models.RoleTenant)
	resp := doJSON(t, app, "GET", "/api/legal/cases/"+s.CaseID.String()+"/extrajudicial", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	var body struct {
		Data []models.ExtrajudicialNotice `json:"data"`
	}
	decodeBody(t, resp, &body)
	if len(body.Data) != 1 {
		t.Fatalf("want 1 notice, got %d", len(body.Data))
	}
}
