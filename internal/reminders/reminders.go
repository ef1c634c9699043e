// Package reminders runs the scheduled deadline scan. Cases whose next
// deadline falls inside the warning window get a DEADLINE_APPROACHING
// notification for the owner, once per deadline.
package reminders

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arriendoseguro/legal-api/pkg/models"
)

// Deadlines closer than this trigger a reminder.
const warningWindow = 48 * time.Hour

type Scanner struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewScanner(db *gorm.DB, log *zap.SugaredLogger) *Scanner {
	return &Scanner{db: db, log: log}
}

// Start registers the hourly scan and starts the scheduler. The returned
// cron can be stopped on shutdown.
func (s *Scanner) Start() (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		if err := s.Scan(); err != nil {
			s.log.Errorw("Error en el escaneo de plazos",
				"context", "reminders.scan",
				"error", err.Error())
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// Scan walks active cases with an upcoming deadline and inserts one reminder
// per case/deadline pair. Terminal cases are skipped.
func (s *Scanner) Scan() error {
	now := time.Now()
	horizon := now.Add(warningWindow)

	var cases []models.LegalCase
	err := s.db.
		Where("next_deadline IS NOT NULL").
		Where("next_deadline > ? AND next_deadline <= ?", now, horizon).
		Where("status NOT IN ?", []models.CaseStatus{
			models.CaseClosed,
			models.CaseSettlementReached,
			models.CaseDismissed,
		}).
		Find(&cases).Error
	if err != nil {
		return err
	}

	created := 0
	for i := range cases {
		lc := &cases[i]

		// One reminder per deadline: skip if a reminder newer than the last
		// deadline change already exists.
		var existing int64
		if err := s.db.Model(&models.LegalNotification{}).
			Where("legal_case_id = ? AND notification_type = ? AND action_deadline = ?",
				lc.ID, models.NotifDeadlineApproaching, lc.NextDeadline).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			continue
		}

		n := models.LegalNotification{
			LegalCaseID:      lc.ID,
			UserID:           lc.OwnerID,
			NotificationType: models.NotifDeadlineApproaching,
			Title:            "Plazo Próximo a Vencer",
			Message: "El caso legal " + lc.CaseNumber +
				" tiene un plazo que vence pronto. Por favor revise las acciones pendientes.",
			Priority:       models.NotifPriorityHigh,
			ActionRequired: true,
			ActionDeadline: lc.NextDeadline,
		}
		if err := s.db.Create(&n).Error; err != nil {
			return err
		}
		created++
	}

	if created > 0 {
		s.log.Infow("Recordatorios de plazo creados",
			"context", "reminders.scan",
			"count", created)
	}
	return nil
}
