package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/cahsa-api/internal/models"
	"github.com/noah-isme/cahsa-api/pkg/mailer"
	"github.com/noah-isme/cahsa-api/templates"
)

// NotificationKind selects the email template.
type NotificationKind string

const (
	NoticeStudent NotificationKind = "student_notice"
	NoticeAdvisor NotificationKind = "advisor_notice"
)

const baseSubject = "Course Substitution Request Update"

// NotificationData is everything a template may reference.
type NotificationData struct {
	RecipientName string
	StudentName   string
	PID           string
	RequestID     string
	Status        models.RequestStatus
	Reason        string
	EditURL       string
	OfficeEmail   string
}

// SentBack reports whether the requestor is being asked for changes.
func (d NotificationData) SentBack() bool {
	return d.Status == models.StatusSentBack
}

// Recipient is the addressee of a notification.
type Recipient struct {
	Email string
	Name  string
}

// NotificationConfig identifies the sender and the portal links.
type NotificationConfig struct {
	From     string
	FromName string
	BaseURL  string
}

// NotificationService renders and sends status notifications.
type NotificationService struct {
	sender    mailer.Sender
	templates *template.Template
	cfg       NotificationConfig
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService parses the embedded templates.
func NewNotificationService(sender mailer.Sender, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) (*NotificationService, error) {
	return newNotificationService(sender, templates.FS, cfg, metrics, logger)
}

func newNotificationService(sender mailer.Sender, files fs.FS, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) (*NotificationService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := template.ParseFS(files, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}
	for _, kind := range []NotificationKind{NoticeStudent, NoticeAdvisor} {
		if tmpl.Lookup(string(kind)) == nil {
			return nil, fmt.Errorf("notification template %q missing", kind)
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &NotificationService{sender: sender, templates: tmpl, cfg: cfg, metrics: metrics, logger: logger}, nil
}

// EditLink returns the portal URL for editing a request.
func (s *NotificationService) EditLink(requestID string) string {
	return fmt.Sprintf("%s/edit?id=%s", s.cfg.BaseURL, url.QueryEscape(requestID))
}

// Render produces the subject and HTML body for a notification.
func (s *NotificationService) Render(kind NotificationKind, data NotificationData) (string, string, error) {
	if data.OfficeEmail == "" {
		data.OfficeEmail = s.cfg.From
	}
	var subject string
	switch kind {
	case NoticeStudent:
		subject = baseSubject
	case NoticeAdvisor:
		subject = fmt.Sprintf("%s: %s", baseSubject, data.Status.Label())
		if data.SentBack() && data.EditURL == "" && data.RequestID != "" {
			data.EditURL = s.EditLink(data.RequestID)
		}
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, string(kind), data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return subject, body.String(), nil
}

// Notify renders and sends a notification, reporting success as a boolean.
// Failures are logged and never returned.
func (s *NotificationService) Notify(ctx context.Context, kind NotificationKind, to Recipient, data NotificationData) bool {
	sent := s.send(ctx, kind, to, data)
	s.metrics.RecordNotification(kind, sent)
	return sent
}

func (s *NotificationService) send(ctx context.Context, kind NotificationKind, to Recipient, data NotificationData) bool {
	logger := s.logger.With(zap.String("kind", string(kind)), zap.String("request_id", data.RequestID))
	if strings.TrimSpace(to.Email) == "" {
		logger.Error("notification recipient has no email address")
		return false
	}

	subject, body, err := s.Render(kind, data)
	if err != nil {
		logger.Error("failed to render notification", zap.Error(err))
		return false
	}

	from := mailer.Address{Email: s.cfg.From, Name: s.cfg.FromName}
	msg := mailer.Message{
		From:     from,
		To:       []mailer.Address{{Email: to.Email, Name: to.Name}},
		Subject:  subject,
		HTMLBody: body,
	}
	if kind == NoticeStudent {
		// the advising office keeps a copy of every processed notice
		msg.Bcc = []mailer.Address{from}
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		logger.Error("failed to send notification", zap.Error(err))
		return false
	}
	logger.Info("notification sent", zap.String("subject", subject))
	return true
}
