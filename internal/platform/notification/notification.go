// Package notification delivers practice emails: report-ready notices,
// form requests and session reminders. Templates use {{key}} placeholders;
// sent notifications are kept in memory for status lookups and retries.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Built-in template IDs.
const (
	TemplateReportReady     = "report-ready"
	TemplateFormRequest     = "form-request"
	TemplateSessionReminder = "session-reminder"
)

// EmailSender delivers a single email message.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Notification is one outbound message and its delivery state.
type Notification struct {
	ID         string            `json:"id"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
}

// Template is a reusable message with {{key}} placeholders.
type Template struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine stores templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	for _, t := range []Template{
		{
			ID:      TemplateReportReady,
			Subject: "{{report_type}} report finalized",
			Body:    "The {{report_type}} report ({{report_id}}) has been finalized and is available for download.",
		},
		{
			ID:      TemplateFormRequest,
			Subject: "Forms to complete before your next session",
			Body:    "Hi {{client_name}}, please complete the following before your session on {{session_date}}: {{forms}}.",
		},
		{
			ID:      TemplateSessionReminder,
			Subject: "Session reminder",
			Body:    "Hi {{client_name}}, this is a reminder of your session on {{session_date}} with {{counselor_name}}.",
		},
	} {
		tpl := t
		e.templates[tpl.ID] = &tpl
	}
	return e
}

func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render performs {{key}} replacement. Placeholders without a matching data
// key are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject, body = t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Manager renders, sends and records notifications.
type Manager struct {
	sender    EmailSender
	templates *TemplateEngine
	log       zerolog.Logger

	mu   sync.RWMutex
	sent map[string]*Notification
}

func NewManager(sender EmailSender, templates *TemplateEngine, log zerolog.Logger) *Manager {
	return &Manager{
		sender:    sender,
		templates: templates,
		log:       log,
		sent:      make(map[string]*Notification),
	}
}

// SendFromTemplate renders a template and dispatches the message. The
// notification is recorded regardless of outcome so failures can be
// retried.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		ID:         uuid.New().String(),
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
		Data:       data,
		CreatedAt:  time.Now().UTC(),
	}
	m.deliver(ctx, n)

	m.mu.Lock()
	m.sent[n.ID] = n
	m.mu.Unlock()

	if n.Status == "failed" {
		return n, fmt.Errorf("send %s to %s: %s", templateID, recipient, n.Error)
	}
	return n, nil
}

func (m *Manager) deliver(ctx context.Context, n *Notification) {
	if err := m.sender.SendEmail(ctx, n.Recipient, n.Subject, n.Body); err != nil {
		n.Status = "failed"
		n.Error = err.Error()
		m.log.Warn().Err(err).Str("recipient", n.Recipient).Str("template", n.TemplateID).
			Msg("email delivery failed")
		return
	}
	n.Status = "sent"
	now := time.Now().UTC()
	n.SentAt = &now
	n.Error = ""
}

// ReportReady sends a report-finalized notice. Satisfies the report
// service's notifier contract.
func (m *Manager) ReportReady(ctx context.Context, email, reportType string, reportID uuid.UUID) error {
	_, err := m.SendFromTemplate(ctx, TemplateReportReady, map[string]string{
		"report_type": reportType,
		"report_id":   reportID.String(),
	}, email)
	return err
}

// Get returns a recorded notification by ID.
func (m *Manager) Get(id string) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.sent[id]
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return n, nil
}

// Retry re-sends a failed notification.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	n, ok := m.sent[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notification %q not found", id)
	}
	if n.Status != "failed" {
		return fmt.Errorf("notification %q is not failed (current: %s)", id, n.Status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliver(ctx, n)
	if n.Status == "failed" {
		return fmt.Errorf("retry %s: %s", id, n.Error)
	}
	return nil
}

// Stats returns notification counts grouped by status.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, n := range m.sent {
		out[n.Status]++
	}
	return out
}

// LogSender writes messages to the log instead of delivering them. Used in
// development when no SMTP relay is configured.
type LogSender struct {
	Log zerolog.Logger
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.Log.Info().Str("to", to).Str("subject", subject).Msg("email suppressed (dev sender)")
	return nil
}
