package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-complaints-api/internal/models"
	"github.com/noah-isme/campus-complaints-api/internal/observability"
)

// StatusChange describes a successful administrator update of a complaint.
type StatusChange struct {
	Complaint      models.Complaint
	PreviousStatus string
	ChangedBy      uint
	ChangedAt      time.Time
}

// StatusNotifier tells the submitting student that their complaint changed.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, change StatusChange) error
}

// Mailer delivers a single e-mail message.
type Mailer interface {
	Send(ctx context.Context, to mail.Address, subject, textBody, htmlBody string) error
}

// LogStatusNotifier only records the change in the service log.
type LogStatusNotifier struct {
	logger zerolog.Logger
}

// NewLogStatusNotifier constructs a logging notifier.
func NewLogStatusNotifier(logger zerolog.Logger) *LogStatusNotifier {
	return &LogStatusNotifier{logger: logger.With().Str("component", "status_notifier").Logger()}
}

// NotifyStatusChange logs the change and always succeeds.
func (l *LogStatusNotifier) NotifyStatusChange(_ context.Context, change StatusChange) error {
	l.logger.Info().
		Uint("complaint_id", change.Complaint.ID).
		Uint("student_id", change.Complaint.StudentID).
		Str("old_status", change.PreviousStatus).
		Str("new_status", change.Complaint.Status).
		Msg("student notified of status change")
	return nil
}

// EmailStatusNotifier mails the student through a Mailer.
type EmailStatusNotifier struct {
	mailer    Mailer
	sanitizer *bluemonday.Policy
}

// NewEmailStatusNotifier constructs an e-mail notifier.
func NewEmailStatusNotifier(mailer Mailer) *EmailStatusNotifier {
	return &EmailStatusNotifier{mailer: mailer, sanitizer: bluemonday.StrictPolicy()}
}

// NotifyStatusChange sends the status update to the complaint's submitter.
func (e *EmailStatusNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	student := change.Complaint.Student
	if strings.TrimSpace(student.Email) == "" {
		return fmt.Errorf("complaint %d has no submitter e-mail", change.Complaint.ID)
	}

	subject := fmt.Sprintf("Your complaint \"%s\" is now %s", change.Complaint.Title, statusLabel(change.Complaint.Status))

	var text strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\n", student.FullName)
	fmt.Fprintf(&text, "The status of your complaint \"%s\" changed from %s to %s.\n",
		change.Complaint.Title, statusLabel(change.PreviousStatus), statusLabel(change.Complaint.Status))
	remarks := ""
	if change.Complaint.AdminRemarks != nil {
		remarks = strings.TrimSpace(*change.Complaint.AdminRemarks)
	}
	if remarks != "" {
		fmt.Fprintf(&text, "\nRemarks: %s\n", remarks)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Hello %s,</p>", html.EscapeString(student.FullName))
	fmt.Fprintf(&body, "<p>The status of your complaint <strong>%s</strong> changed from %s to <strong>%s</strong>.</p>",
		html.EscapeString(change.Complaint.Title), statusLabel(change.PreviousStatus), statusLabel(change.Complaint.Status))
	if remarks != "" {
		fmt.Fprintf(&body, "<p>Remarks: %s</p>", e.sanitizer.Sanitize(remarks))
	}

	return e.mailer.Send(ctx, mail.Address{Name: student.FullName, Address: student.Email}, subject, text.String(), body.String())
}

type namedNotifier struct {
	name     string
	notifier StatusNotifier
}

// MultiStatusNotifier fans a change out to every configured notifier.
type MultiStatusNotifier struct {
	notifiers []namedNotifier
}

// NewMultiStatusNotifier constructs an empty fan-out notifier.
func NewMultiStatusNotifier() *MultiStatusNotifier {
	return &MultiStatusNotifier{}
}

// Add registers a notifier under a metrics label.
func (m *MultiStatusNotifier) Add(name string, notifier StatusNotifier) *MultiStatusNotifier {
	if notifier != nil {
		m.notifiers = append(m.notifiers, namedNotifier{name: name, notifier: notifier})
	}
	return m
}

// NotifyStatusChange calls every notifier and joins their errors.
func (m *MultiStatusNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	var errs []error
	for _, entry := range m.notifiers {
		if err := entry.notifier.NotifyStatusChange(ctx, change); err != nil {
			observability.NotifierFailures().WithLabelValues(entry.name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", entry.name, err))
		}
	}
	return errors.Join(errs...)
}

func statusLabel(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
