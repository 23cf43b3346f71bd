package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

// Config contains SendGrid credentials and the sender identity.
type Config struct {
	APIKey    string
	FromName  string
	FromEmail string
	// Host overrides the API base URL.
	Host string
}

// SendGrid delivers transactional e-mail through the SendGrid v3 API.
type SendGrid struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
	logger     zerolog.Logger
}

// NewSendGrid constructs a SendGrid mailer.
func NewSendGrid(cfg Config, logger zerolog.Logger) (*SendGrid, error) {
	if cfg.APIKey == "" || cfg.FromEmail == "" {
		return nil, fmt.Errorf("sendgrid api key and sender address must be provided")
	}

	host := cfg.Host
	if host == "" {
		host = defaultHost
	}

	return &SendGrid{
		key:        cfg.APIKey,
		host:       host,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		subjPrefix: "[" + cfg.FromName + "] ",
		logger:     logger.With().Str("component", "sendgrid").Logger(),
	}, nil
}

// Message builds the SendGrid payload for a single recipient.
func (s *SendGrid) Message(to mail.Address, subject, textBody, htmlBody string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + subject
	p.AddTos(sgmail.NewEmail(to.Name, to.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", textBody),
		sgmail.NewContent("text/html", htmlBody),
	)
	return m
}

// Send delivers one message and fails on any non-2xx response. The request is bound to ctx.
func (s *SendGrid) Send(ctx context.Context, to mail.Address, subject, textBody, htmlBody string) error {
	req := sendgrid.GetRequest(s.key, endpoint, s.host)
	req.Method = rest.Post
	req.Body = sgmail.GetRequestBody(s.Message(to, subject, textBody, htmlBody))

	res, err := rest.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", res.StatusCode, res.Body)
	}

	s.logger.Debug().Int("status", res.StatusCode).Msg("status e-mail sent")
	return nil
}
