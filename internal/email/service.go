// Package email sends transactional mail through the Resend API.
// The only message the service sends today is the post-registration
// welcome email; sending is best-effort and disabled unless an API
// key is configured.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/happenit/server/internal/config"
	"github.com/happenit/server/internal/messages"
)

// Service implements users.WelcomeMailer on top of Resend.
type Service struct {
	config       config.EmailConfig
	catalog      *messages.Catalog
	baseURL      string
	resendClient *resend.Client
	logger       zerolog.Logger
}

// welcomeData feeds the welcome email template.
type welcomeData struct {
	Name        string
	SiteURL     string
	CurrentYear int
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html lang="es">
<body style="font-family: sans-serif; color: #222;">
  <h2>¡Hola {{.Name}}!</h2>
  <p>Tu cuenta en Happenit ya está lista. Explora los próximos eventos
  cerca de ti o publica el tuyo.</p>
  <p><a href="{{.SiteURL}}">Ir a Happenit</a></p>
  <p style="color: #888; font-size: 12px;">© {{.CurrentYear}} Happenit</p>
</body>
</html>`))

// NewService builds the mailer. baseURL is the public site address linked
// from outgoing mail.
func NewService(cfg config.EmailConfig, baseURL string, catalog *messages.Catalog, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	svc := &Service{
		config:  cfg,
		catalog: catalog,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		svc.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

// SendWelcome sends the welcome email to a freshly registered user.
// When the service is disabled it logs and reports success so callers
// never have to care about the email configuration.
func (s *Service) SendWelcome(ctx context.Context, to, name string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Msg("email service disabled, skipping welcome email")
		return nil
	}

	htmlBody, err := renderWelcome(name, s.baseURL)
	if err != nil {
		return fmt.Errorf("failed to render welcome template: %w", err)
	}

	subject := s.catalog.Get(messages.KeyWelcome)
	if err := s.sendViaResend(ctx, to, subject, htmlBody); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	s.logger.Info().
		Str("to", to).
		Msg("welcome email sent")
	return nil
}

func renderWelcome(name, siteURL string) (string, error) {
	var buf bytes.Buffer
	data := welcomeData{Name: name, SiteURL: siteURL, CurrentYear: time.Now().Year()}
	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// validateEmailAddress checks format and rejects header injection attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
