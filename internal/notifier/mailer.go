package notifier

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/spooltrack/spooltrack-backend/pkg/config"
	"github.com/spooltrack/spooltrack-backend/pkg/db/models"
)

// Mailer delivers low-stock alert emails over plain SMTP.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer builds a mailer from SMTP settings. An incomplete configuration
// produces a disabled mailer rather than an error; email is optional.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether the mailer has enough configuration to send.
func (m *Mailer) Enabled() bool {
	return m.cfg.Configured() && m.cfg.From != "" && m.cfg.AlertTo != ""
}

// SendLowStockAlert emails the configured alert address about a spool that
// crossed the threshold.
func (m *Mailer) SendLowStockAlert(ctx context.Context, spool models.Spool, remaining float64) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	subject := fmt.Sprintf("Low filament: %s %s %s", spool.Brand, spool.Material, spool.ColorName)
	body := fmt.Sprintf(
		"Spool %s (%s %s, %s) is down to %.0fg of %.0fg.\r\n",
		spool.ID, spool.Brand, spool.Material, spool.ColorName, remaining, spool.TotalWeight,
	)
	msg := []byte(fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n%s",
		m.cfg.AlertTo, m.cfg.From, subject, body,
	))

	return smtp.SendMail(addr, auth, m.cfg.From, []string{m.cfg.AlertTo}, msg)
}
