package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"fintech-ledger/config"
	"fintech-ledger/internal/core/ports"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog"
)

// sendFunc delivers a prepared message. Replaced in tests.
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// EmailNotifier sends customer notices over SMTP.
type EmailNotifier struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
	send sendFunc
	log  zerolog.Logger
}

// NewEmailNotifier creates an EmailNotifier. Auth is skipped when no
// username is configured.
func NewEmailNotifier(cfg config.SMTPConfig, log zerolog.Logger) *EmailNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &EmailNotifier{
		cfg:  cfg,
		auth: auth,
		send: func(e *email.Email, addr string, a smtp.Auth) error { return e.Send(addr, a) },
		log:  log,
	}
}

// CardStopped tells the owner that settlement could not collect the full
// usage and the card has been stopped.
func (n *EmailNotifier) CardStopped(ctx context.Context, notice ports.CardStoppedNotice) error {
	if notice.Email == "" {
		return fmt.Errorf("card stopped notice: no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := buildCardStoppedEmail(n.cfg.From, notice)
	if err := n.send(e, n.cfg.Addr(), n.auth); err != nil {
		return fmt.Errorf("sending card stopped notice: %w", err)
	}

	n.log.Info().Str("subject", e.Subject).Msg("card stopped notice sent")
	return nil
}

func buildCardStoppedEmail(from string, notice ports.CardStoppedNotice) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{notice.Email}
	e.Subject = "Your credit card has been stopped"

	body := fmt.Sprintf("Dear %s,\n\n", notice.OwnerName)
	body += fmt.Sprintf(
		"The settlement on %s for card %s could not be collected in full.\n"+
			"Collected: %d\n"+
			"Outstanding: %d\n\n"+
			"The card is stopped until the outstanding usage is paid.\n",
		notice.SettlementDay.Format("2006-01-02"), notice.CardNumber, notice.Collected, notice.Outstanding,
	)
	body += "\nBest regards,\nFinTech Ledger"
	e.Text = []byte(body)
	return e
}

// NopNotifier drops every notice. Used when SMTP is not configured.
type NopNotifier struct{}

// CardStopped implements ports.Notifier.
func (NopNotifier) CardStopped(context.Context, ports.CardStoppedNotice) error { return nil }
