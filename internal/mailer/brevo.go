package mailer

import (
	"context"
	"fmt"

	brevo "github.com/getbrevo/brevo-go/lib"
	"github.com/rs/zerolog"
)

// Mailer sends transactional HTML email through Brevo.
type Mailer struct {
	client *brevo.APIClient
	sender brevo.SendSmtpEmailSender
	log    zerolog.Logger
}

func New(apiKey, senderName, senderEmail string, log zerolog.Logger) *Mailer {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	return &Mailer{
		client: brevo.NewAPIClient(cfg),
		sender: brevo.SendSmtpEmailSender{Name: senderName, Email: senderEmail},
		log:    log.With().Str("component", "mailer").Logger(),
	}
}

// Send delivers one HTML email to a single recipient.
func (m *Mailer) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	_, resp, err := m.client.TransactionalEmailsApi.SendTransacEmail(ctx, brevo.SendSmtpEmail{
		Sender:      &m.sender,
		To:          []brevo.SendSmtpEmailTo{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HtmlContent: html,
	})
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("send email to %s: %w", toEmail, err)
	}

	m.log.Info().Str("to", toEmail).Str("subject", subject).Msg("email sent")
	return nil
}
