// Package emailer sends outbound mail over SMTP.
package emailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/config"
)

type SMTPService struct {
	cfg config.Email
	log *zap.Logger
}

func NewSMTPService(cfg config.Email, log *zap.Logger) (*SMTPService, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}
	return &SMTPService{
		cfg: cfg,
		log: log.With(zap.String("component", "SMTPService")),
	}, nil
}

func (e *SMTPService) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(e.cfg.FromName, e.cfg.From); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{mail.WithPort(e.cfg.Port)}
	if e.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if e.cfg.User != "" && e.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(e.cfg.User),
			mail.WithPassword(e.cfg.Password),
		)
	}

	client, err := mail.NewClient(e.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		e.log.Error("failed to send email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("sending email: %w", err)
	}

	e.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
