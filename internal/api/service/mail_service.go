package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"docgen"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
)

var ErrMailNotConfigured = errors.New("internal SMTP not configured (SMTP_HOST / SMTP_USERNAME missing)")

const sendTimeout = 30 * time.Second

type MailService struct {
	config docgen.SmtpConfig
	logger zerolog.Logger
}

func NewMailService() *MailService {
	return &MailService{
		config: docgen.GetConfig().SmtpConfig,
		logger: docgen.Logger,
	}
}

// IsConfigured returns true when the app-level SMTP settings are filled in
func (slf *MailService) IsConfigured() bool {
	return slf.config.Host != "" && slf.config.Username != ""
}

// BuildArtifactMessage prepares a message carrying every artifact as an
// attachment.
func (slf *MailService) BuildArtifactMessage(to []string, subject string, paths []string) (*gomail.Msg, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("no recipients specified")
	}

	from := slf.config.From
	if from == "" {
		from = slf.config.Username
	}

	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("failed to set from: %w", err)
	}
	if err := m.To(to...); err != nil {
		return nil, fmt.Errorf("failed to set to: %w", err)
	}
	m.Subject(subject)

	names := make([]string, len(paths))
	for i, path := range paths {
		names[i] = filepath.Base(path)
		m.AttachFile(path)
	}
	m.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf("%d document(s) attached: %v", len(paths), names))
	return m, nil
}

// SendArtifacts mails the produced documents to the recipients.
func (slf *MailService) SendArtifacts(ctx context.Context, to []string, subject string, paths []string) error {
	if !slf.IsConfigured() {
		return ErrMailNotConfigured
	}
	m, err := slf.BuildArtifactMessage(to, subject, paths)
	if err != nil {
		return err
	}

	tlsPolicy := gomail.TLSOpportunistic
	if slf.config.UseTLS {
		tlsPolicy = gomail.TLSMandatory
	}
	opts := []gomail.Option{
		gomail.WithPort(slf.config.Port),
		gomail.WithTLSPolicy(tlsPolicy),
	}
	if slf.config.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(slf.config.Username),
			gomail.WithPassword(slf.config.Password),
		)
	}
	client, err := gomail.NewClient(slf.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slf.logger.Info().Strs("to", to).Int("attachments", len(paths)).Msg("Documents delivered")
	return nil
}
