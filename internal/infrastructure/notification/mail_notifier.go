// Package notification delivers run and cycle reports by email.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrNoRecipient is returned when a report has nowhere to go
var ErrNoRecipient = errors.New("notification: no recipient")

// sender is the part of the go-mail client the notifier uses
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// MailNotifier implements integration.Notifier over SMTP
type MailNotifier struct {
	client sender
	from   string
	logger *zap.Logger
}

var _ integration.Notifier = (*MailNotifier)(nil)

// NewMailNotifier creates an SMTP notifier from the mail configuration
func NewMailNotifier(cfg config.MailConfig, logger *zap.Logger) (*MailNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("notification: mail host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("notification: mail sender is required")
	}

	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("notification: failed to create mail client: %w", err)
	}
	return newMailNotifier(client, cfg.From, logger), nil
}

func newMailNotifier(client sender, from string, logger *zap.Logger) *MailNotifier {
	return &MailNotifier{
		client: client,
		from:   from,
		logger: logger.Named("mail_notifier"),
	}
}

// NotifyRunErrors mails the errors of an interactive run. Runs without
// errors send nothing.
func (n *MailNotifier) NotifyRunErrors(ctx context.Context, to string, report integration.RunReport) error {
	if len(report.Errors) == 0 {
		return nil
	}
	subject, body, err := renderRunErrors(report)
	if err != nil {
		return err
	}
	return n.send(ctx, to, subject, body)
}

// NotifyCycleComplete mails the summary of a completed scheduled cycle
func (n *MailNotifier) NotifyCycleComplete(ctx context.Context, to string, report integration.CycleReport) error {
	subject, body, err := renderCycleComplete(report)
	if err != nil {
		return err
	}
	return n.send(ctx, to, subject, body)
}

func (n *MailNotifier) send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return ErrNoRecipient
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("notification: invalid sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("notification: invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		n.logger.Error("Failed to send notification", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("notification: failed to send mail: %w", err)
	}

	n.logger.Info("Notification sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
