// internal/app/notify/notifier.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dalemusser/formdrop/internal/domain/models"
	"github.com/dalemusser/formdrop/metrics"
	"github.com/dalemusser/formdrop/pantry/email"
	"go.uber.org/zap"
)

// Status is the outcome of one notification attempt.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result reports what Notify did. Err is set only for StatusFailed.
type Result struct {
	Status Status
	Err    error
}

// Mailer delivers one message. *email.Sender implements it.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// DefaultTimeout bounds a send when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Notifier mails a summary of each stored submission to the site admin.
// A Notifier without a mailer skips every notification.
type Notifier struct {
	mailer     Mailer
	to         string
	siteName   string
	timeout    time.Duration
	skipReason string
	tmpl       *email.Template
	logger     *zap.Logger
}

// New returns a Notifier that sends to the admin address to.
func New(mailer Mailer, to, siteName string, timeout time.Duration, logger *zap.Logger) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(siteName) == "" {
		siteName = "Website"
	}
	return &Notifier{
		mailer:   mailer,
		to:       to,
		siteName: siteName,
		timeout:  timeout,
		tmpl:     contactTemplate,
		logger:   logger,
	}
}

// Disabled returns a Notifier that skips every notification, logging reason.
func Disabled(reason string, logger *zap.Logger) *Notifier {
	n := New(nil, "", "", 0, logger)
	n.skipReason = reason
	return n
}

// Enabled reports whether notifications will be attempted.
func (n *Notifier) Enabled() bool { return n.mailer != nil }

// SkipReason explains why a disabled Notifier skips.
func (n *Notifier) SkipReason() string { return n.skipReason }

type messageData struct {
	SiteName string
	Name     string
	Email    string
	Phone    string
	Message  string
	Sent     string
}

// Notify sends the admin mail for sub. It never returns an error and never
// panics: a failed send is logged, counted and reported in the Result. The
// send is detached from ctx cancellation and bounded by the notifier's
// timeout.
func (n *Notifier) Notify(ctx context.Context, sub models.Submission) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = n.failed(sub, fmt.Errorf("panic: %v", rec))
		}
	}()

	if n.mailer == nil {
		n.logger.Info("notification skipped",
			zap.Int("id", sub.ID),
			zap.String("reason", n.skipReason),
		)
		metrics.ObserveNotification(string(StatusSkipped))
		return Result{Status: StatusSkipped}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	msg, err := n.tmpl.Render(messageData{
		SiteName: n.siteName,
		Name:     sub.Name,
		Email:    sub.Email,
		Phone:    sub.Phone,
		Message:  sub.Message,
		Sent:     sub.Timestamp,
	})
	if err != nil {
		return n.failed(sub, err)
	}
	msg.To = []string{n.to}
	if addr, perr := mail.ParseAddress(sub.Email); perr == nil {
		msg.ReplyTo = addr.Address
	} else {
		n.logger.Debug("reply-to omitted", zap.Int("id", sub.ID), zap.Error(perr))
	}

	start := time.Now()
	if err := n.mailer.Send(ctx, msg); err != nil {
		return n.failed(sub, err)
	}

	n.logger.Info("notification sent",
		zap.Int("id", sub.ID),
		zap.String("to", n.to),
		zap.Duration("took", time.Since(start)),
	)
	metrics.ObserveNotification(string(StatusSent))
	return Result{Status: StatusSent}
}

func (n *Notifier) failed(sub models.Submission, err error) Result {
	err = fmt.Errorf("notify %s: %w", n.to, err)
	fields := []zap.Field{zap.Int("id", sub.ID), zap.Error(err)}
	if errors.Is(err, context.DeadlineExceeded) {
		fields = append(fields, zap.Duration("timeout", n.timeout))
	}
	n.logger.Error("notification failed", fields...)
	metrics.ObserveNotification(string(StatusFailed))
	return Result{Status: StatusFailed, Err: err}
}

var contactTemplate = email.MustParseTemplate("contact",
	`New Contact Form Submission: {{.Name}}`,
	`New message from {{.SiteName}}:

Name: {{.Name}}
Email: {{.Email}}
Phone: {{orDefault "Not provided" .Phone}}
Message: {{.Message}}

Sent: {{.Sent}}
`,
	`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333; border-bottom: 2px solid #37AED2; padding-bottom: 10px;">New Contact Form Submission - {{.SiteName}}</h2>
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p style="margin: 10px 0;"><strong>Name:</strong> {{.Name}}</p>
    <p style="margin: 10px 0;"><strong>Email:</strong> {{.Email}}</p>
    <p style="margin: 10px 0;"><strong>Phone:</strong> {{orDefault "Not provided" .Phone}}</p>
  </div>
  <div style="background-color: #fff; padding: 20px; border: 1px solid #dee2e6; border-radius: 8px;">
    <h3 style="color: #333; margin-top: 0;">Message:</h3>
    <p style="color: #555; line-height: 1.6;">{{nl2br .Message}}</p>
  </div>
  <p style="color: #888; font-size: 12px; margin-top: 20px;">Sent {{.Sent}} from the {{.SiteName}} contact form.</p>
</div>
`)
