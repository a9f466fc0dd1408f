// pantry/email/email.go
// Package email sends mail over SMTP. It wraps github.com/wneessen/go-mail
// and supports password (PLAIN/LOGIN) and XOAUTH2 authentication.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/oauth2"
)

// Auth selects the SMTP authentication mechanism.
type Auth string

const (
	// AuthPassword authenticates with Username/Password (SMTP PLAIN).
	AuthPassword Auth = "password"
	// AuthXOAUTH2 authenticates with an OAuth2 access token from Config.TokenSource.
	AuthXOAUTH2 Auth = "oauth2"
)

// Config holds SMTP server configuration.
type Config struct {
	Host string
	// Port defaults to 587 (STARTTLS). 465 implies implicit TLS.
	Port int

	Username string
	Password string

	// Auth defaults to AuthPassword.
	Auth Auth
	// TokenSource supplies access tokens when Auth is AuthXOAUTH2.
	TokenSource oauth2.TokenSource

	FromAddress string
	FromName    string

	UseTLS bool // STARTTLS, required
	UseSSL bool // implicit TLS

	// Timeout bounds dialing and each SMTP command. Default 30s.
	Timeout time.Duration
}

// Sender sends messages through the configured SMTP server.
// It is safe for concurrent use; every Send dials a fresh connection.
type Sender struct {
	cfg Config
}

// NewSender creates a Sender, filling in defaults.
func NewSender(cfg Config) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Auth == "" {
		cfg.Auth = AuthPassword
	}
	if cfg.Port == 465 {
		cfg.UseSSL = true
	}
	if !cfg.UseSSL {
		cfg.UseTLS = true
	}
	return &Sender{cfg: cfg}
}

// Message is one outgoing mail.
type Message struct {
	To       []string
	Subject  string
	TextBody string // optional if HTMLBody is set
	HTMLBody string // optional if TextBody is set
	ReplyTo  string // optional
}

var (
	ErrNoRecipients = errors.New("email: no recipients specified")
	ErrEmptyBody    = errors.New("email: message body is empty")
)

// Send delivers msg. It honors ctx for dialing and the SMTP exchange.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	opts, err := s.clientOptions()
	if err != nil {
		return err
	}
	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("email: failed to create client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

// build turns msg into a go-mail message.
func (s *Sender) build(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return nil, ErrEmptyBody
	}

	m := mail.NewMsg()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
			return nil, fmt.Errorf("email: invalid from address: %w", err)
		}
	} else if err := m.From(s.cfg.FromAddress); err != nil {
		return nil, fmt.Errorf("email: invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("email: invalid to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("email: invalid reply-to address: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}

func (s *Sender) clientOptions() ([]mail.Option, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}

	switch s.cfg.Auth {
	case AuthXOAUTH2:
		if s.cfg.TokenSource == nil {
			return nil, errors.New("email: oauth2 auth requires a token source")
		}
		tok, err := s.cfg.TokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("email: fetch oauth2 token: %w", err)
		}
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthXOAUTH2),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(tok.AccessToken),
		)
	default:
		if s.cfg.Username != "" {
			opts = append(opts,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(s.cfg.Username),
				mail.WithPassword(s.cfg.Password),
			)
		}
	}

	if s.cfg.UseSSL {
		opts = append(opts, mail.WithSSL())
	} else if s.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	return opts, nil
}
