package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestNewSender_Defaults(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com"})
	if s.cfg.Port != 587 || !s.cfg.UseTLS || s.cfg.UseSSL || s.cfg.Auth != AuthPassword {
		t.Errorf("defaults = %+v", s.cfg)
	}
	s = NewSender(Config{Host: "smtp.example.com", Port: 465})
	if !s.cfg.UseSSL || s.cfg.UseTLS {
		t.Errorf("port 465 should imply SSL: %+v", s.cfg)
	}
}

func TestSend_Validation(t *testing.T) {
	s := NewSender(Config{Host: "smtp.invalid", FromAddress: "site@example.com"})
	if err := s.Send(context.Background(), Message{TextBody: "x"}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
	if err := s.Send(context.Background(), Message{To: []string{"a@example.com"}}); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("err = %v, want ErrEmptyBody", err)
	}
}

func TestBuild_Headers(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", FromAddress: "site@example.com", FromName: "Website"})
	m, err := s.build(Message{
		To:       []string{"admin@example.com"},
		Subject:  "New Contact Form Submission: Ada",
		TextBody: "hello",
		HTMLBody: "<p>hello</p>",
		ReplyTo:  "ada@example.com",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	raw := buf.String()
	for _, want := range []string{
		"Subject: New Contact Form Submission: Ada",
		"Reply-To: <ada@example.com>",
		"admin@example.com",
		"text/html",
		"text/plain",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuild_InvalidReplyTo(t *testing.T) {
	s := NewSender(Config{FromAddress: "site@example.com"})
	_, err := s.build(Message{To: []string{"admin@example.com"}, TextBody: "x", ReplyTo: "not an address"})
	if err == nil {
		t.Fatal("expected error for invalid reply-to")
	}
}

type staticToken struct{ err error }

func (s staticToken) Token() (*oauth2.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &oauth2.Token{AccessToken: "ya29.token"}, nil
}

func TestClientOptions_XOAUTH2(t *testing.T) {
	s := NewSender(Config{Host: "smtp.gmail.com", Auth: AuthXOAUTH2, Username: "me@gmail.com", TokenSource: staticToken{}})
	if _, err := s.clientOptions(); err != nil {
		t.Fatalf("clientOptions: %v", err)
	}

	s = NewSender(Config{Host: "smtp.gmail.com", Auth: AuthXOAUTH2, TokenSource: staticToken{err: errors.New("revoked")}})
	if _, err := s.clientOptions(); err == nil || !strings.Contains(err.Error(), "revoked") {
		t.Errorf("err = %v, want token error", err)
	}

	s = NewSender(Config{Host: "smtp.gmail.com", Auth: AuthXOAUTH2})
	if _, err := s.clientOptions(); err == nil {
		t.Error("expected error without token source")
	}
}

func TestTemplate_Render(t *testing.T) {
	tpl := MustParseTemplate("t",
		"Hi {{.Name}}",
		"Phone: {{orDefault \"Not provided\" .Phone}}",
		`<p>{{nl2br .Message}}</p>`,
	)
	msg, err := tpl.Render(map[string]string{
		"Name":    "Ada\r\nBcc: x@y",
		"Phone":   "",
		"Message": "line1\n<b>line2</b>",
	})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Subject != "Hi Ada Bcc: x@y" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.TextBody != "Phone: Not provided" {
		t.Errorf("TextBody = %q", msg.TextBody)
	}
	if msg.HTMLBody != "<p>line1<br>&lt;b&gt;line2&lt;/b&gt;</p>" {
		t.Errorf("HTMLBody = %q", msg.HTMLBody)
	}
}

func TestParseTemplate_Error(t *testing.T) {
	if _, err := ParseTemplate("bad", "{{", "", ""); err == nil {
		t.Error("expected parse error")
	}
}
