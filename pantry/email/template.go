// pantry/email/template.go
// Template rendering for email content.
package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Template is a parsed subject / text / HTML triple. The HTML part is an
// html/template, so interpolated values are escaped.
type Template struct {
	name     string
	subject  *texttemplate.Template
	textBody *texttemplate.Template
	htmlBody *htmltemplate.Template
}

// htmlFuncs are available in HTML bodies.
var htmlFuncs = htmltemplate.FuncMap{
	// nl2br escapes s and turns newlines into <br>.
	"nl2br": func(s string) htmltemplate.HTML {
		escaped := htmltemplate.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
		return htmltemplate.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	},
	"orDefault": orDefault,
}

var textFuncs = texttemplate.FuncMap{
	"orDefault": orDefault,
}

func orDefault(def, s string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// ParseTemplate parses the three parts. Empty parts are skipped at render time.
func ParseTemplate(name, subject, text, html string) (*Template, error) {
	t := &Template{name: name}
	var err error
	if subject != "" {
		if t.subject, err = texttemplate.New(name + "_subject").Funcs(textFuncs).Parse(subject); err != nil {
			return nil, fmt.Errorf("email: failed to parse subject template %s: %w", name, err)
		}
	}
	if text != "" {
		if t.textBody, err = texttemplate.New(name + "_text").Funcs(textFuncs).Parse(text); err != nil {
			return nil, fmt.Errorf("email: failed to parse text template %s: %w", name, err)
		}
	}
	if html != "" {
		if t.htmlBody, err = htmltemplate.New(name + "_html").Funcs(htmlFuncs).Parse(html); err != nil {
			return nil, fmt.Errorf("email: failed to parse HTML template %s: %w", name, err)
		}
	}
	return t, nil
}

// MustParseTemplate is ParseTemplate for package-level templates.
func MustParseTemplate(name, subject, text, html string) *Template {
	t, err := ParseTemplate(name, subject, text, html)
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the template into a Message without recipients.
// Header values never contain line breaks from data.
func (t *Template) Render(data any) (Message, error) {
	var msg Message
	if t.subject != nil {
		var buf bytes.Buffer
		if err := t.subject.Execute(&buf, data); err != nil {
			return Message{}, fmt.Errorf("email: failed to render subject %s: %w", t.name, err)
		}
		msg.Subject = strings.Join(strings.Fields(buf.String()), " ")
	}
	if t.textBody != nil {
		var buf bytes.Buffer
		if err := t.textBody.Execute(&buf, data); err != nil {
			return Message{}, fmt.Errorf("email: failed to render text body %s: %w", t.name, err)
		}
		msg.TextBody = buf.String()
	}
	if t.htmlBody != nil {
		var buf bytes.Buffer
		if err := t.htmlBody.Execute(&buf, data); err != nil {
			return Message{}, fmt.Errorf("email: failed to render HTML body %s: %w", t.name, err)
		}
		msg.HTMLBody = buf.String()
	}
	return msg, nil
}
