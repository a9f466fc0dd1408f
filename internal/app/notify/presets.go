// internal/app/notify/presets.go
package notify

import (
	"strings"
	"unicode"
)

// Endpoint is an SMTP host and port.
type Endpoint struct {
	Host string
	Port int
}

// services maps well-known provider identifiers (as used in EMAIL_SERVICE)
// to their SMTP submission endpoints. Keys are normalized by serviceKey.
var services = map[string]Endpoint{
	"gmail":        {Host: "smtp.gmail.com", Port: 465},
	"googlemail":   {Host: "smtp.gmail.com", Port: 465},
	"outlook":      {Host: "smtp-mail.outlook.com", Port: 587},
	"hotmail":      {Host: "smtp-mail.outlook.com", Port: 587},
	"outlook365":   {Host: "smtp.office365.com", Port: 587},
	"office365":    {Host: "smtp.office365.com", Port: 587},
	"yahoo":        {Host: "smtp.mail.yahoo.com", Port: 465},
	"icloud":       {Host: "smtp.mail.me.com", Port: 587},
	"zoho":         {Host: "smtp.zoho.com", Port: 465},
	"sendgrid":     {Host: "smtp.sendgrid.net", Port: 587},
	"mailgun":      {Host: "smtp.mailgun.org", Port: 465},
	"ses":          {Host: "email-smtp.us-east-1.amazonaws.com", Port: 465},
	"sesuseast1":   {Host: "email-smtp.us-east-1.amazonaws.com", Port: 465},
	"sesuswest2":   {Host: "email-smtp.us-west-2.amazonaws.com", Port: 465},
	"seseuwest1":   {Host: "email-smtp.eu-west-1.amazonaws.com", Port: 465},
	"fastmail":     {Host: "smtp.fastmail.com", Port: 465},
	"protonbridge": {Host: "127.0.0.1", Port: 1025},
}

// LookupService resolves a provider identifier such as "Gmail",
// "Office365" or "SES-US-EAST-1".
func LookupService(name string) (Endpoint, bool) {
	ep, ok := services[serviceKey(name)]
	return ep, ok
}

// serviceKey lower-cases name and drops everything but letters and digits.
func serviceKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
