// internal/app/intake/fields.go
package intake

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/dalemusser/formdrop/pantry/text"
	"gopkg.in/yaml.v3"
)

// Fields is the canonical form of a submission before it is stored.
// Missing fields are "".
type Fields struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Missing returns the names of required fields that are empty.
func (f Fields) Missing() []string {
	var missing []string
	if f.Name == "" {
		missing = append(missing, "name")
	}
	if f.Email == "" {
		missing = append(missing, "email")
	}
	if f.Message == "" {
		missing = append(missing, "message")
	}
	return missing
}

func (f Fields) empty() bool {
	return f == Fields{}
}

// fill returns f with its empty fields taken from other.
func (f Fields) fill(other Fields) Fields {
	if f.Name == "" {
		f.Name = other.Name
	}
	if f.Email == "" {
		f.Email = other.Email
	}
	if f.Phone == "" {
		f.Phone = other.Phone
	}
	if f.Message == "" {
		f.Message = other.Message
	}
	return f
}

// Aliases lists, per canonical field, the keys a form builder may use for
// it. Lookup tries them in order.
type Aliases struct {
	Name    []string `yaml:"name"`
	Email   []string `yaml:"email"`
	Phone   []string `yaml:"phone"`
	Message []string `yaml:"message"`
}

// DefaultAliases covers the plain field names and the legacy builder's
// phone field id.
func DefaultAliases() Aliases {
	return Aliases{
		Name:    []string{"name"},
		Email:   []string{"email"},
		Phone:   []string{"phone", "field_6046966"},
		Message: []string{"message"},
	}
}

// Merge appends the keys of extra that a is missing.
func (a Aliases) Merge(extra Aliases) Aliases {
	return Aliases{
		Name:    appendNew(a.Name, extra.Name),
		Email:   appendNew(a.Email, extra.Email),
		Phone:   appendNew(a.Phone, extra.Phone),
		Message: appendNew(a.Message, extra.Message),
	}
}

// LoadAliases reads a YAML alias file and merges it over DefaultAliases:
//
//	phone: [field_7781234]
//	message: [comments]
func LoadAliases(path string) (Aliases, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Aliases{}, fmt.Errorf("read alias file: %w", err)
	}
	var extra Aliases
	if err := yaml.Unmarshal(b, &extra); err != nil {
		return Aliases{}, fmt.Errorf("parse alias file %s: %w", path, err)
	}
	return DefaultAliases().Merge(extra), nil
}

func appendNew(base, extra []string) []string {
	out := append([]string(nil), base...)
	for _, k := range extra {
		if k == "" || contains(out, k) {
			continue
		}
		out = append(out, k)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// extract builds Fields by looking up each alias through key, which maps an
// alias to the payload key of one naming scheme. Single-line fields have
// inner whitespace collapsed; the message keeps its line breaks.
func extract(p map[string]any, a Aliases, key func(alias string) string) Fields {
	lookup := func(aliases []string, clean func(string) string) string {
		for _, alias := range aliases {
			if v, ok := p[key(alias)]; ok {
				if s := clean(coerce(v)); s != "" {
					return s
				}
			}
		}
		return ""
	}
	return Fields{
		Name:    lookup(a.Name, text.CleanLine),
		Email:   lookup(a.Email, text.CleanLine),
		Phone:   lookup(a.Phone, text.CleanLine),
		Message: lookup(a.Message, text.Clean),
	}
}

// coerce renders a decoded value as text. Structured values and null
// become "".
func coerce(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return formatFloat(f)
	case float64:
		return formatFloat(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
