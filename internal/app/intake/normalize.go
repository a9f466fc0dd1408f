// internal/app/intake/normalize.go
package intake

// Strategy recognizes one field-naming scheme. ok is true when at least one
// field was found under that scheme.
type Strategy struct {
	Name    string
	Extract func(p Payload, a Aliases) (f Fields, ok bool)
}

// Strategies is the lookup order used by NewNormalizer.
var Strategies = []Strategy{
	{Name: "canonical", Extract: extractCanonical},
	{Name: "bracket", Extract: extractBracket},
	{Name: "nested", Extract: extractNested},
	{Name: "indexed", Extract: extractIndexed},
}

// Normalizer maps a Payload to canonical Fields.
type Normalizer struct {
	aliases    Aliases
	strategies []Strategy
}

// NewNormalizer returns a Normalizer using Strategies in order. A zero
// Aliases means DefaultAliases.
func NewNormalizer(a Aliases) *Normalizer {
	if len(a.Name)+len(a.Email)+len(a.Phone)+len(a.Message) == 0 {
		a = DefaultAliases()
	}
	return &Normalizer{aliases: a, strategies: Strategies}
}

// Normalize fills each field from the first strategy, in order, that yields
// a value for it. It also returns the name of the first strategy that
// yielded anything, or "" when none did.
func (n *Normalizer) Normalize(p Payload) (Fields, string) {
	var (
		out     Fields
		primary string
	)
	for _, s := range n.strategies {
		f, ok := s.Extract(p, n.aliases)
		if !ok {
			continue
		}
		if primary == "" {
			primary = s.Name
		}
		out = out.fill(f)
	}
	return out, primary
}

func extractCanonical(p Payload, a Aliases) (Fields, bool) {
	f := extract(p, a, func(alias string) string { return alias })
	return f, !f.empty()
}

// extractBracket handles flat keys such as form_fields[name].
func extractBracket(p Payload, a Aliases) (Fields, bool) {
	f := extract(p, a, func(alias string) string { return "form_fields[" + alias + "]" })
	return f, !f.empty()
}

// extractNested handles a form_fields object, or an array whose first
// element is that object.
func extractNested(p Payload, a Aliases) (Fields, bool) {
	inner := asObject(p["form_fields"])
	if inner == nil {
		return Fields{}, false
	}
	f := extract(inner, a, func(alias string) string { return alias })
	return f, !f.empty()
}

// extractIndexed handles form_fields[0][name] and form_fields[][name], the
// array form of the legacy builder posted as form data.
func extractIndexed(p Payload, a Aliases) (Fields, bool) {
	for _, prefix := range [...]string{"form_fields[0][", "form_fields[]["} {
		f := extract(p, a, func(alias string) string { return prefix + alias + "]" })
		if !f.empty() {
			return f, true
		}
	}
	return Fields{}, false
}
