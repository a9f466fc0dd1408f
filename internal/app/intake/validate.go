// internal/app/intake/validate.go
package intake

// Validate returns a *ValidationError when name, email or message is empty.
// Phone is optional.
func Validate(f Fields) error {
	if missing := f.Missing(); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
