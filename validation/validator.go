package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/plan3/commonauth/errors"
)

// FieldError is one failed rule. Field is a dotted path such as
// "bearer.tokens"; it is empty for errors about the whole value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Validator collects field errors. Validators returned by At share the
// collection of their parent and prefix every field they record.
type Validator struct {
	errs   *[]FieldError
	prefix string
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{errs: new([]FieldError)}
}

// At returns a validator that records fields under path.
//
//	v.At("jwt").Check(ok, "publicKey", "is required") // jwt.publicKey
func (v *Validator) At(path string) *Validator {
	return &Validator{errs: v.errs, prefix: v.path(path)}
}

func (v *Validator) path(field string) string {
	switch {
	case v.prefix == "":
		return field
	case field == "":
		return v.prefix
	default:
		return v.prefix + "." + field
	}
}

// AddError records message against field.
func (v *Validator) AddError(field, message string) {
	*v.errs = append(*v.errs, FieldError{Field: v.path(field), Message: message})
}

// Merge appends previously collected field errors, prefixed like AddError.
func (v *Validator) Merge(fields []FieldError) *Validator {
	for _, f := range fields {
		v.AddError(f.Field, f.Message)
	}
	return v
}

// HasErrors reports whether anything was recorded.
func (v *Validator) HasErrors() bool {
	return len(*v.errs) > 0
}

// Errors returns every recorded error, in recording order.
func (v *Validator) Errors() []FieldError {
	return *v.errs
}

// Validate returns nil when nothing was recorded, otherwise one
// INVALID_INPUT AppError listing every field in Details["fields"].
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	fields := v.Errors()
	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = f.String()
	}
	return errors.Validation(strings.Join(messages, "; ")).
		WithDetails(map[string]any{"fields": fields})
}

// Required checks that value is not blank.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "is required")
}

// Pattern checks value against pattern.
func (v *Validator) Pattern(field, value string, pattern *regexp.Regexp) *Validator {
	return v.Check(pattern.MatchString(value), field, "does not match required format "+pattern.String())
}

// OneOf checks that value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Check records message against field when condition is false.
func (v *Validator) Check(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
