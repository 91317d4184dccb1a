// =============================================================================
// Negotiated Rate Filter - Shape Validation
// =============================================================================
//
// JSON decoding alone cannot tell a missing key from a zero value. This module
// closes that gap: after a line is decoded into types.InputRecord, the
// validator checks that every required key was present and non-null.
//
// VALIDATION STRATEGY:
//   Rules are declared as `validate` struct tags on the input types and are
//   executed by go-playground/validator. Nested rate groups and prices are
//   reached through `dive`. Only presence is checked: values are not range
//   checked and unknown keys are ignored.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ginjaninja78/ratefilter/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// FieldError describes one failed rule.
type FieldError struct {
	// Field is the JSON path of the offending key, for example
	// "negotiated_rates[0].negotiated_prices[2].negotiated_rate".
	Field string

	// Rule is the validator tag that failed.
	Rule string
}

// ShapeError is returned when a decoded record does not have the shape of an
// InputRecord.
type ShapeError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Rule == "required" {
			parts = append(parts, fmt.Sprintf("missing field `%s`", f.Field))
			continue
		}
		parts = append(parts, fmt.Sprintf("field `%s` failed %s", f.Field, f.Rule))
	}
	return strings.Join(parts, "; ")
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator checks decoded input records. It is safe to reuse across lines.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate returns a *ShapeError if rec is missing a required key.
func (v *Validator) Validate(rec *types.InputRecord) error {
	err := v.validate.Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate record: %w", err)
	}

	shape := &ShapeError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		shape.Fields = append(shape.Fields, FieldError{
			Field: trimRoot(fe.Namespace()),
			Rule:  fe.Tag(),
		})
	}
	return shape
}

// trimRoot drops the struct name the validator prefixes to every namespace.
func trimRoot(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
