// Package validate rejects malformed input before any query executes and
// normalizes loosely-typed request data (JSON bodies, query strings) into
// typed values. Every schema reports all violated fields at once.
package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// FieldError is one violated constraint on a named input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors aggregates field-level validation problems. The error text exposes
// only field names and messages, never schema internals.
type Errors struct {
	Fields []FieldError
}

func (e *Errors) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Errors) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *Errors) addf(field, format string, args ...any) {
	e.add(field, fmt.Sprintf(format, args...))
}

func (e *Errors) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Body is a decoded JSON request body. Decode with UseNumber so amounts keep
// their exact decimal representation.
type Body map[string]any

// ParseBody decodes raw JSON into a Body, rejecting anything that is not an
// object.
func ParseBody(raw []byte) (Body, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &Errors{Fields: []FieldError{{Field: "body", Message: "must be a JSON object"}}}
	}
	return m, nil
}

// optString extracts a string field. The third result is false when the
// field is present but not a string.
func optString(b Body, key string) (string, bool, bool) {
	v, present := b[key]
	if !present || v == nil {
		return "", false, true
	}
	s, ok := v.(string)
	return strings.TrimSpace(s), true, ok
}

// optBool extracts a boolean field.
func optBool(b Body, key string) (bool, bool, bool) {
	v, present := b[key]
	if !present || v == nil {
		return false, false, true
	}
	val, ok := v.(bool)
	return val, true, ok
}

// amountString renders a JSON number or string field for decimal parsing.
func amountString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return fmt.Sprintf("%g", val), true
	default:
		return "", false
	}
}

// optCents parses an optional monetary field into cents. min is the lowest
// accepted cents value (1 for strictly-positive amounts, 0 for budgets).
func optCents(b Body, key string, min int64, errs *Errors) (*core.Money, bool) {
	v, present := b[key]
	if !present || v == nil {
		return nil, false
	}
	s, ok := amountString(v)
	if !ok {
		errs.add(key, "must be a number")
		return nil, true
	}
	cents, err := core.ParseDecimalToCents(s)
	if err != nil || cents < min {
		if min > 0 {
			errs.add(key, "must be a positive number")
		} else {
			errs.add(key, "must be a non-negative number")
		}
		return nil, true
	}
	return &core.Money{Cents: cents}, true
}

// optTags parses an optional tag array: at most maxItems entries, each a
// non-empty string of at most 30 characters.
func optTags(b Body, key string, maxItems int, errs *Errors) ([]string, bool) {
	v, present := b[key]
	if !present || v == nil {
		return nil, false
	}
	raw, ok := v.([]any)
	if !ok {
		errs.add(key, "must be an array of strings")
		return nil, true
	}
	if len(raw) > maxItems {
		errs.addf(key, "maximum %d tags allowed", maxItems)
		return nil, true
	}
	tags := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			errs.add(key, "must be an array of strings")
			return nil, true
		}
		s = strings.TrimSpace(s)
		if s == "" || len(s) > 30 {
			errs.add(key, "each tag must be 1-30 characters")
			return nil, true
		}
		tags = append(tags, s)
	}
	return tags, true
}

// optDate parses an optional YYYY-MM-DD field.
func optDate(b Body, key string, errs *Errors) (*core.Date, bool) {
	s, present, ok := optString(b, key)
	if !present {
		return nil, false
	}
	if !ok {
		errs.add(key, "must be a string")
		return nil, true
	}
	d, err := core.ParseDate(s)
	if err != nil {
		errs.add(key, "invalid date format (YYYY-MM-DD)")
		return nil, true
	}
	return &d, true
}

// boundedString validates an optional string field against a length ceiling.
func boundedString(b Body, key string, max int, errs *Errors) (*string, bool) {
	s, present, ok := optString(b, key)
	if !present {
		return nil, false
	}
	if !ok {
		errs.add(key, "must be a string")
		return nil, true
	}
	if len(s) > max {
		errs.addf(key, "too long (max %d characters)", max)
		return nil, true
	}
	return &s, true
}

// IsUUID reports whether s is syntactically a UUID. Existence is checked
// later by the owning service.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// validColor reports whether s is "#" followed by exactly six hex digits.
func validColor(s string) bool {
	return colorRe.MatchString(s)
}
