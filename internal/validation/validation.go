// Package validation provides the error type returned when a client
// submission is malformed.  Handlers translate it into HTTP 400 with the
// per-field messages in the response body.
package validation

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// Error collects field-level problems found in one submission.
type Error struct {
	Fields map[string]string
}

// New returns an empty Error ready for Add calls.
func New() *Error {
	return &Error{Fields: map[string]string{}}
}

// Add records msg for field.  The first message recorded for a field wins.
func (e *Error) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Has reports whether field already has a problem recorded.
func (e *Error) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Err returns e when at least one field failed, otherwise nil.  Use it as
// the final return of a validation function so callers get a nil error
// interface on success.
func (e *Error) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Single builds an Error with one field problem.
func Single(field, msg string) error {
	e := New()
	e.Add(field, msg)
	return e
}

// As unwraps err into a validation Error if it is one.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// NonNegative records a problem for field unless v is a finite number
// that is zero or greater.
func (e *Error) NonNegative(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		e.Add(field, "must be a finite number")
		return
	}
	if v < 0 {
		e.Add(field, "must not be negative")
	}
}

// Required records a problem for field when s is empty after trimming.
func (e *Error) Required(field, s string) {
	if strings.TrimSpace(s) == "" {
		e.Add(field, "is required")
	}
}
