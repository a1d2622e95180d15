package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized     = errors.New("authentication required")
	ErrForbidden        = errors.New("not allowed to manage reviews of this business")
	ErrBusinessNotFound = errors.New("business not found")
	ErrReviewNotFound   = errors.New("review not found")
)

// ValidationError carries per-field messages for rejected input.
// Keys are the JSON field names clients send ("images.0" for list items).
type ValidationError struct {
	Errors map[string][]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f, strings.Join(e.Errors[f], ", ")))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Errors == nil {
		e.Errors = make(map[string][]string)
	}
	e.Errors[field] = append(e.Errors[field], msg)
}

func (e *ValidationError) empty() bool {
	return e == nil || len(e.Errors) == 0
}
