package model

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the extract pipeline can produce, so the HTTP
// layer can map it to a status class without string matching.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindAmbiguousRecord     Kind = "ambiguous_record"
	KindUnknownLayer        Kind = "unknown_layer"
	KindUnknownTemplate     Kind = "unknown_template"
	KindTemplateBinding     Kind = "template_binding_error"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindUpstreamError       Kind = "upstream_error"
	KindMalformedDocument   Kind = "malformed_document"
)

// Error carries the failure kind plus the offending value (the unknown layer
// name, the unbound placeholder, the upstream status line) so a client can
// correct its request without us leaking upstream bodies verbatim.
type Error struct {
	Kind  Kind
	Value string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Value != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Value, e.Err)
	case e.Value != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Value)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, value string) *Error {
	return &Error{Kind: kind, Value: value}
}

func WrapError(kind Kind, value string, err error) *Error {
	return &Error{Kind: kind, Value: value, Err: err}
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
