package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindNetwork        Kind = "network"
	KindServer         Kind = "server"
	KindTimeout        Kind = "timeout"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindRejected       Kind = "rejected"
)

// Source records where a validation failure was detected.
type Source string

const (
	SourceClient Source = "client"
	SourceServer Source = "server"
)

// Fields maps a form field key to a human readable message.
type Fields map[string]string

func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Error struct {
	Kind   Kind
	Status int
	Code   string
	Fields Fields
	Source Source
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, k := range e.Fields.Keys() {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return string(e.Kind) + ": " + strings.Join(parts, "; ")
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	if e.Kind != "" {
		return string(e.Kind) + " error"
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient and a user-initiated
// re-submission is expected to be safe.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindServer, KindTimeout:
		return true
	default:
		return false
	}
}

func New(status int, code string, err error) *Error {
	return &Error{Kind: KindForStatus(status), Status: status, Code: code, Err: err}
}

// Validation builds a client-detected, field-keyed validation error.
func Validation(fields Fields) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusUnprocessableEntity, Code: "validation", Fields: fields, Source: SourceClient}
}

// ServerValidation is a validation rejection reported by the remote side.
func ServerValidation(fields Fields) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusUnprocessableEntity, Code: "validation", Fields: fields, Source: SourceServer}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindForStatus maps an HTTP status to the error taxonomy.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindServer
	default:
		return KindRejected
	}
}

// StatusFor is the inverse used by the HTTP layer when a handler only knows the kind.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindRejected:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsAuth(err error) bool { return IsKind(err, KindAuthentication) }

func IsValidation(err error) bool { return IsKind(err, KindValidation) }

func FieldsOf(err error) Fields {
	if e, ok := As(err); ok {
		return e.Fields
	}
	return nil
}
