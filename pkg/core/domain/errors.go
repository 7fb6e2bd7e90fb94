package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call to an external collaborator.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetworkFailure
	KindAuthRejected
	KindValidationFailure
	KindServerFailure
	KindShapeMismatch
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNetworkFailure:
		return "network_failure"
	case KindAuthRejected:
		return "auth_rejected"
	case KindValidationFailure:
		return "validation_failure"
	case KindServerFailure:
		return "server_failure"
	case KindShapeMismatch:
		return "shape_mismatch"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; an *Error matches the sentinel of its Kind.
var (
	ErrNetworkFailure    = errors.New("network failure")
	ErrAuthRejected      = errors.New("credential rejected")
	ErrValidationFailure = errors.New("validation failure")
	ErrServerFailure     = errors.New("server failure")
	ErrShapeMismatch     = errors.New("unexpected response shape")
	ErrNotFound          = errors.New("not found")
)

var kindSentinels = map[Kind]error{
	KindNetworkFailure:    ErrNetworkFailure,
	KindAuthRejected:      ErrAuthRejected,
	KindValidationFailure: ErrValidationFailure,
	KindServerFailure:     ErrServerFailure,
	KindShapeMismatch:     ErrShapeMismatch,
	KindNotFound:          ErrNotFound,
}

type Error struct {
	Kind    Kind
	Op      string // e.g. "GET /api/urls"
	Status  int    // HTTP status, 0 when no response arrived
	Message string // server supplied message, if any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Retryable reports whether offering the user a retry makes sense.
// Shape mismatches count as server failures.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetworkFailure, KindServerFailure, KindShapeMismatch:
		return true
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// KindForStatus maps a non-2xx status to a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthRejected
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 400 && status < 500:
		return KindValidationFailure
	default:
		return KindServerFailure
	}
}
