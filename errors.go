package moviebot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Outcome sentinels. Actions return them (possibly wrapped) next to the
// user-facing Result so callers can log and count what happened.
var (
	ErrMissingSlot            = errors.New("missing slot")
	ErrValidation             = errors.New("validation failed")
	ErrInsufficientCandidates = errors.New("insufficient candidates")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrExternalService        = errors.New("external service failure")
	ErrUnknownAction          = errors.New("unknown action")
)

// MissingSlotError reports a required slot that is absent or blank.
type MissingSlotError struct {
	Slot string
}

func (e *MissingSlotError) Error() string { return "missing slot " + e.Slot }

func (e *MissingSlotError) Is(target error) bool { return target == ErrMissingSlot }

// ValidationError reports a slot value that cannot be written to a profile.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InsufficientCandidatesError is returned when fewer titles survive
// filtering than a recommendation needs.
type InsufficientCandidatesError struct {
	Have int
	Need int
}

func (e *InsufficientCandidatesError) Error() string {
	return fmt.Sprintf("insufficient candidates: have %d, need %d", e.Have, e.Need)
}

func (e *InsufficientCandidatesError) Is(target error) bool {
	return target == ErrInsufficientCandidates
}

// FailureKind classifies a failed external call.
type FailureKind string

const (
	FailureAuthentication FailureKind = "authentication_failed"
	FailureRateLimited    FailureKind = "rate_limited"
	FailureUnavailable    FailureKind = "service_unavailable"
	FailureTimeout        FailureKind = "timeout"
)

// GenerationError is the failure type of every Generator.
type GenerationError struct {
	Kind       FailureKind
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("generation %s (%d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation %s: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrExternalService }

// generationErrorFromStatus maps a non-200 response to a GenerationError.
func generationErrorFromStatus(status int, body []byte) *GenerationError {
	kind := FailureUnavailable
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = FailureAuthentication
	case status == http.StatusTooManyRequests:
		kind = FailureRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = FailureTimeout
	}
	return &GenerationError{
		Kind:       kind,
		StatusCode: status,
		Err:        errors.New(string(body[:min(len(body), 300)])),
	}
}

// generationErrorFromTransport wraps an error returned before any response arrived.
func generationErrorFromTransport(err error) *GenerationError {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge
	}
	return &GenerationError{Kind: KindOf(err), Err: err}
}

// KindOf classifies any error from an external call. Errors that carry no
// timeout or HTTP status, an open circuit breaker included, count as unavailable.
func KindOf(err error) FailureKind {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureUnavailable
}

// external marks a store or content failure as ErrExternalService while keeping the cause.
func external(service string, err error) error {
	return fmt.Errorf("%s: %w: %w", service, ErrExternalService, err)
}

// Outcome maps an action error to its metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingSlot):
		return "missing_slot"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInsufficientCandidates):
		return "insufficient_candidates"
	case errors.Is(err, ErrProfileNotFound):
		return "not_found"
	case errors.Is(err, ErrExternalService):
		return "external_failure"
	default:
		return "error"
	}
}
