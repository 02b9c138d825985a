// Package errs defines the error taxonomy shared by fetchers, the ingestor,
// the baseline engine, and every batch job: transport failures, rate limits,
// HTTP status errors, validation failures, and the handful of "not really an
// error" outcomes (not_found, insufficient_data, mapping_miss, conflict,
// cancelled) that callers treat as structured results rather than panics.
package errs

import "fmt"

// Kind is a closed set of error categories. Treat it as a tagged variant, not
// a string to pattern-match on.
type Kind string

const (
	KindTransport         Kind = "transport"
	KindRateLimited       Kind = "rate_limited"
	KindHTTPStatus        Kind = "http_status"
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindInsufficientData  Kind = "insufficient_data"
	KindMappingMiss       Kind = "mapping_miss"
	KindConflict          Kind = "conflict"
	KindCancelled         Kind = "cancelled"
	KindAmbiguousResolve  Kind = "ambiguous_resolution"
)

// Error is a typed error carrying one of the Kind values plus optional detail
// (an HTTP status code, a field name, the underlying cause).
type Error struct {
	Kind   Kind
	Detail string
	Code   int
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets callers write errors.Is(err, errs.ErrRateLimited) against a sentinel
// that only carries a Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel instances for errors.Is comparisons. Callers never construct these
// directly for real errors -- use the New* constructors, which carry detail.
var (
	ErrRateLimited      = &Error{Kind: KindRateLimited}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrTransport        = &Error{Kind: KindTransport}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
	ErrMappingMiss      = &Error{Kind: KindMappingMiss}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrCancelled        = &Error{Kind: KindCancelled}
	ErrAmbiguousResolve = &Error{Kind: KindAmbiguousResolve}
)

func NewTransport(cause error) error {
	return &Error{Kind: KindTransport, Cause: cause}
}

func NewRateLimited(detail string) error {
	return &Error{Kind: KindRateLimited, Detail: detail}
}

func NewHTTPStatus(code int, detail string) error {
	return &Error{Kind: KindHTTPStatus, Code: code, Detail: detail}
}

func NewNotFound(detail string) error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

func NewValidation(detail string) error {
	return &Error{Kind: KindValidation, Detail: detail}
}

func NewInsufficientData(detail string) error {
	return &Error{Kind: KindInsufficientData, Detail: detail}
}

func NewMappingMiss(detail string) error {
	return &Error{Kind: KindMappingMiss, Detail: detail}
}

func NewConflict(detail string) error {
	return &Error{Kind: KindConflict, Detail: detail}
}

func NewCancelled(detail string) error {
	return &Error{Kind: KindCancelled, Detail: detail}
}

func NewAmbiguousResolve(detail string) error {
	return &Error{Kind: KindAmbiguousResolve, Detail: detail}
}

// Summary is the result of a batch job: counts plus per-record errors, never
// a bare error. Batch jobs never throw -- they always return a Summary.
type Summary struct {
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// AddError records a per-record failure without aborting the batch.
func (s *Summary) AddError(err error) {
	if err == nil {
		return
	}
	s.Errors = append(s.Errors, err.Error())
}

// ErrorCount is the count field operator commands report.
func (s *Summary) ErrorCount() int { return len(s.Errors) }

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return e != nil && e.Kind == kind
}
