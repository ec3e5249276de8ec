// Package apperr is the error taxonomy shared by every batch operation.
//
// Callers test the kind with errors.Is against the sentinels below. Each
// concrete error names the lot, seller, settlement or other record that
// triggered it.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or incomplete input
	ErrValidation = errors.New("validation error")

	// ErrPrecondition marks an operation requested before its prerequisite state
	ErrPrecondition = errors.New("precondition failed")

	// ErrDataIntegrity marks a violated internal invariant
	ErrDataIntegrity = errors.New("data integrity violation")

	// ErrImmutableState marks an attempt to change a record past its commitment boundary
	ErrImmutableState = errors.New("immutable state")

	// ErrConcurrencyConflict marks lock contention; the caller may retry
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrNotFound marks a missing record
	ErrNotFound = errors.New("not found")
)

// Subject identifies the record an error is about, e.g. "lot 12" or "settlement 4".
type Subject struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (s Subject) String() string {
	if s.ID == "" {
		return s.Kind
	}
	return s.Kind + " " + s.ID
}

// Lot names a lot of the sale being processed
func Lot(number int) Subject {
	return Subject{Kind: "lot", ID: fmt.Sprint(number)}
}

// Row names a line of an imported file
func Row(line int) Subject {
	return Subject{Kind: "row", ID: fmt.Sprint(line)}
}

// Seller names a seller actor
func Seller(id int64) Subject {
	return Subject{Kind: "seller", ID: fmt.Sprint(id)}
}

// Buyer names a buyer actor
func Buyer(id int64) Subject {
	return Subject{Kind: "buyer", ID: fmt.Sprint(id)}
}

// Settlement names a settlement
func Settlement(id int64) Subject {
	return Subject{Kind: "settlement", ID: fmt.Sprint(id)}
}

// Invoice names an invoice
func Invoice(id int64) Subject {
	return Subject{Kind: "invoice", ID: fmt.Sprint(id)}
}

// Sale names a sale
func Sale(id int64) Subject {
	return Subject{Kind: "sale", ID: fmt.Sprint(id)}
}

// Actor names an actor of either type
func Actor(id int64) Subject {
	return Subject{Kind: "actor", ID: fmt.Sprint(id)}
}

// PaymentBatch names a stored payment file
func PaymentBatch(id int64) Subject {
	return Subject{Kind: "payment batch", ID: fmt.Sprint(id)}
}

// Field names an input field
func Field(name string) Subject {
	return Subject{Kind: "field", ID: name}
}

// Named builds a subject of any kind
func Named(kind, id string) Subject {
	return Subject{Kind: kind, ID: id}
}

// Error is a classified error about one subject
type Error struct {
	Kind    error
	Subject Subject
	Msg     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Subject, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, subject Subject, format string, args ...interface{}) error {
	return &Error{Kind: kind, Subject: subject, Msg: fmt.Sprintf(format, args...)}
}

func Validation(subject Subject, format string, args ...interface{}) error {
	return newError(ErrValidation, subject, format, args...)
}

func Precondition(subject Subject, format string, args ...interface{}) error {
	return newError(ErrPrecondition, subject, format, args...)
}

func DataIntegrity(subject Subject, format string, args ...interface{}) error {
	return newError(ErrDataIntegrity, subject, format, args...)
}

func ImmutableState(subject Subject, format string, args ...interface{}) error {
	return newError(ErrImmutableState, subject, format, args...)
}

func ConcurrencyConflict(subject Subject, format string, args ...interface{}) error {
	return newError(ErrConcurrencyConflict, subject, format, args...)
}

func NotFound(subject Subject) error {
	return newError(ErrNotFound, subject, "does not exist")
}

// SubjectOf returns the subject carried by err, if any
func SubjectOf(err error) (Subject, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Subject, true
	}
	return Subject{}, false
}

// Retryable reports whether the failed operation may succeed when retried
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// ItemError is one per-item problem reported alongside the successes of a batch
type ItemError struct {
	Subject Subject
	Err     error
}

// Item builds an ItemError from a classified error, taking its subject
func Item(err error) ItemError {
	subject, _ := SubjectOf(err)
	return ItemError{Subject: subject, Err: err}
}

func (i ItemError) Error() string {
	return i.Err.Error()
}

func (i ItemError) Unwrap() error {
	return i.Err
}

// MarshalJSON renders {"subject": ..., "kind": ..., "message": ...}
func (i ItemError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subject Subject `json:"subject"`
		Kind    string  `json:"kind"`
		Message string  `json:"message"`
	}{
		Subject: i.Subject,
		Kind:    KindOf(i.Err),
		Message: i.Err.Error(),
	})
}

// KindOf names the taxonomy class of err, or "internal" when unclassified
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrPrecondition):
		return "precondition"
	case errors.Is(err, ErrDataIntegrity):
		return "data_integrity"
	case errors.Is(err, ErrImmutableState):
		return "immutable_state"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
