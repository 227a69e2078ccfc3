// Package errs holds the error taxonomy shared by the ledgers, the stores
// and the engine.
//
// Every failure surfaced to a caller is an *Error carrying a Kind and the
// field that identifies the offending input (habit name, item id, date).
// Callers branch on the kind with Is, which unwraps like errors.As.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error.
type Kind string

const (
	// Validation: the request was rejected and state is unchanged.
	DuplicateHabit Kind = "DUPLICATE_HABIT"
	UnknownHabit   Kind = "UNKNOWN_HABIT"
	DuplicateItem  Kind = "DUPLICATE_ITEM"
	UnknownItem    Kind = "UNKNOWN_ITEM"
	InvalidQuality Kind = "INVALID_QUALITY"
	FutureDate     Kind = "FUTURE_DATE"
	InvalidName    Kind = "INVALID_NAME"
	OutOfOrderDate Kind = "OUT_OF_ORDER_DATE"

	// AlreadyRecorded is a status, never returned as an error by the engine.
	AlreadyRecorded Kind = "ALREADY_RECORDED"

	// Storage.
	CorruptStore Kind = "CORRUPT_STORE"
	StoreBusy    Kind = "STORE_BUSY"
	StoreIO      Kind = "STORE_IO"

	// Programmer.
	ReentrantCall Kind = "REENTRANT_CALL"
)

// Class groups kinds for exit-code mapping.
type Class int

const (
	ClassValidation Class = iota
	ClassStorage
	ClassProgrammer
)

// Class returns the group a kind belongs to.
func (k Kind) Class() Class {
	switch k {
	case CorruptStore, StoreBusy, StoreIO:
		return ClassStorage
	case ReentrantCall:
		return ClassProgrammer
	default:
		return ClassValidation
	}
}

// Error is a categorized failure.
type Error struct {
	Kind Kind

	// Field names the identifying input ("habit", "item", "date", "quality", "path").
	Field string

	// Value is the offending value as the user typed it.
	Value string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s %q", msg, e.Field, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind for field=value.
func New(kind Kind, field, value string) *Error {
	return &Error{Kind: kind, Field: field, Value: value}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, field, value string, cause error) *Error {
	return &Error{Kind: kind, Field: field, Value: value, Err: cause}
}

// Is reports whether err (or anything it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" if err is not categorized.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
