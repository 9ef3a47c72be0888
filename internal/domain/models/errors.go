package models

import "fmt"

// StructuralError marks malformed input: unparseable dates or times,
// unknown day types, missing required fields. Always surfaced to the
// caller, never recovered.
type StructuralError struct {
	Msg string
	Err error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *StructuralError) Unwrap() error { return e.Err }

// NewStructuralError wraps err with a structural-error marker.
func NewStructuralError(msg string, err error) *StructuralError {
	return &StructuralError{Msg: msg, Err: err}
}

// Structuralf builds a StructuralError from a format string.
func Structuralf(format string, a ...interface{}) *StructuralError {
	return &StructuralError{Msg: fmt.Sprintf(format, a...)}
}

// ConsistencyError marks an operation that would violate changeset
// invariants under strict mode: a date added twice, or added and removed
// at once.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string { return e.Msg }

// Consistencyf builds a ConsistencyError from a format string.
func Consistencyf(format string, a ...interface{}) *ConsistencyError {
	return &ConsistencyError{Msg: fmt.Sprintf(format, a...)}
}

// NotFoundError marks a lookup against a calendar key the registry does
// not know.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// NotFoundf builds a NotFoundError from a format string.
func NotFoundf(format string, a ...interface{}) *NotFoundError {
	return &NotFoundError{Msg: fmt.Sprintf(format, a...)}
}

// InternalFault marks a programming defect (a date no weekmask period
// covers, a rule producing out-of-range dates). It aborts the current
// resolution rather than returning a wrong answer.
type InternalFault struct {
	Msg string
}

func (e *InternalFault) Error() string { return e.Msg }

// Faultf builds an InternalFault from a format string.
func Faultf(format string, a ...interface{}) *InternalFault {
	return &InternalFault{Msg: fmt.Sprintf(format, a...)}
}
