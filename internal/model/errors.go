package model

import (
	"errors"
	"fmt"
)

// FaultKind is a coarse-grained categorization for operational failures.
type FaultKind string

const (
	KindInvalidFormat     FaultKind = "invalid_format"
	KindDuplicateKey      FaultKind = "duplicate_key"
	KindNotFound          FaultKind = "not_found"
	KindConflict          FaultKind = "conflict"
	KindInsufficientFunds FaultKind = "insufficient_funds"
	KindValidationFailed  FaultKind = "validation_failed"
	KindSignatureInvalid  FaultKind = "signature_invalid"
	KindPersistenceFailed FaultKind = "persistence_failed"
)

// Fault wraps an underlying error with operation context and a kind. Key
// names the offending record (PAN or account number) and Field the violated
// attribute, so callers can report exactly what was rejected.
type Fault struct {
	Op    string
	Kind  FaultKind
	Key   string // offending record key, if any
	Field string // offending field, if any
	Err   error
}

func (f *Fault) Error() string {
	if f == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", f.Op, f.Kind)
	if f.Key != "" {
		base += fmt.Sprintf(" [%s]", f.Key)
	}
	if f.Field != "" {
		base += fmt.Sprintf(" (field=%s)", f.Field)
	}
	if f.Err != nil {
		base += fmt.Sprintf(": %v", f.Err)
	}
	return base
}

func (f *Fault) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// IsKind helps callers classify errors without string matching.
func IsKind(err error, kind FaultKind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}

// KindOf returns the fault kind of err, or "" when err carries none.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
