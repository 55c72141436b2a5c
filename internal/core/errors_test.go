package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		validation  bool
		referential bool
		recoverable bool
	}{
		{"insufficient balance", ErrInsufficientBalance, true, false, false},
		{"wrapped validation", fmt.Errorf("create: %w", ErrInsufficientCredit), true, false, false},
		{"account missing", ErrAccountNotFound, false, true, false},
		{"deadline exceeded", context.DeadlineExceeded, false, false, true},
		{"sqlite busy", errors.New("stepping, database is locked (5) (SQLITE_BUSY)"), false, false, true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), false, false, true},
		{"programming error", ErrUnknownOperation, false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.validation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.validation)
			}
			if got := IsReferential(tt.err); got != tt.referential {
				t.Errorf("IsReferential() = %v, want %v", got, tt.referential)
			}
			if got := IsRecoverable(tt.err); got != tt.recoverable {
				t.Errorf("IsRecoverable() = %v, want %v", got, tt.recoverable)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	if !IsFatal(fmt.Errorf("lookup: %w", ErrUnknownAccountKind)) {
		t.Error("wrapped unknown account kind should be fatal")
	}
	if IsFatal(ErrInsufficientBalance) {
		t.Error("validation errors are not fatal")
	}
	if IsFatal(nil) {
		t.Error("nil is not fatal")
	}
}

func TestRecoverableNeverOverlapsValidation(t *testing.T) {
	// A validation failure whose message happens to mention a transient
	// signature must still not be retried.
	err := fmt.Errorf("i/o timeout while checking: %w", ErrInsufficientBalance)
	if IsRecoverable(err) {
		t.Error("validation errors must never classify as recoverable")
	}
}
