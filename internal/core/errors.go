package core

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Validation errors: caused by user input, surfaced synchronously,
// never retried and never queued.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrInvalidName         = errors.New("name cannot be empty")
	ErrInvalidDay          = errors.New("day of month out of range")
	ErrInvalidDate         = errors.New("date cannot be zero")
	ErrMissingCategory     = errors.New("category is required")
	ErrTransferSameAccount = errors.New("transfer source and destination must differ")
	ErrMissingAccount      = errors.New("transaction must reference an account")
	ErrInsufficientBalance = errors.New("amount exceeds available balance")
	ErrInsufficientCredit  = errors.New("amount exceeds available credit")
	ErrNoCreditUsed        = errors.New("no used credit to pay")
	ErrCreditOverPayment   = errors.New("payment exceeds used credit")
	ErrCreditTransfer      = errors.New("transfers from a credit account are not allowed")
	ErrDebtSettled         = errors.New("debt already settled")
	ErrDebtOverPayment     = errors.New("amount exceeds remaining balance")
)

// Referential errors: the referenced entity does not exist. Fatal to the
// operation, not retried (retrying cannot create the missing entity).
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDebtNotFound        = errors.New("debt not found")
	ErrRecurringNotFound   = errors.New("recurring payment not found")
)

// Fatal/programming errors: contract violations upstream.
var (
	ErrUnknownAccountKind = errors.New("unknown account kind")
	ErrUnknownOperation   = errors.New("unknown operation")
)

var validationErrors = []error{
	ErrInvalidAmount,
	ErrInvalidKind,
	ErrInvalidName,
	ErrInvalidDay,
	ErrInvalidDate,
	ErrMissingCategory,
	ErrTransferSameAccount,
	ErrMissingAccount,
	ErrInsufficientBalance,
	ErrInsufficientCredit,
	ErrNoCreditUsed,
	ErrCreditOverPayment,
	ErrCreditTransfer,
	ErrDebtSettled,
	ErrDebtOverPayment,
}

var referentialErrors = []error{
	ErrAccountNotFound,
	ErrTransactionNotFound,
	ErrDebtNotFound,
	ErrRecurringNotFound,
}

// IsValidation reports whether err belongs to the user-input class.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// IsReferential reports whether err means a referenced entity is missing.
func IsReferential(err error) bool {
	for _, v := range referentialErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

var fatalErrors = []error{
	ErrUnknownAccountKind,
	ErrUnknownOperation,
}

// IsFatal reports whether err is a contract violation upstream. Neither a
// retry nor corrected input can fix it.
func IsFatal(err error) bool {
	for _, v := range fatalErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

// transientSignatures are substrings of error messages produced by drivers
// and network stacks for failures that are worth retrying.
var transientSignatures = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no such host",
	"service unavailable",
	"database is locked",
	"SQLITE_BUSY",
	"conn busy",
	"failed to connect",
}

// IsRecoverable classifies err as a transient network/storage failure.
// Only recoverable failures are retried with backoff or parked in the
// offline queue; validation and referential failures never qualify.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	if IsValidation(err) || IsReferential(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
