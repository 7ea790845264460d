// Package apperrors holds the error kinds every command reports.
// Each kind carries a stable reason code for machine-readable output.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/amilzbot/agent-proof-cli/pkg/reasoncodes"
)

type Coded interface {
	error
	Code() reasoncodes.ReasonCode
}

// ValidationError is malformed input, rejected before any network call.
type ValidationError struct {
	Field  string
	Bound  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Bound != "" {
		return fmt.Sprintf("invalid %s: %s (%s)", e.Field, e.Reason, e.Bound)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Code() reasoncodes.ReasonCode { return reasoncodes.ErrValidation }

func Invalid(field, bound, reason string) *ValidationError {
	return &ValidationError{Field: field, Bound: bound, Reason: reason}
}

// AlreadyExistsError means the derived address already holds an account.
type AlreadyExistsError struct {
	Kind    string
	Address string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists at %s", e.Kind, e.Address)
}

func (e *AlreadyExistsError) Code() reasoncodes.ReasonCode { return reasoncodes.ErrAlreadyExists }

type NotFoundError struct {
	Kind    string
	Address string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found at %s", e.Kind, e.Address)
}

func (e *NotFoundError) Code() reasoncodes.ReasonCode { return reasoncodes.ErrNotFound }

// NetworkError wraps RPC and submission failures. Op names the round-trip.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Code() reasoncodes.ReasonCode { return reasoncodes.ErrNetwork }

func Network(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err}
}

type InsufficientFundsError struct {
	Account  string
	Balance  uint64
	Required uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("account %s holds %d lamports, at least %d required", e.Account, e.Balance, e.Required)
}

func (e *InsufficientFundsError) Code() reasoncodes.ReasonCode {
	return reasoncodes.ErrInsufficientFunds
}

type UnauthorizedError struct {
	Action   string
	Signer   string
	Required string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s requires authority %s, signer is %s", e.Action, e.Required, e.Signer)
}

func (e *UnauthorizedError) Code() reasoncodes.ReasonCode { return reasoncodes.ErrUnauthorized }

// CodeOf finds the first coded error in err's chain.
func CodeOf(err error) reasoncodes.ReasonCode {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return reasoncodes.ErrUnknown
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}
