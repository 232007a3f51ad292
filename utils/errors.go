package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies casino errors by how they are reported
type ErrorKind int

const (
	KindUserInput ErrorKind = iota + 1
	KindStateConflict
	KindInsufficientFunds
	KindPermissionDenied
	KindCheatDetected
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindUserInput:
		return "user_input"
	case KindStateConflict:
		return "state_conflict"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindPermissionDenied:
		return "permission_denied"
	case KindCheatDetected:
		return "cheat_detected"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// CasinoError carries a reply-ready message and the kind that decides how it is surfaced.
type CasinoError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *CasinoError) Error() string {
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

func (e *CasinoError) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels, which carry no message.
func (e *CasinoError) Is(target error) bool {
	t, ok := target.(*CasinoError)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is
var (
	ErrUserInput         = &CasinoError{Kind: KindUserInput}
	ErrStateConflict     = &CasinoError{Kind: KindStateConflict}
	ErrInsufficientFunds = &CasinoError{Kind: KindInsufficientFunds}
	ErrPermissionDenied  = &CasinoError{Kind: KindPermissionDenied}
	ErrCheatDetected     = &CasinoError{Kind: KindCheatDetected}
	ErrInternal          = &CasinoError{Kind: KindInternal}
)

func newError(kind ErrorKind, format string, args ...interface{}) error {
	return &CasinoError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// UserInputError reports a malformed command
func UserInputError(format string, args ...interface{}) error {
	return newError(KindUserInput, format, args...)
}

// StateConflictError reports an action that is not valid right now
func StateConflictError(format string, args ...interface{}) error {
	return newError(KindStateConflict, format, args...)
}

// InsufficientFundsError reports a debit the player cannot cover
func InsufficientFundsError(format string, args ...interface{}) error {
	return newError(KindInsufficientFunds, format, args...)
}

// PermissionDeniedError reports an action blocked by permissions
func PermissionDeniedError(format string, args ...interface{}) error {
	return newError(KindPermissionDenied, format, args...)
}

// CheatDetectedError marks a bet dropped by the replay check
func CheatDetectedError(format string, args ...interface{}) error {
	return newError(KindCheatDetected, format, args...)
}

// InternalError wraps an unexpected failure
func InternalError(err error, format string, args ...interface{}) error {
	return &CasinoError{Kind: KindInternal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of a casino error, or KindInternal for anything else
func KindOf(err error) ErrorKind {
	var ce *CasinoError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

// ReplyText returns the message to show the sender for err
func ReplyText(err error) string {
	var ce *CasinoError
	if errors.As(err, &ce) && ce.Kind != KindInternal {
		return ce.Error()
	}
	return "Something went wrong, please try again."
}
