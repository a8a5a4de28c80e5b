package apperr

import (
	"errors"
	"fmt"
)

// AppError carries a failure kind and a message that is safe to show to a client.
type AppError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

func New(kind Kind, message string) error {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) error {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

func Validation(msg string) error    { return New(KindValidation, msg) }
func Duplicate(msg string) error     { return New(KindDuplicate, msg) }
func NotFound(msg string) error      { return New(KindNotFound, msg) }
func AlreadyOnline(msg string) error { return New(KindAlreadyOnline, msg) }
func WrongPassword(msg string) error { return New(KindWrongPassword, msg) }
func State(msg string) error         { return New(KindState, msg) }
func Protocol(msg string) error      { return New(KindProtocol, msg) }

func Unauthenticated(msg string) error {
	return New(KindUnauthenticated, msg)
}

func IO(msg string, cause error) error {
	return Wrap(KindIO, msg, cause)
}

// KindOf reports the kind of the first AppError in err's chain.
// Errors from outside this package are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message, without the wrapped cause.
func Message(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
