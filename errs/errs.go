package errs

import (
	cr "github.com/cockroachdb/errors"
)

// Domain sentinels. Anything not marked with one of these is a storage failure.
var (
	ErrNotFound            = cr.New("not found")
	ErrConflict            = cr.New("conflict")
	ErrDuplicateName       = cr.New("duplicate name")
	ErrOutOfStock          = cr.New("out of stock")
	ErrInsufficientBalance = cr.New("insufficient balance")
	ErrInvalidInput        = cr.New("invalid input")
	ErrPreconditionLost    = cr.New("precondition lost")
)

var domain = []error{
	ErrNotFound,
	ErrConflict,
	ErrDuplicateName,
	ErrOutOfStock,
	ErrInsufficientBalance,
	ErrInvalidInput,
	ErrPreconditionLost,
}

func New(msg string) error {
	return cr.New(msg)
}

func Newf(format string, args ...any) error {
	return cr.Newf(format, args...)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}

// Reject builds a domain error carrying a detail message.
func Reject(kind error, format string, args ...any) error {
	return cr.Mark(cr.Newf(format, args...), kind)
}

func Is(err, reference error) bool {
	return cr.Is(err, reference)
}

// IsDomain reports whether err belongs to the recoverable taxonomy.
func IsDomain(err error) bool {
	for _, ref := range domain {
		if cr.Is(err, ref) {
			return true
		}
	}
	return false
}
