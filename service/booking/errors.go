package booking

import "errors"

// errors used by controllers

type ErrCode string

const (
	ErrValidation         ErrCode = "VALIDATION"
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrInsufficientUnits  ErrCode = "INSUFFICIENT_UNITS"
	ErrAllocationConflict ErrCode = "ALLOCATION_CONFLICT"
	ErrPaymentProvider    ErrCode = "PAYMENT_PROVIDER"
)

type codedError struct {
	code  ErrCode
	msg   string
	cause error
}

func (e codedError) Error() string {
	if e.msg != "" {
		return string(e.code) + ": " + e.msg
	}
	return string(e.code)
}
func (e codedError) Code() ErrCode { return e.code }
func (e codedError) Unwrap() error { return e.cause }

func makeErr(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

func wrapErr(c ErrCode, cause error) error {
	return codedError{code: c, msg: cause.Error(), cause: cause}
}

// Code extracts the error code, or "" for uncoded errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}
