package numeric

import (
	"errors"
	"fmt"
)

// Error represents a failure inside the numeric domain layer.
//
// Errors are never retried by the layer itself. Callers inspect Code (or use
// the Is* helpers) to decide what to do.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Domain is the domain being operated on.
	Domain Domain

	// Other is the conflicting domain (DOMAIN_MISMATCH only).
	Other Domain

	// Input is the offending text (PARSE_ERROR only).
	Input string
}

// ErrorCode categorizes numeric errors.
type ErrorCode string

const (
	// ErrCodeParse indicates malformed or out-of-range numeric text.
	ErrCodeParse ErrorCode = "PARSE_ERROR"

	// ErrCodeOverflow indicates a fixed-width result that is not representable.
	ErrCodeOverflow ErrorCode = "ARITHMETIC_OVERFLOW"

	// ErrCodeDomainMismatch indicates operands bound to different domains.
	ErrCodeDomainMismatch ErrorCode = "DOMAIN_MISMATCH"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeParse:
		return fmt.Sprintf("%s: %s (domain=%s, input=%q)", e.Code, e.Message, e.Domain, e.Input)
	case ErrCodeDomainMismatch:
		return fmt.Sprintf("%s: %s (have=%s, got=%s)", e.Code, e.Message, e.Domain, e.Other)
	default:
		return fmt.Sprintf("%s: %s (domain=%s)", e.Code, e.Message, e.Domain)
	}
}

// NewParseError creates an Error for malformed numeric text.
func NewParseError(d Domain, input, message string) *Error {
	return &Error{
		Code:    ErrCodeParse,
		Message: message,
		Domain:  d,
		Input:   input,
	}
}

// NewOverflowError creates an Error for a result outside the domain's range.
func NewOverflowError(d Domain, message string) *Error {
	return &Error{
		Code:    ErrCodeOverflow,
		Message: message,
		Domain:  d,
	}
}

// NewDomainMismatchError creates an Error for operands of different domains.
// have is the domain already bound, got is the incoming one.
func NewDomainMismatchError(have, got Domain) *Error {
	return &Error{
		Code:    ErrCodeDomainMismatch,
		Message: "value domain does not match accumulator domain",
		Domain:  have,
		Other:   got,
	}
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not (and does
// not wrap) a numeric Error.
func CodeOf(err error) ErrorCode {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

// IsParseError reports whether err is a PARSE_ERROR.
func IsParseError(err error) bool {
	return CodeOf(err) == ErrCodeParse
}

// IsOverflow reports whether err is an ARITHMETIC_OVERFLOW.
func IsOverflow(err error) bool {
	return CodeOf(err) == ErrCodeOverflow
}

// IsDomainMismatch reports whether err is a DOMAIN_MISMATCH.
func IsDomainMismatch(err error) bool {
	return CodeOf(err) == ErrCodeDomainMismatch
}
