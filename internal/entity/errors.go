package entity

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidID       ErrorCode = "INVALID_ID"
	CodeValidation      ErrorCode = "VALIDATION"
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeConflict        ErrorCode = "CONFLICT"
)

// DomainError is an expected failure that is reported to the caller unchanged.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func InvalidID(what string) *DomainError {
	if what == "" {
		return &DomainError{Code: CodeInvalidID, Message: "Invalid ID"}
	}
	return &DomainError{Code: CodeInvalidID, Message: fmt.Sprintf("Invalid %s ID", what)}
}

func Validation(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

func Unauthenticated(message string) *DomainError {
	return &DomainError{Code: CodeUnauthenticated, Message: message}
}

func Forbidden(message string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: message}
}

func NotFound(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message}
}

func Conflict(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

var ErrDuplicateKey = Conflict("duplicate key")
