package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// BadRequestError means caller supplied data violates a precondition.
type BadRequestError struct {
	Reason string
}

func NewBadRequestError(format string, args ...interface{}) *BadRequestError {
	return &BadRequestError{Reason: fmt.Sprintf(format, args...)}
}

func (e *BadRequestError) Error() string {
	return e.Reason
}

// NotFoundError means the referenced server does not currently exist.
type NotFoundError struct {
	Id string
}

func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{Id: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("server not found with identifier: %s", e.Id)
}

// InternalError reports a state the lifecycle asserts cannot happen.
type InternalError struct {
	Cause error
}

func NewInternalError(cause error) *InternalError {
	return &InternalError{Cause: cause}
}

func (e *InternalError) Error() string {
	if e.Cause == nil {
		return "internal error"
	}
	return "internal error: " + e.Cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func IsBadRequest(err error) bool {
	var target *BadRequestError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target *InternalError
	return errors.As(err, &target)
}
