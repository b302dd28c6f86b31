// Package errors provides structured error handling for the HR backend
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/Xinye0723/HrBackend/pkg/types"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Hierarchy errors
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeSelfParent             ErrorCode = "SELF_PARENT"
	ErrCodeCycleWouldForm         ErrorCode = "CYCLE_WOULD_FORM"
	ErrCodeHasChildren            ErrorCode = "HAS_CHILDREN"
	ErrCodeConcurrentModification ErrorCode = "CONCURRENT_MODIFICATION"

	// Authentication/Authorization errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// System errors
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
)

// HRError represents a structured error
type HRError struct {
	Type    types.ErrorType        `json:"type"`
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *HRError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *HRError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *HRError) WithDetail(key string, value interface{}) *HRError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Retryable reports whether the caller may retry the operation with a fresh snapshot
func (e *HRError) Retryable() bool {
	return e.Code == ErrCodeConcurrentModification
}

// NewHRError creates a new structured error
func NewHRError(errType types.ErrorType, code ErrorCode, message string) *HRError {
	return &HRError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// NewHRErrorWithCause creates a new structured error with a cause
func NewHRErrorWithCause(errType types.ErrorType, code ErrorCode, message string, cause error) *HRError {
	return &HRError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Validation error constructors
func NewValidationError(message string) *HRError {
	return NewHRError(types.ErrorTypeValidation, ErrCodeValidation, message)
}

func NewInvalidInputError(message string) *HRError {
	return NewHRError(types.ErrorTypeValidation, ErrCodeInvalidInput, message)
}

func NewMissingFieldError(field string) *HRError {
	return NewHRError(types.ErrorTypeValidation, ErrCodeMissingField,
		fmt.Sprintf("missing required field: %s", field)).WithDetail("field", field)
}

func NewAlreadyExistsError(resource string) *HRError {
	return NewHRError(types.ErrorTypeConflict, ErrCodeAlreadyExists,
		fmt.Sprintf("%s already exists", resource)).WithDetail("resource", resource)
}

// Hierarchy error constructors

// NewUnitNotFoundError reports a unit id (self, parent or new parent) that does not exist
func NewUnitNotFoundError(id int64) *HRError {
	return NewHRError(types.ErrorTypeNotFound, ErrCodeNotFound,
		fmt.Sprintf("unit %d not found", id)).WithDetail("unit_id", id)
}

func NewNotFoundError(resource string) *HRError {
	return NewHRError(types.ErrorTypeNotFound, ErrCodeNotFound,
		fmt.Sprintf("%s not found", resource)).WithDetail("resource", resource)
}

func NewSelfParentError(id int64) *HRError {
	return NewHRError(types.ErrorTypeInvalidStructure, ErrCodeSelfParent,
		fmt.Sprintf("unit %d cannot be its own parent", id)).WithDetail("unit_id", id)
}

func NewCycleError(id, parentID int64) *HRError {
	return NewHRError(types.ErrorTypeInvalidStructure, ErrCodeCycleWouldForm,
		fmt.Sprintf("moving unit %d under %d would create a cycle", id, parentID)).
		WithDetail("unit_id", id).WithDetail("parent_id", parentID)
}

func NewHasChildrenError(id int64, children int) *HRError {
	return NewHRError(types.ErrorTypeConflict, ErrCodeHasChildren,
		fmt.Sprintf("unit %d has %d children; move or delete them first", id, children)).
		WithDetail("unit_id", id).WithDetail("children", children)
}

func NewConcurrentModificationError(message string, cause error) *HRError {
	return NewHRErrorWithCause(types.ErrorTypeConflict, ErrCodeConcurrentModification, message, cause).
		WithDetail("retryable", true)
}

// Authentication/Authorization error constructors
func NewUnauthorizedError(message string) *HRError {
	return NewHRError(types.ErrorTypeUnauthorized, ErrCodeUnauthorized, message)
}

func NewForbiddenError(message string) *HRError {
	return NewHRError(types.ErrorTypeUnauthorized, ErrCodeForbidden, message)
}

func NewInvalidTokenError(cause error) *HRError {
	return NewHRErrorWithCause(types.ErrorTypeUnauthorized, ErrCodeInvalidToken, "invalid token", cause)
}

// System error constructors
func NewInternalError(message string) *HRError {
	return NewHRError(types.ErrorTypeInternal, ErrCodeInternal, message)
}

func NewInternalErrorWithCause(message string, cause error) *HRError {
	return NewHRErrorWithCause(types.ErrorTypeInternal, ErrCodeInternal, message, cause)
}

func NewDatabaseErrorWithCause(message string, cause error) *HRError {
	return NewHRErrorWithCause(types.ErrorTypeInternal, ErrCodeDatabaseError, message, cause)
}

func NewConfigInvalidError(message string) *HRError {
	return NewHRError(types.ErrorTypeValidation, ErrCodeConfigInvalid, message)
}

// GetHRError extracts an HRError from an error chain
func GetHRError(err error) *HRError {
	var hrErr *HRError
	if stderrors.As(err, &hrErr) {
		return hrErr
	}
	return nil
}

// IsHRError checks if an error chain contains an HRError
func IsHRError(err error) bool {
	return GetHRError(err) != nil
}

// HasCode reports whether the error chain carries the given code
func HasCode(err error, code ErrorCode) bool {
	hrErr := GetHRError(err)
	return hrErr != nil && hrErr.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

// IsInvalidStructure reports a self-parent or cycle rejection
func IsInvalidStructure(err error) bool {
	hrErr := GetHRError(err)
	return hrErr != nil && hrErr.Type == types.ErrorTypeInvalidStructure
}

func IsHasChildren(err error) bool {
	return HasCode(err, ErrCodeHasChildren)
}

func IsConcurrentModification(err error) bool {
	return HasCode(err, ErrCodeConcurrentModification)
}

// IsRetryable reports whether the caller may retry with a fresh snapshot
func IsRetryable(err error) bool {
	hrErr := GetHRError(err)
	return hrErr != nil && hrErr.Retryable()
}

// WrapError wraps an error as an HRError
func WrapError(err error, errType types.ErrorType, code ErrorCode, message string) *HRError {
	return NewHRErrorWithCause(errType, code, message, err)
}

// ErrorList represents a list of errors
type ErrorList struct {
	Errors []*HRError `json:"errors"`
}

// Error implements the error interface
func (el *ErrorList) Error() string {
	var messages []string
	for _, err := range el.Errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Add adds an error to the list
func (el *ErrorList) Add(err *HRError) {
	el.Errors = append(el.Errors, err)
}

// HasErrors returns true if there are errors
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Unwrap exposes the collected errors to errors.Is and errors.As, first one first
func (el *ErrorList) Unwrap() []error {
	errs := make([]error, len(el.Errors))
	for i, err := range el.Errors {
		errs[i] = err
	}
	return errs
}

// ToError returns nil for an empty list, the error itself for a single entry
// and the whole list otherwise
func (el *ErrorList) ToError() error {
	switch len(el.Errors) {
	case 0:
		return nil
	case 1:
		return el.Errors[0]
	default:
		return el
	}
}

// GetErrorList extracts an ErrorList from an error chain
func GetErrorList(err error) *ErrorList {
	var list *ErrorList
	if stderrors.As(err, &list) {
		return list
	}
	return nil
}

// NewErrorList creates a new error list
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*HRError, 0),
	}
}
