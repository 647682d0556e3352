package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeConflict     ErrorCode = "CONFLICT"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Generation pipeline errors
	CodeDocumentNotFound  ErrorCode = "DOCUMENT_NOT_FOUND"
	CodeQuizNotFound      ErrorCode = "QUIZ_NOT_FOUND"
	CodeQuotaExceeded     ErrorCode = "QUOTA_EXCEEDED"
	CodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	CodeEmptyExtraction   ErrorCode = "EMPTY_EXTRACTION"
	CodeMalformedOutput   ErrorCode = "MALFORMED_OUTPUT"
	CodeLLMServiceError   ErrorCode = "LLM_SERVICE_ERROR"
	CodeStorageError      ErrorCode = "STORAGE_ERROR"
	CodePersistenceError  ErrorCode = "PERSISTENCE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Context map[string]interface{} `json:"context,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Context: e.Context,
	})
}

// WithContext attaches a key/value pair that is rendered with the error response.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}

// AsDomainError unwraps err into a *DomainError if possible.
func AsDomainError(err error) (*DomainError, bool) {
	for err != nil {
		if de, ok := err.(*DomainError); ok {
			return de, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(CodeForbidden, message, nil)
}

func NewConflictError(message string) *DomainError {
	return NewError(CodeConflict, message, nil)
}

func NewDocumentNotFoundError(documentID string) *DomainError {
	return NewError(CodeDocumentNotFound, fmt.Sprintf("Document not found with ID: %s", documentID), nil)
}

func NewQuizNotFoundError(quizID string) *DomainError {
	return NewError(CodeQuizNotFound, fmt.Sprintf("Quiz not found with ID: %s", quizID), nil)
}

// NewQuotaExceededError builds the denial returned when a plan limit is hit.
// The plan name and upgrade hint travel in Context so the HTTP layer can render them.
func NewQuotaExceededError(plan string, resource ResourceType, limit int) *DomainError {
	msg := fmt.Sprintf("You've reached your %s plan limit for %s (%d).",
		plan, strings.ReplaceAll(string(resource), "_", " "), limit)
	return NewError(CodeQuotaExceeded, msg, nil).
		WithContext("plan", plan).
		WithContext("resource", string(resource)).
		WithContext("limit", limit)
}

func NewUnsupportedFormatError(mimeType, filename string) *DomainError {
	return NewError(CodeUnsupportedFormat,
		fmt.Sprintf("Unsupported document format (mime %q, file %q)", mimeType, filename), nil)
}

func NewEmptyExtractionError(chars, minimum int) *DomainError {
	return NewError(CodeEmptyExtraction,
		fmt.Sprintf("Could not extract enough text from document (%d characters, need at least %d)", chars, minimum), nil)
}

// NewMalformedOutputError never embeds the raw model output in the message.
func NewMalformedOutputError(reason string, cause error) *DomainError {
	return NewError(CodeMalformedOutput, "Model returned malformed quiz data: "+reason, cause)
}

func NewLLMServiceError(cause error) *DomainError {
	return NewError(CodeLLMServiceError, "Failed to process with LLM service", cause)
}

func NewStorageError(message string, cause error) *DomainError {
	return NewError(CodeStorageError, message, cause)
}

func NewPersistenceError(message string, cause error) *DomainError {
	return NewError(CodePersistenceError, message, cause)
}
