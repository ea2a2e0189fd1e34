// Package errors defines the prediction error taxonomy and its mapping to
// HTTP responses and BPMN job errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Domain Errors
// ==========================

// MalformedInputError reports a field whose value could not be parsed or failed validation.
type MalformedInputError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed %s %q", e.Field, e.Value)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// NewMalformedInput builds a MalformedInputError.
func NewMalformedInput(field, value string, err error) *MalformedInputError {
	return &MalformedInputError{Field: field, Value: value, Err: err}
}

// ModelUnavailableError means no predictor is loaded. It persists until an operator redeploys.
type ModelUnavailableError struct {
	Reason string
	Err    error
}

func (e *ModelUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model unavailable: %s: %v", e.Reason, e.Err)
	}
	return "model unavailable: " + e.Reason
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// PredictorError wraps a failure raised by the underlying predictor.
type PredictorError struct {
	Model string
	Err   error
}

func (e *PredictorError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("predictor %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("predictor: %v", e.Err)
}

func (e *PredictorError) Unwrap() error { return e.Err }

// ==========================
// 2. Standard Error Types
// ==========================

// ErrorCode is the externally visible error code.
type ErrorCode string

const (
	ErrCodeMalformedInput        ErrorCode = "MALFORMED_INPUT"
	ErrCodeInvalidRequestBody    ErrorCode = "INVALID_REQUEST_BODY"
	ErrCodeModelUnavailable      ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodePredictorFailed       ErrorCode = "PREDICTOR_FAILED"
	ErrCodeRateLimited           ErrorCode = "RATE_LIMITED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
	ErrCodeArtifactLoadFailed    ErrorCode = "ARTIFACT_LOAD_FAILED"
	ErrCodeFeatureSchemaMismatch ErrorCode = "FEATURE_SCHEMA_MISMATCH"
)

// StandardError is the structured error carried in responses and job failures.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidRequestBodyError reports a body that is not a JSON object.
func NewInvalidRequestBodyError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequestBody,
		Message:   "Request body is not a valid JSON object",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError reports a request rejected by the limiter.
func NewRateLimitedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Too many requests",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewArtifactLoadError reports a model artifact that could not be read or decoded.
func NewArtifactLoadError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactLoadFailed,
		Message:   "Model artifact could not be loaded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Timestamp: time.Now().UTC(),
	}
}

// NewFeatureSchemaMismatchError reports an artifact trained on a different feature layout.
func NewFeatureSchemaMismatchError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFeatureSchemaMismatch,
		Message:   "Model feature layout does not match the encoder",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Normalization
// ==========================

// Normalize maps any error onto a StandardError. None of the prediction errors is retryable:
// inference is deterministic, so a retry reproduces the failure.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}

	var std *StandardError
	if stderrors.As(err, &std) {
		return std
	}

	var malformed *MalformedInputError
	if stderrors.As(err, &malformed) {
		return &StandardError{
			Code:    ErrCodeMalformedInput,
			Message: fmt.Sprintf("Malformed value for field %s", malformed.Field),
			Details: malformed.Error(),
			Metadata: map[string]interface{}{
				"field": malformed.Field,
				"value": malformed.Value,
			},
			Timestamp: time.Now().UTC(),
		}
	}

	var unavailable *ModelUnavailableError
	if stderrors.As(err, &unavailable) {
		return &StandardError{
			Code:      ErrCodeModelUnavailable,
			Message:   "Model not loaded",
			Details:   unavailable.Error(),
			Metadata:  map[string]interface{}{"subsystem": "predictor"},
			Timestamp: time.Now().UTC(),
		}
	}

	var pred *PredictorError
	if stderrors.As(err, &pred) {
		return &StandardError{
			Code:      ErrCodePredictorFailed,
			Message:   "Prediction error",
			Details:   pred.Error(),
			Metadata:  map[string]interface{}{"subsystem": "predictor"},
			Timestamp: time.Now().UTC(),
		}
	}

	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus returns the response status for an error code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequestBody:
		return http.StatusBadRequest
	case ErrCodeMalformedInput:
		return http.StatusUnprocessableEntity
	case ErrCodeModelUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. BPMN Error Integration
// ==========================

// BPMNError is thrown to the workflow engine by the job worker.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to the thrown error.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	vars := map[string]interface{}{
		"timestamp": stdErr.Timestamp.Format(time.RFC3339),
	}
	if field, ok := stdErr.Metadata["field"]; ok {
		vars["errorField"] = field
	}
	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: vars,
	}
}
