package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeForbidden             ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized          ErrorCode = "UNAUTHORIZED"

	ErrCodeProjectNotFound      ErrorCode = "PROJECT_NOT_FOUND"
	ErrCodeApplicationNotFound  ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeScoringConfigInvalid ErrorCode = "SCORING_CONFIG_INVALID"
	ErrCodeWeightsInvalid       ErrorCode = "WEIGHTS_INVALID"
	ErrCodeSurveyTotalInvalid   ErrorCode = "SURVEY_TOTAL_INVALID"

	ErrCodeSelectionInvalid          ErrorCode = "SELECTION_INVALID"
	ErrCodeSelectionAlreadyConfirmed ErrorCode = "SELECTION_ALREADY_CONFIRMED"
	ErrCodeSelectionConfirmFailed    ErrorCode = "SELECTION_CONFIRM_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseUpdateFailed     ErrorCode = "DATABASE_UPDATE_FAILED"

	ErrCodeIndexingFailed ErrorCode = "INDEXING_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMetadata returns e after attaching a metadata key.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputValidationError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Input validation failed", details, false)
}

func NewForbiddenError(role, operation string) *StandardError {
	return newError(ErrCodeForbidden, "Role may not perform this operation",
		fmt.Sprintf("role: %s, operation: %s", role, operation), false)
}

func NewUnauthorizedError(details string) *StandardError {
	return newError(ErrCodeUnauthorized, "Authentication required", details, false)
}

func NewProjectNotFoundError(projectID string) *StandardError {
	return newError(ErrCodeProjectNotFound, "Project not found",
		fmt.Sprintf("projectId: %s", projectID), false)
}

func NewApplicationNotFoundError(applicationID string) *StandardError {
	return newError(ErrCodeApplicationNotFound, "Application not found",
		fmt.Sprintf("applicationId: %s", applicationID), false)
}

func NewScoringConfigInvalidError(details string) *StandardError {
	return newError(ErrCodeScoringConfigInvalid, "Scoring criteria configuration is invalid", details, false)
}

func NewWeightsInvalidError(details string) *StandardError {
	return newError(ErrCodeWeightsInvalid, "Project weights are invalid", details, false)
}

func NewSurveyTotalInvalidError(details string) *StandardError {
	return newError(ErrCodeSurveyTotalInvalid, "Survey scores must total 100", details, false)
}

func NewSelectionInvalidError(details string) *StandardError {
	return newError(ErrCodeSelectionInvalid, "Selection request is invalid", details, false)
}

func NewSelectionAlreadyConfirmedError(projectID string) *StandardError {
	return newError(ErrCodeSelectionAlreadyConfirmed, "Selection has already been confirmed",
		fmt.Sprintf("projectId: %s", projectID), false)
}

func NewSelectionConfirmFailedError(err error) *StandardError {
	return newError(ErrCodeSelectionConfirmFailed, "Bulk selection confirmation failed", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("queryType: %s", queryType), true)
}

func NewDatabaseUpdateFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseUpdateFailed, "Database update failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewIndexingFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Score indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewWorkflowEngineError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowEngineUnavailable, "Workflow engine request failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// AsStandardError unwraps err to a StandardError, wrapping unknown errors as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return errors.As(err, &stdErr) && stdErr.Code == code
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputValidationFailed:     "INPUT_VALIDATION_FAILED",
	ErrCodeProjectNotFound:           "PROJECT_NOT_FOUND",
	ErrCodeApplicationNotFound:       "APPLICATION_NOT_FOUND",
	ErrCodeScoringConfigInvalid:      "SCORING_CONFIG_INVALID",
	ErrCodeWeightsInvalid:            "WEIGHTS_INVALID",
	ErrCodeSurveyTotalInvalid:        "SURVEY_TOTAL_INVALID",
	ErrCodeSelectionInvalid:          "SELECTION_INVALID",
	ErrCodeSelectionAlreadyConfirmed: "SELECTION_ALREADY_CONFIRMED",
	ErrCodeSelectionConfirmFailed:    "SELECTION_CONFIRM_FAILED",
	ErrCodeDatabaseConnectionFailed:  "DATABASE_ERROR",
	ErrCodeQueryExecutionFailed:      "DATABASE_ERROR",
	ErrCodeQueryTimeout:              "DATABASE_ERROR",
	ErrCodeDatabaseUpdateFailed:      "DATABASE_ERROR",
	ErrCodeIndexingFailed:            "INDEXING_FAILED",
	ErrCodeNotificationSendFailed:    "NOTIFICATION_SEND_FAILED",
}

// IsBPMNCode reports whether code can be thrown to a process as a BPMN error.
func IsBPMNCode(code string) bool {
	for _, c := range BPMNErrorMapping {
		if c == code {
			return true
		}
	}
	return false
}

// GetRetryCount returns how many times Zeebe should retry a job failing with code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseUpdateFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeIndexingFailed,
		ErrCodeWorkflowEngineUnavailable:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	// the transaction was rolled back, so one more attempt is safe
	case ErrCodeSelectionConfirmFailed:
		return 1

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "SELECTION"):
		return "SELECTION"
	case strings.Contains(codeStr, "SCORING") || strings.Contains(codeStr, "WEIGHTS") ||
		strings.Contains(codeStr, "SURVEY"):
		return "SCORING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "INDEXING") || strings.Contains(codeStr, "WORKFLOW"):
		return "INFRASTRUCTURE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case code == ErrCodeForbidden || code == ErrCodeUnauthorized:
		return "AUTH"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code onto the status returned by the scoring API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInputValidationFailed, ErrCodeScoringConfigInvalid, ErrCodeWeightsInvalid,
		ErrCodeSurveyTotalInvalid, ErrCodeSelectionInvalid:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeProjectNotFound, ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case ErrCodeSelectionAlreadyConfirmed:
		return http.StatusConflict
	case ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeDatabaseConnectionFailed, ErrCodeWorkflowEngineUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
