package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeFetch        = "FETCH_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeInternal     = "INTERNAL_ERROR"

	// Render errors never reach the caller: the orchestrator falls back to
	// static markup. They are typed so the fallback can log them at the
	// right severity.
	ErrCodeRenderUnavailable = "RENDER_UNAVAILABLE"
	ErrCodeRenderFailed      = "RENDER_FAILED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx API response. Detail carries the
// human-readable message on its own so simple clients can show it directly.
type ErrorResponse struct {
	Detail string       `json:"detail"`
	Error  *ErrorDetail `json:"error"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToResponse converts an internal error to the API-facing error body.
func (e *ScrapeError) ToResponse() ErrorResponse {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return ErrorResponse{
		Detail: msg,
		Error:  &ErrorDetail{Code: e.Code, Message: msg},
	}
}
