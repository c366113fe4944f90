// internal/common/errors/handler.go
package errors

import (
	"net/http"
)

// ErrorHandler turns handler errors into the API's JSON error body and logs them.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err and returns the status code and response body.
// Client errors surface their own message; server errors surface fallback
// with the underlying cause in "error" and the upstream payload in "details".
func (h *ErrorHandler) Handle(fallback string, err error) (int, map[string]interface{}) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr)

	body := map[string]interface{}{
		"code": stdErr.Code,
	}

	if status < http.StatusInternalServerError {
		body["message"] = stdErr.Message
		body["error"] = stdErr.Message
		if stdErr.Details != "" {
			body["error"] = stdErr.Details
		}
	} else {
		message := fallback
		if message == "" {
			message = stdErr.Message
		}
		body["message"] = message
		body["error"] = stdErr.Message
		if stdErr.Details != "" {
			body["error"] = stdErr.Details
		}
	}

	if len(stdErr.Upstream) > 0 {
		body["details"] = stdErr.Upstream
	}
	for k, v := range stdErr.Metadata {
		if _, taken := body[k]; !taken {
			body[k] = v
		}
	}

	h.log(status, stdErr)
	return status, body
}

func (h *ErrorHandler) log(status int, stdErr *StandardError) {
	if h.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"status":        status,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if len(stdErr.Upstream) > 0 {
		fields["upstream"] = string(stdErr.Upstream)
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields)
		return
	}
	h.logger.Warn("Request rejected", fields)
}
