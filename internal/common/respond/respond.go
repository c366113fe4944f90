// Package respond writes the JSON bodies every route returns.
package respond

import (
	"encoding/json"
	"net/http"

	"biaw-integrations/internal/common/errors"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the normalized error body produced by h.
func Error(w http.ResponseWriter, h *errors.ErrorHandler, fallback string, err error) {
	ErrorWith(w, h, fallback, err, nil)
}

// ErrorWith writes the error body merged with extra top-level fields.
func ErrorWith(w http.ResponseWriter, h *errors.ErrorHandler, fallback string, err error, extra map[string]interface{}) {
	status, body := h.Handle(fallback, err)
	for k, v := range extra {
		body[k] = v
	}
	JSON(w, status, body)
}

// Decode reads a JSON request body into dst, rejecting bodies over limit bytes.
func Decode(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errors.NewValidationError("Request body must be valid JSON: " + err.Error())
	}
	return nil
}
