package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"order-service/internal/app"
	"order-service/internal/core"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeJSONStatus(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps a service error to an HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrCatalogNotSeeded):
		// checked first: it wraps the ReferenceError for the missing initial status
		return http.StatusInternalServerError, "CATALOG_NOT_SEEDED"
	case errors.Is(err, core.ErrOrderNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrInvalidReference), errors.Is(err, core.ErrReferenceNotFound):
		return http.StatusBadRequest, "INVALID_REFERENCE"
	case errors.Is(err, core.ErrInvalidOrder):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, core.ErrOrderNumberExhausted):
		return http.StatusInternalServerError, "ORDER_NUMBER_EXHAUSTED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// writeServiceError renders err using statusForError. Server-side failures are
// logged and their detail is withheld from the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("code", code),
			zap.Error(err),
		)
		message := "internal server error"
		if code != "INTERNAL_ERROR" {
			message = err.Error()
		}
		writeError(w, r, message, code, status)
		return
	}

	resp := errorResponse{
		Error:     err.Error(),
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	var ve *app.ValidationError
	if errors.As(err, &ve) {
		resp.Code = "VALIDATION_FAILED"
		resp.Fields = ve.Fields
	}
	writeJSONStatus(w, status, resp)
}
