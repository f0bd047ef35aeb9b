package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ccm/internal/apperr"
	"ccm/internal/logging"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusFor(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch apperr.GetCode(err) {
	case apperr.CodeValidationError:
		return http.StatusUnprocessableEntity
	case apperr.CodeInvalidInput, apperr.CodeLookupError:
		return http.StatusBadRequest
	case apperr.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := apperr.GetCode(err)
	if code == "UNKNOWN" {
		code = apperr.CodeInternalError
	}
	event := logging.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logging.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("code", code).Int("status", status).Msg("Request failed")

	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
