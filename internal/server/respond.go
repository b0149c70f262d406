package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"splitbook/internal/apperr"
)

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps an application error to an HTTP status and a coded
// JSON body. Unrecognized errors surface as 500 without leaking
// internals.
func writeError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	status := statusOf(code)

	message := "internal error"
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		message = "internal error"
		code = apperr.CodeInternal
	}

	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidGroup, apperr.CodeInvalidBill, apperr.CodeInvalidMember:
		return http.StatusNotFound
	case apperr.CodeInvalidArgument, apperr.CodeIndexOutOfRange, apperr.CodeAmountMismatch,
		apperr.CodeEmptyContribution, apperr.CodeInvalidAmount:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
