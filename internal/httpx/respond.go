package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vanshkansal25/Ecommerce-Backend/internal/apperr"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, msg string) {
	writeJSON(w, status, Response{Success: true, Status: status, Message: msg, Data: data})
}

// writeErr maps the error taxonomy onto the envelope. Internal detail leaks
// only in development mode; invariant violations additionally alert.
func writeErr(w http.ResponseWriter, log *slog.Logger, dev bool, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeOf(err)

	msg := "Something went wrong"
	var e *apperr.Error
	if errors.As(err, &e) && status < http.StatusInternalServerError {
		msg = e.Message
	}

	switch code {
	case apperr.CodeInvariant:
		log.Error("invariant violation observed", "err", err)
	case apperr.CodeInternal, apperr.CodeTransient:
		log.Error("request failed", "err", err)
	}
	if dev && status >= http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, Response{Success: false, Status: status, Message: msg, Data: nil})
}
