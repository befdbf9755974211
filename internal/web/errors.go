package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request ID; the client only sees the message from
// core.MapError, as JSON for API routes and as an HTML fragment otherwise.

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/nem12sql/internal/core"
	"github.com/JonMunkholm/nem12sql/internal/logging"
	"github.com/JonMunkholm/nem12sql/internal/web/templates"
)

// ErrorResponse is the JSON body of API error responses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Action string `json:"action,omitempty"`
	Code   string `json:"code"`
	RunID  string `json:"runId,omitempty"`
}

func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	respondRunError(w, r, err, status, "")
}

// respondRunError is respondError for a failure tied to a conversion run.
func respondRunError(w http.ResponseWriter, r *http.Request, err error, status int, runID string) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Log(r.Context(), logging.LevelForStatus(status), "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:  msg.Message,
			Action: msg.Action,
			Code:   msg.Code,
			RunID:  runID,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

// wantsJSON reports whether the client should get a JSON error body.
// Browser form posts to the API accept text/html and get the HTML fragment.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	if strings.Contains(accept, "text/html") {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSON encodes v as JSON. Encoding errors are only logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
