package relay

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with a stable message and, when cause is set, its text
// under "details".
func writeError(w http.ResponseWriter, status int, message string, cause error) {
	resp := errorResponse{Error: message}
	if cause != nil {
		resp.Details = cause.Error()
	}
	writeJSON(w, status, resp)
}
