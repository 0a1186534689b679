// Package httpx provides the HTTP surface of the integrations service.
package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// errorEnvelope is the JSON shape of every error response: a stable machine
// code plus a human-readable message.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DecodeJSON strictly decodes the request body into dst, rejecting unknown
// fields. On failure it writes a 400 envelope and returns false so the caller
// can bail out without writing a second response.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

// WriteJSON encodes v into a buffer before touching the ResponseWriter so an
// encoding failure can still become a clean 500 instead of a half-written
// body.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// A write error here means the client disconnected; nothing left to do.
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes the standard error envelope.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, errorEnvelope{Error: p.ErrCode, Message: p.Err.Error()})
}
