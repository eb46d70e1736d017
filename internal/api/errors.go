package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
)

// ValidationError rejects a request before any provider is contacted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// statusFor maps an error to the status used when nothing has been streamed.
func statusFor(err error) int {
	var ve *ValidationError
	var ce *provider.ConfigurationError
	switch {
	case errors.As(err, &ve), errors.As(err, &ce):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
