// Package ui serves the embedded browser client.
package ui

import (
	_ "embed"
	"net/http"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
)

//go:embed index.html
var indexHTML []byte

// Handler serves the chat page.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if _, err := w.Write(indexHTML); err != nil {
			logx.Log.Error().Err(err).Msg("write index page")
		}
	}
}
