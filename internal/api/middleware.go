package api

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
)

func middlewareChain() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chiMiddleware.RequestID,
		requestLogger,
		chiMiddleware.Recoverer,
	}
}

// requestLogger logs one line per request once the handler returns. The
// wrapped writer keeps Flush so streamed replies are not buffered.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := chiMiddleware.GetReqID(r.Context())
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := logx.Log.Info()
		if status >= http.StatusInternalServerError {
			ev = logx.Log.Warn()
		}
		ev.Str("request_id", reqID).Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", status).Int("bytes", ww.BytesWritten()).Dur("duration", time.Since(start)).Msg("request")
	})
}
