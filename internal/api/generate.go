package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/metrics"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/relay"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/serverstate"
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

// Validate resolves the request against cat.
func (g GenerateRequest) Validate(cat *models.Catalog) (models.Descriptor, error) {
	if strings.TrimSpace(g.Prompt) == "" {
		return models.Descriptor{}, &ValidationError{Message: "Prompt is required"}
	}
	d, ok := cat.Resolve(g.Model)
	if !ok {
		return models.Descriptor{}, &ValidationError{Message: "Invalid model selection"}
	}
	return d, nil
}

// GenerateHandler handles POST /api/generate. The reply is the model's text
// streamed as it arrives; failures before the first fragment are JSON and
// failures after it are appended to the text.
func GenerateHandler(cat *models.Catalog, reg *provider.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := chiMiddleware.GetReqID(r.Context())
		if serverstate.IsDraining() {
			writeError(w, http.StatusServiceUnavailable, "Server is draining")
			return
		}
		var req GenerateRequest
		// An empty body is validated like {}.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			metrics.RecordGenerate("", "", metrics.OutcomeRejected)
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		desc, err := req.Validate(cat)
		if err != nil {
			logx.Log.Info().Str("request_id", reqID).Str("model", req.Model).Err(err).Msg("generate rejected")
			metrics.RecordGenerate(req.Model, "", metrics.OutcomeRejected)
			writeError(w, statusFor(err), err.Error())
			return
		}
		adapter, ok := reg.Adapter(desc.Provider)
		if !ok {
			err := fmt.Errorf("no adapter registered for provider %s", desc.Provider)
			logx.Log.Error().Str("request_id", reqID).Err(err).Msg("generate")
			metrics.RecordGenerate(desc.ID, string(desc.Provider), metrics.OutcomeError)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		defer metrics.StreamStarted()()

		genID := uuid.NewString()
		sw := relay.NewStreamWriter(w)
		sw.Header().Set("X-Generation-Id", genID)
		log := logx.Log.With().Str("request_id", reqID).Str("generation_id", genID).
			Str("model", desc.ID).Str("provider", string(desc.Provider)).Logger()
		log.Info().Msg("dispatch")

		start := time.Now()
		var res relay.Result
		frags, err := adapter.Stream(r.Context(), provider.Request{
			Prompt: req.Prompt,
			Model:  desc.UpstreamName,
			System: provider.SystemInstruction,
		})
		if err == nil {
			res = relay.Copy(sw, frags)
			err = res.Err
		}
		dur := time.Since(start)
		metrics.RecordStream(desc.ID, string(desc.Provider), res.Fragments, res.Bytes, dur)

		if err != nil {
			outcome := metrics.OutcomeError
			if sw.Committed() {
				outcome = metrics.OutcomePartial
			}
			metrics.RecordGenerate(desc.ID, string(desc.Provider), outcome)
			log.Warn().Err(err).Int64("bytes", res.Bytes).Dur("duration", dur).Bool("committed", sw.Committed()).Msg("stream failed")
			if ferr := sw.Fail(statusFor(err), err.Error()); ferr != nil {
				log.Debug().Err(ferr).Msg("report stream failure")
			}
			return
		}
		if !sw.Committed() {
			// The provider finished without producing any text.
			_ = sw.WriteStatus(http.StatusOK)
		}
		metrics.RecordGenerate(desc.ID, string(desc.Provider), metrics.OutcomeSuccess)
		log.Info().Int("fragments", res.Fragments).Int64("bytes", res.Bytes).Dur("duration", dur).Msg("complete")
	}
}
