package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/inflight"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/logx"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/provider"
	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/serverstate"
)

// ProcessStats describes the router process and its host.
type ProcessStats struct {
	PID               int     `json:"pid"`
	Goroutines        int     `json:"goroutines"`
	RSSBytes          uint64  `json:"rss_bytes"`
	CPUPercent        float64 `json:"cpu_percent"`
	HostMemUsedPct    float64 `json:"host_mem_used_percent"`
	HostMemTotalBytes uint64  `json:"host_mem_total_bytes"`
}

// StateSnapshot is the body of GET /api/state.
type StateSnapshot struct {
	Status    string            `json:"status"`
	Draining  bool              `json:"draining"`
	Since     time.Time         `json:"since"`
	Version   string            `json:"version"`
	InFlight  int64             `json:"in_flight"`
	Models    int               `json:"models"`
	Providers []provider.Status `json:"providers"`
	Process   ProcessStats      `json:"process"`
}

// StateHandler serves lifecycle snapshots and streams.
type StateHandler struct {
	Catalog  *models.Catalog
	Registry *provider.Registry
	Inflight *inflight.Counter
	Version  string
	// Interval between streamed snapshots; defaults to two seconds.
	Interval time.Duration
	// Collect gathers process stats; defaults to gopsutil.
	Collect func(ctx context.Context) ProcessStats
}

func (h *StateHandler) snapshot(ctx context.Context) StateSnapshot {
	st := serverstate.Snapshot()
	s := StateSnapshot{
		Status:    st.Status,
		Draining:  st.Draining,
		Since:     st.Since,
		Version:   h.Version,
		Models:    len(h.Catalog.List()),
		Providers: h.Registry.Statuses(h.Catalog.Providers()),
	}
	if h.Inflight != nil {
		s.InFlight = h.Inflight.Load()
	}
	collect := h.Collect
	if collect == nil {
		collect = CollectProcessStats
	}
	s.Process = collect(ctx)
	return s
}

// GetState returns a JSON snapshot.
func (h *StateHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot(r.Context()))
}

// GetStateStream streams snapshots as Server-Sent Events.
func (h *StateHandler) GetStateStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	interval := h.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	send := func() bool {
		b, err := json.Marshal(h.snapshot(r.Context()))
		if err != nil {
			logx.Log.Error().Err(err).Msg("encode state")
			return false
		}
		if _, err := w.Write(append(append([]byte("data: "), b...), '\n', '\n')); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}

// CollectProcessStats reads process and host memory figures. Fields that
// cannot be read on this platform are left zero.
func CollectProcessStats(ctx context.Context) ProcessStats {
	st := ProcessStats{PID: os.Getpid(), Goroutines: runtime.NumGoroutine()}
	if p, err := process.NewProcessWithContext(ctx, int32(st.PID)); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			st.RSSBytes = mi.RSS
		}
		if c, err := p.CPUPercentWithContext(ctx); err == nil {
			st.CPUPercent = c
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		st.HostMemUsedPct = vm.UsedPercent
		st.HostMemTotalBytes = vm.Total
	}
	return st
}
