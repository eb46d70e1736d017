package serverstate

import (
	"sync/atomic"
	"time"
)

// Lifecycle states reported by /api/state.
const (
	StatusNotReady = "not_ready"
	StatusReady    = "ready"
	StatusDraining = "draining"
	StatusUnknown  = "unknown"
)

// State is the router lifecycle snapshot. Fields change together so readers
// never see a draining flag without the matching status.
type State struct {
	Status   string    `json:"status"`
	Draining bool      `json:"draining"`
	Since    time.Time `json:"since"`
}

// Store persists the lifecycle state. Several router replicas may share one
// Redis-backed store so a drain started on one is visible to all.
type Store interface {
	Load() State
	Store(State)
}

var active atomic.Pointer[storeBox]

type storeBox struct{ s Store }

func init() {
	UseStore(NewMemoryStore())
}

// UseStore replaces the active Store. A nil store is ignored.
func UseStore(s Store) {
	if s != nil {
		active.Store(&storeBox{s: s})
	}
}

// Active returns the Store currently in use.
func Active() Store { return active.Load().s }

type memoryStore struct {
	v atomic.Value
}

// NewMemoryStore returns a process-local Store initialized to not_ready.
func NewMemoryStore() *memoryStore {
	ms := &memoryStore{}
	ms.v.Store(State{Status: StatusNotReady, Since: time.Now().UTC()})
	return ms
}

func (m *memoryStore) Load() State {
	if st, ok := m.v.Load().(State); ok {
		return st
	}
	return State{Status: StatusUnknown}
}

func (m *memoryStore) Store(s State) { m.v.Store(s) }

// SetState updates the lifecycle status.
func SetState(status string) {
	st := Active().Load()
	if st.Status != status {
		st.Since = time.Now().UTC()
	}
	st.Status = status
	Active().Store(st)
}

// GetState returns the lifecycle status.
func GetState() string { return Active().Load().Status }

// Snapshot returns the full lifecycle state.
func Snapshot() State { return Active().Load() }

// StartDrain marks the router as draining. New generations are refused from
// this point on.
func StartDrain() {
	Active().Store(State{Status: StatusDraining, Draining: true, Since: time.Now().UTC()})
}

// IsDraining reports whether a drain has started.
func IsDraining() bool { return Active().Load().Draining }
