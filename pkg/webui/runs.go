package webui

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run statuses reported by the registry.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// RunInfo is the registry's public view of a synthesis run.
type RunInfo struct {
	ID         string    `json:"id"`
	Task       string    `json:"task"`
	Status     string    `json:"status"`
	Iterations int       `json:"iterations"`
	StartedAt  time.Time `json:"startedAt"`
}

type runEntry struct {
	info   RunInfo
	cancel context.CancelFunc
}

// runRegistry tracks live and recent synthesis runs so the cancel endpoint
// and the runs listing have something to act on.
type runRegistry struct {
	mu   sync.RWMutex
	runs map[string]*runEntry
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*runEntry)}
}

// add registers a new running entry and returns its generated ID.
func (r *runRegistry) add(task string, cancel context.CancelFunc) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[id] = &runEntry{
		info: RunInfo{
			ID:        id,
			Task:      task,
			Status:    RunStatusRunning,
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}
	return id
}

// setIterations records progress for a running entry.
func (r *runRegistry) setIterations(id string, iterations int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.runs[id]; ok {
		entry.info.Iterations = iterations
	}
}

// finish moves an entry to a terminal status.
func (r *runRegistry) finish(id, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.runs[id]; ok {
		entry.info.Status = status
		entry.cancel = nil
	}
}

// cancelRun cancels a running entry. Returns false when the run is unknown
// or already finished.
func (r *runRegistry) cancelRun(id string) bool {
	r.mu.Lock()
	entry, ok := r.runs[id]
	var cancel context.CancelFunc
	if ok && entry.cancel != nil {
		cancel = entry.cancel
	}
	r.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// cancelAll cancels every running entry, used at server shutdown.
func (r *runRegistry) cancelAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.runs))
	for _, entry := range r.runs {
		if entry.cancel != nil {
			cancels = append(cancels, entry.cancel)
		}
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// list returns all known runs, newest first.
func (r *runRegistry) list() []RunInfo {
	r.mu.RLock()
	infos := make([]RunInfo, 0, len(r.runs))
	for _, entry := range r.runs {
		infos = append(infos, entry.info)
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.After(infos[j].StartedAt)
	})
	return infos
}
