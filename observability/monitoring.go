package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// EngineStats aggregates the counters exposed on the debug endpoint.
type EngineStats struct {
	MessagesPosted   uint64 `json:"messages_posted"`
	MessagesRejected uint64 `json:"messages_rejected"`
	Refreshes        uint64 `json:"refreshes"`
	StoreErrors      uint64 `json:"store_errors"`
	ActiveSessions   int64  `json:"active_sessions"`

	AllocMemMb uint64  `json:"alloc_mem_mb"`
	NumGC      uint32  `json:"num_gc"`
	SelfRssMb  uint64  `json:"self_rss_mb"`
	SelfCPU    float64 `json:"self_cpu_percent"`
}

// Monitor collects engine telemetry with atomic counters.
// Safe for concurrent use from every session and worker.
type Monitor struct {
	log *slog.Logger

	messagesPosted   atomic.Uint64
	messagesRejected atomic.Uint64
	refreshes        atomic.Uint64
	storeErrors      atomic.Uint64
	activeSessions   atomic.Int64

	mu        sync.RWMutex
	selfRssMb uint64
	selfCPU   float64
	lastCheck time.Time
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log, lastCheck: time.Now()}
}

func (m *Monitor) MessagePosted()   { m.messagesPosted.Add(1) }
func (m *Monitor) MessageRejected() { m.messagesRejected.Add(1) }
func (m *Monitor) Refreshed()       { m.refreshes.Add(1) }
func (m *Monitor) StoreError()      { m.storeErrors.Add(1) }
func (m *Monitor) SessionOpened()   { m.activeSessions.Add(1) }
func (m *Monitor) SessionClosed()   { m.activeSessions.Add(-1) }

// ReportSelfStats is fed by the heartbeat worker.
func (m *Monitor) ReportSelfStats(rssBytes uint64, cpuPercent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selfRssMb = rssBytes / 1024 / 1024
	m.selfCPU = cpuPercent
	m.lastCheck = time.Now()
}

// GetLatest snapshots every counter plus current Go runtime memory figures.
func (m *Monitor) GetLatest() EngineStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.mu.RLock()
	defer m.mu.RUnlock()
	return EngineStats{
		MessagesPosted:   m.messagesPosted.Load(),
		MessagesRejected: m.messagesRejected.Load(),
		Refreshes:        m.refreshes.Load(),
		StoreErrors:      m.storeErrors.Load(),
		ActiveSessions:   m.activeSessions.Load(),
		AllocMemMb:       mem.Alloc / 1024 / 1024,
		NumGC:            mem.NumGC,
		SelfRssMb:        m.selfRssMb,
		SelfCPU:          m.selfCPU,
	}
}
