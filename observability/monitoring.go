package observability

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/domain/chat"
)

// recentMessagesDepth bounds the in-memory timeline kept for the inspector.
const recentMessagesDepth = 20

// MonitoringManager aggregates live counters for the debug inspector and
// for periodic log reporting. Counters on the hot path are atomics; the
// timeline ring is mutex-guarded since it only moves once per broadcast.
type MonitoringManager struct {
	log *slog.Logger

	Published        uint64
	Broadcasts       uint64
	DroppedSessions  uint64
	UnauthorizedHits uint64

	mu     sync.RWMutex
	recent []chat.Message

	sessionCount func() int
	proc         *process.Process
}

func NewMonitoringManager(log *slog.Logger, sessionCount func() int) *MonitoringManager {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug("process probing unavailable", "err", err)
		p = nil
	}
	return &MonitoringManager{
		log:          log,
		sessionCount: sessionCount,
		proc:         p,
	}
}

func (m *MonitoringManager) CountPublished()    { atomic.AddUint64(&m.Published, 1) }
func (m *MonitoringManager) CountBroadcast()    { atomic.AddUint64(&m.Broadcasts, 1) }
func (m *MonitoringManager) CountDropped()      { atomic.AddUint64(&m.DroppedSessions, 1) }
func (m *MonitoringManager) CountUnauthorized() { atomic.AddUint64(&m.UnauthorizedHits, 1) }

// RecordMessage appends to the bounded recent-messages timeline.
func (m *MonitoringManager) RecordMessage(message chat.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent = append(m.recent, message)
	if len(m.recent) > recentMessagesDepth {
		m.recent = m.recent[len(m.recent)-recentMessagesDepth:]
	}
}

// RecentMessages returns a copy of the timeline, newest last.
func (m *MonitoringManager) RecentMessages() []chat.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]chat.Message, len(m.recent))
	copy(out, m.recent)
	return out
}

// Stats builds the dynamic map displayed by the debug inspector.
func (m *MonitoringManager) Stats() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := map[string]any{
		"published":         atomic.LoadUint64(&m.Published),
		"broadcasts":        atomic.LoadUint64(&m.Broadcasts),
		"dropped_sessions":  atomic.LoadUint64(&m.DroppedSessions),
		"unauthorized_hits": atomic.LoadUint64(&m.UnauthorizedHits),
		"alloc_mem_mb":      mem.Alloc / 1024 / 1024,
		"num_gc":            mem.NumGC,
		"goroutines":        runtime.NumGoroutine(),
		"time":              time.Now().Format(time.RFC822),
	}
	if m.sessionCount != nil {
		stats["active_sessions"] = m.sessionCount()
	}
	if m.proc != nil {
		if info, err := m.proc.MemoryInfo(); err == nil {
			stats["rss_mb"] = info.RSS / 1024 / 1024
		}
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats["cpu_percent"] = fmt.Sprintf("%.1f", cpu)
		}
	}
	return stats
}

// Report logs a one-line summary; wired to the metric ticker in main.
func (m *MonitoringManager) Report() {
	m.log.Info("monitoring",
		"published", atomic.LoadUint64(&m.Published),
		"broadcasts", atomic.LoadUint64(&m.Broadcasts),
		"dropped_sessions", atomic.LoadUint64(&m.DroppedSessions),
		"unauthorized_hits", atomic.LoadUint64(&m.UnauthorizedHits))
}
