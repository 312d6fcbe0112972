package workers

import (
	"context"
	"time"

	"chat-relay/observability"
)

// ReporterWorker periodically logs the monitoring counters.
type ReporterWorker struct {
	monitor        *observability.MonitoringManager
	metricInterval time.Duration
}

func NewReporterWorker(monitor *observability.MonitoringManager, metricInterval time.Duration) *ReporterWorker {
	return &ReporterWorker{monitor: monitor, metricInterval: metricInterval}
}

func (w ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.monitor.Report()
		}
	}
}
