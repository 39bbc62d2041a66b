package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Pusher sends the collected metrics to a Prometheus Pushgateway.
// A Lambda process is never scraped, so each invocation pushes on exit.
type Pusher struct {
	pusher *push.Pusher
	logger *slog.Logger
}

// NewPusher returns a Pusher for the gateway at url, grouped by job and,
// when set, instance. Metrics are gathered from g, or the default registry
// when g is nil. It returns nil when url is empty.
func NewPusher(url, job, instance string, g prometheus.Gatherer, logger *slog.Logger) *Pusher {
	if url == "" {
		return nil
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := push.New(url, job).Gatherer(g)
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	return &Pusher{pusher: p, logger: logger}
}

// Push adds the current metric values to the gateway's group. A nil Pusher does nothing.
func (p *Pusher) Push(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if err := p.pusher.AddContext(ctx); err != nil {
		return err
	}
	p.logger.Debug("metrics pushed")
	return nil
}
