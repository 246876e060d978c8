// Package metrics exposes daemon counters to Prometheus.
package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/1broseidon/scrolltile/internal/actions"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

const namespace = "scrolltile"

// Metrics owns a private registry. All methods are safe for concurrent use.
type Metrics struct {
	Registry *prometheus.Registry

	actions    *prometheus.CounterVec
	frames     prometheus.Counter
	configures prometheus.Counter
	forced     prometheus.Counter
	staleAcks  prometheus.Counter
	repairs    prometheus.Counter
	reloads    *prometheus.CounterVec
	tree       *prometheus.GaugeVec

	mu   sync.Mutex
	last tiling.Stats
}

// New creates the collectors and registers them with Go and process
// collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Actions handled, by action name and result.",
		}, []string{"action", "result"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_presented_total",
			Help:      "Frames sent to the backend.",
		}),
		configures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "configure_requests_total",
			Help:      "Configure requests sent to clients.",
		}),
		forced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_commits_total",
			Help:      "Pending configures committed after the grace timeout.",
		}),
		staleAcks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_acks_total",
			Help:      "Configure acknowledgements for superseded serials.",
		}),
		repairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_repairs_total",
			Help:      "Structural repairs performed on the layout tree.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Config reloads, by result.",
		}, []string{"result"}),
		tree: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Current number of layout tree nodes, by kind.",
		}, []string{"kind"}),
	}
	m.Registry.MustRegister(
		m.actions, m.frames, m.configures, m.forced, m.staleAcks, m.repairs, m.reloads, m.tree,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAction counts one action. The result label separates engine
// rejections from parse errors.
func (m *Metrics) ObserveAction(name string, err error) {
	if name == "" {
		name = "unknown"
	}
	m.actions.WithLabelValues(name, resultOf(err)).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, tiling.ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, tiling.ErrNothingFocused):
		return "nothing_focused"
	case errors.Is(err, actions.ErrNoSuchAction), errors.Is(err, actions.ErrBadArgument):
		return "parse_error"
	default:
		return "error"
	}
}

// FramePresented counts one frame.
func (m *Metrics) FramePresented() { m.frames.Inc() }

// ObserveReload counts one config reload.
func (m *Metrics) ObserveReload(err error) {
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
}

// Update publishes engine stats. Cumulative engine counters are converted
// to Prometheus counters by adding the difference since the last call.
func (m *Metrics) Update(s tiling.Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addDelta(m.configures, s.ConfiguresSent, m.last.ConfiguresSent)
	addDelta(m.forced, s.ForcedCommits, m.last.ForcedCommits)
	addDelta(m.staleAcks, s.StaleAcks, m.last.StaleAcks)
	addDelta(m.repairs, s.Repairs, m.last.Repairs)
	m.last = s

	m.tree.WithLabelValues("outputs").Set(float64(s.Outputs))
	m.tree.WithLabelValues("workspaces").Set(float64(s.Workspaces))
	m.tree.WithLabelValues("columns").Set(float64(s.Columns))
	m.tree.WithLabelValues("tiles").Set(float64(s.Tiles))
	m.tree.WithLabelValues("pending").Set(float64(s.Pending))
}

func addDelta(c prometheus.Counter, now, before uint64) {
	if now > before {
		c.Add(float64(now - before))
	}
}
