// Package metrics exposes Prometheus collectors for the editing server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/psidex/topoedit/internal/session"
	"github.com/psidex/topoedit/internal/topology"
)

// Metrics collects editing activity. All methods are safe for concurrent use.
type Metrics struct {
	mutations *prometheus.CounterVec
	sessions  prometheus.Gauge
	wsClients prometheus.Gauge
	savedSize prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "topoedit",
			Name:      "mutations_total",
			Help:      "Graph session store mutations, by kind.",
		}, []string{"kind"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "topoedit",
			Name:      "sessions",
			Help:      "Live editing sessions.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "topoedit",
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
		savedSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "topoedit",
			Name:      "nodes",
			Help:      "Node count of a session each time an edit is saved.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
	}
	reg.MustRegister(m.mutations, m.sessions, m.wsClients, m.savedSize)
	return m
}

// OnChange makes Metrics a topology.Listener.
func (m *Metrics) OnChange(c topology.Change) {
	m.mutations.WithLabelValues(string(c.Kind)).Inc()
	if c.Kind == topology.KindSaveEdit {
		m.savedSize.Observe(float64(len(c.State.Nodes)))
	}
}

func (m *Metrics) SessionOpened() { m.sessions.Inc() }
func (m *Metrics) SessionClosed() { m.sessions.Dec() }
func (m *Metrics) ClientJoined()  { m.wsClients.Inc() }
func (m *Metrics) ClientLeft()    { m.wsClients.Dec() }

// Watch counts r's sessions and subscribes to the store of every session r
// creates from now on.
func (m *Metrics) Watch(r *session.Registry) {
	r.OnCreate(func(s *session.Session) {
		s.Store.Subscribe(m)
		m.SessionOpened()
	})
	r.OnDelete(func(*session.Session) {
		m.SessionClosed()
	})
}
