package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/topoedit/internal/lib"
	"github.com/psidex/topoedit/internal/session"
	"github.com/psidex/topoedit/internal/topology"
)

func TestMetrics_CountsStoreChanges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	s := topology.NewStore()
	s.Subscribe(m)
	s.AddNode(nil)
	s.AddNode(nil)
	_, err := s.SaveEdit()
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("addNode")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("saveEdit")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.savedSize))
}

func TestMetrics_Gauges(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.ClientJoined()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsClients))
}

func TestMetrics_WatchRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := session.NewRegistry(lib.DiscardLogger())
	m.Watch(r)

	a := r.Create()
	r.Create()
	a.Store.OpenDialog()
	require.NoError(t, r.Delete(a.ID))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("openDialog")))
}
