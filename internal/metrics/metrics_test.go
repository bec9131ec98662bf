package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollectorsRecord(t *testing.T) {
	m := New()
	m.ChunksBuilt.Inc()
	m.ChunksBuilt.Inc()
	m.BorderChanges.WithLabelValues("+X").Inc()
	m.QueueLength.Set(5)

	out := scrape(t, m)
	assert.Contains(t, out, "voxelcore_chunks_built_total 2")
	assert.Contains(t, out, `voxelcore_light_border_changes_total{face="+X"} 1`)
	assert.Contains(t, out, "voxelcore_build_queue_length 5")
}

func TestInstancesDoNotCollide(t *testing.T) {
	require.NotPanics(t, func() {
		New()
		New()
	})
}

func TestHandlerServesText(t *testing.T) {
	m := New()
	m.EmptyChunks.Inc()
	assert.Contains(t, scrape(t, m), "voxelcore_chunks_empty_total 1")
}
