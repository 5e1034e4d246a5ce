package cachemetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xshortlink/pkg/util/xlru"
)

func TestPrometheus_Counts(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m, err := New(reg, "shortlink", "cache")
	require.NoError(t, err)

	m.Hit()
	m.Hit()
	m.Miss()
	m.Evict(xlru.EvictCapacity)
	m.Evict(xlru.EvictExpired)
	m.Evict(xlru.EvictExpired)
	m.Size(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evicts.WithLabelValues("capacity")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.evicts.WithLabelValues("expired")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.entries))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 5, n, "hits, misses, entries and two eviction reasons")
}

func TestPrometheus_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "shortlink", "cache")
	require.NoError(t, err)

	_, err = New(reg, "shortlink", "cache")
	assert.Error(t, err)

	_, err = New(reg, "shortlink", "other")
	assert.NoError(t, err)
}

func TestPrometheus_WithCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg, "test", "lru")
	require.NoError(t, err)

	now := time.Unix(0, 0)
	c, err := xlru.New[string, int](xlru.Config{Size: 2, TTL: time.Minute},
		xlru.WithMetrics[string, int](m),
		xlru.WithClock[string, int](func() time.Time { return now }))
	require.NoError(t, err)

	require.NoError(t, c.Set("a", 1))
	require.NoError(t, c.Set("b", 2))
	require.NoError(t, c.Set("c", 3)) // 淘汰 a
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("c")
	assert.False(t, ok)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.hits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evicts.WithLabelValues("capacity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evicts.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.entries))
}
