package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describe(c prometheus.Collector) []string {
	ch := make(chan *prometheus.Desc, 32)
	c.Describe(ch)
	close(ch)
	var out []string
	for d := range ch {
		out = append(out, d.String())
	}
	return out
}

func TestNewPoolStatsCollector_NotNil(t *testing.T) {
	// Describe does not touch the pool, so nil is fine here.
	c := NewPoolStatsCollector(nil, "storefront")
	require.NotNil(t, c)
	assert.Equal(t, "storefront", c.service)

	var _ prometheus.Collector = c
}

func TestPoolStatsCollector_DescriptorNames(t *testing.T) {
	descs := describe(NewPoolStatsCollector(nil, "storefront"))
	require.Len(t, descs, 12)

	for _, name := range []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_total_connections",
		"db_pool_max_connections",
		"db_pool_constructing_connections",
		"db_pool_acquire_count_total",
		"db_pool_acquire_duration_seconds_total",
		"db_pool_canceled_acquire_count_total",
		"db_pool_empty_acquire_count_total",
		"db_pool_new_connections_total",
		"db_pool_max_lifetime_destroy_total",
		"db_pool_max_idle_destroy_total",
	} {
		found := false
		for _, d := range descs {
			if strings.Contains(d, `"`+name+`"`) {
				found = true
				break
			}
		}
		assert.True(t, found, "expected descriptor %q", name)
	}
}

func TestRegisterPoolMetrics_DuplicateFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPoolMetrics(reg, nil, "storefront"))
	assert.Error(t, RegisterPoolMetrics(reg, nil, "storefront"))
}
