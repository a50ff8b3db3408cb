package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogfront/errs"
)

func TestNewUsesPrivateRegistry(t *testing.T) {
	a, b := New(), New()
	a.FallbackPages.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.FallbackPages))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FallbackPages))

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestObserveGateway(t *testing.T) {
	m := New()
	m.ObserveGateway("list posts", 200, 20*time.Millisecond, nil)
	m.ObserveGateway("list posts", 0, time.Second, errs.Network("list posts", "Failed to fetch posts", errors.New("refused")))
	m.ObserveGateway("login", 0, time.Millisecond, errors.New("plain"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("list posts", "200", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("list posts", "0", "network")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("login", "0", "unknown")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.GatewayDuration))
}

func TestBreakerChanged(t *testing.T) {
	m := New()
	m.BreakerChanged("closed", "open")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState))
	m.BreakerChanged("open", "half-open")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerState))
	m.BreakerChanged("half-open", "closed")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BreakerState))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BreakerTransitions.WithLabelValues("open")))
}
