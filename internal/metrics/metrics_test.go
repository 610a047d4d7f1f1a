package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestRegister_Conflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	clash := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quizzler_generations_total",
		Help: "same name, different shape",
	})
	require.NoError(t, reg.Register(clash))
	assert.Error(t, Register(reg))
}

func TestHandler_ExposesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	Generations.WithLabelValues("ok").Inc()
	LimiterDecisions.WithLabelValues("memory", "allowed").Inc()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `quizzler_generations_total{outcome="ok"}`), text)
	assert.True(t, strings.Contains(text, `quizzler_limiter_decisions_total{backend="memory",decision="allowed"}`), text)
}
