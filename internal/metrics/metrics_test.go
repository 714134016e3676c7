package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(reservationConflicts.WithLabelValues("capacity_exceeded"))
	IncReservationConflict("capacity_exceeded")
	assert.Equal(t, before+1, testutil.ToFloat64(reservationConflicts.WithLabelValues("capacity_exceeded")))

	ObserveHTTP("availability.day", 404, 3*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("availability.day", "4xx")))
}

func TestCodeLabel(t *testing.T) {
	assert.Equal(t, "2xx", codeLabel(201))
	assert.Equal(t, "3xx", codeLabel(304))
	assert.Equal(t, "4xx", codeLabel(429))
	assert.Equal(t, "5xx", codeLabel(503))
}
