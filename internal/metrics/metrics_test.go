package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(AnalyzerCalls.WithLabelValues(OutcomeSkipped))
	AnalyzerCalls.WithLabelValues(OutcomeSkipped).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AnalyzerCalls.WithLabelValues(OutcomeSkipped)))

	before = testutil.ToFloat64(SignalsIngested.WithLabelValues("duplicate"))
	SignalsIngested.WithLabelValues("duplicate").Add(2)
	assert.Equal(t, before+2, testutil.ToFloat64(SignalsIngested.WithLabelValues("duplicate")))
}
