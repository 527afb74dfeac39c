package tracing

import (
	"strconv"

	"github.com/jt828/ollyllm-go/pkg/observability"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeDebug   = "debug"
)

type metrics struct {
	spansClosed   observability.Counter
	flushes       observability.Counter
	batchSize     observability.Histogram
	flushDuration observability.Timer
	buffered      observability.Gauge
	testResults   observability.Counter
}

func newMetrics(meter observability.Meter) *metrics {
	return &metrics{
		spansClosed: meter.Counter("ollyllm_spans_closed_total", observability.MetricOpt{
			Help: "Spans closed and appended to the export buffer.",
		}),
		flushes: meter.Counter("ollyllm_flush_total", observability.MetricOpt{
			Help:      "Non-empty flushes by outcome.",
			LabelKeys: []string{"outcome"},
		}),
		batchSize: meter.Histogram("ollyllm_export_batch_size", observability.MetricOpt{
			Help:    "Spans per exported batch.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		flushDuration: meter.Timer("ollyllm_flush_duration_seconds", observability.MetricOpt{
			Help:    "Duration of non-empty flushes.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}),
		buffered: meter.Gauge("ollyllm_buffered_spans", observability.MetricOpt{
			Help: "Spans waiting in the export buffer.",
		}),
		testResults: meter.Counter("ollyllm_test_results_total", observability.MetricOpt{
			Help:      "Validator results by verdict.",
			LabelKeys: []string{"passed"},
		}),
	}
}

func (m *metrics) testResult(passed bool) {
	m.testResults.Inc(1, observability.Label{Key: "passed", Value: strconv.FormatBool(passed)})
}

func outcomeLabel(outcome string) observability.Label {
	return observability.Label{Key: "outcome", Value: outcome}
}
