package tracing_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jt828/ollyllm-go/pkg/model"
	"github.com/jt828/ollyllm-go/pkg/observability"
	obsImpl "github.com/jt828/ollyllm-go/pkg/observability/implementation"
	snowflakeImpl "github.com/jt828/ollyllm-go/pkg/snowflake/implementation"
	"github.com/jt828/ollyllm-go/pkg/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level  string
	msg    string
	fields []observability.Field
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, fields []observability.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields ...observability.Field) { l.add("debug", msg, fields) }
func (l *recordingLogger) Error(msg string, fields ...observability.Field) { l.add("error", msg, fields) }
func (l *recordingLogger) Fatal(msg string, fields ...observability.Field) { l.add("fatal", msg, fields) }
func (l *recordingLogger) Info(msg string, fields ...observability.Field)  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields ...observability.Field)  { l.add("warn", msg, fields) }
func (l *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return l
}

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

func (e logEntry) field(key string) any {
	for _, f := range e.fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

type recordingExporter struct {
	mu        sync.Mutex
	batches   []model.SpanBatch
	results   []model.TestResult
	exportErr error
	shutdowns int

	// when set, ExportSpans signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (e *recordingExporter) ExportSpans(_ context.Context, batch model.SpanBatch) error {
	if e.entered != nil {
		e.entered <- struct{}{}
		<-e.release
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, batch)
	return e.exportErr
}

func (e *recordingExporter) ReportTestResults(_ context.Context, results []model.TestResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = append(e.results, results...)
	return nil
}

func (e *recordingExporter) Shutdown(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdowns++
	return nil
}

func (e *recordingExporter) exported() []model.SpanBatch {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.SpanBatch(nil), e.batches...)
}

func (e *recordingExporter) testResults() []model.TestResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.TestResult(nil), e.results...)
}

type fixture struct {
	session  *tracing.Session
	exporter *recordingExporter
	log      *recordingLogger
	registry *prometheus.Registry
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func newFixture(t *testing.T, opts tracing.Options, options ...tracing.Option) *fixture {
	t.Helper()

	if opts.APIKey == "" {
		opts.APIKey = "test-key"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "localhost:50051"
	}
	if opts.FlushInterval == 0 {
		opts.FlushInterval = time.Hour
	}

	f := &fixture{
		exporter: &recordingExporter{},
		log:      &recordingLogger{},
		registry: prometheus.NewRegistry(),
	}
	ids, err := snowflakeImpl.NewSnowflake(1)
	require.NoError(t, err)

	base := []tracing.Option{
		tracing.WithLogger(f.log),
		tracing.WithMeter(obsImpl.NewPrometheusMeterWithRegistry(f.registry)),
		tracing.WithExporter(f.exporter),
		tracing.WithBatchIDs(ids),
		tracing.WithIDGenerator(sequentialIDs()),
	}
	f.session, err = tracing.Init(opts, append(base, options...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.session.Shutdown(context.Background()) })

	return f
}

func (f *fixture) flushRecords(t *testing.T) []model.SpanRecord {
	t.Helper()
	before := len(f.exporter.exported())
	f.session.Flush(context.Background())
	batches := f.exporter.exported()
	var out []model.SpanRecord
	for _, b := range batches[before:] {
		out = append(out, b.Spans...)
	}
	return out
}

func (f *fixture) metricValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v != lp.GetValue() {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func byName(records []model.SpanRecord) map[string]model.SpanRecord {
	out := make(map[string]model.SpanRecord, len(records))
	for _, r := range records {
		out[r.OperationName] = r
	}
	return out
}
