package implementation

import (
	"context"
	"errors"
	"time"

	"github.com/jt828/ollyllm-go/pkg/observability"
	"gorm.io/gorm"
)

type metricsStartTimeKey struct{}

// GormMetricsPlugin records latency and failures per operation and table.
// A lookup that finds nothing is counted as a query, not as an error.
type GormMetricsPlugin struct {
	queryLatency observability.Histogram
	queryTotal   observability.Counter
	queryErrors  observability.Counter
}

func NewGormMetricsPlugin(meter observability.Meter) *GormMetricsPlugin {
	labels := []string{"operation", "table"}
	return &GormMetricsPlugin{
		queryLatency: meter.Histogram("ollyllm_collector_db_query_duration_seconds", observability.MetricOpt{
			Help:      "Duration of collector database queries in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			LabelKeys: labels,
		}),
		queryTotal: meter.Counter("ollyllm_collector_db_query_total", observability.MetricOpt{
			Help:      "Total number of collector database queries",
			LabelKeys: labels,
		}),
		queryErrors: meter.Counter("ollyllm_collector_db_query_errors_total", observability.MetricOpt{
			Help:      "Total number of failed collector database queries",
			LabelKeys: labels,
		}),
	}
}

func (p *GormMetricsPlugin) Name() string {
	return "ollyllm:metrics"
}

func (p *GormMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("ollyllm:before_"+h.operation, p.before); err != nil {
			return err
		}
		if err := h.after("ollyllm:after_"+h.operation, p.after(h.operation)); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormMetricsPlugin) before(db *gorm.DB) {
	db.Statement.Context = context.WithValue(db.Statement.Context, metricsStartTimeKey{}, time.Now())
}

func (p *GormMetricsPlugin) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		labels := []observability.Label{
			{Key: "operation", Value: operation},
			{Key: "table", Value: table},
		}

		p.queryTotal.Inc(1, labels...)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			p.queryErrors.Inc(1, labels...)
		}
		if startTime, ok := db.Statement.Context.Value(metricsStartTimeKey{}).(time.Time); ok {
			p.queryLatency.Observe(time.Since(startTime).Seconds(), labels...)
		}
	}
}
