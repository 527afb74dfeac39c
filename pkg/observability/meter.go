package observability

// Meter creates named metrics. Asking twice for the same name returns a metric
// backed by the same series, so independent components may share a Meter.
type Meter interface {
	Counter(name string, opts ...MetricOpt) Counter
	Histogram(name string, opts ...MetricOpt) Histogram
	Gauge(name string, opts ...MetricOpt) Gauge
	Timer(name string, opts ...MetricOpt) Timer
}

// MetricOpt describes a metric. LabelKeys lists the labels every observation
// must carry; ConstLabels are fixed at creation.
type MetricOpt struct {
	Help        string
	Buckets     []float64
	ConstLabels []Label
	LabelKeys   []string
}

type Label struct {
	Key   string
	Value string
}

type Counter interface {
	Inc(v float64, labels ...Label)
}

type Histogram interface {
	Observe(v float64, labels ...Label)
}

type Gauge interface {
	Set(v float64, labels ...Label)
	Add(v float64, labels ...Label)
}

// Timer observes elapsed seconds when the func returned by Start is called.
// Labels are fixed when the timer starts.
type Timer interface {
	Start(labels ...Label) func()
}
