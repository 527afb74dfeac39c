// Package tracing tracks nested spans for application code, propagates the
// active span through context.Context, buffers closed spans and exports them
// to a collector on a fixed interval.
package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jt828/ollyllm-go/pkg/exporter"
	exporterImpl "github.com/jt828/ollyllm-go/pkg/exporter/implementation"
	"github.com/jt828/ollyllm-go/pkg/observability"
	obsImpl "github.com/jt828/ollyllm-go/pkg/observability/implementation"
	"github.com/jt828/ollyllm-go/pkg/snowflake"
	snowflakeImpl "github.com/jt828/ollyllm-go/pkg/snowflake/implementation"
)

type Session struct {
	debug    bool
	log      observability.Logger
	tracer   observability.Tracer
	metrics  *metrics
	exporter exporter.Exporter
	buffer   Buffer
	now      func() time.Time
	newID    func() string
	batchIDs snowflake.Snowflake

	flushMu sync.Mutex

	trackMu sync.Mutex
	closing bool
	pending sync.WaitGroup

	stop         chan struct{}
	stopped      chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error
}

func Init(opts Options, options ...Option) (*Session, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrInitialization)
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url is required", ErrInitialization)
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}

	st := settings{}
	for _, o := range options {
		o(&st)
	}

	if st.logger == nil {
		log, err := obsImpl.NewZapLogger(opts.Debug)
		if err != nil {
			return nil, fmt.Errorf("%w: logger: %v", ErrInitialization, err)
		}
		st.logger = log
	}
	if st.meter == nil {
		st.meter = obsImpl.NewPrometheusMeter()
	}
	if st.tracer == nil {
		st.tracer = obsImpl.NewNoopTracer()
	}
	if st.now == nil {
		st.now = time.Now
	}
	if st.newID == nil {
		st.newID = uuid.NewString
	}
	if st.batchIDs == nil {
		ids, err := snowflakeImpl.NewSnowflake(snowflake.NodeIDOrHost())
		if err != nil {
			return nil, fmt.Errorf("%w: batch ids: %v", ErrInitialization, err)
		}
		st.batchIDs = ids
	}

	exp := st.exporter
	switch {
	case opts.Debug:
		exp = exporterImpl.NewLogExporter(st.logger)
	case exp == nil:
		var err error
		exp, err = exporterImpl.NewCollectorExporter(exporterImpl.CollectorConfig{
			APIKey:  opts.APIKey,
			BaseURL: opts.BaseURL,
		}, st.meter)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInitialization, err)
		}
	}

	s := &Session{
		debug:    opts.Debug,
		log:      st.logger,
		tracer:   st.tracer,
		metrics:  newMetrics(st.meter),
		exporter: exp,
		now:      st.now,
		newID:    st.newID,
		batchIDs: st.batchIDs,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.run(opts.FlushInterval)

	return s, nil
}

// StartTrace starts a root span and binds it in the returned context.
func (s *Session) StartTrace(ctx context.Context, name string) (context.Context, *Span, error) {
	if active := SpanFromContext(ctx); active != nil && !active.IsClosed() {
		return ctx, nil, fmt.Errorf("start trace %q inside %q: %w", name, active.OperationName(), ErrTraceAlreadyActive)
	}
	span := newRootSpan(s.newID(), s.newID(), name, s.now)
	return ContextWithSpan(ctx, span), span, nil
}

// EndTrace closes the active root span and returns a context without an
// active span.
func (s *Session) EndTrace(ctx context.Context) (context.Context, error) {
	span := SpanFromContext(ctx)
	if span == nil {
		return ctx, fmt.Errorf("end trace: %w", ErrNoActiveTrace)
	}
	if !span.IsRoot() {
		return ctx, fmt.Errorf("end trace at %q: %w", span.OperationName(), ErrNotRootSpan)
	}
	if err := s.finish(span); err != nil {
		return ctx, err
	}
	return ContextWithSpan(ctx, nil), nil
}

func (s *Session) StartSpan(ctx context.Context, name string) (context.Context, *Span, error) {
	parent := SpanFromContext(ctx)
	if parent == nil {
		return ctx, nil, fmt.Errorf("start span %q: %w", name, ErrNoActiveTrace)
	}
	span, err := parent.newChild(s.newID(), name)
	if err != nil {
		return ctx, nil, err
	}
	return ContextWithSpan(ctx, span), span, nil
}

// EndSpan closes the active span and returns a context bound to its parent,
// or with no active span when the closed span was a root.
func (s *Session) EndSpan(ctx context.Context) (context.Context, error) {
	span := SpanFromContext(ctx)
	if span == nil {
		return ctx, fmt.Errorf("end span: %w", ErrNoActiveTrace)
	}
	if err := s.finish(span); err != nil {
		return ctx, err
	}
	return ContextWithSpan(ctx, span.Parent()), nil
}

func (s *Session) CurrentSpan(ctx context.Context) *Span {
	return SpanFromContext(ctx)
}

// Buffered reports how many closed spans wait for the next flush.
func (s *Session) Buffered() int {
	return s.buffer.Len()
}

func (s *Session) finish(span *Span) error {
	if !span.close() {
		return fmt.Errorf("end %q: %w", span.OperationName(), ErrSpanClosed)
	}
	s.buffer.Append(span.record())
	s.metrics.spansClosed.Inc(1)
	s.metrics.buffered.Set(float64(s.buffer.Len()))
	return nil
}

// track runs fn on a goroutine that Shutdown waits for. It reports false once
// shutdown has begun.
func (s *Session) track(fn func()) bool {
	s.trackMu.Lock()
	defer s.trackMu.Unlock()

	if s.closing {
		return false
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		fn()
	}()
	return true
}

// Shutdown stops the flush loop, waits for pending test reports, flushes what
// is left and shuts the exporter down. Later calls return the first result.
func (s *Session) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		close(s.stop)
		<-s.stopped

		s.trackMu.Lock()
		s.closing = true
		s.trackMu.Unlock()

		done := make(chan struct{})
		go func() {
			s.pending.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.log.Warn("pending test reports did not finish before shutdown", observability.Err(ctx.Err()))
		}

		s.Flush(ctx)
		s.shutdownErr = s.exporter.Shutdown(ctx)
	})
	return s.shutdownErr
}
