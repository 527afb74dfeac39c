package tracing

import (
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/jt828/ollyllm-go/pkg/model"
)

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

type LogEntry struct {
	Level     Level
	Message   string
	Err       error
	Metadata  map[string]string
	Timestamp time.Time
}

// Span is a timed unit of work. Identity fields are fixed at creation; the
// rest is guarded by mu because goroutines spawned from the owning flow may
// add children or logs concurrently.
type Span struct {
	id       string
	traceID  string
	parentID string
	name     string
	start    time.Time
	parent   *Span
	now      func() time.Time

	mu       sync.Mutex
	end      time.Time
	closed   bool
	logs     []LogEntry
	children []*Span
}

func newRootSpan(id, traceID, name string, now func() time.Time) *Span {
	return &Span{
		id:      id,
		traceID: traceID,
		name:    name,
		start:   now(),
		now:     now,
	}
}

func (s *Span) newChild(id, name string) (*Span, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("start %q under %q: %w", name, s.name, ErrSpanClosed)
	}
	child := &Span{
		id:       id,
		traceID:  s.traceID,
		parentID: s.id,
		name:     name,
		start:    s.now(),
		parent:   s,
		now:      s.now,
	}
	s.children = append(s.children, child)
	return child, nil
}

func (s *Span) ID() string            { return s.id }
func (s *Span) TraceID() string       { return s.traceID }
func (s *Span) ParentID() string      { return s.parentID }
func (s *Span) OperationName() string { return s.name }
func (s *Span) StartTime() time.Time  { return s.start }
func (s *Span) Parent() *Span         { return s.parent }
func (s *Span) IsRoot() bool          { return s.parentID == "" }

func (s *Span) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end
}

func (s *Span) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Span(nil), s.children...)
}

func (s *Span) Logs() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogEntry(nil), s.logs...)
}

// Log appends an entry. Entries added after the span closed are dropped.
func (s *Span) Log(level Level, message string, err error, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.logs = append(s.logs, LogEntry{
		Level:     level,
		Message:   message,
		Err:       err,
		Metadata:  maps.Clone(metadata),
		Timestamp: s.now(),
	})
}

func (s *Span) Info(message string, metadata map[string]string) {
	s.Log(LevelInfo, message, nil, metadata)
}

func (s *Span) Warn(message string, metadata map[string]string) {
	s.Log(LevelWarn, message, nil, metadata)
}

func (s *Span) Error(err error, metadata map[string]string) {
	var message string
	if err != nil {
		message = err.Error()
	}
	s.Log(LevelError, message, err, metadata)
}

// close sets the end time once and reports whether this call closed the span.
func (s *Span) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	end := s.now()
	if end.Before(s.start) {
		end = s.start
	}
	s.end = end
	s.closed = true
	return true
}

func (s *Span) record() model.SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := model.SpanRecord{
		ID:            s.id,
		ParentID:      s.parentID,
		TraceID:       s.traceID,
		OperationName: validUTF8(s.name),
		StartTime:     s.start,
		EndTime:       s.end,
	}
	if len(s.logs) > 0 {
		r.Logs = make([]model.SpanLog, 0, len(s.logs))
		for _, l := range s.logs {
			entry := model.SpanLog{
				Level:     string(l.Level),
				Message:   validUTF8(l.Message),
				Metadata:  validMetadata(l.Metadata),
				Timestamp: l.Timestamp,
			}
			if l.Err != nil {
				entry.Error = validUTF8(l.Err.Error())
			}
			r.Logs = append(r.Logs, entry)
		}
	}
	return r
}

// validUTF8 replaces invalid byte sequences. Exported text ends up in proto3
// string fields, which reject invalid UTF-8 for the whole message.
func validUTF8(v string) string {
	return strings.ToValidUTF8(v, "\uFFFD")
}

func validMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[validUTF8(k)] = validUTF8(v)
	}
	return out
}
