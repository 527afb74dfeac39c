package tracing

import (
	"sync"

	"github.com/jt828/ollyllm-go/pkg/model"
)

type Buffer struct {
	mu      sync.Mutex
	records []model.SpanRecord
}

func (b *Buffer) Append(r model.SpanRecord) {
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

// Drain hands the buffered records to the caller and leaves the buffer empty.
func (b *Buffer) Drain() []model.SpanRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	records := b.records
	b.records = nil
	return records
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
