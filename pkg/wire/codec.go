package wire

import (
	"time"

	"github.com/jt828/ollyllm-go/pkg/model"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

func (s *Schema) EncodeReportSpanRequest(batch model.SpanBatch) *dynamicpb.Message {
	req := dynamicpb.NewMessage(s.reportSpanRequest)
	spans := req.Mutable(field(s.reportSpanRequest, "spans")).List()
	for _, r := range batch.Spans {
		v := spans.NewElement()
		encodeSpan(v.Message(), r)
		spans.Append(v)
	}
	req.Set(field(s.reportSpanRequest, "batch_id"), protoreflect.ValueOfInt64(batch.ID))
	return req
}

func (s *Schema) DecodeReportSpanRequest(req protoreflect.Message) model.SpanBatch {
	md := req.Descriptor()
	batch := model.SpanBatch{
		ID: req.Get(field(md, "batch_id")).Int(),
	}
	spans := req.Get(field(md, "spans")).List()
	batch.Spans = make([]model.SpanRecord, 0, spans.Len())
	for i := 0; i < spans.Len(); i++ {
		batch.Spans = append(batch.Spans, decodeSpan(spans.Get(i).Message()))
	}
	return batch
}

func (s *Schema) NewReportSpanResponse(accepted int) *dynamicpb.Message {
	resp := dynamicpb.NewMessage(s.reportSpanResponse)
	resp.Set(field(s.reportSpanResponse, "accepted"), protoreflect.ValueOfInt32(int32(accepted)))
	return resp
}

func (s *Schema) DecodeReportSpanResponse(resp protoreflect.Message) int {
	return int(resp.Get(field(resp.Descriptor(), "accepted")).Int())
}

func (s *Schema) EncodeReportTestResultRequest(results []model.TestResult) *dynamicpb.Message {
	req := dynamicpb.NewMessage(s.reportTestResultRequest)
	list := req.Mutable(field(s.reportTestResultRequest, "results")).List()
	for _, r := range results {
		v := list.NewElement()
		encodeTestResult(v.Message(), r)
		list.Append(v)
	}
	return req
}

func (s *Schema) DecodeReportTestResultRequest(req protoreflect.Message) []model.TestResult {
	list := req.Get(field(req.Descriptor(), "results")).List()
	results := make([]model.TestResult, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		results = append(results, decodeTestResult(list.Get(i).Message()))
	}
	return results
}

func (s *Schema) NewReportTestResultResponse() *dynamicpb.Message {
	return dynamicpb.NewMessage(s.reportTestResultResponse)
}

func (s *Schema) EncodeGetTraceRequest(traceID string) *dynamicpb.Message {
	req := dynamicpb.NewMessage(s.getTraceRequest)
	req.Set(field(s.getTraceRequest, "trace_id"), protoreflect.ValueOfString(traceID))
	return req
}

func (s *Schema) DecodeGetTraceRequest(req protoreflect.Message) string {
	return req.Get(field(req.Descriptor(), "trace_id")).String()
}

func (s *Schema) NewGetTraceResponse(spans []model.SpanRecord) *dynamicpb.Message {
	resp := dynamicpb.NewMessage(s.getTraceResponse)
	list := resp.Mutable(field(s.getTraceResponse, "spans")).List()
	for _, r := range spans {
		v := list.NewElement()
		encodeSpan(v.Message(), r)
		list.Append(v)
	}
	return resp
}

func (s *Schema) DecodeGetTraceResponse(resp protoreflect.Message) []model.SpanRecord {
	list := resp.Get(field(resp.Descriptor(), "spans")).List()
	spans := make([]model.SpanRecord, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		spans = append(spans, decodeSpan(list.Get(i).Message()))
	}
	return spans
}

func (s *Schema) EncodeGetSpanResultsRequest(spanID string) *dynamicpb.Message {
	req := dynamicpb.NewMessage(s.getSpanResultsRequest)
	req.Set(field(s.getSpanResultsRequest, "span_id"), protoreflect.ValueOfString(spanID))
	return req
}

func (s *Schema) DecodeGetSpanResultsRequest(req protoreflect.Message) string {
	return req.Get(field(req.Descriptor(), "span_id")).String()
}

func (s *Schema) NewGetSpanResultsResponse(results []model.TestResult) *dynamicpb.Message {
	resp := dynamicpb.NewMessage(s.getSpanResultsResponse)
	list := resp.Mutable(field(s.getSpanResultsResponse, "results")).List()
	for _, r := range results {
		v := list.NewElement()
		encodeTestResult(v.Message(), r)
		list.Append(v)
	}
	return resp
}

func (s *Schema) DecodeGetSpanResultsResponse(resp protoreflect.Message) []model.TestResult {
	list := resp.Get(field(resp.Descriptor(), "results")).List()
	results := make([]model.TestResult, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		results = append(results, decodeTestResult(list.Get(i).Message()))
	}
	return results
}

func encodeSpan(m protoreflect.Message, r model.SpanRecord) {
	md := m.Descriptor()
	m.Set(field(md, "id"), protoreflect.ValueOfString(r.ID))
	if r.ParentID != "" {
		m.Set(field(md, "parent_id"), protoreflect.ValueOfString(r.ParentID))
	}
	m.Set(field(md, "trace_id"), protoreflect.ValueOfString(r.TraceID))
	m.Set(field(md, "operation_name"), protoreflect.ValueOfString(r.OperationName))
	setTimestamp(m, field(md, "start_timestamp"), r.StartTime)
	if !r.EndTime.IsZero() {
		setTimestamp(m, field(md, "end_timestamp"), r.EndTime)
	}

	if len(r.Logs) == 0 {
		return
	}
	logs := m.Mutable(field(md, "logs")).List()
	for _, l := range r.Logs {
		v := logs.NewElement()
		encodeLog(v.Message(), l)
		logs.Append(v)
	}
}

func decodeSpan(m protoreflect.Message) model.SpanRecord {
	md := m.Descriptor()
	r := model.SpanRecord{
		ID:            m.Get(field(md, "id")).String(),
		TraceID:       m.Get(field(md, "trace_id")).String(),
		OperationName: m.Get(field(md, "operation_name")).String(),
		StartTime:     getTimestamp(m, field(md, "start_timestamp")),
		EndTime:       getTimestamp(m, field(md, "end_timestamp")),
	}
	if fd := field(md, "parent_id"); m.Has(fd) {
		r.ParentID = m.Get(fd).String()
	}

	logs := m.Get(field(md, "logs")).List()
	for i := 0; i < logs.Len(); i++ {
		r.Logs = append(r.Logs, decodeLog(logs.Get(i).Message()))
	}
	return r
}

func encodeLog(m protoreflect.Message, l model.SpanLog) {
	md := m.Descriptor()
	m.Set(field(md, "level"), protoreflect.ValueOfString(l.Level))
	m.Set(field(md, "message"), protoreflect.ValueOfString(l.Message))
	m.Set(field(md, "error"), protoreflect.ValueOfString(l.Error))
	setTimestamp(m, field(md, "timestamp"), l.Timestamp)
	if len(l.Metadata) == 0 {
		return
	}
	meta := m.Mutable(field(md, "metadata")).Map()
	for k, v := range l.Metadata {
		meta.Set(protoreflect.ValueOfString(k).MapKey(), protoreflect.ValueOfString(v))
	}
}

func decodeLog(m protoreflect.Message) model.SpanLog {
	md := m.Descriptor()
	l := model.SpanLog{
		Level:     m.Get(field(md, "level")).String(),
		Message:   m.Get(field(md, "message")).String(),
		Error:     m.Get(field(md, "error")).String(),
		Timestamp: getTimestamp(m, field(md, "timestamp")),
	}
	meta := m.Get(field(md, "metadata")).Map()
	if meta.Len() > 0 {
		l.Metadata = make(map[string]string, meta.Len())
		meta.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
			l.Metadata[k.String()] = v.String()
			return true
		})
	}
	return l
}

func encodeTestResult(m protoreflect.Message, r model.TestResult) {
	md := m.Descriptor()
	m.Set(field(md, "span_id"), protoreflect.ValueOfString(r.SpanID))
	m.Set(field(md, "trace_id"), protoreflect.ValueOfString(r.TraceID))
	m.Set(field(md, "test_id"), protoreflect.ValueOfString(r.TestID))
	m.Set(field(md, "test_version"), protoreflect.ValueOfString(r.TestVersion))
	m.Set(field(md, "passed"), protoreflect.ValueOfBool(r.Passed))
	m.Set(field(md, "error"), protoreflect.ValueOfString(r.Error))
	setTimestamp(m, field(md, "timestamp"), r.Timestamp)
}

func decodeTestResult(m protoreflect.Message) model.TestResult {
	md := m.Descriptor()
	return model.TestResult{
		SpanID:      m.Get(field(md, "span_id")).String(),
		TraceID:     m.Get(field(md, "trace_id")).String(),
		TestID:      m.Get(field(md, "test_id")).String(),
		TestVersion: m.Get(field(md, "test_version")).String(),
		Passed:      m.Get(field(md, "passed")).Bool(),
		Error:       m.Get(field(md, "error")).String(),
		Timestamp:   getTimestamp(m, field(md, "timestamp")),
	}
}

// google.protobuf.Timestamp is handled through reflection because the
// compiled schema carries its own descriptor for it.
func setTimestamp(m protoreflect.Message, fd protoreflect.FieldDescriptor, t time.Time) {
	ts := m.Mutable(fd).Message()
	tmd := ts.Descriptor()
	ts.Set(field(tmd, "seconds"), protoreflect.ValueOfInt64(t.Unix()))
	ts.Set(field(tmd, "nanos"), protoreflect.ValueOfInt32(int32(t.Nanosecond())))
}

func getTimestamp(m protoreflect.Message, fd protoreflect.FieldDescriptor) time.Time {
	if !m.Has(fd) {
		return time.Time{}
	}
	ts := m.Get(fd).Message()
	tmd := ts.Descriptor()
	return time.Unix(ts.Get(field(tmd, "seconds")).Int(), ts.Get(field(tmd, "nanos")).Int()).UTC()
}
