package wire

import (
	"context"

	"github.com/jt828/ollyllm-go/pkg/model"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"
)

type CollectorClient struct {
	cc     grpc.ClientConnInterface
	schema *Schema
}

func NewCollectorClient(cc grpc.ClientConnInterface) (*CollectorClient, error) {
	s, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	return &CollectorClient{cc: cc, schema: s}, nil
}

// ReportSpan returns the number of spans the collector accepted.
func (c *CollectorClient) ReportSpan(ctx context.Context, batch model.SpanBatch, opts ...grpc.CallOption) (int, error) {
	in := c.schema.EncodeReportSpanRequest(batch)
	out := dynamicpb.NewMessage(c.schema.reportSpanResponse)
	if err := c.cc.Invoke(ctx, ReportSpanMethod, in, out, opts...); err != nil {
		return 0, err
	}
	return c.schema.DecodeReportSpanResponse(out), nil
}

func (c *CollectorClient) ReportTestResult(ctx context.Context, results []model.TestResult, opts ...grpc.CallOption) error {
	in := c.schema.EncodeReportTestResultRequest(results)
	out := dynamicpb.NewMessage(c.schema.reportTestResultResponse)
	return c.cc.Invoke(ctx, ReportTestResultMethod, in, out, opts...)
}

func (c *CollectorClient) GetTrace(ctx context.Context, traceID string, opts ...grpc.CallOption) ([]model.SpanRecord, error) {
	in := c.schema.EncodeGetTraceRequest(traceID)
	out := dynamicpb.NewMessage(c.schema.getTraceResponse)
	if err := c.cc.Invoke(ctx, GetTraceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return c.schema.DecodeGetTraceResponse(out), nil
}

func (c *CollectorClient) GetSpanResults(ctx context.Context, spanID string, opts ...grpc.CallOption) ([]model.TestResult, error) {
	in := c.schema.EncodeGetSpanResultsRequest(spanID)
	out := dynamicpb.NewMessage(c.schema.getSpanResultsResponse)
	if err := c.cc.Invoke(ctx, GetSpanResultsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return c.schema.DecodeGetSpanResultsResponse(out), nil
}
