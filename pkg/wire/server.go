package wire

import (
	"context"

	"github.com/jt828/ollyllm-go/pkg/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

type CollectorServer interface {
	ReportSpan(ctx context.Context, batch model.SpanBatch) (int, error)
	ReportTestResult(ctx context.Context, results []model.TestResult) error
	GetTrace(ctx context.Context, traceID string) ([]model.SpanRecord, error)
	GetSpanResults(ctx context.Context, spanID string) ([]model.TestResult, error)
}

// UnimplementedCollectorServer answers every method with codes.Unimplemented.
// Embed it to implement part of the service.
type UnimplementedCollectorServer struct{}

func (UnimplementedCollectorServer) ReportSpan(context.Context, model.SpanBatch) (int, error) {
	return 0, status.Error(codes.Unimplemented, "method ReportSpan not implemented")
}

func (UnimplementedCollectorServer) ReportTestResult(context.Context, []model.TestResult) error {
	return status.Error(codes.Unimplemented, "method ReportTestResult not implemented")
}

func (UnimplementedCollectorServer) GetTrace(context.Context, string) ([]model.SpanRecord, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTrace not implemented")
}

func (UnimplementedCollectorServer) GetSpanResults(context.Context, string) ([]model.TestResult, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSpanResults not implemented")
}

func RegisterCollectorServer(registrar grpc.ServiceRegistrar, srv CollectorServer) error {
	s, err := LoadSchema()
	if err != nil {
		return err
	}
	registrar.RegisterService(s.serviceDesc(), srv)
	return nil
}

func (s *Schema) serviceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*CollectorServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "ReportSpan", Handler: s.unary(ReportSpanMethod, s.reportSpanRequest, s.reportSpan)},
			{MethodName: "ReportTestResult", Handler: s.unary(ReportTestResultMethod, s.reportTestResultRequest, s.reportTestResult)},
			{MethodName: "GetTrace", Handler: s.unary(GetTraceMethod, s.getTraceRequest, s.getTrace)},
			{MethodName: "GetSpanResults", Handler: s.unary(GetSpanResultsMethod, s.getSpanResultsRequest, s.getSpanResults)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: protoPath,
	}
}

type unaryCall func(ctx context.Context, srv CollectorServer, req *dynamicpb.Message) (*dynamicpb.Message, error)

// unary decodes the request into a dynamic message of type request and runs
// call behind the server's interceptor chain.
func (s *Schema) unary(method string, request protoreflect.MessageDescriptor, call unaryCall) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := dynamicpb.NewMessage(request)
		if err := dec(in); err != nil {
			return nil, err
		}
		handle := func(ctx context.Context, req any) (any, error) {
			resp, err := call(ctx, srv.(CollectorServer), req.(*dynamicpb.Message))
			if err != nil {
				return nil, err
			}
			return resp, nil
		}
		if interceptor == nil {
			return handle(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, handle)
	}
}

func (s *Schema) reportSpan(ctx context.Context, srv CollectorServer, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	accepted, err := srv.ReportSpan(ctx, s.DecodeReportSpanRequest(req))
	if err != nil {
		return nil, err
	}
	return s.NewReportSpanResponse(accepted), nil
}

func (s *Schema) reportTestResult(ctx context.Context, srv CollectorServer, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	if err := srv.ReportTestResult(ctx, s.DecodeReportTestResultRequest(req)); err != nil {
		return nil, err
	}
	return s.NewReportTestResultResponse(), nil
}

func (s *Schema) getTrace(ctx context.Context, srv CollectorServer, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	spans, err := srv.GetTrace(ctx, s.DecodeGetTraceRequest(req))
	if err != nil {
		return nil, err
	}
	return s.NewGetTraceResponse(spans), nil
}

func (s *Schema) getSpanResults(ctx context.Context, srv CollectorServer, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	results, err := srv.GetSpanResults(ctx, s.DecodeGetSpanResultsRequest(req))
	if err != nil {
		return nil, err
	}
	return s.NewGetSpanResultsResponse(results), nil
}
