// Package wire carries the collector protocol: the embedded collector.proto,
// compiled at runtime, plus codecs between dynamic protobuf messages and the
// model types, and hand-built gRPC client and server bindings.
package wire

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const protoPath = "ollyllm/v1/collector.proto"

const (
	ServiceName            = "ollyllm.v1.OllyllmService"
	ReportSpanMethod       = "/" + ServiceName + "/ReportSpan"
	ReportTestResultMethod = "/" + ServiceName + "/ReportTestResult"
	GetTraceMethod         = "/" + ServiceName + "/GetTrace"
	GetSpanResultsMethod   = "/" + ServiceName + "/GetSpanResults"
)

//go:embed collector.proto
var collectorProto string

type Schema struct {
	File    protoreflect.FileDescriptor
	Service protoreflect.ServiceDescriptor

	spanLog                  protoreflect.MessageDescriptor
	span                     protoreflect.MessageDescriptor
	reportSpanRequest        protoreflect.MessageDescriptor
	reportSpanResponse       protoreflect.MessageDescriptor
	testResult               protoreflect.MessageDescriptor
	reportTestResultRequest  protoreflect.MessageDescriptor
	reportTestResultResponse protoreflect.MessageDescriptor
	getTraceRequest          protoreflect.MessageDescriptor
	getTraceResponse         protoreflect.MessageDescriptor
	getSpanResultsRequest    protoreflect.MessageDescriptor
	getSpanResultsResponse   protoreflect.MessageDescriptor
}

var (
	schemaOnce sync.Once
	schema     *Schema
	schemaErr  error
)

// LoadSchema compiles collector.proto once per process.
func LoadSchema() (*Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = compileSchema(context.Background())
	})
	return schema, schemaErr
}

func compileSchema(ctx context.Context) (*Schema, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(map[string]string{
				protoPath: collectorProto,
			}),
		}),
	}

	files, err := compiler.Compile(ctx, protoPath)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", protoPath, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("compile %s: no file produced", protoPath)
	}
	fd := files[0]

	s := &Schema{File: fd}
	s.Service = fd.Services().ByName("OllyllmService")
	if s.Service == nil {
		return nil, fmt.Errorf("service %s not found in %s", ServiceName, protoPath)
	}

	targets := []struct {
		name protoreflect.Name
		dst  *protoreflect.MessageDescriptor
	}{
		{"SpanLog", &s.spanLog},
		{"Span", &s.span},
		{"ReportSpanRequest", &s.reportSpanRequest},
		{"ReportSpanResponse", &s.reportSpanResponse},
		{"TestResult", &s.testResult},
		{"ReportTestResultRequest", &s.reportTestResultRequest},
		{"ReportTestResultResponse", &s.reportTestResultResponse},
		{"GetTraceRequest", &s.getTraceRequest},
		{"GetTraceResponse", &s.getTraceResponse},
		{"GetSpanResultsRequest", &s.getSpanResultsRequest},
		{"GetSpanResultsResponse", &s.getSpanResultsResponse},
	}
	for _, t := range targets {
		md := fd.Messages().ByName(t.name)
		if md == nil {
			return nil, fmt.Errorf("message %s not found in %s", t.name, protoPath)
		}
		*t.dst = md
	}

	return s, nil
}

func field(md protoreflect.MessageDescriptor, name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := md.Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("wire: field %s.%s not found", md.FullName(), name))
	}
	return fd
}
