package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "dailyagg.v1.DailySummaryService"

// Method names. Requests and responses are google.protobuf.Struct objects
// whose fields are the camelCase JSON names of the request types below.
const (
	MethodPing          = "Ping"
	MethodRecordMeal    = "RecordMeal"
	MethodDeleteMeal    = "DeleteMeal"
	MethodRecordWorkout = "RecordWorkout"
	MethodUpdateWorkout = "UpdateWorkout"
	MethodDeleteWorkout = "DeleteWorkout"
	MethodSyncMetrics   = "SyncMetrics"
	MethodGetSummary    = "GetSummary"
	MethodGetToday      = "GetToday"
	MethodGetRange      = "GetRange"
	MethodListEntries   = "ListEntries"
	MethodRecompute     = "Recompute"
	MethodExportRange   = "ExportRange"
)

// FullMethod returns the "/service/method" path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// DailySummaryServer is implemented by GRPCServer.
type DailySummaryServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordMeal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteMeal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordWorkout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateWorkout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteWorkout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetToday(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRange(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEntries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Recompute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportRange(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(DailySummaryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DailySummaryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DailySummaryServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes DailySummaryService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DailySummaryServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodPing, DailySummaryServer.Ping),
		unaryHandler(MethodRecordMeal, DailySummaryServer.RecordMeal),
		unaryHandler(MethodDeleteMeal, DailySummaryServer.DeleteMeal),
		unaryHandler(MethodRecordWorkout, DailySummaryServer.RecordWorkout),
		unaryHandler(MethodUpdateWorkout, DailySummaryServer.UpdateWorkout),
		unaryHandler(MethodDeleteWorkout, DailySummaryServer.DeleteWorkout),
		unaryHandler(MethodSyncMetrics, DailySummaryServer.SyncMetrics),
		unaryHandler(MethodGetSummary, DailySummaryServer.GetSummary),
		unaryHandler(MethodGetToday, DailySummaryServer.GetToday),
		unaryHandler(MethodGetRange, DailySummaryServer.GetRange),
		unaryHandler(MethodListEntries, DailySummaryServer.ListEntries),
		unaryHandler(MethodRecompute, DailySummaryServer.Recompute),
		unaryHandler(MethodExportRange, DailySummaryServer.ExportRange),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dailyagg/v1/service",
}

// RegisterDailySummaryServer registers srv on s.
func RegisterDailySummaryServer(s grpc.ServiceRegistrar, srv DailySummaryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls DailySummaryService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req and decodes the response into out, which
// may be nil.
func (c *Client) Call(ctx context.Context, method string, req any, out any) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decodeStruct(resp, out)
}
