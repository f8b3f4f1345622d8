package sdav1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "sda.v1.ApprovalEngine"

// ApprovalEngineServer is the server API for the ApprovalEngine service.
type ApprovalEngineServer interface {
	ComputeRouting(context.Context, *RoutingRequest) (*RoutingResponse, error)
	PredictTimeline(context.Context, *PredictRequest) (*PredictResponse, error)
	Evaluate(context.Context, *EvaluateRequest) (*EvaluateResponse, error)
	ReconcileRouting(context.Context, *ReconcileRequest) (*ReconcileResponse, error)
	GetSnapshot(context.Context, *SnapshotRequest) (*SnapshotResponse, error)
	HealthCheck(context.Context, *HealthRequest) (*HealthResponse, error)
}

// UnimplementedApprovalEngineServer can be embedded to satisfy the interface.
type UnimplementedApprovalEngineServer struct{}

func (UnimplementedApprovalEngineServer) ComputeRouting(context.Context, *RoutingRequest) (*RoutingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ComputeRouting not implemented")
}

func (UnimplementedApprovalEngineServer) PredictTimeline(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PredictTimeline not implemented")
}

func (UnimplementedApprovalEngineServer) Evaluate(context.Context, *EvaluateRequest) (*EvaluateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Evaluate not implemented")
}

func (UnimplementedApprovalEngineServer) ReconcileRouting(context.Context, *ReconcileRequest) (*ReconcileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReconcileRouting not implemented")
}

func (UnimplementedApprovalEngineServer) GetSnapshot(context.Context, *SnapshotRequest) (*SnapshotResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSnapshot not implemented")
}

func (UnimplementedApprovalEngineServer) HealthCheck(context.Context, *HealthRequest) (*HealthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method HealthCheck not implemented")
}

// RegisterApprovalEngineServer attaches srv to the gRPC registrar.
func RegisterApprovalEngineServer(s grpc.ServiceRegistrar, srv ApprovalEngineServer) {
	s.RegisterService(&ApprovalEngineServiceDesc, srv)
}

// unaryHandler adapts a typed method into a grpc.MethodDesc handler.
func unaryHandler[Req any, Resp any](method string, call func(ApprovalEngineServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ApprovalEngineServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ApprovalEngineServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ApprovalEngineServiceDesc describes the ApprovalEngine service for registration.
var ApprovalEngineServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ApprovalEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ComputeRouting", ApprovalEngineServer.ComputeRouting),
		unaryHandler("PredictTimeline", ApprovalEngineServer.PredictTimeline),
		unaryHandler("Evaluate", ApprovalEngineServer.Evaluate),
		unaryHandler("ReconcileRouting", ApprovalEngineServer.ReconcileRouting),
		unaryHandler("GetSnapshot", ApprovalEngineServer.GetSnapshot),
		unaryHandler("HealthCheck", ApprovalEngineServer.HealthCheck),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sda/v1/approval_engine",
}

// ApprovalEngineClient is the client API for the ApprovalEngine service.
type ApprovalEngineClient struct {
	cc grpc.ClientConnInterface
}

// NewApprovalEngineClient wraps a connection; every call uses the JSON codec.
func NewApprovalEngineClient(cc grpc.ClientConnInterface) *ApprovalEngineClient {
	return &ApprovalEngineClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ApprovalEngineClient) ComputeRouting(ctx context.Context, in *RoutingRequest, opts ...grpc.CallOption) (*RoutingResponse, error) {
	return invoke[RoutingResponse](ctx, c.cc, "ComputeRouting", in, opts)
}

func (c *ApprovalEngineClient) PredictTimeline(ctx context.Context, in *PredictRequest, opts ...grpc.CallOption) (*PredictResponse, error) {
	return invoke[PredictResponse](ctx, c.cc, "PredictTimeline", in, opts)
}

func (c *ApprovalEngineClient) Evaluate(ctx context.Context, in *EvaluateRequest, opts ...grpc.CallOption) (*EvaluateResponse, error) {
	return invoke[EvaluateResponse](ctx, c.cc, "Evaluate", in, opts)
}

func (c *ApprovalEngineClient) ReconcileRouting(ctx context.Context, in *ReconcileRequest, opts ...grpc.CallOption) (*ReconcileResponse, error) {
	return invoke[ReconcileResponse](ctx, c.cc, "ReconcileRouting", in, opts)
}

func (c *ApprovalEngineClient) GetSnapshot(ctx context.Context, in *SnapshotRequest, opts ...grpc.CallOption) (*SnapshotResponse, error) {
	return invoke[SnapshotResponse](ctx, c.cc, "GetSnapshot", in, opts)
}

func (c *ApprovalEngineClient) HealthCheck(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error) {
	return invoke[HealthResponse](ctx, c.cc, "HealthCheck", in, opts)
}
