package analysisGrpc

import (
	"context"

	"github.com/golang/protobuf/ptypes/empty"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "safemc.Analysis"

	listModelsMethod        = "/safemc.Analysis/ListModels"
	checkReachabilityMethod = "/safemc.Analysis/CheckReachability"
)

// The analysis service. Requests and responses use the well known protobuf types, so no generated code is needed.
type AnalysisServer interface {
	// The names of all models that can be checked
	ListModels(context.Context, *empty.Empty) (*structpb.ListValue, error)
	// Check whether the hazard of a model is reachable.
	//
	// The request has the fields "model" and "hazard", and optionally "workers" and "stateCapacity".
	CheckReachability(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterAnalysisServer(s grpc.ServiceRegistrar, srv AnalysisServer) {
	s.RegisterService(&Analysis_ServiceDesc, srv)
}

func listModelsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(empty.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalysisServer).ListModels(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listModelsMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalysisServer).ListModels(ctx, req.(*empty.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func checkReachabilityHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalysisServer).CheckReachability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: checkReachabilityMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalysisServer).CheckReachability(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var Analysis_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListModels",
			Handler:    listModelsHandler,
		},
		{
			MethodName: "CheckReachability",
			Handler:    checkReachabilityHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "safemc/analysis",
}
