package analysisGrpc

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/golang/protobuf/ptypes/empty"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"safemc"
	"safemc/config"
	"safemc/exploration"
	"safemc/sparseMatrix"
	"safemc/stateManager"
)

// Serves the models of a registry over gRPC.
type Server struct {
	registry *safemc.Registry
	srv      *grpc.Server
	log      *slog.Logger
}

var _ AnalysisServer = (*Server)(nil)

// Create a server checking the models of r.
// Every call is logged with logger, which is also used for the analyses started by the call.
func NewServer(r *safemc.Registry, logger *slog.Logger, srvOpts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: r,
		log:      logger,
	}
	opts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(LoggingInterceptor(logger))}, srvOpts...)
	s.srv = grpc.NewServer(opts...)
	RegisterAnalysisServer(s.srv, s)
	return s
}

// Serve requests on lis. Blocks until the server is stopped.
func (s *Server) StartServer(lis net.Listener) error {
	return s.srv.Serve(lis)
}

func (s *Server) Stop() {
	s.srv.Stop()
}

func (s *Server) ListModels(ctx context.Context, _ *empty.Empty) (*structpb.ListValue, error) {
	names := s.registry.Names()
	values := make([]interface{}, len(names))
	for i, n := range names {
		values[i] = n
	}
	return structpb.NewList(values)
}

func (s *Server) CheckReachability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	name := fields["model"].GetStringValue()
	hazard := fields["hazard"].GetStringValue()
	if name == "" || hazard == "" {
		return nil, status.Error(codes.InvalidArgument, "analysisGrpc: the request needs a model and a hazard")
	}

	opts := []config.AnalysisOption{}
	if workers := int(fields["workers"].GetNumberValue()); workers > 0 {
		opts = append(opts, safemc.WithWorkers(workers))
	}
	if capacity := int(fields["stateCapacity"].GetNumberValue()); capacity > 0 {
		opts = append(opts, safemc.WithStateCapacity(capacity))
	}
	a, err := s.registry.Prepare(name, opts...)
	if err != nil {
		return nil, toStatus(err)
	}
	v, err := a.CheckHazard(ctx, hazard)
	if err != nil {
		return nil, toStatus(err)
	}

	steps := 0
	if v.CounterExample != nil {
		steps = v.CounterExample.StepCount()
	}
	trace := make([]interface{}, len(v.Trace))
	for i, state := range v.Trace {
		trace[i] = state
	}
	_, description := v.Response()
	return structpb.NewStruct(map[string]interface{}{
		"model":               v.Model,
		"hazard":              v.Hazard,
		"sessionId":           v.SessionId.String(),
		"reachable":           v.Reachable,
		"quantified":          v.Quantified,
		"nondeterministic":    v.Nondeterministic,
		"probability":         v.Probability,
		"minProbability":      v.MinProbability,
		"maxProbability":      v.MaxProbability,
		"states":              float64(v.States),
		"transitions":         float64(v.Transitions),
		"counterExampleSteps": float64(steps),
		"trace":               trace,
		"response":            description,
	})
}

// Translate the errors of an analysis to gRPC status errors
func toStatus(err error) error {
	switch {
	case errors.Is(err, safemc.ErrUnknownModel):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, exploration.ErrUnknownProposition):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, stateManager.ErrCapacityExceeded), errors.Is(err, sparseMatrix.ErrCapacityExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}
