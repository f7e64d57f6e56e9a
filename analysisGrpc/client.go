package analysisGrpc

import (
	"context"

	"github.com/golang/protobuf/ptypes/empty"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// A reachability check requested from the analysis service
type Request struct {
	Model  string
	Hazard string
	// Zero values use the defaults of the server
	Workers       int
	StateCapacity int
}

// The result of a reachability check
type Result struct {
	Reachable        bool
	Quantified       bool
	Nondeterministic bool

	Probability    float64
	MinProbability float64
	MaxProbability float64

	States              int
	Transitions         int
	CounterExampleSteps int
	Trace               []string
	Response            string
}

// A client of the analysis service
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ListModels(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, listModelsMethod, &empty.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		names = append(names, v.GetStringValue())
	}
	return names, nil
}

func (c *Client) CheckReachability(ctx context.Context, req Request, opts ...grpc.CallOption) (*Result, error) {
	in, err := structpb.NewStruct(map[string]interface{}{
		"model":         req.Model,
		"hazard":        req.Hazard,
		"workers":       float64(req.Workers),
		"stateCapacity": float64(req.StateCapacity),
	})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, checkReachabilityMethod, in, out, opts...); err != nil {
		return nil, err
	}

	f := out.GetFields()
	r := &Result{
		Reachable:           f["reachable"].GetBoolValue(),
		Quantified:          f["quantified"].GetBoolValue(),
		Nondeterministic:    f["nondeterministic"].GetBoolValue(),
		Probability:         f["probability"].GetNumberValue(),
		MinProbability:      f["minProbability"].GetNumberValue(),
		MaxProbability:      f["maxProbability"].GetNumberValue(),
		States:              int(f["states"].GetNumberValue()),
		Transitions:         int(f["transitions"].GetNumberValue()),
		CounterExampleSteps: int(f["counterExampleSteps"].GetNumberValue()),
		Response:            f["response"].GetStringValue(),
	}
	for _, v := range f["trace"].GetListValue().GetValues() {
		r.Trace = append(r.Trace, v.GetStringValue())
	}
	return r, nil
}
