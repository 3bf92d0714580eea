package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	mdwerror "github.com/msto63/kinematics/foundation/core/error"
	"github.com/msto63/kinematics/foundation/kinematic/bindings"
	"github.com/msto63/kinematics/foundation/kinematic/value"
	"github.com/msto63/kinematics/internal/evaluator/service"
	coreGrpc "github.com/msto63/kinematics/pkg/core/grpc"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// EvaluatorServiceName is the fully qualified gRPC service name
const EvaluatorServiceName = "kinematics.v1.Evaluator"

const (
	evaluateMethod = "/" + EvaluatorServiceName + "/Evaluate"
	errorDomain    = "kinematics"
)

// EvaluatorServer is the server API for the Evaluator service. Messages are
// google.protobuf.Struct values with the fields
//
//	request:  program (list of strings), variables (struct), record (bool)
//	response: run_id (string), variables (struct), duration_ms (number), cached (bool)
type EvaluatorServer interface {
	Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func evaluateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EvaluatorServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: evaluateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EvaluatorServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// EvaluatorServiceDesc describes the Evaluator service for grpc.Server.RegisterService
var EvaluatorServiceDesc = grpc.ServiceDesc{
	ServiceName: EvaluatorServiceName,
	HandlerType: (*EvaluatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler:    evaluateHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kinematics/v1/evaluator.proto",
}

// RegisterEvaluatorServer registers srv with s
func RegisterEvaluatorServer(s grpc.ServiceRegistrar, srv EvaluatorServer) {
	s.RegisterService(&EvaluatorServiceDesc, srv)
}

// evaluatorServer adapts the service to EvaluatorServer
type evaluatorServer struct {
	service *service.Service
}

func (s *evaluatorServer) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	svcReq, err := DecodeRequest(req)
	if err != nil {
		return nil, ToStatus(err)
	}

	resp, err := s.service.Evaluate(ctx, svcReq)
	if err != nil {
		return nil, ToStatus(err)
	}

	out, err := EncodeResponse(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// EncodeRequest converts a service request into its wire form
func EncodeRequest(req *service.Request) (*structpb.Struct, error) {
	program := make([]interface{}, len(req.Program))
	for i, line := range req.Program {
		program[i] = line
	}
	programList, err := structpb.NewList(program)
	if err != nil {
		return nil, err
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"program":   structpb.NewListValue(programList),
		"variables": structpb.NewStructValue(encodeVariables(req.Variables)),
		"record":    structpb.NewBoolValue(req.Record),
	}}, nil
}

// DecodeRequest converts the wire form into a service request
func DecodeRequest(in *structpb.Struct) (*service.Request, error) {
	fields := in.GetFields()
	req := &service.Request{
		Record: fields["record"].GetBoolValue(),
	}

	for i, item := range fields["program"].GetListValue().GetValues() {
		line, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, mdwerror.Newf("program line %d is not a string", i+1).
				WithCode(mdwerror.CodeInvalidInput).
				WithOperation("server.DecodeRequest")
		}
		req.Program = append(req.Program, line.StringValue)
	}

	vars, err := decodeVariables(fields["variables"].GetStructValue())
	if err != nil {
		return nil, err
	}
	req.Variables = vars
	return req, nil
}

// EncodeResponse converts a service response into its wire form
func EncodeResponse(resp *service.Response) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":      structpb.NewStringValue(resp.RunID),
		"variables":   structpb.NewStructValue(encodeVariables(resp.Variables)),
		"duration_ms": structpb.NewNumberValue(float64(resp.Duration.Microseconds()) / 1000),
		"cached":      structpb.NewBoolValue(resp.Cached),
	}}, nil
}

// DecodeResponse converts the wire form into a service response
func DecodeResponse(out *structpb.Struct) (*service.Response, error) {
	fields := out.GetFields()
	vars, err := decodeVariables(fields["variables"].GetStructValue())
	if err != nil {
		return nil, err
	}
	ms := fields["duration_ms"].GetNumberValue()
	return &service.Response{
		RunID:     fields["run_id"].GetStringValue(),
		Variables: vars,
		Duration:  time.Duration(ms * float64(time.Millisecond)),
		Cached:    fields["cached"].GetBoolValue(),
	}, nil
}

func encodeVariables(vars map[string]value.Value) *structpb.Struct {
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(vars))}
	for key, v := range vars {
		if !v.IsVector() {
			f, _ := v.Float()
			out.Fields[key] = structpb.NewNumberValue(f)
			continue
		}
		elems := make([]*structpb.Value, v.Len())
		for i := range elems {
			elems[i] = structpb.NewNumberValue(v.At(i))
		}
		out.Fields[key] = structpb.NewListValue(&structpb.ListValue{Values: elems})
	}
	return out
}

func decodeVariables(in *structpb.Struct) (map[string]value.Value, error) {
	if len(in.GetFields()) == 0 {
		return nil, nil
	}
	return bindings.Normalize(in.AsMap())
}

// ToStatus converts an error into a gRPC status carrying the error code
// as ErrorInfo detail
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := mdwerror.GetCode(err)
	st := status.New(grpcCode(code), err.Error())

	info := &errdetails.ErrorInfo{
		Reason:   code.String(),
		Domain:   errorDomain,
		Metadata: map[string]string{},
	}
	var coded *mdwerror.Error
	if errors.As(err, &coded) {
		for k, v := range coded.Details() {
			info.Metadata[k] = fmt.Sprint(v)
		}
	}

	if withDetails, derr := st.WithDetails(info); derr == nil {
		st = withDetails
	}
	return st.Err()
}

// FromStatus converts a gRPC error back into a coded error
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	code := mdwerror.CodeUnknown
	details := map[string]interface{}{}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		code = mdwerror.Code(info.GetReason())
		for k, v := range info.GetMetadata() {
			if n, err := strconv.Atoi(v); err == nil {
				details[k] = n
			} else {
				details[k] = v
			}
		}
	}
	if code == mdwerror.CodeUnknown {
		code = codeFromGRPC(st.Code())
	}

	return mdwerror.New(st.Message()).
		WithCode(code).
		WithDetails(details).
		WithOperation("server.Client")
}

func grpcCode(code mdwerror.Code) codes.Code {
	switch code {
	case mdwerror.CodeInvalidInput, mdwerror.CodeLex, mdwerror.CodeParse:
		return codes.InvalidArgument
	case mdwerror.CodeRuntime:
		return codes.FailedPrecondition
	case mdwerror.CodeStepLimit:
		return codes.ResourceExhausted
	case mdwerror.CodeTimeout:
		return codes.DeadlineExceeded
	case mdwerror.CodeCanceled:
		return codes.Canceled
	case mdwerror.CodeNotFound:
		return codes.NotFound
	case mdwerror.CodeServiceUnavailable, mdwerror.CodeStorageError:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func codeFromGRPC(c codes.Code) mdwerror.Code {
	switch c {
	case codes.InvalidArgument:
		return mdwerror.CodeInvalidInput
	case codes.DeadlineExceeded:
		return mdwerror.CodeTimeout
	case codes.Canceled:
		return mdwerror.CodeCanceled
	case codes.NotFound:
		return mdwerror.CodeNotFound
	case codes.Unavailable:
		return mdwerror.CodeServiceUnavailable
	default:
		return mdwerror.CodeInternal
	}
}

// Client calls a remote Evaluator service
type Client struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// Dial connects to the Evaluator service at target (host:port)
func Dial(target string) (*Client, error) {
	conn, err := coreGrpc.Dial(coreGrpc.DefaultClientConfig(target))
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to connect").
			WithCode(mdwerror.CodeServiceUnavailable).
			WithOperation("server.Dial")
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn, health: healthpb.NewHealthClient(conn)}
}

// Evaluate runs a program on the remote service
func (c *Client) Evaluate(ctx context.Context, req *service.Request) (*service.Response, error) {
	in, err := EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, evaluateMethod, in, out); err != nil {
		return nil, FromStatus(err)
	}
	return DecodeResponse(out)
}

// Serving reports whether the remote Evaluator service is serving
func (c *Client) Serving(ctx context.Context) (bool, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: EvaluatorServiceName})
	if err != nil {
		return false, FromStatus(err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}
