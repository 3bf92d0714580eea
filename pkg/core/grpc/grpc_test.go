package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// echoDesc is a minimal hand-written service used to exercise the interceptors
var echoDesc = grpc.ServiceDesc{
	ServiceName: "test.Echo",
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Echo",
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/test.Echo/Echo"}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				msg := req.(*structpb.Struct)
				if msg.GetFields()["panic"].GetBoolValue() {
					panic("boom")
				}
				msg.Fields["request_id"] = structpb.NewStringValue(GetRequestID(ctx))
				return msg, nil
			}
			return interceptor(ctx, in, info, handler)
		},
	}},
}

func startServer(t *testing.T) (*Server, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)

	cfg := DefaultServerConfig()
	cfg.Reflection = false
	srv := NewServer(cfg)
	srv.GRPCServer().RegisterService(&echoDesc, struct{}{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := Dial(DefaultClientConfig("passthrough:///bufnet"),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func TestRequestIDPropagation(t *testing.T) {
	_, conn := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx = WithRequestID(ctx, "req-123")

	in, _ := structpb.NewStruct(map[string]interface{}{"x": 1})
	out := new(structpb.Struct)
	var header metadata.MD
	if err := conn.Invoke(ctx, "/test.Echo/Echo", in, out, grpc.Header(&header)); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	if got := out.GetFields()["request_id"].GetStringValue(); got != "req-123" {
		t.Errorf("server saw request_id %q, want req-123", got)
	}
	if got := header.Get(RequestIDHeader); len(got) != 1 || got[0] != "req-123" {
		t.Errorf("response header %s = %v, want [req-123]", RequestIDHeader, got)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	_, conn := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in, _ := structpb.NewStruct(map[string]interface{}{"panic": true})
	err := conn.Invoke(ctx, "/test.Echo/Echo", in, new(structpb.Struct))
	if status.Code(err) != codes.Internal {
		t.Errorf("status = %v, want %v", status.Code(err), codes.Internal)
	}
}

func TestHealthService(t *testing.T) {
	srv, conn := startServer(t)
	srv.SetServingStatus("test.Echo", false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "test.Echo"})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.Status)
	}

	srv.SetServingStatus("test.Echo", true)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "test.Echo"})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.Status)
	}
}

func TestGetRequestID_FromMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "abc"))
	if got := GetRequestID(ctx); got != "abc" {
		t.Errorf("GetRequestID() = %q, want abc", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	_, conn := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in, _ := structpb.NewStruct(map[string]interface{}{})
	out := new(structpb.Struct)
	var header metadata.MD
	if err := conn.Invoke(ctx, "/test.Echo/Echo", in, out, grpc.Header(&header)); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	id := out.GetFields()["request_id"].GetStringValue()
	if id == "" {
		t.Fatal("server saw no request_id")
	}
	if got := header.Get(RequestIDHeader); len(got) != 1 || got[0] != id {
		t.Errorf("response header %s = %v, want [%s]", RequestIDHeader, got, id)
	}
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		code codes.Code
		want severity
	}{
		{codes.OK, severityOK},
		{codes.InvalidArgument, severityClient},
		{codes.DeadlineExceeded, severityClient},
		{codes.NotFound, severityClient},
		{codes.Internal, severityServer},
		{codes.Unavailable, severityServer},
		{codes.Unknown, severityServer},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := severityOf(tt.code); got != tt.want {
				t.Errorf("severityOf(%v) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestErrorReason(t *testing.T) {
	st, err := status.New(codes.InvalidArgument, "bad").
		WithDetails(&errdetails.ErrorInfo{Reason: "PARSE_ERROR", Domain: "test"})
	if err != nil {
		t.Fatalf("WithDetails() error = %v", err)
	}
	if got := errorReason(st); got != "PARSE_ERROR" {
		t.Errorf("errorReason() = %q, want PARSE_ERROR", got)
	}
	if got := errorReason(status.New(codes.Internal, "plain")); got != "" {
		t.Errorf("errorReason() = %q, want empty", got)
	}
}

func TestServerConfigAddr(t *testing.T) {
	cfg := ServerConfig{Host: "::1", Port: 9300}
	if got := cfg.Addr(); got != "[::1]:9300" {
		t.Errorf("Addr() = %q, want [::1]:9300", got)
	}
}
