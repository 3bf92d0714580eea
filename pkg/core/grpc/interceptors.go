package grpc

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/msto63/kinematics/pkg/core/logging"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type requestIDKey struct{}

// RequestIDHeader is the metadata key carrying the request ID in both directions
const RequestIDHeader = "x-request-id"

// WithRequestID stores id in ctx. Client calls made with ctx send it along.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request ID stored in ctx, falling back to the
// incoming metadata. It returns "" when neither is present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDHeader); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}

func requestIDOrNew(ctx context.Context) string {
	if id := GetRequestID(ctx); id != "" {
		return id
	}
	return uuid.New().String()
}

// unaryServerChain returns the server side interceptors in call order
func unaryServerChain(logger *logging.Logger) []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{
		requestIDUnary(),
		recoverUnary(logger),
		logUnary(logger),
	}
}

// requestIDUnary assigns a request ID and echoes it in the response header
func requestIDUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		id := requestIDOrNew(ctx)
		ctx = WithRequestID(ctx, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
		return handler(ctx, req)
	}
}

// recoverUnary turns a handler panic into codes.Internal
func recoverUnary(logger *logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicStatus(logger, info.FullMethod, GetRequestID(ctx), r)
			}
		}()
		return handler(ctx, req)
	}
}

// recoverStream guards streaming handlers such as health Watch
func recoverStream(logger *logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicStatus(logger, info.FullMethod, GetRequestID(ss.Context()), r)
			}
		}()
		return handler(srv, ss)
	}
}

func panicStatus(logger *logging.Logger, method, requestID string, r interface{}) error {
	logger.Error("Handler panicked",
		"method", method,
		"request_id", requestID,
		"panic", fmt.Sprint(r),
		"stack", string(debug.Stack()),
	)
	return status.Error(codes.Internal, "internal server error")
}

// logUnary logs every call. Failures the caller caused are logged as
// warnings, everything else that failed as errors.
func logUnary(logger *logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		st := status.Convert(err)
		fields := []interface{}{
			"method", info.FullMethod,
			"request_id", GetRequestID(ctx),
			"code", st.Code().String(),
			"duration", time.Since(start),
		}
		if reason := errorReason(st); reason != "" {
			fields = append(fields, "reason", reason)
		}

		switch severityOf(st.Code()) {
		case severityOK:
			logger.Debug("gRPC call", fields...)
		case severityClient:
			logger.Warn("gRPC call rejected", append(fields, "error", st.Message())...)
		default:
			logger.Error("gRPC call failed", append(fields, "error", st.Message())...)
		}
		return resp, err
	}
}

type severity int

const (
	severityOK severity = iota
	severityClient
	severityServer
)

func severityOf(c codes.Code) severity {
	switch c {
	case codes.OK:
		return severityOK
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists,
		codes.FailedPrecondition, codes.OutOfRange, codes.Canceled,
		codes.DeadlineExceeded, codes.ResourceExhausted, codes.Unauthenticated,
		codes.PermissionDenied:
		return severityClient
	default:
		return severityServer
	}
}

// errorReason returns the ErrorInfo reason attached to st, if any
func errorReason(st *status.Status) string {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

// unaryClientChain propagates the request ID and logs outgoing calls at debug
func unaryClientChain(logger *logging.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		id := requestIDOrNew(ctx)
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, id)

		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		logger.Debug("gRPC client call",
			"method", method,
			"request_id", id,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return err
	}
}
