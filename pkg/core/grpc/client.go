package grpc

import (
	"fmt"
	"time"

	"github.com/msto63/kinematics/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// ClientConfig configures Dial
type ClientConfig struct {
	Target    string
	Keepalive time.Duration
	Logger    *logging.Logger
}

// DefaultClientConfig returns the client settings matching DefaultServerConfig
func DefaultClientConfig(target string) ClientConfig {
	return ClientConfig{Target: target, Keepalive: 30 * time.Second}
}

// Dial creates a plaintext client connection with request ID propagation.
// The connection is established lazily on the first call, so deadlines
// belong on the call contexts.
func Dial(cfg ClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("grpc-client")
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		),
		grpc.WithUnaryInterceptor(unaryClientChain(logger)),
	}
	if cfg.Keepalive > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.Keepalive,
			Timeout:             cfg.Keepalive / 3,
			PermitWithoutStream: true,
		}))
	}

	conn, err := grpc.NewClient(cfg.Target, append(dialOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", cfg.Target, err)
	}
	return conn, nil
}
