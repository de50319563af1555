package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/SilkenBread/restaurant-ordering-backend/internal/config"
)

// ServiceName is reported by the health service alongside the overall status.
const ServiceName = "ordering"

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(health.NewServer, NewServer),
	fx.Invoke(Run),
)

// NewServer builds a gRPC server with logging interceptors and the standard
// health service registered.
func NewServer(logger *zap.Logger, probe *health.Server) *grpc.Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryLogger(logger)),
		grpc.ChainStreamInterceptor(streamLogger(logger)),
	)
	healthpb.RegisterHealthServer(server, probe)
	probe.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return server
}

func unaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(logger, "grpc unary call finished", info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

func streamLogger(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(logger, "grpc stream call finished", info.FullMethod, time.Since(start), err)
		return err
	}
}

func logCall(logger *zap.Logger, msg, method string, took time.Duration, err error) {
	fields := []zap.Field{zap.String("method", method), zap.Duration("duration", took)}
	if err != nil {
		logger.Warn(msg, append(fields, zap.Error(err))...)
		return
	}
	// health probes are frequent
	if method == healthpb.Health_Check_FullMethodName {
		logger.Debug(msg, fields...)
		return
	}
	logger.Info(msg, fields...)
}

// Run binds the gRPC server to the configured host/port and flips the health
// status with the application lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, probe *health.Server, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln
			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(listener); err != nil {
					logger.Error("grpc server stopped", zap.Error(err))
				}
			}()
			probe.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			probe.Shutdown()

			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				return nil
			}
		},
	})
}
