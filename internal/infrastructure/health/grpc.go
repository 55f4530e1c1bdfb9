package health

import (
	"context"
	"net"
	"time"

	"gamestore/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "gamestore.Storefront"

// Pinger *sql.DB 即满足
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server gRPC 健康检查服务，状态随数据库可达性变化
type Server struct {
	grpcServer *grpc.Server
	health     *grpchealth.Server
	db         Pinger
	interval   time.Duration
}

func NewServer(db Pinger, interval time.Duration) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     grpchealth.NewServer(),
		db:         db,
		interval:   interval,
	}
	healthgrpc.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)
	return s
}

func (s *Server) Health() healthgrpc.HealthServer {
	return s.health
}

// Check 检查一次数据库并更新状态
func (s *Server) Check(ctx context.Context) healthgrpc.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthgrpc.HealthCheckResponse_SERVING
	if err := s.db.PingContext(ctx); err != nil {
		logger.Warnf("[Health] 数据库不可达: %v", err)
		status = healthgrpc.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Run 阻塞直到 ctx 取消或 Serve 出错
func (s *Server) Run(ctx context.Context, lis net.Listener) error {
	s.Check(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("[Health] gRPC 健康检查监听: %s", lis.Addr())
		errCh <- s.grpcServer.Serve(lis)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpcServer.GracefulStop()
			logger.Info("[Health] gRPC 服务已停止")
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}
