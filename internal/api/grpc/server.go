package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-pkgz/lgr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName - имя сервиса в протоколе grpc.health.v1
const ServiceName = "tarefas.v1.TarefasService"

// Pinger - хранилище, состояние которого отражает health-сервис
type Pinger interface {
	Ping(ctx context.Context) error
}

// GRPCServer отдаёт grpc.health.v1 и reflection для оркестратора.
type GRPCServer struct {
	health *health.Server
	server *grpc.Server
	logger lgr.L
}

func NewGRPCServer(logger lgr.L) *GRPCServer {
	s := &GRPCServer{
		health: health.NewServer(),
		logger: logger,
	}
	s.server = grpc.NewServer(
		grpc.UnaryInterceptor(s.unaryInterceptor),
	)
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	// до первой проверки хранилища считаем сервис неготовым
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *GRPCServer) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(lis)
}

func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Logf("INFO [grpc] listening on %s", lis.Addr())
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

// WatchStore пингует хранилище каждые interval и переключает статус
// SERVING/NOT_SERVING. Возвращается при отмене ctx.
func (s *GRPCServer) WatchStore(ctx context.Context, store Pinger, interval time.Duration) {
	s.checkStore(ctx, store)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkStore(ctx, store)
		}
	}
}

func (s *GRPCServer) checkStore(ctx context.Context, store Pinger) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := store.Ping(pingCtx); err != nil {
		s.logger.Logf("WARN [grpc] store ping: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
}

func (s *GRPCServer) unaryInterceptor(ctx context.Context, req interface{},
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Logf("DEBUG [grpc] %s took %s err=%v", info.FullMethod, time.Since(start), err)
	return resp, err
}
