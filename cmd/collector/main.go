package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/jt828/ollyllm-go/internal/bootstrap"
	"github.com/jt828/ollyllm-go/internal/config"
	"github.com/jt828/ollyllm-go/internal/controller"
	"github.com/jt828/ollyllm-go/internal/interceptor"
	"github.com/jt828/ollyllm-go/internal/service"
	idempotencyImpl "github.com/jt828/ollyllm-go/pkg/idempotency/implementation"
	"github.com/jt828/ollyllm-go/pkg/observability"
	"github.com/jt828/ollyllm-go/pkg/observability/implementation"
	"github.com/jt828/ollyllm-go/pkg/wire"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadCollector()
	if err != nil {
		panic(err)
	}

	obs, err := implementation.NewObservability(implementation.Config{
		ServiceName:   cfg.ServiceName,
		MetricsAddr:   cfg.MetricsAddr,
		TraceEndpoint: cfg.TraceEndpoint,
		Development:   cfg.Development,
	})
	if err != nil {
		panic(err)
	}
	log := obs.Logger()
	reg := implementation.PromRegistry(obs.Meter())
	if reg == nil {
		log.Fatal("prometheus registry not available")
	}

	grpcMetrics := grpc_prometheus.NewServerMetrics()
	reg.MustRegister(grpcMetrics)

	if err := obs.Start(ctx); err != nil {
		log.Error("failed to start observability", observability.Err(err))
	}

	idGen, err := bootstrap.InitializeSnowflake()
	if err != nil {
		log.Fatal("failed to initialize snowflake", observability.Err(err))
	}
	dbs, err := bootstrap.InitializeDatabase(cfg.DSN, obs.Meter())
	if err != nil {
		log.Fatal("failed to initialize database", observability.Err(err))
	}

	idem := idempotencyImpl.NewIdempotency()
	spanSvc := service.NewSpanService(dbs.UnitOfWorkFactory, idem)
	testResultSvc := service.NewTestResultService(dbs.UnitOfWorkFactory, idGen)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		log.Info("shutting down collector")
		cancel()
	}()

	lis, err := net.Listen("tcp", cfg.GrpcAddr)
	if err != nil {
		log.Fatal("failed to listen", observability.Err(err), observability.String("addr", cfg.GrpcAddr))
	}

	if len(cfg.APIKeys) == 0 {
		log.Warn("API_KEYS is empty, collector accepts unauthenticated calls")
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcMetrics.UnaryServerInterceptor(),
			interceptor.ErrorInterceptor(log),
			interceptor.AuthInterceptor(cfg.APIKeys),
		),
		grpc.StreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)

	collectorCtrl := controller.NewCollectorController(spanSvc, testResultSvc)
	if err := wire.RegisterCollectorServer(server, collectorCtrl); err != nil {
		log.Fatal("failed to register collector service", observability.Err(err))
	}

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", servingStatus(ctx, dbs.DB, log))
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	go func() {
		ticker := time.NewTicker(cfg.HealthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				healthServer.SetServingStatus("", servingStatus(ctx, dbs.DB, nil))
			}
		}
	}()

	grpcMetrics.InitializeMetrics(server)

	go func() {
		log.Info("collector running", observability.String("addr", cfg.GrpcAddr))
		if err := server.Serve(lis); err != nil {
			log.Fatal("failed to serve", observability.Err(err))
		}
	}()

	<-ctx.Done()
	log.Info("graceful stopping gRPC server")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	server.GracefulStop()
	log.Info("gRPC server stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := obs.Close(shutdownCtx); err != nil {
		log.Error("failed to close observability", observability.Err(err))
	}
}

// servingStatus pings the database. log may be nil to stay quiet on periodic checks.
func servingStatus(ctx context.Context, db *gorm.DB, log observability.Logger) grpc_health_v1.HealthCheckResponse_ServingStatus {
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		if log != nil {
			log.Error("database ping failed, collector marked as not serving", observability.Err(err))
		}
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_SERVING
}
