// Package server is the osinfo collector: it stores inventories pushed by
// agents and serves them over HTTP, with a gRPC health endpoint alongside.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerUI "github.com/tx7do/kratos-swagger-ui"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/go-tangra/go-tangra-osinfo/internal/config"
	"github.com/go-tangra/go-tangra-osinfo/internal/store"
)

// HealthService is the service name reported by the gRPC health server.
const HealthService = "osinfo.collector.v1.Collector"

// httpTimeout must outlast the longest agent poll.
const httpTimeout = MaxPollWait + 30*time.Second

// NewHTTPServer builds the API server without starting it.
func NewHTTPServer(cfg *config.Config, h *Handler, metrics *Metrics, openAPIData []byte, log logrus.FieldLogger) *kratoshttp.Server {
	srv := kratoshttp.NewServer(
		kratoshttp.Address(cfg.HTTPListen),
		kratoshttp.Timeout(httpTimeout),
		kratoshttp.Middleware(ApiSecretMiddleware(cfg.ApiSecret)),
	)
	h.RegisterRoutes(srv)
	srv.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	if cfg.EnableSwagger && len(openAPIData) > 0 {
		swaggerUI.RegisterSwaggerUIServerWithOption(
			srv,
			swaggerUI.WithTitle("OS Info Collector"),
			swaggerUI.WithMemoryData(openAPIData, "yaml"),
		)
		log.Infof("Swagger UI available at http://%s/docs/", cfg.HTTPListen)
	}
	return srv
}

// NewGRPCServer builds the gRPC server with the health service registered.
func NewGRPCServer(cfg *config.Config, hs *health.Server) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(ClientSecretInterceptor(cfg.ClientSecret)),
		grpc.ChainStreamInterceptor(ClientSecretStreamInterceptor(cfg.ClientSecret)),
	)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv
}

// Run starts the gRPC and HTTP servers and blocks until the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, openAPIData []byte, log logrus.FieldLogger) error {
	log = log.WithField("package", "server")

	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	metrics := NewMetrics()
	handler := NewHandler(db, NewAgentRegistry(), metrics, log)

	hs := health.NewServer()
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	grpcSrv := NewGRPCServer(cfg, hs)

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen gRPC on %s: %w", cfg.Listen, err)
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		hs.Shutdown()
		grpcSrv.GracefulStop()
	}()

	if cfg.RetentionDays > 0 {
		go runPurgeLoop(ctx, db, cfg.RetentionDays, cfg.PurgeInterval, log)
	}

	httpSrv := NewHTTPServer(cfg, handler, metrics, openAPIData, log)

	go func() {
		if err := httpSrv.Start(ctx); err != nil {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = httpSrv.Stop(context.Background())
	}()

	log.WithFields(logrus.Fields{
		"grpc": cfg.Listen,
		"http": cfg.HTTPListen,
		"db":   cfg.DatabasePath,
	}).Info("OS info collector listening")
	if cfg.RetentionDays > 0 {
		log.Infof("Retention: %d days, purge interval: %s", cfg.RetentionDays, cfg.PurgeInterval)
	}

	return grpcSrv.Serve(lis)
}

func runPurgeLoop(ctx context.Context, db *store.Store, retentionDays int, interval time.Duration, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			olderThan := time.Duration(retentionDays) * 24 * time.Hour
			n, err := db.Purge(ctx, olderThan)
			if err != nil {
				log.WithError(err).Error("Purge failed")
			} else if n > 0 {
				log.Infof("Purged %d records older than %d days", n, retentionDays)
			}
		}
	}
}
