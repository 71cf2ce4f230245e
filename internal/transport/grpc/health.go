// Package grpc exposes the standard gRPC health service backed by the product store.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name under which the product service reports its health.
const ServiceName = "bankproduct.v1.ProductService"

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reporter periodically pings the store and publishes the result on a health server,
// both for ServiceName and for the overall server status ("").
type Reporter struct {
	server   *health.Server
	store    Pinger
	interval time.Duration
	logger   *slog.Logger
}

// NewReporter creates a Reporter. Until the first check both services report NOT_SERVING.
func NewReporter(server *health.Server, store Pinger, interval time.Duration, logger *slog.Logger) *Reporter {
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Reporter{
		server:   server,
		store:    store,
		interval: interval,
		logger:   logger.With("component", "health"),
	}
}

// Run checks the store immediately and then once per interval until ctx is done.
// On return every service is marked NOT_SERVING so clients drain before shutdown.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return nil
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}

// Check pings the store once and updates the serving status.
func (r *Reporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, r.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := r.store.Ping(pingCtx); err != nil {
		if ctx.Err() != nil {
			return healthpb.HealthCheckResponse_NOT_SERVING
		}
		r.logger.WarnContext(ctx, "Store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ServiceName, status)
	return status
}
