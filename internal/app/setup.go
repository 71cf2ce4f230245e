// Package app contains the application setup for the bank product service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/bankproduct/internal/config"
	"github.com/abgdnv/bankproduct/internal/service"
	"github.com/abgdnv/bankproduct/internal/store"
	grpcImpl "github.com/abgdnv/bankproduct/internal/transport/grpc"
	"github.com/abgdnv/bankproduct/internal/transport/rest"
	"github.com/abgdnv/bankproduct/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/bankproduct/pkg/config"
	"github.com/abgdnv/bankproduct/pkg/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Dependencies struct {
	Store          store.ProductStore
	ProductService service.ProductService
	Health         *health.Server
	Logger         *slog.Logger
}

// CloseFunc releases the resources held by a store.
type CloseFunc func()

// OpenStore connects to the backend selected by cfg.Store.Driver.
// The returned CloseFunc must be called once the store is no longer used.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ProductStore, CloseFunc, error) {
	switch cfg.Store.Driver {
	case pkgconfig.StoreDriverPostgres:
		if cfg.Database.Migrate {
			if err := store.Migrate(cfg.Database.URL); err != nil {
				return nil, nil, err
			}
			logger.Info("Database migrations applied")
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		logger.Info("Successfully connected to the database!")
		return store.NewPgStore(dbPool), dbPool.Close, nil

	case pkgconfig.StoreDriverMongo:
		client, err := bootstrap.NewMongoClient(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Successfully connected to MongoDB!", "database", cfg.Mongo.Database, "collection", cfg.Mongo.Collection)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warn("MongoDB disconnect failed", "error", err)
			}
		}
		return store.NewMongoStore(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection), closeFn, nil

	default:
		logger.Info("Using the in-memory store; data is lost on restart")
		return store.NewInMemoryStore(), func() {}, nil
	}
}

func SetupDependencies(productStore store.ProductStore, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		Store:          productStore,
		ProductService: service.NewService(productStore),
		Health:         health.NewServer(),
		Logger:         logger,
	}
}

// SetupHttpHandler builds the router with every route and middleware.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, corsOrigins []string) http.Handler {
	mux := server.NewChiRouter(deps.Logger, corsOrigins)
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux)
	return otelhttp.NewHandler(mux, "bankproduct.http")
}

// SetupHttpServer creates and configures an HTTP server for the bank product service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	handler := SetupHttpHandler(deps, cfg.HTTPServer.CORSOrigins)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, handler)
}

// SetupGrpcServer initializes the gRPC server exposing the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	healthRegisterFunc := func(s *grpc.Server) {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
	return server.NewGRPCServer(reflectionEnabled, healthRegisterFunc)
}

// SetupHealthReporter creates the loop that keeps the gRPC health status in line with the store.
func SetupHealthReporter(deps *Dependencies, cfg *config.Config) *grpcImpl.Reporter {
	return grpcImpl.NewReporter(deps.Health, deps.Store, cfg.GRPC.HealthInterval, deps.Logger)
}
