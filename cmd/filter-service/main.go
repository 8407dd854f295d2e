package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/DMarby/pixelbench/internal/cache"
	"github.com/DMarby/pixelbench/internal/cache/memory"
	"github.com/DMarby/pixelbench/internal/cache/redis"
	"github.com/DMarby/pixelbench/internal/cmd"
	"github.com/DMarby/pixelbench/internal/engine"
	"github.com/DMarby/pixelbench/internal/handler"
	"github.com/DMarby/pixelbench/internal/health"
	"github.com/DMarby/pixelbench/internal/hmac"
	"github.com/DMarby/pixelbench/internal/image"
	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/metrics"
	"github.com/DMarby/pixelbench/internal/storage"
	fileStorage "github.com/DMarby/pixelbench/internal/storage/file"
	"github.com/DMarby/pixelbench/internal/storage/spaces"
	"github.com/DMarby/pixelbench/internal/tracing"

	api "github.com/DMarby/pixelbench/internal/filterapi"

	"github.com/jamiealquiza/envy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8081", "listen address")
	metricsListen = flag.String("metrics-listen", "127.0.0.1:8082", "metrics listen address")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Filtering
	maxWorkers      = flag.Int("max-workers", 0, "highest worker count a request may ask for, defaults to GOMAXPROCS")
	filterTimeout   = flag.Duration("filter-timeout", cmd.HandlerTimeout, "time limit for a single filter pass")
	sourceExtension = flag.String("source-extension", ".png", "extension appended to image ids to find the source image in storage")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", "./images", "path to the file storage")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for s3 compatible servers such as minio")

	// Cache
	cacheBackend = flag.String("cache", "memory", "which cache backend to use (memory, redis)")

	// Cache - Memory
	cacheMemoryMaxBytes = flag.Int("cache-memory-max-bytes", 512<<20, "memory cache size limit, 0 for unbounded")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "redis://127.0.0.1:6379", "redis address, may contain authentication details")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long cached images stay in redis")

	// Healthcheck
	healthCheckKey = flag.String("health-check-key", "1.png", "storage key to fetch to check storage health")

	// HMAC
	hmacKey = flag.String("hmac-key", "", "hmac key requests must be signed with, requests are not checked when empty")
)

func main() {
	// Parse environment variables
	envy.Parse("FILTER")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize tracing
	tracer, err := tracing.New(shutdownCtx, log, "filter-service")
	if err != nil {
		log.Fatalf("error initializing tracing: %s", err)
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the storage, cache
	storage, cache, err := setupBackends(shutdownCtx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
	}
	defer cache.Shutdown()

	// Initialize the metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	collector, err := metrics.New(registry)
	if err != nil {
		log.Fatalf("error initializing metrics: %s", err)
	}

	httpMetrics, err := handler.NewHTTPMetrics(registry)
	if err != nil {
		log.Fatalf("error initializing http metrics: %s", err)
	}

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:     checkerCtx,
		Storage: storage,
		Key:     *healthCheckKey,
		Cache:   cache,
		Log:     log,
	}
	go checker.Run()

	// Start the metrics http server
	go metrics.Serve(shutdownCtx, log, registry, checker, *metricsListen)

	e := engine.New(log, tracer)
	e.Recorder = collector
	e.Timeout = *filterTimeout

	// Source images and filtered results share the cache under different keys
	var signer *hmac.Signer
	if *hmacKey != "" {
		signer = &hmac.Signer{Key: []byte(*hmacKey)}
	}

	api := &api.API{
		Engine:          e,
		Source:          &image.Source{Tracer: tracer, Cache: image.NewCache(tracer, cache, storage)},
		Output:          cache,
		HealthChecker:   checker,
		Log:             log,
		Tracer:          tracer,
		Metrics:         httpMetrics,
		HMAC:            signer,
		HandlerTimeout:  cmd.HandlerTimeout,
		SourceExtension: *sourceExtension,
		MaxWorkers:      *maxWorkers,
	}

	// Start and listen on http
	server := &http.Server{
		Addr:         *listen,
		Handler:      api.Router(),
		ReadTimeout:  cmd.ReadTimeout,
		WriteTimeout: cmd.WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Infof("shutting down the http server: %s", err)
			shutdown()
		}
	}()

	log.Infof("http server listening on %s", *listen)

	// Wait for shutdown or error
	err = cmd.WaitForInterrupt(shutdownCtx)
	log.Infof("shutting down: %s", err)

	// Shut down http server
	serverCtx, serverCancel := context.WithTimeout(context.Background(), cmd.WriteTimeout)
	defer serverCancel()
	if err := server.Shutdown(serverCtx); err != nil {
		log.Warnf("error shutting down: %s", err)
	}
}

func setupBackends(ctx context.Context, tracer *tracing.Tracer) (storage storage.Provider, cache cache.Provider, err error) {
	// Storage
	switch *storageBackend {
	case "file":
		storage, err = fileStorage.New(*storageFilePath)
	case "spaces":
		storage, err = spaces.New(ctx, *storageSpacesSpace, *storageSpacesEndpoint, *storageSpacesAccessKey, *storageSpacesSecretKey, *storageSpacesForcePathStyle)
	default:
		err = fmt.Errorf("invalid storage backend")
	}

	if err != nil {
		return
	}

	// Cache
	switch *cacheBackend {
	case "memory":
		cache = memory.New(*cacheMemoryMaxBytes)
	case "redis":
		cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize, *cacheRedisTTL)
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	return
}
