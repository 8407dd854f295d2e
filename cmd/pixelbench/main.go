package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/DMarby/pixelbench/internal/bench"
	"github.com/DMarby/pixelbench/internal/cache"
	"github.com/DMarby/pixelbench/internal/cache/memory"
	"github.com/DMarby/pixelbench/internal/cache/redis"
	"github.com/DMarby/pixelbench/internal/cmd"
	"github.com/DMarby/pixelbench/internal/engine"
	"github.com/DMarby/pixelbench/internal/filter"
	"github.com/DMarby/pixelbench/internal/image"
	"github.com/DMarby/pixelbench/internal/logger"
	"github.com/DMarby/pixelbench/internal/metrics"
	"github.com/DMarby/pixelbench/internal/pixel"
	"github.com/DMarby/pixelbench/internal/planner"
	"github.com/DMarby/pixelbench/internal/results"
	"github.com/DMarby/pixelbench/internal/results/csv"
	"github.com/DMarby/pixelbench/internal/results/postgresql"
	"github.com/DMarby/pixelbench/internal/storage"
	fileStorage "github.com/DMarby/pixelbench/internal/storage/file"
	"github.com/DMarby/pixelbench/internal/storage/spaces"
	"github.com/DMarby/pixelbench/internal/tracing"

	"github.com/jamiealquiza/envy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Comandline flags
var (
	// Global
	loglevel = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")

	// Benchmark
	input      = flag.String("input", "", "storage key of the image to benchmark")
	filterName = flag.String("filter", "blur", "filter to apply (grayscale, invert, sepia, blur, edge)")
	strategies = flag.String("strategy", "grid,recursive", "comma separated strategies to benchmark (grid, recursive)")
	maxWorkers = flag.Int("max-workers", 0, "highest worker count to measure, defaults to GOMAXPROCS")
	verify     = flag.Bool("verify", false, "compare every parallel output with the sequential output")
	timeout    = flag.Duration("timeout", engine.DefaultTimeout, "time limit for a single filter pass")
	output     = flag.String("output", "", "storage key to write the filtered image to, the format follows its extension")
	progress   = flag.Bool("progress", true, "show a progress bar on stderr")

	// Tracing
	tracingEnabled = flag.Bool("tracing", false, "export traces over OTLP, configured through the OTEL_* environment variables")

	// Metrics
	metricsListen = flag.String("metrics-listen", "", "listen address for the metrics server, disabled when empty")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", ".", "path to the file storage")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for s3 compatible servers such as minio")

	// Cache
	cacheBackend = flag.String("cache", "memory", "which cache backend to use for source images (memory, redis)")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "redis://127.0.0.1:6379", "redis address, may contain authentication details")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long source images stay in redis")

	// Results
	resultsCSV               = flag.String("results-csv", "-", "file to write csv results to, - for stdout")
	resultsPostgresqlAddress = flag.String("results-postgresql-address", "", "postgresql address to store results in, disabled when empty")
	resultsPostgresqlRun     = flag.String("results-postgresql-run", "", "name of the run the results are stored under, defaults to the start time")
)

func main() {
	// Parse environment variables
	envy.Parse("PIXELBENCH")

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger, stdout is reserved for results
	log := logger.NewStderr(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	if *input == "" {
		log.Fatalf("no input image given, set -input")
	}

	kind, err := filter.Parse(*filterName)
	if err != nil {
		log.Fatalf("error parsing filter: %s", err)
	}

	benchStrategies, err := engine.ParseStrategies(*strategies)
	if err != nil {
		log.Fatalf("error parsing strategies: %s", err)
	}

	// Stop on an interrupt
	ctx, stop := cmd.InterruptContext(context.Background())
	defer stop()

	// Initialize tracing
	tracer := tracing.Noop(log, "pixelbench")
	if *tracingEnabled {
		tracer, err = tracing.New(ctx, log, "pixelbench")
		if err != nil {
			log.Fatalf("error initializing tracing: %s", err)
		}
	}
	defer tracer.Shutdown(context.Background())

	// Initialize the storage, cache
	storage, cache, err := setupBackends(ctx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
	}
	defer cache.Shutdown()

	source := &image.Source{Tracer: tracer, Cache: image.NewCache(tracer, cache, storage)}
	src, err := source.Load(ctx, *input)
	if err != nil {
		log.Fatalf("error loading %s: %s", *input, err)
	}

	// Initialize the metrics
	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		log.Fatalf("error initializing metrics: %s", err)
	}

	if *metricsListen != "" {
		go metrics.Serve(ctx, log, registry, nil, *metricsListen)
	}

	e := engine.New(log, tracer)
	e.Recorder = collector
	e.Timeout = *timeout

	// Initialize the results
	providers, err := setupResults(ctx)
	if err != nil {
		log.Fatalf("error initializing results: %s", err)
	}

	sinks := []bench.Sink{collector}
	for _, provider := range providers {
		defer provider.Shutdown()
		sinks = append(sinks, provider)
	}

	workers := *maxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	if *progress {
		bar := progressbar.NewOptions(workers*len(benchStrategies),
			progressbar.OptionSetDescription(fmt.Sprintf("Benchmarking %s", kind)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
		defer bar.Finish()

		sinks = append(sinks, bench.SinkFunc(func(ctx context.Context, sample bench.Sample) error {
			return bar.Add(1)
		}))
	}

	harness := &bench.Harness{
		Engine:     e,
		Log:        log,
		MaxWorkers: workers,
		Verify:     *verify,
	}

	log.Infow("benchmarking",
		"input", *input,
		"width", src.Width,
		"height", src.Height,
		"filter", kind,
		"strategies", *strategies,
		"max-workers", workers,
	)

	sink := bench.Tee(sinks...)
	for _, strategy := range benchStrategies {
		if err := harness.Run(ctx, src, kind, strategy, sink); err != nil {
			log.Fatalf("error benchmarking %s: %s", strategy, err)
		}
	}

	if *output != "" {
		if err := writeOutput(ctx, tracer, e, storage, src, kind, workers); err != nil {
			log.Fatalf("error writing %s: %s", *output, err)
		}
		log.Infof("wrote filtered image to %s", *output)
	}
}

// writeOutput filters a copy of src on the grid with the given workers and stores it under the output key
func writeOutput(ctx context.Context, tracer *tracing.Tracer, e *engine.Engine, storage storage.Provider, src *pixel.Image, kind filter.Kind, workers int) error {
	img := src.Clone()

	blockSize, err := planner.BlockSize(img.Width*img.Height, workers)
	if err != nil {
		return err
	}

	if err := e.ApplyGrid(ctx, img, kind, workers, blockSize); err != nil {
		return err
	}

	sink := &image.Sink{Tracer: tracer, Storage: storage}
	return sink.Store(ctx, *output, img)
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
		cache = memory.New(0)
	case "redis":
		cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize, *cacheRedisTTL)
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	return
}

func setupResults(ctx context.Context) (providers []results.Provider, err error) {
	if *resultsCSV == "-" {
		providers = append(providers, csv.New(os.Stdout))
	} else if *resultsCSV != "" {
		provider, err := csv.Create(*resultsCSV)
		if err != nil {
			return nil, err
		}
		providers = append(providers, provider)
	}

	if *resultsPostgresqlAddress != "" {
		run := *resultsPostgresqlRun
		if run == "" {
			run = time.Now().UTC().Format(time.RFC3339)
		}

		provider, err := postgresql.New(ctx, *resultsPostgresqlAddress, run)
		if err != nil {
			for _, p := range providers {
				p.Shutdown()
			}
			return nil, err
		}
		providers = append(providers, provider)
	}

	return providers, nil
}
