package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lawless-m/Toberboon/internal/config"
	"github.com/lawless-m/Toberboon/internal/logging"
	"github.com/lawless-m/Toberboon/internal/observability"
	"github.com/lawless-m/Toberboon/internal/pipeline"
	"github.com/lawless-m/Toberboon/internal/storage"
)

const serviceName = "terraingen"

// options - значения флагов командной строки; нулевые значения не переопределяют конфиг
type options struct {
	configPath string
	size       int
	gridHeight int
	maxHeight  float64
	seed       int64 // < 0 - сид из конфига или времени
	noise      string
	noCaves    bool
	entrances  bool
	overhangs  bool
	stabilize  bool
	out        string
	glb        string
	snapshot   string
	cache      string
	metrics    string
	otlp       string
	logDir     string
	logLevel   string
	batch      int
	workers    int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Printf("❌ %v", err)
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", "", "YAML config file (default: $TERRAIN_CONFIG)")
	fs.IntVar(&opts.size, "size", 0, "Map width and depth")
	fs.IntVar(&opts.gridHeight, "grid-height", 0, "Voxel grid height")
	fs.Float64Var(&opts.maxHeight, "height", 0, "Maximum terrain height")
	fs.Int64Var(&opts.seed, "seed", -1, "Seed (default: config, $TERRAIN_SEED or current time)")
	fs.StringVar(&opts.noise, "noise", "", "Noise kind: perlin, opensimplex")
	fs.BoolVar(&opts.noCaves, "no-caves", false, "Disable cave carving")
	fs.BoolVar(&opts.entrances, "entrances", false, "Open cave entrances")
	fs.BoolVar(&opts.overhangs, "overhangs", false, "Grow overhangs over cliffs")
	fs.BoolVar(&opts.stabilize, "stabilize", false, "Remove voxels without support")
	fs.StringVar(&opts.out, "out", "", "Voxel array output file (default: stdout)")
	fs.StringVar(&opts.glb, "glb", "", "Write binary glTF preview")
	fs.StringVar(&opts.snapshot, "snapshot", "", "Write compressed grid snapshot")
	fs.StringVar(&opts.cache, "cache", "", "Grid cache directory")
	fs.StringVar(&opts.metrics, "metrics", "", "Write Prometheus metrics textfile")
	fs.StringVar(&opts.otlp, "otlp", "", "OTLP HTTP collector endpoint (host:port)")
	fs.StringVar(&opts.logDir, "log-dir", "", "Log file directory")
	fs.StringVar(&opts.logLevel, "log-level", "", "Console log level: trace, debug, info, warn, error")
	fs.IntVar(&opts.batch, "batch", 0, "Generate N consecutive seeds and print summaries")
	fs.IntVar(&opts.workers, "workers", 0, "Parallel workers for -batch (default: unlimited)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.seed > int64(^uint32(0)) {
		return nil, fmt.Errorf("сид %d вне диапазона uint32", opts.seed)
	}
	return opts, nil
}

// applyOptions переносит заданные флаги в конфигурацию
func applyOptions(cfg *config.Config, opts *options) {
	if opts.size > 0 {
		cfg.Map.Size = opts.size
	}
	if opts.gridHeight > 0 {
		cfg.Map.GridHeight = opts.gridHeight
	}
	if opts.maxHeight > 0 {
		cfg.Map.MaxHeight = opts.maxHeight
	}
	if opts.noise != "" {
		cfg.Terrain.Noise = opts.noise
	}
	if opts.noCaves {
		cfg.Caves.Enabled = false
	}
	if opts.entrances {
		cfg.Caves.Entrances = true
	}
	if opts.overhangs {
		cfg.Structure.Overhangs = true
	}
	if opts.stabilize {
		cfg.Structure.Stabilize = true
	}
	if opts.out != "" {
		cfg.Output.VoxelArray = opts.out
	}
	if opts.glb != "" {
		cfg.Output.PreviewGLB = opts.glb
	}
	if opts.snapshot != "" {
		cfg.Output.Snapshot = opts.snapshot
	}
	if opts.cache != "" {
		cfg.Output.CacheDir = opts.cache
	}
	if opts.metrics != "" {
		cfg.Output.MetricsFile = opts.metrics
	}
	if opts.logDir != "" {
		cfg.Logging.Dir = opts.logDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyOptions(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Инициализируем систему логирования
	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger(serviceName); err != nil {
		return fmt.Errorf("ошибка инициализации логирования: %w", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logging.Default().SetLevels(level, logging.TRACE)

	if opts.otlp != "" {
		shutdown, err := observability.InitTelemetry(ctx, serviceName, opts.otlp)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
			}
		}()
	}

	params, err := pipeline.ParamsFromConfig(cfg)
	if err != nil {
		return err
	}
	switch {
	case opts.seed >= 0:
		params.Seed = uint32(opts.seed)
	case params.Seed == 0:
		params.Seed = uint32(time.Now().UnixNano())
		logging.Info("🎲 Сид не задан, используется %d", params.Seed)
	}

	registry := prometheus.NewRegistry()
	gen := pipeline.NewGenerator(pipeline.NewMetrics(registry))
	gen.Logger.SetLevels(level, logging.TRACE)

	if cfg.Output.CacheDir != "" {
		store, err := storage.Open(cfg.Output.CacheDir)
		if err != nil {
			return err
		}
		defer store.Close()
		gen.Cache = store
	}

	if opts.batch > 0 {
		err = runBatch(ctx, gen, params, opts.batch, opts.workers, stdout)
	} else {
		err = runSingle(ctx, gen, params, cfg.Output, stdout)
	}
	if err != nil {
		return err
	}

	if cfg.Output.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.Output.MetricsFile, registry); err != nil {
			return fmt.Errorf("ошибка записи метрик: %w", err)
		}
		logging.Debug("Метрики записаны в %s", cfg.Output.MetricsFile)
	}

	reportResources()
	return nil
}
