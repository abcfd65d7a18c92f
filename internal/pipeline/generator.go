// Package pipeline связывает генерацию карты высот, заполнение сетки и вырезание пещер
// в один прогон с метриками, трассировкой и необязательным кешем сеток.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lawless-m/Toberboon/internal/caves"
	"github.com/lawless-m/Toberboon/internal/logging"
	"github.com/lawless-m/Toberboon/internal/noise"
	"github.com/lawless-m/Toberboon/internal/storage"
	"github.com/lawless-m/Toberboon/internal/terrain"
	"github.com/lawless-m/Toberboon/internal/voxel"
)

const tracerName = "toberboon/pipeline"

// Названия стадий (метка stage в метриках и имена спанов)
const (
	StageHeightmap = "heightmap"
	StageFill      = "fill"
	StageCaves     = "caves"
	StageEntrances = "entrances"
	StageOverhangs = "overhangs"
	StageStabilize = "stabilize"
)

// GridCache - хранилище готовых сеток по отпечатку параметров
type GridCache interface {
	Load(key string) (*voxel.Grid, error)
	Save(key string, grid *voxel.Grid) error
}

// Generator выполняет прогоны генерации. Безопасен для параллельного использования.
// Нулевое значение пригодно к работе: без метрик, логов и кеша.
type Generator struct {
	Metrics *Metrics
	Logger  *logging.Logger
	Cache   GridCache
	Tracer  trace.Tracer // nil - глобальный TracerProvider
}

// NewGenerator создаёт генератор с логгером компонента pipeline
func NewGenerator(metrics *Metrics) *Generator {
	return &Generator{
		Metrics: metrics,
		Logger:  logging.GetPipelineLogger(),
	}
}

// Result - результат одного прогона
type Result struct {
	RunID     uuid.UUID
	Params    Params
	Grid      *voxel.Grid
	Heightmap []float32     // nil, если сетка взята из кеша
	Stats     terrain.Stats // Нулевая при попадании в кеш
	Cached    bool

	SolidAfterFill  int
	SolidAfterCaves int
	EntrancesOpened int
	OverhangsAdded  int
	Unsupported     int // Удалено проверкой опоры
	SolidFinal      int
	Durations       map[string]time.Duration
}

// VoxelArray сериализует сетку результата (см. voxel.Grid.ToVoxelArray)
func (r *Result) VoxelArray() string {
	return r.Grid.ToVoxelArray()
}

// Carved возвращает число вокселей, удалённых пещерами и входами
func (r *Result) Carved() int {
	return r.SolidAfterFill - r.SolidAfterCaves
}

func (g *Generator) tracer() trace.Tracer {
	if g.Tracer != nil {
		return g.Tracer
	}
	return otel.Tracer(tracerName)
}

// Generate выполняет прогон: карта высот -> заполнение сетки -> пещеры -> входы -> навесы -> проверка опоры.
// Контекст используется для трассировки и проверки отмены между стадиями.
func (g *Generator) Generate(ctx context.Context, p Params) (*Result, error) {
	kind, err := noise.ParseKind(string(p.NoiseKind))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.New(),
		Params:    p,
		Durations: make(map[string]time.Duration),
	}

	ctx, span := g.tracer().Start(ctx, "generate", trace.WithAttributes(
		attribute.String("terrain.run_id", res.RunID.String()),
		attribute.Int64("terrain.seed", int64(p.Seed)),
		attribute.Int("terrain.width", p.Width),
		attribute.Int("terrain.depth", p.Depth),
		attribute.Int("terrain.grid_height", p.GridHeight),
		attribute.String("terrain.noise", string(kind)),
	))
	defer span.End()

	g.Logger.Info("🏔️ Генерация карты %dx%dx%d (seed=%d, шум=%s, run=%s)",
		p.Width, p.Depth, p.GridHeight, p.Seed, kind, res.RunID)

	key := p.Fingerprint()
	if grid := g.loadCached(key); grid != nil {
		res.Grid = grid
		res.Cached = true
		res.SolidAfterFill = grid.SolidCount()
		res.SolidAfterCaves = res.SolidAfterFill
		res.SolidFinal = res.SolidAfterFill

		span.SetAttributes(attribute.Bool("terrain.cached", true))
		g.Logger.Info("💾 Сетка %s взята из кеша", key)
		g.Metrics.observeRun(res)
		return res, nil
	}

	err = g.stage(ctx, res, StageHeightmap, func(span trace.Span) {
		res.Heightmap = terrain.GenerateHeightmapWith(kind, terrain.HeightmapParams{
			Width:       p.Width,
			Depth:       p.Depth,
			Seed:        p.Seed,
			Scale:       p.Scale,
			Octaves:     p.Octaves,
			Persistence: p.Persistence,
			Lacunarity:  p.Lacunarity,
			MaxHeight:   p.MaxHeight,
		})
		res.Stats = terrain.Analyze(res.Heightmap, p.Width, p.Depth, p.MaxHeight)
		span.SetAttributes(attribute.Float64("terrain.interest", res.Stats.Interest))
	})
	if err != nil {
		return nil, g.fail(span, err)
	}

	err = g.stage(ctx, res, StageFill, func(span trace.Span) {
		res.Grid = voxel.New(p.Width, p.GridHeight, p.Depth)
		res.Grid.FillFromHeightmap(res.Heightmap)
		res.SolidAfterFill = res.Grid.SolidCount()
		span.SetAttributes(attribute.Int("terrain.solid", res.SolidAfterFill))
	})
	if err != nil {
		return nil, g.fail(span, err)
	}
	g.Logger.Debug("Заполнено %s вокселей", humanize.Comma(int64(res.SolidAfterFill)))

	res.SolidAfterCaves = res.SolidAfterFill
	if p.CavesEnabled {
		err = g.stage(ctx, res, StageCaves, func(span trace.Span) {
			caves.CarveCavesWith(kind, res.Grid, p.Seed, p.CaveCount, p.CaveThreshold, p.MaxHeight)
			res.SolidAfterCaves = res.Grid.SolidCount()
			span.SetAttributes(attribute.Int("terrain.carved", res.Carved()))
		})
		if err != nil {
			return nil, g.fail(span, err)
		}
		g.Logger.Debug("🕳️ Пещеры вырезали %s вокселей", humanize.Comma(int64(res.Carved())))

		if p.Entrances {
			err = g.stage(ctx, res, StageEntrances, func(span trace.Span) {
				res.EntrancesOpened = caves.CreateEntrances(res.Grid)
				res.SolidAfterCaves = res.Grid.SolidCount()
				span.SetAttributes(attribute.Int("terrain.entrances", res.EntrancesOpened))
			})
			if err != nil {
				return nil, g.fail(span, err)
			}
		}
	}

	if p.Overhangs {
		err = g.stage(ctx, res, StageOverhangs, func(span trace.Span) {
			res.OverhangsAdded = terrain.GenerateOverhangs(res.Grid, p.Seed, p.OverhangChance, p.MinCliffHeight)
			span.SetAttributes(attribute.Int("terrain.overhangs", res.OverhangsAdded))
		})
		if err != nil {
			return nil, g.fail(span, err)
		}
	}

	if p.Stabilize {
		err = g.stage(ctx, res, StageStabilize, func(span trace.Span) {
			res.Unsupported = terrain.Stabilize(res.Grid)
			span.SetAttributes(attribute.Int("terrain.unsupported", res.Unsupported))
		})
		if err != nil {
			return nil, g.fail(span, err)
		}
		if res.Unsupported > 0 {
			g.Logger.Debug("🧱 Удалено %s вокселей без опоры", humanize.Comma(int64(res.Unsupported)))
		}
	}
	res.SolidFinal = res.SolidAfterCaves + res.OverhangsAdded - res.Unsupported

	if g.Cache != nil {
		if err := g.Cache.Save(key, res.Grid); err != nil {
			g.Logger.Warn("Не удалось сохранить сетку %s в кеш: %v", key, err)
		}
	}

	g.Metrics.observeRun(res)
	g.Logger.Info("✅ Карта готова: %s заполненных вокселей, вырезано %s (run=%s)",
		humanize.Comma(int64(res.SolidFinal)), humanize.Comma(int64(res.Carved())), res.RunID)
	return res, nil
}

// stage выполняет одну стадию в отдельном спане и записывает её длительность
func (g *Generator) stage(ctx context.Context, res *Result, name string, fn func(span trace.Span)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, span := g.tracer().Start(ctx, name)
	defer span.End()

	start := time.Now()
	fn(span)
	elapsed := time.Since(start)

	res.Durations[name] = elapsed
	g.Metrics.observeStage(name, elapsed)
	return nil
}

func (g *Generator) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	g.Logger.Warn("Генерация прервана: %v", err)
	return err
}

// loadCached возвращает сетку из кеша или nil при промахе
func (g *Generator) loadCached(key string) *voxel.Grid {
	if g.Cache == nil {
		return nil
	}

	grid, err := g.Cache.Load(key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			g.Logger.Warn("Ошибка чтения кеша %s: %v", key, err)
		}
		return nil
	}
	return grid
}
