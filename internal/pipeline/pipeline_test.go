package pipeline

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lawless-m/Toberboon/internal/caves"
	"github.com/lawless-m/Toberboon/internal/config"
	"github.com/lawless-m/Toberboon/internal/logging"
	"github.com/lawless-m/Toberboon/internal/noise"
	"github.com/lawless-m/Toberboon/internal/storage"
	"github.com/lawless-m/Toberboon/internal/terrain"
	"github.com/lawless-m/Toberboon/internal/voxel"
)

func smallParams(seed uint32) Params {
	p := DefaultParams()
	p.Width, p.Depth = 24, 20
	p.Seed = seed
	return p
}

func TestGenerateMatchesManualComposition(t *testing.T) {
	p := smallParams(12345)

	res, err := (&Generator{}).Generate(context.Background(), p)
	require.NoError(t, err)

	hm := terrain.GenerateHeightmap(p.Width, p.Depth, p.Seed, p.Scale, p.Octaves, p.Persistence, p.Lacunarity, p.MaxHeight)
	grid := voxel.New(p.Width, p.GridHeight, p.Depth)
	grid.FillFromHeightmap(hm)
	fill := grid.SolidCount()
	caves.CarveCaves(grid, p.Seed, p.CaveCount, p.CaveThreshold, p.MaxHeight)

	assert.Equal(t, hm, res.Heightmap)
	assert.Equal(t, fill, res.SolidAfterFill)
	assert.True(t, grid.Equal(res.Grid), "конвейер должен совпадать с ручной композицией")
	assert.Equal(t, grid.SolidCount(), res.SolidAfterCaves)
	assert.Equal(t, grid.ToVoxelArray(), res.VoxelArray())
	assert.Contains(t, res.Durations, StageHeightmap)
	assert.Contains(t, res.Durations, StageCaves)
	assert.NotContains(t, res.Durations, StageEntrances)
}

func TestGenerateDeterministic(t *testing.T) {
	gen := &Generator{}
	a, err := gen.Generate(context.Background(), smallParams(7))
	require.NoError(t, err)
	b, err := gen.Generate(context.Background(), smallParams(7))
	require.NoError(t, err)

	assert.Equal(t, a.VoxelArray(), b.VoxelArray())
	assert.NotEqual(t, a.RunID, b.RunID, "каждый прогон получает свой RunID")
}

func TestGenerateWithoutCaves(t *testing.T) {
	p := smallParams(3)
	p.CavesEnabled = false
	p.Entrances = true

	res, err := (&Generator{}).Generate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, res.SolidAfterFill, res.SolidAfterCaves)
	assert.Equal(t, 0, res.Carved())
	assert.NotContains(t, res.Durations, StageCaves)
}

func TestGenerateWithEntrances(t *testing.T) {
	p := smallParams(11)
	p.GridHeight = 40
	p.Entrances = true

	res, err := (&Generator{}).Generate(context.Background(), p)
	require.NoError(t, err)
	assert.Contains(t, res.Durations, StageEntrances)
	assert.GreaterOrEqual(t, res.Carved(), res.EntrancesOpened)
}

func TestGenerateErrors(t *testing.T) {
	p := smallParams(1)
	p.NoiseKind = "worley"
	_, err := (&Generator{}).Generate(context.Background(), p)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Generator{}).Generate(ctx, smallParams(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateDefaultTerrainIsNotSlab(t *testing.T) {
	p := DefaultParams()
	p.Seed = 12345
	p.CavesEnabled = false

	res, err := (&Generator{}).Generate(context.Background(), p)
	require.NoError(t, err)

	total := p.Width * p.Depth * p.GridHeight
	assert.Less(t, res.SolidAfterFill, total, "часть колонок должна быть ниже верха сетки")
	assert.Greater(t, res.Stats.Max-res.Stats.Min, 0.5*(p.MaxHeight-terrain.BaseHeightRatio*p.MaxHeight))
}

func TestGenerateStructureStages(t *testing.T) {
	p := smallParams(31)
	p.Entrances = true
	p.Overhangs = true
	p.OverhangChance = 1.0
	p.MinCliffHeight = 2
	p.Stabilize = true

	res, err := (&Generator{}).Generate(context.Background(), p)
	require.NoError(t, err)

	grid := voxel.New(p.Width, p.GridHeight, p.Depth)
	grid.FillFromHeightmap(terrain.GenerateHeightmap(p.Width, p.Depth, p.Seed, p.Scale, p.Octaves, p.Persistence, p.Lacunarity, p.MaxHeight))
	caves.CarveCaves(grid, p.Seed, p.CaveCount, p.CaveThreshold, p.MaxHeight)
	caves.CreateEntrances(grid)
	added := terrain.GenerateOverhangs(grid, p.Seed, p.OverhangChance, p.MinCliffHeight)
	removed := terrain.Stabilize(grid)

	assert.True(t, grid.Equal(res.Grid), "стадии выполняются в порядке пещеры -> входы -> навесы -> опора")
	assert.Equal(t, added, res.OverhangsAdded)
	assert.Equal(t, removed, res.Unsupported)
	assert.Equal(t, grid.SolidCount(), res.SolidFinal)
	assert.Contains(t, res.Durations, StageOverhangs)
	assert.Contains(t, res.Durations, StageStabilize)
	assert.Equal(t, 0, terrain.Stabilize(res.Grid), "после проверки все ячейки держатся")
}

func TestGenerateDegenerate(t *testing.T) {
	p := smallParams(5)
	p.Width = 0

	res, err := (&Generator{}).Generate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SolidAfterCaves)
	assert.Equal(t, "", res.VoxelArray())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	gen := &Generator{Metrics: NewMetrics(reg)}

	_, err := gen.Generate(context.Background(), smallParams(1))
	require.NoError(t, err)
	res, err := gen.Generate(context.Background(), smallParams(2))
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(gen.Metrics.runs))
	assert.Equal(t, float64(res.SolidFinal), testutil.ToFloat64(gen.Metrics.solid))
	assert.Greater(t, testutil.ToFloat64(gen.Metrics.carved), 0.0)
	assert.Equal(t, 3, testutil.CollectAndCount(gen.Metrics.stageDuration), "по одной серии на стадию")
}

func TestTracingSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	defer tp.Shutdown(context.Background())

	gen := &Generator{Tracer: tp.Tracer(tracerName)}
	_, err := gen.Generate(context.Background(), smallParams(9))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, s := range exp.GetSpans() {
		names[s.Name] = true
	}
	for _, want := range []string{"generate", StageHeightmap, StageFill, StageCaves} {
		assert.True(t, names[want], "ожидался спан %s", want)
	}
}

func TestGenerateUsesCache(t *testing.T) {
	store, err := storage.OpenInMemory()
	require.NoError(t, err)
	defer store.Close()

	reg := prometheus.NewRegistry()
	gen := &Generator{Metrics: NewMetrics(reg), Cache: store}
	p := smallParams(21)

	first, err := gen.Generate(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := gen.Generate(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, second.Cached, "повторный прогон должен взять сетку из кеша")
	assert.True(t, first.Grid.Equal(second.Grid))
	assert.Nil(t, second.Heightmap)
	assert.Equal(t, 1.0, testutil.ToFloat64(gen.Metrics.cacheHits))
}

func TestGenerateLogs(t *testing.T) {
	var buf bytes.Buffer
	gen := &Generator{Logger: logging.NewWriterLogger("pipeline", &buf, logging.DEBUG)}

	_, err := gen.Generate(context.Background(), smallParams(4))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[INFO] [pipeline]")
	assert.Contains(t, buf.String(), "Заполнено")
}

func TestFingerprint(t *testing.T) {
	a := smallParams(1)
	assert.Equal(t, a.Fingerprint(), smallParams(1).Fingerprint())
	assert.Len(t, a.Fingerprint(), 16)
	assert.NotEqual(t, a.Fingerprint(), a.WithSeed(2).Fingerprint())

	b := a
	b.NoiseKind = ""
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "пустой тип шума равен perlin")

	c := a
	c.CavesEnabled = false
	d := c
	d.CaveCount = 99
	assert.Equal(t, c.Fingerprint(), d.Fingerprint(), "параметры пещер не влияют при выключенных пещерах")
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	e := a
	e.Stabilize = true
	assert.NotEqual(t, a.Fingerprint(), e.Fingerprint())

	f := a
	f.OverhangChance = 0.9
	assert.Equal(t, a.Fingerprint(), f.Fingerprint(), "параметры навесов не влияют при выключенных навесах")
	f.Overhangs = true
	assert.NotEqual(t, a.Fingerprint(), f.Fingerprint())
}

func TestParamsFromConfig(t *testing.T) {
	t.Setenv("TERRAIN_MAP_SIZE", "")
	t.Setenv("TERRAIN_MAX_HEIGHT", "")
	t.Setenv("TERRAIN_SEED", "")

	cfg := config.Default()
	p, err := ParamsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), p)

	cfg.Map.Size = 64
	cfg.Map.Seed = 99
	cfg.Terrain.Noise = "opensimplex"
	cfg.Caves.Entrances = true
	cfg.Structure.Overhangs = true
	cfg.Structure.Stabilize = true
	p, err = ParamsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 64, p.Width)
	assert.Equal(t, 64, p.Depth)
	assert.Equal(t, uint32(99), p.Seed)
	assert.Equal(t, noise.OpenSimplex, p.NoiseKind)
	assert.True(t, p.Entrances)
	assert.True(t, p.Overhangs)
	assert.True(t, p.Stabilize)
	assert.Equal(t, 0.3, p.OverhangChance)

	cfg.Terrain.Noise = "bad"
	_, err = ParamsFromConfig(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestGenerateBatch(t *testing.T) {
	gen := &Generator{}
	params := SeedRange(smallParams(0), 100, 6)
	require.Len(t, params, 6)

	results, err := GenerateBatch(context.Background(), gen, params, 3)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i, res := range results {
		assert.Equal(t, uint32(100+i), res.Params.Seed, "результаты в порядке входа")

		single, err := gen.Generate(context.Background(), params[i])
		require.NoError(t, err)
		assert.True(t, single.Grid.Equal(res.Grid), "параллельный прогон не должен влиять на результат")
	}
}

func TestGenerateBatchError(t *testing.T) {
	params := SeedRange(smallParams(0), 1, 3)
	params[1].NoiseKind = "bad"

	_, err := GenerateBatch(context.Background(), &Generator{}, params, 0)
	assert.Error(t, err)
	assert.Empty(t, SeedRange(smallParams(0), 1, 0))
}

func TestGeneratorConcurrentUse(t *testing.T) {
	gen := &Generator{Metrics: NewMetrics(prometheus.NewRegistry())}
	want, err := gen.Generate(context.Background(), smallParams(55))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := gen.Generate(context.Background(), smallParams(55))
			if assert.NoError(t, err) {
				assert.True(t, want.Grid.Equal(res.Grid))
			}
		}()
	}
	wg.Wait()
}
