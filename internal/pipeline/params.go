package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/lawless-m/Toberboon/internal/config"
	"github.com/lawless-m/Toberboon/internal/noise"
	"github.com/lawless-m/Toberboon/internal/terrain"
)

// Params - полный набор параметров одного прогона генерации
type Params struct {
	Width      int
	Depth      int
	GridHeight int // Высота воксельной сетки
	MaxHeight  float64
	Seed       uint32

	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	NoiseKind   noise.Kind

	CavesEnabled  bool
	CaveCount     int
	CaveThreshold float64
	Entrances     bool

	// Навесы над обрывами (сид seed+2000)
	Overhangs      bool
	OverhangChance float64
	MinCliffHeight int

	// Удаление ячеек без опоры после всех остальных стадий
	Stabilize bool
}

// DefaultParams возвращает параметры по умолчанию (карта 128x128, высота 50)
func DefaultParams() Params {
	return Params{
		Width:         config.DefaultMapSize,
		Depth:         config.DefaultMapSize,
		GridHeight:    config.DefaultGridHeight,
		MaxHeight:     config.DefaultMaxHeight,
		Scale:         0.02,
		Octaves:       4,
		Persistence:   0.5,
		Lacunarity:    2.0,
		NoiseKind:     noise.Perlin,
		CavesEnabled:  true,
		CaveCount:     5,
		CaveThreshold: 0.5,

		OverhangChance: terrain.DefaultOverhangChance,
		MinCliffHeight: terrain.DefaultMinCliffHeight,
	}
}

// ParamsFromConfig собирает параметры из конфигурации
func ParamsFromConfig(cfg *config.Config) (Params, error) {
	kind, err := noise.ParseKind(cfg.Terrain.Noise)
	if err != nil {
		return Params{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	size := cfg.Map.GetSize()
	return Params{
		Width:         size,
		Depth:         size,
		GridHeight:    cfg.Map.GridHeight,
		MaxHeight:     cfg.Map.GetMaxHeight(),
		Seed:          cfg.Map.GetSeed(),
		Scale:         cfg.Terrain.Scale,
		Octaves:       cfg.Terrain.Octaves,
		Persistence:   cfg.Terrain.Persistence,
		Lacunarity:    cfg.Terrain.Lacunarity,
		NoiseKind:     kind,
		CavesEnabled:  cfg.Caves.Enabled,
		CaveCount:     cfg.Caves.Count,
		CaveThreshold: cfg.Caves.Threshold,
		Entrances:     cfg.Caves.Entrances,

		Overhangs:      cfg.Structure.Overhangs,
		OverhangChance: cfg.Structure.OverhangChance,
		MinCliffHeight: cfg.Structure.MinCliffHeight,
		Stabilize:      cfg.Structure.Stabilize,
	}, nil
}

// WithSeed возвращает копию параметров с другим сидом
func (p Params) WithSeed(seed uint32) Params {
	p.Seed = seed
	return p
}

// canonical возвращает каноническую строку параметров
func (p Params) canonical() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	kind := p.NoiseKind
	if kind == "" {
		kind = noise.Perlin
	}

	caves := "off"
	if p.CavesEnabled {
		caves = fmt.Sprintf("%d/%s/%t", p.CaveCount, f(p.CaveThreshold), p.Entrances)
	}

	overhangs := "off"
	if p.Overhangs {
		overhangs = fmt.Sprintf("%s/%d", f(p.OverhangChance), p.MinCliffHeight)
	}

	return strings.Join([]string{
		"v2",
		strconv.Itoa(p.Width), strconv.Itoa(p.Depth), strconv.Itoa(p.GridHeight),
		f(p.MaxHeight), strconv.FormatUint(uint64(p.Seed), 10),
		f(p.Scale), strconv.Itoa(p.Octaves), f(p.Persistence), f(p.Lacunarity),
		string(kind), caves, overhangs, strconv.FormatBool(p.Stabilize),
	}, "|")
}

// Fingerprint возвращает отпечаток параметров (xxhash64, hex).
// Одинаковые параметры всегда дают одну и ту же сетку и один и тот же отпечаток.
func (p Params) Fingerprint() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(p.canonical()))
}
