package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lawless-m/Toberboon/internal/logging"
	"github.com/lawless-m/Toberboon/internal/noise"
)

// ErrInvalidConfig возвращается (обёрнутым) при недопустимых значениях конфигурации
var ErrInvalidConfig = errors.New("некорректная конфигурация")

// Значения по умолчанию
const (
	DefaultMapSize    = 128
	DefaultGridHeight = 23
	DefaultMaxHeight  = 50.0
)

// Config корневая структура конфигурации генератора
type Config struct {
	Map       MapConfig       `yaml:"map"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Caves     CavesConfig     `yaml:"caves"`
	Structure StructureConfig `yaml:"structure"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MapConfig описывает размеры карты и сид.
// Нулевые size, max_height и seed означают «не задано»: берутся из ENV или значений по умолчанию.
type MapConfig struct {
	Size       int     `yaml:"size"`
	GridHeight int     `yaml:"grid_height"`
	MaxHeight  float64 `yaml:"max_height"`
	Seed       uint32  `yaml:"seed"`
}

type TerrainConfig struct {
	Scale       float64 `yaml:"scale"`
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Noise       string  `yaml:"noise"`
}

type CavesConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Count     int     `yaml:"count"`
	Threshold float64 `yaml:"threshold"`
	Entrances bool    `yaml:"entrances"`
}

// StructureConfig управляет навесами над обрывами и проверкой опоры
type StructureConfig struct {
	Overhangs      bool    `yaml:"overhangs"`
	OverhangChance float64 `yaml:"overhang_chance"`
	MinCliffHeight int     `yaml:"min_cliff_height"`
	Stabilize      bool    `yaml:"stabilize"`
}

type OutputConfig struct {
	VoxelArray  string `yaml:"voxel_array"`
	PreviewGLB  string `yaml:"preview_glb"`
	Snapshot    string `yaml:"snapshot"`
	CacheDir    string `yaml:"cache_dir"`
	MetricsFile string `yaml:"metrics_file"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Map: MapConfig{
			GridHeight: DefaultGridHeight,
		},
		Terrain: TerrainConfig{
			Scale:       0.02,
			Octaves:     4,
			Persistence: 0.5,
			Lacunarity:  2.0,
			Noise:       string(noise.Perlin),
		},
		Caves: CavesConfig{
			Enabled:   true,
			Count:     5,
			Threshold: 0.5,
		},
		Structure: StructureConfig{
			OverhangChance: 0.3,
			MinCliffHeight: 5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetSize возвращает ширину (и глубину) карты с поддержкой fallback значений
func (m *MapConfig) GetSize() int {
	return getIntWithEnvFallback(m.Size, "TERRAIN_MAP_SIZE", DefaultMapSize)
}

// GetMaxHeight возвращает максимальную высоту рельефа с поддержкой fallback значений
func (m *MapConfig) GetMaxHeight() float64 {
	if m.MaxHeight > 0 {
		return m.MaxHeight
	}
	if envVal := os.Getenv("TERRAIN_MAX_HEIGHT"); envVal != "" {
		if v, err := strconv.ParseFloat(envVal, 64); err == nil && v > 0 {
			return v
		}
	}
	return DefaultMaxHeight
}

// GetSeed возвращает сид; 0 означает, что сид не задан ни в конфиге, ни в ENV
func (m *MapConfig) GetSeed() uint32 {
	if m.Seed > 0 {
		return m.Seed
	}
	if envVal := os.Getenv("TERRAIN_SEED"); envVal != "" {
		if v, err := strconv.ParseUint(envVal, 10, 32); err == nil {
			return uint32(v)
		}
	}
	return 0
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultValue
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV TERRAIN_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TERRAIN_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения конфигурации. Нулевые значения допустимы.
func (c *Config) Validate() error {
	switch {
	case c.Map.Size < 0:
		return fmt.Errorf("%w: map.size = %d", ErrInvalidConfig, c.Map.Size)
	case c.Map.GridHeight < 0:
		return fmt.Errorf("%w: map.grid_height = %d", ErrInvalidConfig, c.Map.GridHeight)
	case c.Map.MaxHeight < 0:
		return fmt.Errorf("%w: map.max_height = %v", ErrInvalidConfig, c.Map.MaxHeight)
	case c.Terrain.Octaves < 0:
		return fmt.Errorf("%w: terrain.octaves = %d", ErrInvalidConfig, c.Terrain.Octaves)
	case c.Caves.Count < 0:
		return fmt.Errorf("%w: caves.count = %d", ErrInvalidConfig, c.Caves.Count)
	case c.Structure.OverhangChance < 0 || c.Structure.OverhangChance > 1:
		return fmt.Errorf("%w: structure.overhang_chance = %v", ErrInvalidConfig, c.Structure.OverhangChance)
	case c.Structure.MinCliffHeight < 0:
		return fmt.Errorf("%w: structure.min_cliff_height = %d", ErrInvalidConfig, c.Structure.MinCliffHeight)
	}

	if _, err := noise.ParseKind(c.Terrain.Noise); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
