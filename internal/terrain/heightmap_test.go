package terrain

import (
	"testing"

	"github.com/lawless-m/Toberboon/internal/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateHeightmapScenario(t *testing.T) {
	hm := GenerateHeightmap(32, 32, 12345, 0.02, 4, 0.5, 2.0, 50.0)

	require.Len(t, hm, 32*32)
	for i, h := range hm {
		require.True(t, h >= 1.0 && h <= 50.0, "высота %d = %v вне [1, 50]", i, h)
	}
}

func TestGenerateHeightmapDeterministic(t *testing.T) {
	a := GenerateHeightmap(24, 17, 777, 0.05, 3, 0.5, 2.0, 40.0)
	b := GenerateHeightmap(24, 17, 777, 0.05, 3, 0.5, 2.0, 40.0)
	assert.Equal(t, a, b, "одинаковые параметры должны давать одинаковую карту")

	c := GenerateHeightmap(24, 17, 778, 0.05, 3, 0.5, 2.0, 40.0)
	assert.NotEqual(t, a, c, "другой сид должен менять карту")
}

func TestGenerateHeightmapLengthAndKinds(t *testing.T) {
	for _, kind := range []noise.Kind{noise.Perlin, noise.OpenSimplex} {
		hm := GenerateHeightmapWith(kind, HeightmapParams{
			Width: 9, Depth: 5, Seed: 3, Scale: 0.1, Octaves: 2,
			Persistence: 0.5, Lacunarity: 2.0, MaxHeight: 30,
		})
		require.Len(t, hm, 45, "%s", kind)
		for _, h := range hm {
			require.True(t, h >= 1.0 && h <= 30.0, "%s: %v", kind, h)
		}
	}

	assert.Empty(t, GenerateHeightmap(0, 10, 1, 0.02, 4, 0.5, 2.0, 50))
	assert.Empty(t, GenerateHeightmap(10, -1, 1, 0.02, 4, 0.5, 2.0, 50))
}

func TestGenerateHeightmapWithPerlinMatchesDefault(t *testing.T) {
	p := HeightmapParams{Width: 8, Depth: 8, Seed: 42, Scale: 0.03, Octaves: 4, Persistence: 0.5, Lacunarity: 2.0, MaxHeight: 50}
	assert.Equal(t,
		GenerateHeightmap(p.Width, p.Depth, p.Seed, p.Scale, p.Octaves, p.Persistence, p.Lacunarity, p.MaxHeight),
		GenerateHeightmapWith(noise.Perlin, p))
}

func TestGenerateHeightmapZeroOctavesIsFlat(t *testing.T) {
	hm := GenerateHeightmap(4, 4, 9, 0.02, 0, 0.5, 2.0, 50)
	// Нулевой шум даёт середину диапазона [0.3*max, max]
	for _, h := range hm {
		assert.InDelta(t, 15+0.5*35, float64(h), 1e-5)
	}
}

func TestRemapHeight(t *testing.T) {
	assert.InDelta(t, 15.0, remapHeight(-1, 15, 50), 1e-12)
	assert.InDelta(t, 50.0, remapHeight(1, 15, 50), 1e-12)
	assert.InDelta(t, 50.0, remapHeight(3, 15, 50), 1e-12, "ограничение сверху")
	assert.InDelta(t, 1.0, remapHeight(-1, 0.3, 1.0), 1e-12, "ограничение снизу")
	assert.InDelta(t, 0.5, remapHeight(0, 0.15, 0.5), 1e-12, "при max < 1 верхняя граница побеждает")
}

func TestAnalyze(t *testing.T) {
	hm := []float32{
		1, 1, 1,
		1, 5, 1,
	}
	s := Analyze(hm, 3, 2, 10)

	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, 10.0/6.0, s.Mean, 1e-12)
	assert.Equal(t, 2, s.UniqueHeights)
	assert.InDelta(t, 40.0, s.RangeScore, 1e-12)
	assert.InDelta(t, 20.0, s.UniqueScore, 1e-12)
	assert.Greater(t, s.AvgVariation, 0.0)
	assert.InDelta(t, (s.RangeScore+s.UniqueScore+s.AvgVariation*10)/3, s.Interest, 1e-12)

	assert.Equal(t, Stats{}, Analyze(nil, 3, 2, 10), "короткая карта даёт пустую статистику")
}

func heightRange(hm []float32) (float32, float32) {
	lo, hi := hm[0], hm[0]
	for _, h := range hm {
		lo = min(lo, h)
		hi = max(hi, h)
	}
	return lo, hi
}

func TestGenerateHeightmapUsesFullRange(t *testing.T) {
	const maxHeight = 50.0
	band := maxHeight - BaseHeightRatio*maxHeight

	hm := GenerateHeightmap(128, 128, 12345, 0.02, 4, 0.5, 2.0, maxHeight)
	lo, hi := heightRange(hm)
	// Рельеф должен занимать больше половины диапазона [base, max]
	assert.Greater(t, float64(hi-lo), 0.5*band, "высоты [%v, %v]", lo, hi)
	// Часть колонок ниже верха сетки высотой 23, иначе заливка даёт сплошную плиту
	assert.Less(t, float64(lo), 23.0)

	hm = GenerateHeightmapWith(noise.OpenSimplex, HeightmapParams{
		Width: 128, Depth: 128, Seed: 12345, Scale: 0.02, Octaves: 4,
		Persistence: 0.5, Lacunarity: 2.0, MaxHeight: maxHeight,
	})
	lo, hi = heightRange(hm)
	assert.Greater(t, float64(hi-lo), 0.3*band, "opensimplex: высоты [%v, %v]", lo, hi)
}
