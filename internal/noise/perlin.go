package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Пик классического градиентного шума с единичными градиентами: sqrt(n)/2.
// Множители растягивают одну октаву до [-1, 1].
var (
	perlinScale2 = math.Sqrt2
	perlinScale3 = 2 / math.Sqrt(3)
)

// perlinFractal использует встроенный fBm из go-perlin:
// alpha - делитель амплитуды (1/persistence), beta - множитель частоты (lacunarity), n - число октав.
// Сумма октав линейна, поэтому растяжение применяется к результату целиком.
type perlinFractal struct {
	p     *perlin.Perlin
	scale float64
}

func newPerlinFractal(seed int64, octaves int, persistence, lacunarity, scale float64) *perlinFractal {
	alpha := 1.0 / persistence
	return &perlinFractal{
		p:     perlin.NewPerlin(alpha, lacunarity, int32(octaves), seed),
		scale: scale,
	}
}

func (f *perlinFractal) Eval2(x, y float64) float64 {
	return f.p.Noise2D(x, y) * perlinScale2 * f.scale
}

func (f *perlinFractal) Eval3(x, y, z float64) float64 {
	return f.p.Noise3D(x, y, z) * perlinScale3 * f.scale
}
