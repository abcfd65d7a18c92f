package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// simplexFractal суммирует октавы нормированного OpenSimplex.
// NewNormalized отдаёт [0, 1), каждая октава переводится в [-1, 1).
type simplexFractal struct {
	n           opensimplex.Noise
	octaves     int
	persistence float64
	lacunarity  float64
	scale       float64
}

func newSimplexFractal(seed int64, octaves int, persistence, lacunarity, scale float64) *simplexFractal {
	return &simplexFractal{
		n:           opensimplex.NewNormalized(seed),
		octaves:     octaves,
		persistence: persistence,
		lacunarity:  lacunarity,
		scale:       scale,
	}
}

func (f *simplexFractal) Eval2(x, y float64) float64 {
	total := 0.0
	amplitude := 1.0
	frequency := 1.0
	for i := 0; i < f.octaves; i++ {
		total += (2*f.n.Eval2(x*frequency, y*frequency) - 1) * amplitude
		amplitude *= f.persistence
		frequency *= f.lacunarity
	}
	return total * f.scale
}

func (f *simplexFractal) Eval3(x, y, z float64) float64 {
	total := 0.0
	amplitude := 1.0
	frequency := 1.0
	for i := 0; i < f.octaves; i++ {
		total += (2*f.n.Eval3(x*frequency, y*frequency, z*frequency) - 1) * amplitude
		amplitude *= f.persistence
		frequency *= f.lacunarity
	}
	return total * f.scale
}
