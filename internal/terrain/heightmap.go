package terrain

import (
	"math"

	"github.com/lawless-m/Toberboon/internal/noise"
)

// BaseHeightRatio - доля max_height, в которую отображается значение шума -1
const BaseHeightRatio = 0.3

// MinHeight - нижняя граница высоты колонки
const MinHeight = 1.0

// HeightmapParams описывает параметры генерации карты высот
type HeightmapParams struct {
	Width       int
	Depth       int
	Seed        uint32
	Scale       float64 // Масштаб координат шума
	Octaves     int
	Persistence float64 // Затухание амплитуды на октаву
	Lacunarity  float64 // Рост частоты на октаву
	MaxHeight   float64
}

// GenerateHeightmap строит карту высот на шуме Перлина.
// Результат - width*depth значений с построчным обходом (x меняется быстрее), каждое в [1, maxHeight].
func GenerateHeightmap(width, depth int, seed uint32, scale float64, octaves int, persistence, lacunarity, maxHeight float64) []float32 {
	return GenerateHeightmapWith(noise.Perlin, HeightmapParams{
		Width:       width,
		Depth:       depth,
		Seed:        seed,
		Scale:       scale,
		Octaves:     octaves,
		Persistence: persistence,
		Lacunarity:  lacunarity,
		MaxHeight:   maxHeight,
	})
}

// GenerateHeightmapWith строит карту высот на указанном типе шума
func GenerateHeightmapWith(kind noise.Kind, p HeightmapParams) []float32 {
	width, depth := max(p.Width, 0), max(p.Depth, 0)
	heightmap := make([]float32, 0, width*depth)
	if width*depth == 0 {
		return heightmap
	}

	field := noise.NewFractal(kind, int64(p.Seed), p.Octaves, p.Persistence, p.Lacunarity)
	baseHeight := p.MaxHeight * BaseHeightRatio

	for y := 0; y < depth; y++ {
		for x := 0; x < width; x++ {
			n := field.Eval2(float64(x)*p.Scale, float64(y)*p.Scale)
			heightmap = append(heightmap, float32(remapHeight(n, baseHeight, p.MaxHeight)))
		}
	}

	return heightmap
}

// remapHeight переводит шум из [-1,1] в [baseHeight, maxHeight] и ограничивает результат [MinHeight, maxHeight]
func remapHeight(n, baseHeight, maxHeight float64) float64 {
	h := baseHeight + ((n+1)/2)*(maxHeight-baseHeight)
	return math.Min(math.Max(h, MinHeight), maxHeight)
}
