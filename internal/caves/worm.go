package caves

import (
	"math"

	"github.com/lawless-m/Toberboon/internal/vec"
	"github.com/lawless-m/Toberboon/internal/voxel"
)

const (
	wormStartDepth   = 5   // Минимальная высота старта червя
	wormStartSpan    = 0.6 // Доля высоты сетки для случайного старта
	wormMinSegments  = 50
	wormSegmentRange = 50
	wormMinRadius    = 2
	wormRadiusRange  = 2
	wormStep         = 1.5
	wormMinZ         = 3.0
)

// CarveWormTunnels прокладывает count туннелей-«червей».
// Вся случайность берётся из одного LCG, засеянного seed, в порядке генерации,
// поэтому результат полностью определяется seed.
func CarveWormTunnels(grid *voxel.Grid, seed uint32, count int) {
	rng := NewLCG(seed)
	for i := 0; i < count; i++ {
		carveWorm(grid, rng)
	}
}

func carveWorm(grid *voxel.Grid, rng *LCG) {
	width, height, depth := grid.Dimensions()

	startX := rng.Intn(width)
	startY := rng.Intn(depth)
	startZ := wormStartDepth + rng.Intn(int(float64(height)*wormStartSpan))

	segments := wormMinSegments + rng.Intn(wormSegmentRange)
	radius := wormMinRadius + rng.Intn(wormRadiusRange)

	pos := vec.Vec3Float{X: float64(startX), Y: float64(startY), Z: float64(startZ)}

	var dir vec.Vec3Float
	dir.X = rng.Float64() - 0.5
	dir.Y = rng.Float64() - 0.5
	dir.Z = (rng.Float64() - 0.5) * 0.5

	for s := 0; s < segments; s++ {
		carveSphere(grid, pos.Trunc(), radius)

		// Случайное блуждание направления
		dir.X += (rng.Float64() - 0.5) * 0.5
		dir.Y += (rng.Float64() - 0.5) * 0.5
		dir.Z += (rng.Float64() - 0.5) * 0.3
		dir = dir.Normalized()

		pos = pos.Add(dir.Mul(wormStep))

		// Держим червя подальше от внешней оболочки и поверхности
		pos.X = clampMaxMin(pos.X, 1, float64(width-2))
		pos.Y = clampMaxMin(pos.Y, 1, float64(depth-2))
		pos.Z = clampMaxMin(pos.Z, wormMinZ, float64(height-2))
	}
}

// clampMaxMin применяет сначала нижнюю, затем верхнюю границу.
// Если hi < lo, результат равен hi.
func clampMaxMin(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// carveSphere удаляет все ячейки на евклидовом расстоянии <= radius от центра.
// Отрицательные координаты прижимаются к нулю, а не отбрасываются.
func carveSphere(grid *voxel.Grid, center vec.Vec3, radius int) {
	if radius <= 0 {
		return
	}

	center = vec.Vec3{X: max(center.X, 0), Y: max(center.Y, 0), Z: max(center.Z, 0)}
	r2 := radius * radius

	for dz := -radius; dz <= radius; dz++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				offset := vec.Vec3{X: dx, Y: dy, Z: dz}
				if offset.LengthSq() > r2 {
					continue
				}
				p := center.Add(offset)
				grid.Set(max(p.X, 0), max(p.Y, 0), max(p.Z, 0), false)
			}
		}
	}
}
