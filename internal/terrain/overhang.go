package terrain

import (
	"math"

	"github.com/lawless-m/Toberboon/internal/caves"
	"github.com/lawless-m/Toberboon/internal/vec"
	"github.com/lawless-m/Toberboon/internal/voxel"
)

// OverhangSeedOffset - смещение сида навесов относительно сида карты
const OverhangSeedOffset = 2000

// Значения по умолчанию для навесов
const (
	DefaultOverhangChance = 0.3
	DefaultMinCliffHeight = 5
)

var cliffDirections = [4]vec.Vec2{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}

// GenerateOverhangs достраивает навесы над обрывами и возвращает число добавленных ячеек.
//
// Обрыв - колонка, поверхность которой выше поверхности одного из четырёх соседей
// не меньше чем на minCliffHeight. С вероятностью chance от верхней ячейки обрыва
// в сторону самого низкого соседа вытягивается выступ длиной 1..3, иногда с ячейкой под ним.
// Поток случайных чисел берётся из LCG с сидом seed+2000.
func GenerateOverhangs(grid *voxel.Grid, seed uint32, chance float64, minCliffHeight int) int {
	width, _, depth := grid.Dimensions()
	rng := caves.NewLCG(seed + OverhangSeedOffset)

	var cliffs []vec.Vec3
	for x := 1; x < width-1; x++ {
		for y := 1; y < depth-1; y++ {
			top := grid.SurfaceHeight(x, y)
			for _, d := range cliffDirections {
				if top-grid.SurfaceHeight(x+d.X, y+d.Y) >= minCliffHeight {
					cliffs = append(cliffs, vec.Vec3{X: x, Y: y, Z: top})
					break
				}
			}
		}
	}

	added := 0
	fill := func(x, y, z int) {
		if grid.InBounds(x, y, z) && !grid.Get(x, y, z) {
			grid.Set(x, y, z, true)
			added++
		}
	}

	for _, cliff := range cliffs {
		if rng.Float64() >= chance {
			continue
		}

		length := 1 + rng.Intn(MaxOverhang)
		dir := lowestNeighbor(grid, cliff.X, cliff.Y)
		for dist := 1; dist <= length; dist++ {
			x, y := cliff.X+dir.X*dist, cliff.Y+dir.Y*dist
			if !grid.InBounds(x, y, cliff.Z) {
				continue
			}
			fill(x, y, cliff.Z)
			if rng.Float64() > 0.5 && dist < length {
				fill(x, y, cliff.Z-1)
			}
		}
	}
	return added
}

// lowestNeighbor возвращает направление на соседа с самой низкой поверхностью (первый при равенстве)
func lowestNeighbor(grid *voxel.Grid, x, y int) vec.Vec2 {
	best := cliffDirections[0]
	lowest := math.MaxInt
	for _, d := range cliffDirections {
		if h := grid.SurfaceHeight(x+d.X, y+d.Y); h < lowest {
			lowest = h
			best = d
		}
	}
	return best
}
