package caves

import (
	"math"

	"github.com/lawless-m/Toberboon/internal/noise"
	"github.com/lawless-m/Toberboon/internal/voxel"
)

const (
	cavernFloor     = 3   // Нижние слои, которые никогда не вырезаются
	cavernCeiling   = 0.7 // Доля max_height, выше которой пещеры не вырезаются
	cavernFrequency = 0.1
)

// CarveCaverns вырезает каверны там, где одноктавный 3D шум Перлина превышает threshold.
// Обрабатываются слои z в [3, min(0.7*maxHeight, height)).
func CarveCaverns(grid *voxel.Grid, seed uint32, threshold, maxHeight float64) {
	CarveCavernsWith(noise.Perlin, grid, seed, threshold, maxHeight)
}

// CarveCavernsWith - то же, что CarveCaverns, на указанном типе шума
func CarveCavernsWith(kind noise.Kind, grid *voxel.Grid, seed uint32, threshold, maxHeight float64) {
	width, height, depth := grid.Dimensions()
	maxZ := min(cavernTop(maxHeight), height)
	if maxZ <= cavernFloor {
		return
	}

	field := noise.NewSingle(kind, int64(seed))

	for z := cavernFloor; z < maxZ; z++ {
		for y := 0; y < depth; y++ {
			for x := 0; x < width; x++ {
				if !grid.Get(x, y, z) {
					continue // уже воздух
				}

				v := field.Eval3(float64(x)*cavernFrequency, float64(y)*cavernFrequency, float64(z)*cavernFrequency)
				if v > threshold {
					grid.Set(x, y, z, false)
				}
			}
		}
	}
}

func cavernTop(maxHeight float64) int {
	top := maxHeight * cavernCeiling
	if math.IsNaN(top) || top <= 0 {
		return 0
	}
	if top >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(top)
}
