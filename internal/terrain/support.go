package terrain

import "github.com/lawless-m/Toberboon/internal/voxel"

// MaxOverhang - сколько шагов вбок подряд допускается на пути к опоре
const MaxOverhang = 3

// Stabilize удаляет заполненные ячейки без опоры и возвращает их число.
//
// Ячейка нижнего слоя держится всегда. Ячейка, стоящая на заполненной, держится только
// через неё. Ячейка над воздухом держится, если не дальше MaxOverhang шагов вбок по
// заполненным ячейкам своего слоя есть ячейка, стоящая на опоре.
// Все ячейки проверяются по исходной сетке и удаляются разом, поэтому повторный вызов ничего не меняет.
func Stabilize(grid *voxel.Grid) int {
	width, height, depth := grid.Dimensions()
	layer := width * depth
	if layer == 0 || height < 2 {
		return 0
	}

	// budget: запас шагов вбок для заполненной ячейки с опорой, -1 для остальных
	below := make([]int8, layer)
	current := make([]int8, layer)
	for y := 0; y < depth; y++ {
		for x := 0; x < width; x++ {
			below[y*width+x] = -1
			if grid.Get(x, y, 0) {
				below[y*width+x] = MaxOverhang
			}
		}
	}

	var unsupported [][3]int
	queue := make([]int, 0, layer)

	for z := 1; z < height; z++ {
		queue = queue[:0]
		for y := 0; y < depth; y++ {
			for x := 0; x < width; x++ {
				i := y*width + x
				current[i] = -1
				if grid.Get(x, y, z) && below[i] >= 0 {
					current[i] = MaxOverhang
					queue = append(queue, i)
				}
			}
		}

		// Все источники имеют одинаковый запас, поэтому обход в ширину даёт наибольший запас
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			next := current[i] - 1
			if next < 0 {
				continue
			}

			x, y := i%width, i/width
			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || nx >= width || ny < 0 || ny >= depth {
					continue
				}
				j := ny*width + nx
				// Ячейка над заполненной опирается только на неё
				if current[j] >= next || !grid.Get(nx, ny, z) || grid.Get(nx, ny, z-1) {
					continue
				}
				current[j] = next
				queue = append(queue, j)
			}
		}

		for y := 0; y < depth; y++ {
			for x := 0; x < width; x++ {
				if current[y*width+x] < 0 && grid.Get(x, y, z) {
					unsupported = append(unsupported, [3]int{x, y, z})
				}
			}
		}
		below, current = current, below
	}

	for _, c := range unsupported {
		grid.Set(c[0], c[1], c[2], false)
	}
	return len(unsupported)
}
