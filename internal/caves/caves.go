// Package caves вырезает пустоты в воксельной сетке: туннели-«черви» и шумовые каверны.
package caves

import (
	"github.com/lawless-m/Toberboon/internal/noise"
	"github.com/lawless-m/Toberboon/internal/voxel"
)

// CavernSeedOffset - смещение сида каверн относительно сида туннелей
const CavernSeedOffset = 1000

// CarveCaves сначала прокладывает туннели (seed), затем вырезает каверны (seed+1000).
// Порядок важен: проход каверн пропускает ячейки, уже ставшие воздухом.
func CarveCaves(grid *voxel.Grid, seed uint32, caveCount int, caveThreshold, maxHeight float64) {
	CarveCavesWith(noise.Perlin, grid, seed, caveCount, caveThreshold, maxHeight)
}

// CarveCavesWith - то же, что CarveCaves, с указанным типом шума для каверн
func CarveCavesWith(kind noise.Kind, grid *voxel.Grid, seed uint32, caveCount int, caveThreshold, maxHeight float64) {
	CarveWormTunnels(grid, seed, caveCount)
	CarveCavernsWith(kind, grid, seed+CavernSeedOffset, caveThreshold, maxHeight)
}

// CreateEntrances открывает входы в пещеры: в каждой колонке, просматривая сверху вниз,
// удаляет первую заполненную ячейку, под которой воздух. Возвращает число удалённых ячеек.
func CreateEntrances(grid *voxel.Grid) int {
	width, height, depth := grid.Dimensions()
	removed := 0

	for y := 0; y < depth; y++ {
		for x := 0; x < width; x++ {
			for z := height - 1; z > 0; z-- {
				if grid.Get(x, y, z) && !grid.Get(x, y, z-1) {
					grid.Set(x, y, z, false)
					removed++
					break
				}
			}
		}
	}
	return removed
}
