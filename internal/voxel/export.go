package voxel

import (
	"bufio"
	"io"
	"strings"
)

// ExportHeight - фиксированное число слоёв в выгружаемом массиве вокселей.
// Не зависит от высоты сетки: недостающие слои выгружаются воздухом, лишние отбрасываются.
const ExportHeight = 23

// ExportTokenCount возвращает число токенов в ToVoxelArray для сетки данного размера
func ExportTokenCount(width, depth int) int {
	return width * depth * ExportHeight
}

// ToVoxelArray сериализует сетку в строку токенов "0"/"1", разделённых одним пробелом.
// Порядок обхода: z (0..ExportHeight) внешний, затем y, затем x.
func (g *Grid) ToVoxelArray() string {
	total := ExportTokenCount(g.width, g.depth)
	if total == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(total*2 - 1)
	g.eachExportToken(func(solid bool, first bool) {
		if !first {
			sb.WriteByte(' ')
		}
		if solid {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	})
	return sb.String()
}

// WriteVoxelArray пишет тот же формат, что и ToVoxelArray, напрямую в w
func (g *Grid) WriteVoxelArray(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	var err error
	g.eachExportToken(func(solid bool, first bool) {
		if err != nil {
			return
		}
		if !first {
			err = bw.WriteByte(' ')
			if err != nil {
				return
			}
		}
		if solid {
			err = bw.WriteByte('1')
		} else {
			err = bw.WriteByte('0')
		}
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

func (g *Grid) eachExportToken(emit func(solid bool, first bool)) {
	first := true
	for z := 0; z < ExportHeight; z++ {
		for y := 0; y < g.depth; y++ {
			for x := 0; x < g.width; x++ {
				// Слои на уровне высоты сетки и выше всегда воздух
				solid := z < g.height && g.Get(x, y, z)
				emit(solid, first)
				first = false
			}
		}
	}
}
