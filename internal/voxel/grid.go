package voxel

import (
	"fmt"
	"math"
	"math/bits"
)

// Grid представляет объём вокселей фиксированного размера с побитовым хранением.
//
// Оси: x - ширина, y - глубина, z - высота. Линейный индекс ячейки
// z*(width*depth) + y*width + x, байт = индекс/8, бит = индекс%8.
// Любая координата вне [0,width)×[0,depth)×[0,height) считается воздухом:
// чтение возвращает false, запись игнорируется.
type Grid struct {
	width  int
	height int // ось Z (вертикаль)
	depth  int // ось Y
	data   []byte
}

// New создаёт пустую (полностью воздушную) сетку.
// Отрицательные размеры приводятся к нулю; нулевой размер даёт пустую, но корректную сетку.
func New(width, height, depth int) *Grid {
	width, height, depth = max(width, 0), max(height, 0), max(depth, 0)
	total := width * height * depth

	return &Grid{
		width:  width,
		height: height,
		depth:  depth,
		data:   make([]byte, (total+7)/8),
	}
}

// FromBytes восстанавливает сетку из упакованного массива бит (см. Bytes)
func FromBytes(width, height, depth int, data []byte) (*Grid, error) {
	g := New(width, height, depth)
	if len(data) != len(g.data) {
		return nil, fmt.Errorf("неверный размер данных сетки %dx%dx%d: %d байт, ожидалось %d",
			width, height, depth, len(data), len(g.data))
	}
	copy(g.data, data)

	// Хвостовые биты последнего байта не принадлежат ни одной ячейке
	if rem := (g.width * g.height * g.depth) % 8; rem != 0 {
		g.data[len(g.data)-1] &= byte(1<<rem) - 1
	}
	return g, nil
}

// Dimensions возвращает размеры сетки (ширина, высота, глубина)
func (g *Grid) Dimensions() (width, height, depth int) {
	return g.width, g.height, g.depth
}

// Width возвращает размер по оси X
func (g *Grid) Width() int { return g.width }

// Height возвращает размер по оси Z
func (g *Grid) Height() int { return g.height }

// Depth возвращает размер по оси Y
func (g *Grid) Depth() int { return g.depth }

// InBounds проверяет, лежит ли координата внутри сетки
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.width &&
		y >= 0 && y < g.depth &&
		z >= 0 && z < g.height
}

func (g *Grid) index(x, y, z int) int {
	return z*(g.width*g.depth) + y*g.width + x
}

// Get возвращает заполненность ячейки; вне границ всегда false
func (g *Grid) Get(x, y, z int) bool {
	if !g.InBounds(x, y, z) {
		return false
	}

	i := g.index(x, y, z)
	return g.data[i/8]&(1<<(i%8)) != 0
}

// Set записывает заполненность ячейки; вне границ запись игнорируется
func (g *Grid) Set(x, y, z int, value bool) {
	if !g.InBounds(x, y, z) {
		return
	}

	i := g.index(x, y, z)
	if value {
		g.data[i/8] |= 1 << (i % 8)
	} else {
		g.data[i/8] &^= 1 << (i % 8)
	}
}

// FillFromHeightmap заполняет каждую колонку (x,y) от z=0 до floor(h) (не включая),
// где h = heightmap[y*width+x]. Высоты выше сетки обрезаются.
// Длина heightmap обязана быть равна width*depth - это контракт вызывающей стороны.
func (g *Grid) FillFromHeightmap(heightmap []float32) {
	for y := 0; y < g.depth; y++ {
		for x := 0; x < g.width; x++ {
			top := columnTop(heightmap[y*g.width+x], g.height)
			for z := 0; z < top; z++ {
				g.Set(x, y, z, true)
			}
		}
	}
}

// columnTop возвращает min(floor(h), height), приводя отрицательные значения и NaN к нулю
func columnTop(h float32, height int) int {
	f := math.Floor(float64(h))
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= float64(height):
		return height
	default:
		return int(f)
	}
}

// SolidCount возвращает количество заполненных ячеек (сумма установленных бит)
func (g *Grid) SolidCount() int {
	count := 0
	for _, b := range g.data {
		count += bits.OnesCount8(b)
	}
	return count
}

// SurfaceHeight возвращает z самой верхней заполненной ячейки колонки или -1, если колонка пуста
func (g *Grid) SurfaceHeight(x, y int) int {
	if x < 0 || x >= g.width || y < 0 || y >= g.depth {
		return -1
	}
	for z := g.height - 1; z >= 0; z-- {
		if g.Get(x, y, z) {
			return z
		}
	}
	return -1
}

// Bytes возвращает копию упакованного массива бит
func (g *Grid) Bytes() []byte {
	out := make([]byte, len(g.data))
	copy(out, g.data)
	return out
}

// Clone возвращает независимую копию сетки
func (g *Grid) Clone() *Grid {
	return &Grid{
		width:  g.width,
		height: g.height,
		depth:  g.depth,
		data:   g.Bytes(),
	}
}

// Equal сравнивает размеры и содержимое двух сеток
func (g *Grid) Equal(other *Grid) bool {
	if other == nil {
		return false
	}
	if g.width != other.width || g.height != other.height || g.depth != other.depth {
		return false
	}
	for i := range g.data {
		if g.data[i] != other.data[i] {
			return false
		}
	}
	return true
}
