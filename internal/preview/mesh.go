// Package preview строит поверхностную сетку воксельного рельефа и сохраняет её в glTF.
package preview

import "github.com/lawless-m/Toberboon/internal/voxel"

// Материалы граней
const (
	MaterialNone    uint8 = 0
	MaterialGrass   uint8 = 1 // Ячейка без соседа сверху
	MaterialStone   uint8 = 2
	MaterialBedrock uint8 = 3 // Три нижних слоя
)

const bedrockLayers = 3

// Vertex - вершина в координатах сетки (x - ширина, y - глубина, z - высота)
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Material uint8
}

// Mesh - набор квадов; каждый квад - 4 вершины и 6 индексов
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Quads возвращает число квадов в сетке
func (m *Mesh) Quads() int {
	return len(m.Vertices) / 4
}

// material определяет материал заполненной ячейки
func material(g *voxel.Grid, x, y, z int) uint8 {
	switch {
	case !g.Get(x, y, z+1):
		return MaterialGrass
	case z < bedrockLayers:
		return MaterialBedrock
	default:
		return MaterialStone
	}
}

// BuildMesh строит жадную сетку видимых граней заполненных ячеек.
// Грань видима, если соседняя ячейка в направлении нормали - воздух (в том числе за границей сетки).
// Соседние грани одного материала в одном слое сливаются в прямоугольники.
func BuildMesh(g *voxel.Grid) *Mesh {
	mesh := &Mesh{}
	w, h, d := g.Dimensions()
	dims := [3]int{w, d, h} // порядок осей x, y, z

	for axis := 0; axis < 3; axis++ {
		// (u, v, axis) образуют правую тройку
		u := (axis + 1) % 3
		v := (axis + 2) % 3

		for _, sign := range [2]int{1, -1} {
			mask := make([]uint8, dims[u]*dims[v])
			visited := make([]bool, len(mask))

			for p := 0; p < dims[axis]; p++ {
				for i := range mask {
					mask[i] = MaterialNone
					visited[i] = false
				}

				for a := 0; a < dims[u]; a++ {
					for b := 0; b < dims[v]; b++ {
						var pos [3]int
						pos[axis], pos[u], pos[v] = p, a, b
						if !g.Get(pos[0], pos[1], pos[2]) {
							continue
						}

						adj := pos
						adj[axis] += sign
						if !g.Get(adj[0], adj[1], adj[2]) {
							mask[a*dims[v]+b] = material(g, pos[0], pos[1], pos[2])
						}
					}
				}

				mergeMask(mesh, mask, visited, dims[u], dims[v], axis, u, v, p, sign)
			}
		}
	}
	return mesh
}

// mergeMask сливает маску слоя в прямоугольники и добавляет их как квады
func mergeMask(mesh *Mesh, mask []uint8, visited []bool, du, dv, axis, u, v, p, sign int) {
	at := func(a, b int) int { return a*dv + b }

	for a := 0; a < du; a++ {
		for b := 0; b < dv; {
			m := mask[at(a, b)]
			if m == MaterialNone || visited[at(a, b)] {
				b++
				continue
			}

			width := 1
			for b2 := b + 1; b2 < dv && mask[at(a, b2)] == m && !visited[at(a, b2)]; b2++ {
				width++
			}

			height := 1
			for a2 := a + 1; a2 < du; a2++ {
				row := true
				for b2 := b; b2 < b+width; b2++ {
					if mask[at(a2, b2)] != m || visited[at(a2, b2)] {
						row = false
						break
					}
				}
				if !row {
					break
				}
				height++
			}

			for a2 := a; a2 < a+height; a2++ {
				for b2 := b; b2 < b+width; b2++ {
					visited[at(a2, b2)] = true
				}
			}

			addQuad(mesh, axis, u, v, p, sign, a, b, height, width, m)
			b += width
		}
	}
}

// addQuad добавляет квад с обходом против часовой стрелки, если смотреть со стороны нормали
func addQuad(mesh *Mesh, axis, u, v, p, sign, a, b, spanU, spanV int, m uint8) {
	var base [3]float32
	base[axis] = float32(p)
	if sign > 0 {
		base[axis]++
	}
	base[u] = float32(a)
	base[v] = float32(b)

	var normal [3]float32
	normal[axis] = float32(sign)

	c0 := base
	c1 := base
	c1[u] += float32(spanU)
	c2 := c1
	c2[v] += float32(spanV)
	c3 := base
	c3[v] += float32(spanV)

	corners := [4][3]float32{c0, c1, c2, c3}
	if sign < 0 {
		corners[1], corners[3] = corners[3], corners[1]
	}

	baseIdx := uint32(len(mesh.Vertices))
	for _, c := range corners {
		mesh.Vertices = append(mesh.Vertices, Vertex{Position: c, Normal: normal, Material: m})
	}
	mesh.Indices = append(mesh.Indices, baseIdx, baseIdx+1, baseIdx+2, baseIdx, baseIdx+2, baseIdx+3)
}
