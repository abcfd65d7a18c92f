package preview

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/lawless-m/Toberboon/internal/voxel"
)

// ErrEmptyMesh возвращается, если в сетке нет ни одной видимой грани
var ErrEmptyMesh = errors.New("нет видимых граней для превью")

// Цвета вершин по материалу (sRGB, нормализованные байты)
var materialColors = map[uint8][4]uint8{
	MaterialGrass:   {77, 158, 56, 255},
	MaterialStone:   {128, 128, 133, 255},
	MaterialBedrock: {46, 43, 51, 255},
}

// toGLTF переводит координаты сетки в glTF: высота z становится осью +Y.
// Перестановка осей меняет ориентацию, поэтому обход треугольников разворачивается отдельно.
func toGLTF(p [3]float32) [3]float32 {
	return [3]float32{p[0], p[2], p[1]}
}

// WriteGLB строит жадную сетку и сохраняет её как бинарный glTF
func WriteGLB(g *voxel.Grid, path string) error {
	mesh := BuildMesh(g)
	if len(mesh.Vertices) == 0 {
		return ErrEmptyMesh
	}

	doc, err := Document(mesh)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("ошибка записи glb %s: %w", path, err)
	}
	return nil
}

// Document собирает glTF документ с одним непрозрачным мешем рельефа.
// Позиции, нормали и цвета пишутся одним чередующимся буфером.
func Document(mesh *Mesh) (*gltf.Document, error) {
	n := len(mesh.Vertices)
	positions := make([][3]float32, n)
	normals := make([][3]float32, n)
	colors := make([][4]uint8, n)
	for i, v := range mesh.Vertices {
		positions[i] = toGLTF(v.Position)
		normals[i] = toGLTF(v.Normal)
		colors[i] = materialColors[v.Material]
	}

	// Обратный порядок вершин в каждом треугольнике компенсирует перестановку осей
	indices := make([]uint32, len(mesh.Indices))
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		indices[t], indices[t+1], indices[t+2] = mesh.Indices[t], mesh.Indices[t+2], mesh.Indices[t+1]
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "toberboon terraingen"

	attrs, err := modeler.WritePrimitiveAttributes(doc,
		modeler.PrimitiveAttribute{Name: gltf.POSITION, Data: positions},
		modeler.PrimitiveAttribute{Name: gltf.NORMAL, Data: normals},
		modeler.PrimitiveAttribute{Name: gltf.COLOR_0, Data: colors},
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи атрибутов меша: %w", err)
	}

	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:      "terrain",
		AlphaMode: gltf.AlphaOpaque,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 1, 1, 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
	})
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "terrain",
		Primitives: []*gltf.Primitive{{
			Attributes: attrs,
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Material:   gltf.Index(len(doc.Materials) - 1),
		}},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "terrain", Mesh: gltf.Index(len(doc.Meshes) - 1)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)

	return doc, nil
}
