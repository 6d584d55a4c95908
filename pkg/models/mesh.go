package models

import (
	"github.com/taigrr/sceneview/pkg/math3d"
)

// Mesh is a flat vertex array with optional per-vertex channels and a face
// list. Optional channels are nil when the source had none; when present
// they have the same length as Positions.
type Mesh struct {
	Name       string
	Positions  []math3d.Vec3
	Normals    []math3d.Vec3
	Colors     [][4]float64 // RGBA in 0-1 range
	UVs        []math3d.Vec2
	Tangents   []math3d.Vec3
	Bitangents []math3d.Vec3
	Faces      []Face
	Material   int // Index into Scene.Materials (-1 for none)
}

// Face is an ordered list of vertex indices. One index is a point, two a
// line, three a triangle, more a polygon. Validate rejects empty faces.
type Face struct {
	Indices []int
}

// PrimitiveType classifies a face by its index count.
type PrimitiveType int

const (
	PrimitivePoint PrimitiveType = iota
	PrimitiveLine
	PrimitiveTriangle
	PrimitivePolygon
)

func (p PrimitiveType) String() string {
	switch p {
	case PrimitivePoint:
		return "point"
	case PrimitiveLine:
		return "line"
	case PrimitiveTriangle:
		return "triangle"
	default:
		return "polygon"
	}
}

// Type returns the primitive type of the face.
func (f Face) Type() PrimitiveType {
	switch len(f.Indices) {
	case 0, 1:
		return PrimitivePoint
	case 2:
		return PrimitiveLine
	case 3:
		return PrimitiveTriangle
	default:
		return PrimitivePolygon
	}
}

// NewMesh creates an empty mesh with no material.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Material: -1,
	}
}

// HasNormals reports whether every vertex carries a normal.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Positions)
}

// HasColors reports whether every vertex carries a color.
func (m *Mesh) HasColors() bool {
	return len(m.Colors) > 0 && len(m.Colors) == len(m.Positions)
}

// HasUVs reports whether every vertex carries a texture coordinate.
func (m *Mesh) HasUVs() bool {
	return len(m.UVs) > 0 && len(m.UVs) == len(m.Positions)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// PrimitiveTypes returns the set of primitive types present in the mesh.
func (m *Mesh) PrimitiveTypes() map[PrimitiveType]bool {
	types := make(map[PrimitiveType]bool)
	for _, f := range m.Faces {
		types[f.Type()] = true
	}
	return types
}

// Bounds computes the local-space bounding box of the mesh. A mesh with no
// vertices returns an empty box.
func (m *Mesh) Bounds() math3d.Box {
	box := math3d.EmptyBox()
	for _, p := range m.Positions {
		box = box.Extend(p)
	}
	return box
}

// CalculateSmoothNormals computes averaged normals from triangle and
// polygon faces. Faces with fewer than three indices contribute nothing.
func (m *Mesh) CalculateSmoothNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Positions))

	// Accumulate area-weighted face normals per vertex (fan over polygons)
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f.Indices); i++ {
			i0, i1, i2 := f.Indices[0], f.Indices[i], f.Indices[i+1]
			v0 := m.Positions[i0]
			edge1 := m.Positions[i1].Sub(v0)
			edge2 := m.Positions[i2].Sub(v0)
			normal := edge1.Cross(edge2) // Don't normalize yet

			m.Normals[i0] = m.Normals[i0].Add(normal)
			m.Normals[i1] = m.Normals[i1].Add(normal)
			m.Normals[i2] = m.Normals[i2].Add(normal)
		}
	}

	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
}
