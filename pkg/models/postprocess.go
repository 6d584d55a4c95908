package models

import (
	"slices"

	"github.com/taigrr/sceneview/pkg/math3d"
)

// PostProcess applies the steps selected by flags to every mesh of s.
func PostProcess(s *Scene, flags ImportFlags) {
	for _, m := range s.Meshes {
		if flags.Has(Triangulate) {
			m.Triangulate()
		}
		if flags.Has(GenSmoothNormals) && !m.HasNormals() {
			m.CalculateSmoothNormals()
		}
		if flags.Has(JoinIdenticalVertices) {
			m.JoinIdenticalVertices()
		}
		if flags.Has(CalcTangentSpace) {
			m.CalculateTangentSpace()
		}
		if flags.Has(SortByPrimitiveType) {
			m.SortByPrimitiveType()
		}
	}
}

// Triangulate replaces every polygon face with a triangle fan anchored at
// its first index.
func (m *Mesh) Triangulate() {
	out := make([]Face, 0, len(m.Faces))
	for _, f := range m.Faces {
		if f.Type() != PrimitivePolygon {
			out = append(out, f)
			continue
		}
		for i := 1; i+1 < len(f.Indices); i++ {
			out = append(out, Face{Indices: []int{f.Indices[0], f.Indices[i], f.Indices[i+1]}})
		}
	}
	m.Faces = out
}

type vertexKey struct {
	pos, normal, tangent, bitangent math3d.Vec3
	color                           [4]float64
	uv                              math3d.Vec2
}

func (m *Mesh) vertexKey(i int) vertexKey {
	k := vertexKey{pos: m.Positions[i]}
	if m.HasNormals() {
		k.normal = m.Normals[i]
	}
	if m.HasColors() {
		k.color = m.Colors[i]
	}
	if m.HasUVs() {
		k.uv = m.UVs[i]
	}
	if len(m.Tangents) == len(m.Positions) {
		k.tangent = m.Tangents[i]
	}
	if len(m.Bitangents) == len(m.Positions) {
		k.bitangent = m.Bitangents[i]
	}
	return k
}

// JoinIdenticalVertices merges vertices whose every channel matches and
// rewrites face indices to the surviving vertex. Vertex order follows
// first occurrence.
func (m *Mesh) JoinIdenticalVertices() {
	remap := make([]int, len(m.Positions))
	unique := make(map[vertexKey]int, len(m.Positions))
	var keep []int

	for i := range m.Positions {
		k := m.vertexKey(i)
		if j, ok := unique[k]; ok {
			remap[i] = j
			continue
		}
		unique[k] = len(keep)
		remap[i] = len(keep)
		keep = append(keep, i)
	}

	if len(keep) == len(m.Positions) {
		return
	}

	m.Positions = gather(m.Positions, keep)
	m.Normals = gather(m.Normals, keep)
	m.Colors = gather(m.Colors, keep)
	m.UVs = gather(m.UVs, keep)
	m.Tangents = gather(m.Tangents, keep)
	m.Bitangents = gather(m.Bitangents, keep)

	for fi := range m.Faces {
		for j, idx := range m.Faces[fi].Indices {
			m.Faces[fi].Indices[j] = remap[idx]
		}
	}
}

// gather returns src reordered by keep. A nil or short channel is
// dropped, since it could not have been complete.
func gather[T any](src []T, keep []int) []T {
	if len(src) == 0 || len(src) <= keep[len(keep)-1] {
		return nil
	}
	out := make([]T, len(keep))
	for i, k := range keep {
		out[i] = src[k]
	}
	return out
}

// SortByPrimitiveType stably orders faces point, line, triangle, polygon.
func (m *Mesh) SortByPrimitiveType() {
	slices.SortStableFunc(m.Faces, func(a, b Face) int {
		return int(a.Type()) - int(b.Type())
	})
}

// CalculateTangentSpace computes per-vertex tangents and bitangents from
// UV gradients of triangle faces. Meshes without normals or UVs are left
// untouched.
func (m *Mesh) CalculateTangentSpace() {
	if !m.HasNormals() || !m.HasUVs() {
		return
	}

	tan := make([]math3d.Vec3, len(m.Positions))
	bitan := make([]math3d.Vec3, len(m.Positions))

	for _, f := range m.Faces {
		if f.Type() != PrimitiveTriangle {
			continue
		}
		i0, i1, i2 := f.Indices[0], f.Indices[1], f.Indices[2]
		e1 := m.Positions[i1].Sub(m.Positions[i0])
		e2 := m.Positions[i2].Sub(m.Positions[i0])
		d1 := m.UVs[i1].Sub(m.UVs[i0])
		d2 := m.UVs[i2].Sub(m.UVs[i0])

		det := d1.X*d2.Y - d2.X*d1.Y
		if det == 0 {
			continue
		}
		r := 1 / det
		t := e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(r)
		b := e2.Scale(d1.X).Sub(e1.Scale(d2.X)).Scale(r)

		for _, i := range f.Indices {
			tan[i] = tan[i].Add(t)
			bitan[i] = bitan[i].Add(b)
		}
	}

	// Gram-Schmidt against the vertex normal
	for i, n := range m.Normals {
		t := tan[i]
		tan[i] = t.Sub(n.Scale(n.Dot(t))).Normalize()
		bitan[i] = bitan[i].Normalize()
	}

	m.Tangents = tan
	m.Bitangents = bitan
}
