// Package models holds the imported scene graph and the importers that
// build it from glTF, COLLADA and Wavefront OBJ files.
//
// A Scene is produced once by Import and treated as read-only afterwards:
// the bounds computation and the renderer both borrow it, and cached draw
// lists built from it are keyed by its pointer identity.
package models

import (
	"github.com/taigrr/sceneview/pkg/math3d"
)

// Scene is an imported scene graph. Nodes reference meshes by index into
// Meshes; meshes reference materials by index into Materials.
type Scene struct {
	Name      string
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
	// Warnings lists problems the importer worked around, such as a
	// material library that could not be read.
	Warnings []string
}

// Node is one transform level of the scene tree.
type Node struct {
	Name      string
	Transform math3d.Mat4 // Local transform, column-major
	Meshes    []int       // Indices into Scene.Meshes
	Children  []*Node
}

// NewNode creates a node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: math3d.Identity(),
	}
}

// AddChild appends child to n and returns child.
func (n *Node) AddChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Walk visits n and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Mesh returns the mesh at index i, or nil if i is out of range.
func (s *Scene) Mesh(i int) *Mesh {
	if i < 0 || i >= len(s.Meshes) {
		return nil
	}
	return s.Meshes[i]
}

// Material returns the material at index i, or nil if i is out of range.
func (s *Scene) Material(i int) *Material {
	if i < 0 || i >= len(s.Materials) {
		return nil
	}
	return s.Materials[i]
}

// Stats summarizes the size of a scene.
type Stats struct {
	Nodes    int
	Meshes   int
	Vertices int
	Faces    int
}

// Stats counts nodes reachable from the root and the geometry of every mesh.
func (s *Scene) Stats() Stats {
	var st Stats
	s.Root.Walk(func(*Node) bool {
		st.Nodes++
		return true
	})
	st.Meshes = len(s.Meshes)
	for _, m := range s.Meshes {
		st.Vertices += m.VertexCount()
		st.Faces += m.FaceCount()
	}
	return st
}
