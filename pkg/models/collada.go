package models

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/g3n/engine/core"
	"github.com/g3n/engine/geometry"
	"github.com/g3n/engine/graphic"
	"github.com/g3n/engine/loader/collada"
	"github.com/g3n/engine/math32"
	"github.com/taigrr/sceneview/pkg/math3d"
)

// ColladaLoader loads COLLADA (.dae) documents into a Scene.
//
// The decoder instantiates the default visual scene as a node tree; the
// loader copies its hierarchy, local transforms and geometry. Effects are
// not mapped, so every mesh renders with the default material.
type ColladaLoader struct{}

// NewColladaLoader creates a new COLLADA loader.
func NewColladaLoader() *ColladaLoader {
	return &ColladaLoader{}
}

// Load decodes the document at path. Images referenced by the document
// are resolved relative to its directory.
func (l *ColladaLoader) Load(path string) (*Scene, error) {
	dec, err := collada.Decode(path)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode collada: %w", err)
	}
	if dec == nil {
		return nil, fmt.Errorf("decode collada: %w", err)
	}
	dec.SetDirImages(filepath.Dir(path))

	root, err := dec.NewScene()
	if err != nil {
		return nil, fmt.Errorf("collada scene: %w", err)
	}

	name := filepath.Base(path)
	scene := &Scene{Name: name, Root: NewNode(name)}
	for _, child := range root.GetNode().Children() {
		if err := l.addNode(scene, scene.Root, child); err != nil {
			return nil, err
		}
	}
	return scene, nil
}

func (l *ColladaLoader) addNode(scene *Scene, parent *Node, in core.INode) error {
	src := in.GetNode()
	n := parent.AddChild(NewNode(src.Name()))
	n.Transform = colladaTransform(src)

	if m, ok := in.(graphic.IGraphic); ok {
		mesh, err := colladaMesh(in, m.GetGeometry())
		if err != nil {
			return fmt.Errorf("node %q: %w", src.Name(), err)
		}
		if mesh != nil {
			if mesh.Name == "" {
				mesh.Name = fmt.Sprintf("mesh%d", len(scene.Meshes))
			}
			scene.Meshes = append(scene.Meshes, mesh)
			n.Meshes = append(n.Meshes, len(scene.Meshes)-1)
		}
	}

	for _, c := range src.Children() {
		if err := l.addNode(scene, n, c); err != nil {
			return err
		}
	}
	return nil
}

// colladaTransform rebuilds the node's local matrix from the decomposed
// position, rotation and scale the decoder stores.
func colladaTransform(n *core.Node) math3d.Mat4 {
	p, q, s := n.Position(), n.Quaternion(), n.Scale()
	return math3d.TRS(
		math3d.V3(float64(p.X), float64(p.Y), float64(p.Z)),
		[4]float64{float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)},
		math3d.V3(float64(s.X), float64(s.Y), float64(s.Z)),
	)
}

// colladaMesh copies positions and normals out of g and assembles faces
// according to the graphic's primitive kind. It returns nil for graphics
// without vertices.
func colladaMesh(in core.INode, g *geometry.Geometry) (*Mesh, error) {
	if g == nil {
		return nil, nil
	}
	mesh := NewMesh(in.GetNode().Name())

	g.ReadVertices(func(v math32.Vector3) bool {
		mesh.Positions = append(mesh.Positions, math3d.V3(float64(v.X), float64(v.Y), float64(v.Z)))
		return false
	})
	if len(mesh.Positions) == 0 {
		return nil, nil
	}
	g.ReadVertexNormals(func(v math32.Vector3) bool {
		mesh.Normals = append(mesh.Normals, math3d.V3(float64(v.X), float64(v.Y), float64(v.Z)))
		return false
	})
	if len(mesh.Normals) != len(mesh.Positions) {
		mesh.Normals = nil
	}

	var indices []int
	if g.Indexed() {
		for _, i := range g.Indices() {
			indices = append(indices, int(i))
		}
	} else {
		indices = make([]int, len(mesh.Positions))
		for i := range indices {
			indices[i] = i
		}
	}

	switch in.(type) {
	case *graphic.Lines:
		for i := 0; i+1 < len(indices); i += 2 {
			mesh.Faces = append(mesh.Faces, Face{Indices: []int{indices[i], indices[i+1]}})
		}
	case *graphic.LineStrip:
		for i := 0; i+1 < len(indices); i++ {
			mesh.Faces = append(mesh.Faces, Face{Indices: []int{indices[i], indices[i+1]}})
		}
	case *graphic.Points:
		for _, i := range indices {
			mesh.Faces = append(mesh.Faces, Face{Indices: []int{i}})
		}
	default:
		if len(indices)%3 != 0 {
			return nil, fmt.Errorf("%d triangle indices is not a multiple of 3", len(indices))
		}
		for i := 0; i < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{Indices: []int{indices[i], indices[i+1], indices[i+2]}})
		}
	}
	return mesh, nil
}
