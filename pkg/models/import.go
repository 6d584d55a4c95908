package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ImportFlags select post-processing steps applied after parsing.
type ImportFlags uint32

const (
	// Triangulate splits polygons into triangle fans. Points and lines are
	// left as they are.
	Triangulate ImportFlags = 1 << iota
	// CalcTangentSpace computes per-vertex tangents and bitangents for
	// meshes that have both normals and texture coordinates.
	CalcTangentSpace
	// JoinIdenticalVertices merges vertices whose channels are all equal.
	JoinIdenticalVertices
	// SortByPrimitiveType orders faces point, line, triangle, polygon.
	SortByPrimitiveType
	// GenSmoothNormals computes normals for meshes that have none.
	GenSmoothNormals
)

// DefaultImportFlags is the set the viewer requests.
const DefaultImportFlags = Triangulate | CalcTangentSpace | JoinIdenticalVertices | SortByPrimitiveType

// ErrUnsupportedFormat is returned for file extensions no importer handles.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Has reports whether all bits of o are set in f.
func (f ImportFlags) Has(o ImportFlags) bool {
	return f&o == o
}

// Import reads a model file and returns its scene graph. The format is
// chosen from the file extension.
func Import(path string, flags ImportFlags) (*Scene, error) {
	var (
		scene *Scene
		err   error
	)

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".glb", ".gltf":
		scene, err = NewGLTFLoader().Load(path)
	case ".obj":
		scene, err = NewOBJLoader().Load(path)
	case ".dae":
		scene, err = NewColladaLoader().Load(path)
	default:
		return nil, fmt.Errorf("%w: %q (use .obj, .dae, .gltf or .glb)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}

	if err := Validate(scene); err != nil {
		return nil, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}

	PostProcess(scene, flags)
	return scene, nil
}

// Validate checks the structural invariants the traversals rely on: the
// node hierarchy is a tree, mesh and material references are in range and
// every face index addresses an existing vertex.
func Validate(s *Scene) error {
	if s.Root == nil {
		return errors.New("scene has no root node")
	}

	seen := make(map[*Node]bool)
	var visit func(n *Node) error
	visit = func(n *Node) error {
		if seen[n] {
			return fmt.Errorf("node %q reached twice: hierarchy is not a tree", n.Name)
		}
		seen[n] = true
		for _, mi := range n.Meshes {
			if s.Mesh(mi) == nil {
				return fmt.Errorf("node %q references missing mesh %d", n.Name, mi)
			}
		}
		for _, c := range n.Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(s.Root); err != nil {
		return err
	}

	for mi, m := range s.Meshes {
		if m.Material >= len(s.Materials) {
			return fmt.Errorf("mesh %d references missing material %d", mi, m.Material)
		}
		for fi, f := range m.Faces {
			if len(f.Indices) == 0 {
				return fmt.Errorf("mesh %d face %d has no indices", mi, fi)
			}
			for _, idx := range f.Indices {
				if idx < 0 || idx >= len(m.Positions) {
					return fmt.Errorf("mesh %d face %d: index %d out of range", mi, fi, idx)
				}
			}
		}
	}
	return nil
}
