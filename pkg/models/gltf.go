package models

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/sceneview/pkg/math3d"
)

// GLTFLoader loads glTF and GLB files into a Scene.
type GLTFLoader struct {
	// SceneIndex selects a scene; -1 uses the document's default scene.
	SceneIndex int
}

// NewGLTFLoader creates a new glTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{SceneIndex: -1}
}

// LoadGLB loads a binary glTF (.glb) file with default options.
func LoadGLB(path string) (*Scene, error) {
	return NewGLTFLoader().Load(path)
}

// gltfMesh records where one glTF mesh landed in Scene.Meshes: one Mesh
// per primitive.
type gltfMesh struct {
	first, count int
}

// Load opens a glTF or GLB file and converts its node hierarchy, meshes
// and materials. The scene's roots are gathered under a synthetic root
// with an identity transform.
func (l *GLTFLoader) Load(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	scene := &Scene{Name: filepath.Base(path)}

	for i, m := range doc.Materials {
		scene.Materials = append(scene.Materials, convertGLTFMaterial(i, m))
	}

	meshMap := make([]gltfMesh, len(doc.Meshes))
	for i, m := range doc.Meshes {
		meshMap[i].first = len(scene.Meshes)
		if err := l.processMesh(doc, i, m, scene); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
		meshMap[i].count = len(scene.Meshes) - meshMap[i].first
	}

	roots, err := l.rootNodes(doc)
	if err != nil {
		return nil, err
	}

	scene.Root = NewNode(scene.Name)
	for _, idx := range roots {
		child, err := buildGLTFNode(doc, idx, meshMap, make(map[int]bool))
		if err != nil {
			return nil, err
		}
		scene.Root.AddChild(child)
	}

	return scene, nil
}

// rootNodes returns the node indices of the selected scene. Documents
// without scenes fall back to every node that is not somebody's child.
func (l *GLTFLoader) rootNodes(doc *gltf.Document) ([]int, error) {
	idx := l.SceneIndex
	if idx < 0 {
		idx = 0
		if doc.Scene != nil {
			idx = *doc.Scene
		}
	}

	if len(doc.Scenes) > 0 {
		if idx >= len(doc.Scenes) {
			return nil, fmt.Errorf("scene %d out of range (%d scenes)", idx, len(doc.Scenes))
		}
		return doc.Scenes[idx].Nodes, nil
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

// buildGLTFNode converts node idx and its subtree. path guards against
// cyclic child references, which would otherwise recurse forever.
func buildGLTFNode(doc *gltf.Document, idx int, meshMap []gltfMesh, path map[int]bool) (*Node, error) {
	if idx < 0 || idx >= len(doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if path[idx] {
		return nil, fmt.Errorf("node %d: cyclic hierarchy", idx)
	}
	path[idx] = true
	defer delete(path, idx)

	src := doc.Nodes[idx]
	n := NewNode(src.Name)
	n.Transform = gltfNodeTransform(src)

	if src.Mesh != nil {
		mi := *src.Mesh
		if mi < 0 || mi >= len(meshMap) {
			return nil, fmt.Errorf("node %d references missing mesh %d", idx, mi)
		}
		for i := range meshMap[mi].count {
			n.Meshes = append(n.Meshes, meshMap[mi].first+i)
		}
	}

	for _, c := range src.Children {
		child, err := buildGLTFNode(doc, c, meshMap, path)
		if err != nil {
			return nil, err
		}
		n.AddChild(child)
	}
	return n, nil
}

// gltfNodeTransform returns the node matrix if one is set, otherwise the
// composed translation, rotation and scale. Zero-valued rotation and
// scale are treated as absent.
func gltfNodeTransform(n *gltf.Node) math3d.Mat4 {
	var zero [16]float64
	m := math3d.Mat4(n.Matrix)
	if n.Matrix != zero && !m.IsIdentity() {
		return m
	}

	rot := n.Rotation
	if rot == ([4]float64{}) {
		rot = [4]float64{0, 0, 0, 1}
	}
	scale := math3d.V3(n.Scale[0], n.Scale[1], n.Scale[2])
	if scale == math3d.Zero3() {
		scale = math3d.V3(1, 1, 1)
	}
	t := math3d.V3(n.Translation[0], n.Translation[1], n.Translation[2])
	return math3d.TRS(t, rot, scale)
}

// convertGLTFMaterial maps the metallic-roughness model onto the property
// bag. Only factors the file actually sets become properties.
func convertGLTFMaterial(i int, src *gltf.Material) *Material {
	name := src.Name
	if name == "" {
		name = fmt.Sprintf("material%d", i)
	}
	m := NewMaterial(name)

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			m.SetColor(KeyDiffuse, *pbr.BaseColorFactor)
		}
		if pbr.RoughnessFactor != nil {
			// Smooth surfaces get a tight highlight; fully rough ones none.
			m.SetFloat(KeyShininess, (1-*pbr.RoughnessFactor)*128)
			m.SetColor(KeySpecular, [4]float64{0.5, 0.5, 0.5, 1})
		}
	}

	if e := src.EmissiveFactor; e != ([3]float64{}) {
		m.SetColor(KeyEmissive, [4]float64{e[0], e[1], e[2], 1})
	}
	m.SetBool(KeyTwoSided, src.DoubleSided)
	return m
}

// processMesh converts each primitive of a glTF mesh into its own Mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, meshIdx int, m *gltf.Mesh, scene *Scene) error {
	for pi, prim := range m.Primitives {
		// Get position accessor
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mesh%d", meshIdx)
		}
		mesh := NewMesh(fmt.Sprintf("%s/%d", name, pi))
		if prim.Material != nil {
			mesh.Material = *prim.Material
		}

		var err error
		mesh.Positions, err = readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			mesh.Normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		if colIdx, ok := prim.Attributes[gltf.COLOR_0]; ok {
			mesh.Colors, err = readColorAccessor(doc, colIdx)
			if err != nil {
				return fmt.Errorf("read colors: %w", err)
			}
		}

		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			mesh.UVs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices: vertices are consumed in order
			indices = make([]int, len(mesh.Positions))
			for i := range indices {
				indices[i] = i
			}
		}

		mesh.Faces = assembleFaces(prim.Mode, indices)
		scene.Meshes = append(scene.Meshes, mesh)
	}

	return nil
}

// assembleFaces turns an index stream into faces according to the
// primitive topology.
func assembleFaces(mode gltf.PrimitiveMode, idx []int) []Face {
	var faces []Face
	face := func(ix ...int) {
		faces = append(faces, Face{Indices: ix})
	}

	switch mode {
	case gltf.PrimitivePoints:
		for _, i := range idx {
			face(i)
		}
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(idx); i += 2 {
			face(idx[i], idx[i+1])
		}
	case gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		for i := 0; i+1 < len(idx); i++ {
			face(idx[i], idx[i+1])
		}
		if mode == gltf.PrimitiveLineLoop && len(idx) > 2 {
			face(idx[len(idx)-1], idx[0])
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(idx); i++ {
			// Alternate winding so every triangle keeps the strip's facing
			if i%2 == 0 {
				face(idx[i], idx[i+1], idx[i+2])
			} else {
				face(idx[i+1], idx[i], idx[i+2])
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(idx); i++ {
			face(idx[0], idx[i], idx[i+1])
		}
	default:
		for i := 0; i+2 < len(idx); i += 3 {
			face(idx[i], idx[i+1], idx[i+2])
		}
	}
	return faces
}

// readVec3Accessor reads Vec3 data from a glTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	floats, comps, err := readFloatAccessor(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if comps != 3 {
		return nil, fmt.Errorf("expected VEC3, got %d components", comps)
	}

	result := make([]math3d.Vec3, len(floats)/3)
	for i := range result {
		result[i] = math3d.V3(floats[i*3], floats[i*3+1], floats[i*3+2])
	}
	return result, nil
}

// readVec2Accessor reads Vec2 data from a glTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	floats, comps, err := readFloatAccessor(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if comps != 2 {
		return nil, fmt.Errorf("expected VEC2, got %d components", comps)
	}

	result := make([]math3d.Vec2, len(floats)/2)
	for i := range result {
		result[i] = math3d.V2(floats[i*2], floats[i*2+1])
	}
	return result, nil
}

// readColorAccessor reads VEC3 or VEC4 colors. VEC3 colors get alpha 1.
func readColorAccessor(doc *gltf.Document, accessorIdx int) ([][4]float64, error) {
	floats, comps, err := readFloatAccessor(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if comps != 3 && comps != 4 {
		return nil, fmt.Errorf("expected VEC3 or VEC4 color, got %d components", comps)
	}

	result := make([][4]float64, len(floats)/comps)
	for i := range result {
		c := [4]float64{0, 0, 0, 1}
		copy(c[:comps], floats[i*comps:(i+1)*comps])
		result[i] = c
	}
	return result, nil
}

// readIndices reads index data from a glTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor, err := checkAccessor(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	raw, err := modeler.ReadIndices(doc, accessor, nil)
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", accessorIdx, err)
	}
	result := make([]int, len(raw))
	for i, v := range raw {
		result[i] = int(v)
	}
	return result, nil
}

// readFloatAccessor reads any float or integer accessor into a flat
// slice and reports the component count per element. Integer components
// are normalized to [0, 1] or [-1, 1]. Accessors without a buffer view
// read as zeros and sparse substitutions are applied.
func readFloatAccessor(doc *gltf.Document, accessorIdx int) ([]float64, int, error) {
	accessor, err := checkAccessor(doc, accessorIdx)
	if err != nil {
		return nil, 0, err
	}

	comps := accessorComponents(accessor.Type)
	if comps == 0 || componentSize(accessor.ComponentType) == 0 {
		return nil, 0, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
	}

	data, err := modeler.ReadAccessor(doc, accessor, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("accessor %d: %w", accessorIdx, err)
	}

	var result []float64
	switch d := data.(type) {
	case []float32:
		result = flatten(d, float32Norm)
	case [][2]float32:
		result = flatten2(d, float32Norm)
	case [][3]float32:
		result = flatten3(d, float32Norm)
	case [][4]float32:
		result = flatten4(d, float32Norm)
	case []uint8:
		result = flatten(d, uint8Norm)
	case [][2]uint8:
		result = flatten2(d, uint8Norm)
	case [][3]uint8:
		result = flatten3(d, uint8Norm)
	case [][4]uint8:
		result = flatten4(d, uint8Norm)
	case []uint16:
		result = flatten(d, uint16Norm)
	case [][2]uint16:
		result = flatten2(d, uint16Norm)
	case [][3]uint16:
		result = flatten3(d, uint16Norm)
	case [][4]uint16:
		result = flatten4(d, uint16Norm)
	case []int8:
		result = flatten(d, int8Norm)
	case [][2]int8:
		result = flatten2(d, int8Norm)
	case [][3]int8:
		result = flatten3(d, int8Norm)
	case [][4]int8:
		result = flatten4(d, int8Norm)
	case []int16:
		result = flatten(d, int16Norm)
	case [][2]int16:
		result = flatten2(d, int16Norm)
	case [][3]int16:
		result = flatten3(d, int16Norm)
	case [][4]int16:
		result = flatten4(d, int16Norm)
	case []uint32:
		result = flatten(d, uint32Value)
	case [][2]uint32:
		result = flatten2(d, uint32Value)
	case [][3]uint32:
		result = flatten3(d, uint32Value)
	case [][4]uint32:
		result = flatten4(d, uint32Value)
	default:
		return nil, 0, fmt.Errorf("unsupported accessor data %T", data)
	}
	return result, comps, nil
}

func float32Norm(v float32) float64 { return float64(v) }
func uint8Norm(v uint8) float64     { return float64(v) / math.MaxUint8 }
func uint16Norm(v uint16) float64   { return float64(v) / math.MaxUint16 }
func int8Norm(v int8) float64       { return math.Max(float64(v)/math.MaxInt8, -1) }
func int16Norm(v int16) float64     { return math.Max(float64(v)/math.MaxInt16, -1) }
func uint32Value(v uint32) float64  { return float64(v) }

func flatten[T any](src []T, norm func(T) float64) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = norm(v)
	}
	return out
}

func flatten2[T any](src [][2]T, norm func(T) float64) []float64 {
	out := make([]float64, 0, len(src)*2)
	for _, v := range src {
		out = append(out, norm(v[0]), norm(v[1]))
	}
	return out
}

func flatten3[T any](src [][3]T, norm func(T) float64) []float64 {
	out := make([]float64, 0, len(src)*3)
	for _, v := range src {
		out = append(out, norm(v[0]), norm(v[1]), norm(v[2]))
	}
	return out
}

func flatten4[T any](src [][4]T, norm func(T) float64) []float64 {
	out := make([]float64, 0, len(src)*4)
	for _, v := range src {
		out = append(out, norm(v[0]), norm(v[1]), norm(v[2]), norm(v[3]))
	}
	return out
}

// checkAccessor resolves accessor accessorIdx and verifies that every
// buffer view and buffer it reaches exists and holds enough bytes, so a
// malformed file fails with an error instead of a panic.
func checkAccessor(doc *gltf.Document, accessorIdx int) (*gltf.Accessor, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range (%d accessors)", accessorIdx, len(doc.Accessors))
	}
	accessor := doc.Accessors[accessorIdx]
	elem := accessorComponents(accessor.Type) * componentSize(accessor.ComponentType)

	if accessor.BufferView != nil {
		view, err := checkBufferView(doc, *accessor.BufferView)
		if err != nil {
			return nil, fmt.Errorf("accessor %d: %w", accessorIdx, err)
		}
		step := view.ByteStride
		if step == 0 {
			step = elem
		}
		if accessor.Count > 0 {
			end := accessor.ByteOffset + (accessor.Count-1)*step + elem
			if accessor.ByteOffset < 0 || end > view.ByteLength {
				return nil, fmt.Errorf("accessor %d reads past end of buffer view %d", accessorIdx, *accessor.BufferView)
			}
		}
	}

	if sp := accessor.Sparse; sp != nil {
		if sp.Count < 0 || sp.Count > accessor.Count {
			return nil, fmt.Errorf("accessor %d: sparse count %d exceeds %d", accessorIdx, sp.Count, accessor.Count)
		}
		idxView, err := checkBufferView(doc, sp.Indices.BufferView)
		if err != nil {
			return nil, fmt.Errorf("accessor %d sparse indices: %w", accessorIdx, err)
		}
		if sp.Indices.ByteOffset+sp.Count*componentSize(sp.Indices.ComponentType) > idxView.ByteLength {
			return nil, fmt.Errorf("accessor %d: sparse indices past end of buffer view", accessorIdx)
		}
		valView, err := checkBufferView(doc, sp.Values.BufferView)
		if err != nil {
			return nil, fmt.Errorf("accessor %d sparse values: %w", accessorIdx, err)
		}
		if sp.Values.ByteOffset+sp.Count*elem > valView.ByteLength {
			return nil, fmt.Errorf("accessor %d: sparse values past end of buffer view", accessorIdx)
		}
		targets, err := modeler.ReadIndices(doc, &gltf.Accessor{
			BufferView:    gltf.Index(sp.Indices.BufferView),
			ByteOffset:    sp.Indices.ByteOffset,
			ComponentType: sp.Indices.ComponentType,
			Type:          gltf.AccessorScalar,
			Count:         sp.Count,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("accessor %d sparse indices: %w", accessorIdx, err)
		}
		for _, t := range targets {
			if int(t) >= accessor.Count {
				return nil, fmt.Errorf("accessor %d: sparse index %d out of range", accessorIdx, t)
			}
		}
	}
	return accessor, nil
}

// checkBufferView verifies that view idx exists and lies inside a loaded
// buffer. gltf.Open resolves GLB chunks, data URIs and external files
// into Buffer.Data.
func checkBufferView(doc *gltf.Document, idx int) (*gltf.BufferView, error) {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range (%d views)", idx, len(doc.BufferViews))
	}
	view := doc.BufferViews[idx]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer view %d: buffer %d out of range (%d buffers)", idx, view.Buffer, len(doc.Buffers))
	}
	data := doc.Buffers[view.Buffer].Data
	if data == nil {
		return nil, fmt.Errorf("buffer %d has no data", view.Buffer)
	}
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteOffset+view.ByteLength > len(data) {
		return nil, fmt.Errorf("buffer view %d extends past buffer %d", idx, view.Buffer)
	}
	return view, nil
}

func accessorComponents(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	}
	return 0
}

func componentSize(t gltf.ComponentType) int {
	switch t {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}
