package models

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/g3n/engine/math32"
	"github.com/taigrr/sceneview/pkg/math3d"
)

// OBJLoader loads Wavefront OBJ files and their MTL material libraries.
type OBJLoader struct {
	// LoadMaterials controls whether mtllib statements are followed.
	LoadMaterials bool
}

// NewOBJLoader creates a new OBJ loader with default options.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{LoadMaterials: true}
}

// Load opens an OBJ file. Material libraries are resolved relative to the
// file's directory.
func (l *OBJLoader) Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	open := func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, name))
	}
	return l.Parse(f, filepath.Base(path), open)
}

// Parse decodes OBJ data from r. openLib opens a material library by the
// name given in an mtllib statement; it may be nil. A library that cannot
// be opened or decoded is recorded in Scene.Warnings and the import goes
// on without its materials.
func (l *OBJLoader) Parse(r io.Reader, name string, openLib func(string) (io.ReadCloser, error)) (*Scene, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	var warnings []string
	var mtl []byte
	if l.LoadMaterials && openLib != nil {
		for _, lib := range materialLibraries(data) {
			b, err := readLibrary(lib, openLib)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("material library %s: %v", lib, err))
				continue
			}
			mtl = append(append(mtl, b...), '\n')
		}
	}

	defined := declaredMaterials(mtl)
	dec, err := obj.DecodeReader(bytes.NewReader(data), bytes.NewReader(mtl))
	if err != nil && len(mtl) > 0 {
		// Retry without materials so a broken library only costs colors
		plain, perr := obj.DecodeReader(bytes.NewReader(data), strings.NewReader(""))
		if perr == nil {
			warnings = append(warnings, fmt.Sprintf("material library: %v; materials ignored", err))
			dec, err, defined = plain, nil, nil
		} else {
			err = perr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decode obj: %w", err)
	}

	scene, err := sceneFromOBJ(dec, name, defined)
	if err != nil {
		return nil, err
	}
	for _, w := range dec.Warnings {
		scene.Warnings = append(scene.Warnings, "obj: "+w)
	}
	scene.Warnings = append(scene.Warnings, warnings...)
	return scene, nil
}

// materialLibraries lists the mtllib names in OBJ source order.
func materialLibraries(data []byte) []string {
	var libs []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 1 && fields[0] == "mtllib" {
			libs = append(libs, fields[1:]...)
		}
	}
	return libs
}

// declaredMaterials collects the names of newmtl blocks in mtl.
func declaredMaterials(mtl []byte) map[string]bool {
	names := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(mtl))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 1 && fields[0] == "newmtl" {
			names[fields[1]] = true
		}
	}
	return names
}

func readLibrary(name string, open func(string) (io.ReadCloser, error)) ([]byte, error) {
	rc, err := open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// objCorner identifies one face corner by its 0-based position, UV and
// normal indices (-1 when absent).
type objCorner struct {
	v, vt, vn int
}

type objMeshBuilder struct {
	mesh    *Mesh
	corners map[objCorner]int
	missing struct{ uv, normal bool }
}

// sceneFromOBJ hangs one node per decoded object under the root and
// splits each object's faces into one mesh per material, in order of
// first use. Only materials named in defined carry properties; the
// decoder also creates entries for usemtl names no library declares.
func sceneFromOBJ(dec *obj.Decoder, name string, defined map[string]bool) (*Scene, error) {
	scene := &Scene{Name: name, Root: NewNode(name)}
	nverts := len(dec.Vertices) / 3
	nuvs := len(dec.Uvs) / 2
	nnorms := len(dec.Normals) / 3

	materials := make(map[string]int)
	material := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := materials[name]; ok {
			return i
		}
		var src *obj.Material
		if defined[name] {
			src = dec.Materials[name]
		}
		scene.Materials = append(scene.Materials, convertOBJMaterial(name, src))
		materials[name] = len(scene.Materials) - 1
		return materials[name]
	}

	for _, o := range dec.Objects {
		if len(o.Faces) == 0 {
			continue
		}
		node := scene.Root.AddChild(NewNode(o.Name))

		builders := make(map[int]*objMeshBuilder)
		var order []int
		for fi, f := range o.Faces {
			mi := material(f.Material)
			b, ok := builders[mi]
			if !ok {
				meshName := o.Name
				if mi >= 0 {
					meshName += "/" + scene.Materials[mi].Name
				}
				mesh := NewMesh(meshName)
				mesh.Material = mi
				b = &objMeshBuilder{mesh: mesh, corners: make(map[objCorner]int)}
				builders[mi] = b
				order = append(order, mi)
			}

			if len(f.Vertices) < 3 {
				return nil, fmt.Errorf("object %q face %d: %d vertices", o.Name, fi, len(f.Vertices))
			}
			idx := make([]int, len(f.Vertices))
			for ci, v := range f.Vertices {
				if v < 0 || v >= nverts {
					return nil, fmt.Errorf("object %q face %d: vertex index %d out of range (%d defined)", o.Name, fi, v+1, nverts)
				}
				c := objCorner{v: v, vt: optionalIndex(f.Uvs, ci, nuvs), vn: optionalIndex(f.Normals, ci, nnorms)}
				idx[ci] = b.add(dec, c)
			}
			b.mesh.Faces = append(b.mesh.Faces, Face{Indices: idx})
		}

		for _, mi := range order {
			b := builders[mi]
			if b.missing.uv {
				b.mesh.UVs = nil
			}
			if b.missing.normal {
				b.mesh.Normals = nil
			}
			scene.Meshes = append(scene.Meshes, b.mesh)
			node.Meshes = append(node.Meshes, len(scene.Meshes)-1)
		}
	}
	return scene, nil
}

// optionalIndex returns idx[i] when it addresses one of n elements and -1
// otherwise. The decoder marks absent UV and normal references with an
// out-of-range sentinel.
func optionalIndex(idx []int, i, n int) int {
	if i >= len(idx) || idx[i] < 0 || idx[i] >= n {
		return -1
	}
	return idx[i]
}

// add returns the mesh-local vertex for corner c, creating it on first use.
func (b *objMeshBuilder) add(dec *obj.Decoder, c objCorner) int {
	if i, ok := b.corners[c]; ok {
		return i
	}

	m := b.mesh
	i := len(m.Positions)
	m.Positions = append(m.Positions, vec3At(dec.Vertices, c.v))

	if c.vt >= 0 {
		m.UVs = append(m.UVs, math3d.V2(float64(dec.Uvs[c.vt*2]), float64(dec.Uvs[c.vt*2+1])))
	} else {
		m.UVs = append(m.UVs, math3d.Vec2{})
		b.missing.uv = true
	}
	if c.vn >= 0 {
		m.Normals = append(m.Normals, vec3At(dec.Normals, c.vn))
	} else {
		m.Normals = append(m.Normals, math3d.Vec3{})
		b.missing.normal = true
	}

	b.corners[c] = i
	return i
}

func vec3At(a math32.ArrayF32, i int) math3d.Vec3 {
	return math3d.V3(float64(a[i*3]), float64(a[i*3+1]), float64(a[i*3+2]))
}

// convertOBJMaterial maps an MTL block onto the property bag. Opacity (d)
// becomes the diffuse alpha. A name used by usemtl but defined in no
// library yields an empty material.
func convertOBJMaterial(name string, m *obj.Material) *Material {
	mat := NewMaterial(name)
	if m == nil {
		return mat
	}

	alpha := float64(m.Opacity)
	if alpha <= 0 || alpha > 1 {
		// blocks without d decode as zero opacity
		alpha = 1
	}
	mat.SetColor(KeyDiffuse, rgba(m.Diffuse, alpha))
	mat.SetColor(KeySpecular, rgba(m.Specular, 1))
	mat.SetColor(KeyAmbient, rgba(m.Ambient, 1))
	mat.SetColor(KeyEmissive, rgba(m.Emissive, 1))
	mat.SetFloat(KeyShininess, float64(m.Shininess))
	return mat
}

func rgba(c math32.Color, a float64) [4]float64 {
	return [4]float64{float64(c.R), float64(c.G), float64(c.B), a}
}
