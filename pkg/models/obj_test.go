package models

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/sceneview/pkg/math3d"
)

const cubeMTL = `
# two materials
newmtl red
Kd 1 0 0
Ks 0.5 0.5 0.5
Ns 32
d 0.5

newmtl plain
`

const quadOBJ = `
mtllib colors.mtl
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
usemtl red
f 1//1 2//1 3//1 4//1
o tri
usemtl plain
f 1 2 3
`

func libs(files map[string]string) func(string) (io.ReadCloser, error) {
	return func(name string) (io.ReadCloser, error) {
		s, ok := files[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(strings.NewReader(s)), nil
	}
}

func TestOBJParseObjectsAndMaterials(t *testing.T) {
	scene, err := NewOBJLoader().Parse(strings.NewReader(quadOBJ), "quad.obj", libs(map[string]string{"colors.mtl": cubeMTL}))
	require.NoError(t, err)
	require.NoError(t, Validate(scene))

	require.Len(t, scene.Root.Children, 2)
	assert.Equal(t, "quad", scene.Root.Children[0].Name)
	assert.Equal(t, "tri", scene.Root.Children[1].Name)

	require.Len(t, scene.Meshes, 2)
	quad := scene.Meshes[0]
	assert.Equal(t, "quad/red", quad.Name)
	require.Len(t, quad.Faces, 1)
	assert.Equal(t, PrimitivePolygon, quad.Faces[0].Type(), "polygons are kept without Triangulate")
	assert.Len(t, quad.Positions, 4)
	assert.True(t, quad.HasNormals())
	assert.False(t, quad.HasUVs())
	assert.InDelta(t, 1, quad.Normals[0].Z, 1e-6)

	red := scene.Material(quad.Material)
	require.NotNil(t, red)
	assert.Equal(t, "red", red.Name)
	kd, ok := red.Color(KeyDiffuse)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{1, 0, 0, 0.5}, kd[:], 1e-6, "dissolve becomes diffuse alpha")
	ks, ok := red.Color(KeySpecular)
	require.True(t, ok)
	assert.InDelta(t, 0.5, ks[0], 1e-6)
	ns, ok := red.Float(KeyShininess)
	require.True(t, ok)
	assert.InDelta(t, 32.0, ns, 1e-6)

	tri := scene.Meshes[1]
	assert.Equal(t, "plain", scene.Material(tri.Material).Name)
	assert.False(t, tri.HasNormals(), "faces without vn carry no normals")
	assert.NotContains(t, strings.Join(scene.Warnings, "\n"), "material library")
}

func TestOBJWithoutObjectStatement(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	scene, err := NewOBJLoader().Parse(strings.NewReader(src), "c.obj", nil)
	require.NoError(t, err)

	require.Len(t, scene.Meshes, 1)
	m := scene.Meshes[0]
	assert.Equal(t, -1, m.Material)
	assert.Equal(t, []Face{{Indices: []int{0, 1, 2}}}, m.Faces)
	require.Len(t, scene.Root.Children, 1)
	assert.Equal(t, []int{0}, scene.Root.Children[0].Meshes)
}

func TestOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"index out of range", "v 0 0 0\nf 1 2 3\n"},
		{"bad float", "v 0 x 0\n"},
		{"degenerate face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOBJLoader().Parse(strings.NewReader(tc.src), "bad.obj", nil)
			assert.Error(t, err)
		})
	}
}

func TestOBJMissingLibraryWarns(t *testing.T) {
	scene, err := NewOBJLoader().Parse(strings.NewReader(quadOBJ), "quad.obj", libs(nil))
	require.NoError(t, err)
	red := scene.Material(scene.Meshes[0].Material)
	require.NotNil(t, red)
	assert.Equal(t, "red", red.Name)
	assert.Equal(t, 0, red.Len(), "undefined material has no properties")

	require.NotEmpty(t, scene.Warnings)
	assert.Contains(t, scene.Warnings[len(scene.Warnings)-1], "material library colors.mtl")
}

func TestOBJMalformedLibraryWarns(t *testing.T) {
	broken := "newmtl red\nKd 1 0\n"
	scene, err := NewOBJLoader().Parse(strings.NewReader(quadOBJ), "quad.obj", libs(map[string]string{"colors.mtl": broken}))
	require.NoError(t, err, "a broken library does not fail the import")
	require.Len(t, scene.Meshes, 2)

	require.NotEmpty(t, scene.Warnings)
	assert.Contains(t, scene.Warnings[len(scene.Warnings)-1], "materials ignored")
	assert.Equal(t, 0, scene.Material(scene.Meshes[0].Material).Len())
}

func TestOBJSkipsLibrariesWhenDisabled(t *testing.T) {
	l := &OBJLoader{LoadMaterials: false}
	scene, err := l.Parse(strings.NewReader(quadOBJ), "quad.obj", libs(nil))
	require.NoError(t, err)
	assert.NotContains(t, strings.Join(scene.Warnings, "\n"), "material library")
	assert.Equal(t, 0, scene.Material(scene.Meshes[0].Material).Len())
}

func TestImportOBJFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.obj"), []byte(quadOBJ), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "colors.mtl"), []byte(cubeMTL), 0o644))

	scene, err := Import(filepath.Join(dir, "quad.obj"), DefaultImportFlags)
	require.NoError(t, err)

	quad := scene.Meshes[0]
	require.Len(t, quad.Faces, 2, "quad triangulated into a fan")
	for _, f := range quad.Faces {
		assert.Equal(t, PrimitiveTriangle, f.Type())
	}
	assert.Equal(t, math3d.V3(0, 0, 0), quad.Positions[quad.Faces[0].Indices[0]])
}

func TestImportUnsupportedFormat(t *testing.T) {
	_, err := Import("model.fbx", DefaultImportFlags)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "missing.obj"), DefaultImportFlags)
	assert.Error(t, err)
}
