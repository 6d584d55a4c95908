package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/sceneview/pkg/config"
	"github.com/taigrr/sceneview/pkg/viewer"
)

func TestSnapshotName(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "teapot-20260304-050607.png", snapshotName("models/teapot.obj", now))
}

func TestRenderSnapshot(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "tri.obj")
	require.NoError(t, os.WriteFile(model, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))
	out := filepath.Join(dir, "tri.png")

	cfg, err := config.Load("sceneview", []string{"-snapshot", out, "-snapshot-width", "32", "-snapshot-height", "24", model}, os.Stderr, func(string) string { return "" })
	require.NoError(t, err)

	v := viewer.New(cfg.ViewerOptions(nil))
	require.NoError(t, v.Load(cfg.Model))
	require.NoError(t, renderSnapshot(v, cfg))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 24, img.Bounds().Dy())
}
