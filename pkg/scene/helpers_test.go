package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeOBJ stores src as model.obj in a temporary directory.
func writeOBJ(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.obj")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
