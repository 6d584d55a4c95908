package scene

import (
	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/models"
)

// ComputeBounds returns the world-space box of every vertex in s. A scene
// with no vertices yields an empty box (see math3d.Box.Empty).
func ComputeBounds(s *models.Scene) math3d.Box {
	if s == nil {
		return math3d.EmptyBox()
	}
	return NodeBounds(s.Root, s.Meshes, math3d.Identity(), math3d.EmptyBox())
}

// NodeBounds widens box by the vertices under n. parent is the cumulative
// transform of n's parent; each level composes parent * local, so the
// transform is naturally restored when the recursion returns.
func NodeBounds(n *models.Node, meshes []*models.Mesh, parent math3d.Mat4, box math3d.Box) math3d.Box {
	if n == nil {
		return box
	}
	world := parent.Mul(n.Transform)

	for _, mi := range n.Meshes {
		if mi < 0 || mi >= len(meshes) {
			continue
		}
		for _, p := range meshes[mi].Positions {
			box = box.Extend(world.MulVec3(p))
		}
	}
	for _, c := range n.Children {
		box = NodeBounds(c, meshes, world, box)
	}
	return box
}
