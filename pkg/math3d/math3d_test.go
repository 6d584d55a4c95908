package math3d

import (
	"math"
	"testing"
)

func vecNear(a, b Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

func TestMat4MulOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(V3(1, 0, 0)).Mul(ScaleUniform(2))
	got := m.MulVec3(V3(1, 1, 1))
	if !vecNear(got, V3(3, 2, 2)) {
		t.Errorf("got %v, want (3, 2, 2)", got)
	}
}

func TestFromQuat(t *testing.T) {
	tests := []struct {
		name string
		q    [4]float64
		in   Vec3
		want Vec3
	}{
		{"identity", [4]float64{0, 0, 0, 1}, V3(1, 2, 3), V3(1, 2, 3)},
		{"90 about Z", [4]float64{0, 0, math.Sqrt2 / 2, math.Sqrt2 / 2}, V3(1, 0, 0), V3(0, 1, 0)},
		{"90 about Y", [4]float64{0, math.Sqrt2 / 2, 0, math.Sqrt2 / 2}, V3(0, 0, 1), V3(1, 0, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FromQuat(tc.q).MulVec3(tc.in)
			if !vecNear(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFromQuatMatchesRotateZ(t *testing.T) {
	angle := 0.7
	q := [4]float64{0, 0, math.Sin(angle / 2), math.Cos(angle / 2)}
	a := FromQuat(q)
	b := RotateZ(angle)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			t.Fatalf("element %d: quat %v, euler %v", i, a[i], b[i])
		}
	}
}

func TestTRS(t *testing.T) {
	m := TRS(V3(10, 0, 0), [4]float64{0, 0, 0, 1}, V3(2, 3, 4))
	got := m.MulVec3(V3(1, 1, 1))
	if !vecNear(got, V3(12, 3, 4)) {
		t.Errorf("got %v, want (12, 3, 4)", got)
	}
}

func TestNormalMatrixNonUniformScale(t *testing.T) {
	// A plane tilted 45 degrees keeps a perpendicular normal only with the
	// inverse transpose.
	m := Scale(V3(2, 1, 1))
	n := m.NormalMatrix().MulVec3Dir(V3(1, 1, 0).Normalize()).Normalize()
	tangent := m.MulVec3Dir(V3(1, -1, 0))
	if d := n.Dot(tangent); math.Abs(d) > 1e-9 {
		t.Errorf("normal not perpendicular to transformed surface: dot = %v", d)
	}
}

func TestEmptyBox(t *testing.T) {
	box := EmptyBox()
	if !box.Empty() {
		t.Fatal("EmptyBox should report Empty")
	}

	box = box.Extend(V3(1, 2, 3))
	if box.Empty() {
		t.Fatal("box with one point should not be empty")
	}
	if box.Min != V3(1, 2, 3) || box.Max != V3(1, 2, 3) {
		t.Errorf("single point box = %v, want degenerate at (1, 2, 3)", box)
	}
}

func TestBoxExtendOrderIndependent(t *testing.T) {
	pts := []Vec3{V3(0, 0, 0), V3(1, -1, 2), V3(-3, 5, 1), V3(2, 2, -2)}

	forward := EmptyBox()
	for _, p := range pts {
		forward = forward.Extend(p)
	}
	backward := EmptyBox()
	for i := len(pts) - 1; i >= 0; i-- {
		backward = backward.Extend(pts[i])
	}

	if forward != backward {
		t.Errorf("forward %v != backward %v", forward, backward)
	}
	if forward.Min != V3(-3, -1, -2) || forward.Max != V3(2, 5, 2) {
		t.Errorf("unexpected bounds %v", forward)
	}
}

func TestBoxTransform(t *testing.T) {
	box := NewBox(V3(-1, -1, -1), V3(1, 1, 1))

	t.Run("translation", func(t *testing.T) {
		got := box.Transform(Translate(V3(10, 20, 30)))
		if got.Min != V3(9, 19, 29) || got.Max != V3(11, 21, 31) {
			t.Errorf("got %v", got)
		}
	})

	t.Run("empty stays empty", func(t *testing.T) {
		if !EmptyBox().Transform(ScaleUniform(2)).Empty() {
			t.Error("transformed empty box should stay empty")
		}
	})
}

func TestBoxCenterSizeRadius(t *testing.T) {
	box := NewBox(V3(0, 0, 0), V3(2, 4, 4))
	if box.Center() != V3(1, 2, 2) {
		t.Errorf("center = %v", box.Center())
	}
	if box.Size().MaxComponent() != 4 {
		t.Errorf("max size = %v, want 4", box.Size().MaxComponent())
	}
	if math.Abs(box.Radius()-3) > 1e-9 {
		t.Errorf("radius = %v, want 3", box.Radius())
	}
}
