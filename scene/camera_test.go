package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func project(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	return v.Vec3().Mul(1 / v.W())
}

func TestOrthographicMapsBoxToClipVolume(t *testing.T) {
	c := NewCamera()
	c.SetOrthographicProjection(-2, 2, -1, 1, 0.5, 10)

	near := project(c.Projection(), mgl32.Vec3{-2, -1, 0.5})
	if !near.ApproxEqual(mgl32.Vec3{-1, -1, 0}) {
		t.Fatalf("near corner = %v", near)
	}
	far := project(c.Projection(), mgl32.Vec3{2, 1, 10})
	if !far.ApproxEqual(mgl32.Vec3{1, 1, 1}) {
		t.Fatalf("far corner = %v", far)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	c := NewCamera()
	c.SetPerspectiveProjection(mgl32.DegToRad(50), 1.5, 0.1, 100)

	if z := project(c.Projection(), mgl32.Vec3{0, 0, 0.1}).Z(); math.Abs(float64(z)) > 1e-5 {
		t.Fatalf("near depth = %v, want 0", z)
	}
	if z := project(c.Projection(), mgl32.Vec3{0, 0, 100}).Z(); math.Abs(float64(z-1)) > 1e-4 {
		t.Fatalf("far depth = %v, want 1", z)
	}

	// A point on the top edge of the frustum lands on y = 1 since y points down.
	tanHalf := float32(math.Tan(float64(mgl32.DegToRad(25))))
	p := project(c.Projection(), mgl32.Vec3{0, 5 * tanHalf, 5})
	if math.Abs(float64(p.Y()-1)) > 1e-4 {
		t.Fatalf("edge y = %v, want 1", p.Y())
	}
}

func TestViewTargetPutsTargetOnAxis(t *testing.T) {
	c := NewCamera()
	pos := mgl32.Vec3{1, -2, -3}
	target := mgl32.Vec3{0, 0, 2.5}
	c.SetViewTarget(pos, target, mgl32.Vec3{0, -1, 0})

	v := c.View().Mul4x1(target.Vec4(1)).Vec3()
	if math.Abs(float64(v.X())) > 1e-5 || math.Abs(float64(v.Y())) > 1e-5 || v.Z() <= 0 {
		t.Fatalf("target in view space = %v", v)
	}
	if !c.View().Mul4(c.InverseView()).ApproxEqualThreshold(mgl32.Ident4(), 1e-5) {
		t.Fatal("InverseView is not the inverse of View")
	}
	if !c.Position().ApproxEqualThreshold(pos, 1e-5) {
		t.Fatalf("Position = %v, want %v", c.Position(), pos)
	}
}

func TestViewYXZIsInverseOfTransform(t *testing.T) {
	tr := Transform{
		Translation: mgl32.Vec3{0.5, -1, -2.5},
		Scale:       mgl32.Vec3{1, 1, 1},
		Rotation:    mgl32.Vec3{0.2, 0.9, -0.4},
	}
	c := NewCamera()
	c.SetViewYXZ(tr.Translation, tr.Rotation)

	if !c.InverseView().ApproxEqualThreshold(tr.Mat4(), 1e-5) {
		t.Fatalf("InverseView =\n%v\nwant\n%v", c.InverseView(), tr.Mat4())
	}
	if !c.View().Mul4(tr.Mat4()).ApproxEqualThreshold(mgl32.Ident4(), 1e-5) {
		t.Fatal("View is not the inverse of the camera transform")
	}
}
