package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

var testTransform = Transform{
	Translation: mgl32.Vec3{1, -2, 3},
	Scale:       mgl32.Vec3{2, 0.5, 3},
	Rotation:    mgl32.Vec3{0.3, -1.1, 0.7},
}

func TestTransformMat4MatchesComposition(t *testing.T) {
	tr := testTransform
	want := mgl32.Translate3D(tr.Translation.Elem()).
		Mul4(mgl32.HomogRotate3DY(tr.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(tr.Rotation.X())).
		Mul4(mgl32.HomogRotate3DZ(tr.Rotation.Z())).
		Mul4(mgl32.Scale3D(tr.Scale.Elem()))

	if got := tr.Mat4(); !got.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("Mat4 =\n%v\nwant\n%v", got, want)
	}
}

func TestIdentityTransform(t *testing.T) {
	tr := Transform{Scale: mgl32.Vec3{1, 1, 1}}
	if !tr.Mat4().ApproxEqual(mgl32.Ident4()) {
		t.Fatalf("Mat4 = %v", tr.Mat4())
	}
	if !tr.NormalMatrix().ApproxEqual(mgl32.Ident4()) {
		t.Fatalf("NormalMatrix = %v", tr.NormalMatrix())
	}
}

func TestNormalMatrixIsInverseTranspose(t *testing.T) {
	tr := testTransform
	want := tr.Mat4().Mat3().Inv().Transpose().Mat4()
	if got := tr.NormalMatrix(); !got.ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("NormalMatrix =\n%v\nwant\n%v", got, want)
	}
}
