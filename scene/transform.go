package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform places an object. Rotation holds Tait-Bryan angles in radians
// applied in Y, X, Z order.
type Transform struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3
}

type rotationBasis struct {
	c1, s1, c2, s2, c3, s3 float32
}

func basis(r mgl32.Vec3) rotationBasis {
	return rotationBasis{
		c1: float32(math.Cos(float64(r.Y()))),
		s1: float32(math.Sin(float64(r.Y()))),
		c2: float32(math.Cos(float64(r.X()))),
		s2: float32(math.Sin(float64(r.X()))),
		c3: float32(math.Cos(float64(r.Z()))),
		s3: float32(math.Sin(float64(r.Z()))),
	}
}

// Mat4 returns translate * Ry * Rx * Rz * scale.
func (t Transform) Mat4() mgl32.Mat4 {
	b := basis(t.Rotation)
	s := t.Scale
	return mgl32.Mat4{
		s.X() * (b.c1*b.c3 + b.s1*b.s2*b.s3),
		s.X() * (b.c2 * b.s3),
		s.X() * (b.c1*b.s2*b.s3 - b.c3*b.s1),
		0,

		s.Y() * (b.c3*b.s1*b.s2 - b.c1*b.s3),
		s.Y() * (b.c2 * b.c3),
		s.Y() * (b.c1*b.c3*b.s2 + b.s1*b.s3),
		0,

		s.Z() * (b.c2 * b.s1),
		s.Z() * (-b.s2),
		s.Z() * (b.c1 * b.c2),
		0,

		t.Translation.X(), t.Translation.Y(), t.Translation.Z(), 1,
	}
}

// NormalMatrix is the inverse transpose of the upper 3x3 of Mat4, padded
// to a Mat4 so it can share std140 layout with the model matrix.
func (t Transform) NormalMatrix() mgl32.Mat4 {
	b := basis(t.Rotation)
	inv := mgl32.Vec3{1 / t.Scale.X(), 1 / t.Scale.Y(), 1 / t.Scale.Z()}
	m := mgl32.Mat3{
		inv.X() * (b.c1*b.c3 + b.s1*b.s2*b.s3),
		inv.X() * (b.c2 * b.s3),
		inv.X() * (b.c1*b.s2*b.s3 - b.c3*b.s1),

		inv.Y() * (b.c3*b.s1*b.s2 - b.c1*b.s3),
		inv.Y() * (b.c2 * b.c3),
		inv.Y() * (b.c1*b.c3*b.s2 + b.s1*b.s3),

		inv.Z() * (b.c2 * b.s1),
		inv.Z() * (-b.s2),
		inv.Z() * (b.c1 * b.c2),
	}
	return m.Mat4()
}
