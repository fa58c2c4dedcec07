package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera produces projection and view matrices for Vulkan clip space: y
// points down and depth runs from 0 to 1.
type Camera struct {
	projection  mgl32.Mat4
	view        mgl32.Mat4
	inverseView mgl32.Mat4
}

func NewCamera() *Camera {
	return &Camera{
		projection:  mgl32.Ident4(),
		view:        mgl32.Ident4(),
		inverseView: mgl32.Ident4(),
	}
}

func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) {
	p := mgl32.Ident4()
	p[0] = 2 / (right - left)
	p[5] = 2 / (bottom - top)
	p[10] = 1 / (far - near)
	p[12] = -(right + left) / (right - left)
	p[13] = -(bottom + top) / (bottom - top)
	p[14] = -near / (far - near)
	c.projection = p
}

// SetPerspectiveProjection takes the vertical field of view in radians.
func (c *Camera) SetPerspectiveProjection(fovy, aspect, near, far float32) {
	tanHalf := float32(math.Tan(float64(fovy) / 2))
	var p mgl32.Mat4
	p[0] = 1 / (aspect * tanHalf)
	p[5] = 1 / tanHalf
	p[10] = far / (far - near)
	p[11] = 1
	p[14] = -(far * near) / (far - near)
	c.projection = p
}

func (c *Camera) setView(position, u, v, w mgl32.Vec3) {
	c.view = mgl32.Mat4{
		u.X(), v.X(), w.X(), 0,
		u.Y(), v.Y(), w.Y(), 0,
		u.Z(), v.Z(), w.Z(), 0,
		-u.Dot(position), -v.Dot(position), -w.Dot(position), 1,
	}
	c.inverseView = mgl32.Mat4{
		u.X(), u.Y(), u.Z(), 0,
		v.X(), v.Y(), v.Z(), 0,
		w.X(), w.Y(), w.Z(), 0,
		position.X(), position.Y(), position.Z(), 1,
	}
}

// SetViewDirection looks from position along direction. up must not be
// parallel to direction.
func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	w := direction.Normalize()
	u := w.Cross(up).Normalize()
	v := w.Cross(u)
	c.setView(position, u, v, w)
}

func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.SetViewDirection(position, target.Sub(position), up)
}

// SetViewYXZ orients the camera with the same Euler convention as
// Transform.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	b := basis(rotation)
	u := mgl32.Vec3{b.c1*b.c3 + b.s1*b.s2*b.s3, b.c2 * b.s3, b.c1*b.s2*b.s3 - b.c3*b.s1}
	v := mgl32.Vec3{b.c3*b.s1*b.s2 - b.c1*b.s3, b.c2 * b.c3, b.c1*b.c3*b.s2 + b.s1*b.s3}
	w := mgl32.Vec3{b.c2 * b.s1, -b.s2, b.c1 * b.c2}
	c.setView(position, u, v, w)
}

func (c *Camera) Projection() mgl32.Mat4 {
	return c.projection
}

func (c *Camera) View() mgl32.Mat4 {
	return c.view
}

func (c *Camera) InverseView() mgl32.Mat4 {
	return c.inverseView
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.inverseView.Col(3).Vec3()
}
