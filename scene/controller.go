package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// KeySource reports whether a key is currently held down.
type KeySource interface {
	Pressed(key glfw.Key) bool
}

type KeyMappings struct {
	MoveLeft     glfw.Key
	MoveRight    glfw.Key
	MoveForward  glfw.Key
	MoveBackward glfw.Key
	MoveUp       glfw.Key
	MoveDown     glfw.Key
	LookLeft     glfw.Key
	LookRight    glfw.Key
	LookUp       glfw.Key
	LookDown     glfw.Key
}

func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		MoveLeft:     glfw.KeyA,
		MoveRight:    glfw.KeyD,
		MoveForward:  glfw.KeyW,
		MoveBackward: glfw.KeyS,
		MoveUp:       glfw.KeyE,
		MoveDown:     glfw.KeyQ,
		LookLeft:     glfw.KeyLeft,
		LookRight:    glfw.KeyRight,
		LookUp:       glfw.KeyUp,
		LookDown:     glfw.KeyDown,
	}
}

const maxPitch = 1.5

// KeyboardController moves an object in the XZ plane and turns it with
// the arrow keys.
type KeyboardController struct {
	Keys      KeyMappings
	MoveSpeed float32
	LookSpeed float32
}

func NewKeyboardController() *KeyboardController {
	return &KeyboardController{
		Keys:      DefaultKeyMappings(),
		MoveSpeed: 3,
		LookSpeed: 1.5,
	}
}

func axis(keys KeySource, positive, negative glfw.Key) float32 {
	var v float32
	if keys.Pressed(positive) {
		v++
	}
	if keys.Pressed(negative) {
		v--
	}
	return v
}

// MoveInPlaneXZ applies dt seconds of input to obj.
func (k *KeyboardController) MoveInPlaneXZ(keys KeySource, dt float32, obj *GameObject) {
	rotate := mgl32.Vec3{
		axis(keys, k.Keys.LookUp, k.Keys.LookDown),
		axis(keys, k.Keys.LookRight, k.Keys.LookLeft),
		0,
	}
	if rotate.Dot(rotate) > mgl32.Epsilon {
		obj.Transform.Rotation = obj.Transform.Rotation.Add(rotate.Normalize().Mul(k.LookSpeed * dt))
	}

	r := &obj.Transform.Rotation
	r[0] = mgl32.Clamp(r[0], -maxPitch, maxPitch)
	r[1] = wrapAngle(r[1])

	yaw := float64(r[1])
	forward := mgl32.Vec3{float32(math.Sin(yaw)), 0, float32(math.Cos(yaw))}
	right := mgl32.Vec3{forward.Z(), 0, -forward.X()}
	up := mgl32.Vec3{0, -1, 0}

	var move mgl32.Vec3
	move = move.Add(forward.Mul(axis(keys, k.Keys.MoveForward, k.Keys.MoveBackward)))
	move = move.Add(right.Mul(axis(keys, k.Keys.MoveRight, k.Keys.MoveLeft)))
	move = move.Add(up.Mul(axis(keys, k.Keys.MoveUp, k.Keys.MoveDown)))

	if move.Dot(move) > mgl32.Epsilon {
		obj.Transform.Translation = obj.Transform.Translation.Add(move.Normalize().Mul(k.MoveSpeed * dt))
	}
}

// wrapAngle maps a into [0, 2pi).
func wrapAngle(a float32) float32 {
	w := math.Mod(float64(a), 2*math.Pi)
	if w < 0 {
		w += 2 * math.Pi
	}
	return float32(w)
}
