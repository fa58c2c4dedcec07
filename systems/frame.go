package systems

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/DaneLin/VulkanEngine/scene"
)

// MaxLights must match the array size in the shaders' global UBO.
const MaxLights = 10

// FrameInfo is what every system needs to record one frame. It is only
// valid until the renderer's EndFrame.
type FrameInfo struct {
	FrameIndex          int
	FrameTime           float32
	CommandBuffer       vk.CommandBuffer
	Camera              *scene.Camera
	GlobalDescriptorSet vk.DescriptorSet
	Scene               *scene.Scene
}

// PointLightData is one std140 entry of GlobalUBO.PointLights. Color.W is
// the intensity.
type PointLightData struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

// GlobalUBO is bound at set 0, binding 0 for every system. The trailing
// padding rounds the struct up to a 16 byte multiple as std140 requires.
type GlobalUBO struct {
	Projection        mgl32.Mat4
	View              mgl32.Mat4
	InverseView       mgl32.Mat4
	AmbientLightColor mgl32.Vec4
	PointLights       [MaxLights]PointLightData
	NumLights         int32
	_                 [3]int32
}

func DefaultGlobalUBO() GlobalUBO {
	return GlobalUBO{
		Projection:        mgl32.Ident4(),
		View:              mgl32.Ident4(),
		InverseView:       mgl32.Ident4(),
		AmbientLightColor: mgl32.Vec4{1, 1, 1, 0.02},
	}
}

// SetCamera copies the camera matrices into the UBO.
func (u *GlobalUBO) SetCamera(c *scene.Camera) {
	u.Projection = c.Projection()
	u.View = c.View()
	u.InverseView = c.InverseView()
}
