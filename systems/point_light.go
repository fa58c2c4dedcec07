package systems

import (
	"sort"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	vke "github.com/DaneLin/VulkanEngine"
	"github.com/DaneLin/VulkanEngine/scene"
)

type pointLightPushConstants struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
	Radius   float32
}

// PointLightSystem animates the scene's point lights, publishes them in the
// global UBO and draws each one as a camera-facing disc.
type PointLightSystem struct {
	// Animate rotates the lights around the -Y axis at Speed radians per
	// second.
	Animate bool
	Speed   float32

	builder  *PipelineBuilder
	pipeline *vke.Pipeline
}

func NewPointLightSystem(t Target) (*PointLightSystem, error) {
	builder, err := NewPipelineBuilder(t, uint32(unsafe.Sizeof(pointLightPushConstants{})))
	if err != nil {
		return nil, err
	}
	pipeline, err := builder.Build("point_light", pointLightConfig(builder.Config()))
	if err != nil {
		builder.Destroy()
		return nil, err
	}
	return &PointLightSystem{
		Animate:  true,
		Speed:    0.5,
		builder:  builder,
		pipeline: pipeline,
	}, nil
}

// pointLightConfig drops vertex input since the billboard corners come from
// the vertex index.
func pointLightConfig(cfg vke.PipelineConfig) vke.PipelineConfig {
	cfg.BindingDescriptions = nil
	cfg.AttributeDescriptions = nil
	cfg.EnableAlphaBlending()
	return cfg
}

// Update moves the lights for this frame and writes them into ubo in ID
// order.
func (s *PointLightSystem) Update(frame *FrameInfo, ubo *GlobalUBO) error {
	lights := frame.Scene.Lights()
	if len(lights) > MaxLights {
		return errors.Newf("scene has %d point lights, at most %d are supported", len(lights), MaxLights)
	}

	rotate := mgl32.Ident4()
	if s.Animate {
		rotate = mgl32.HomogRotate3D(s.Speed*frame.FrameTime, mgl32.Vec3{0, -1, 0})
	}

	for i, obj := range lights {
		obj.Transform.Translation = rotate.Mul4x1(obj.Transform.Translation.Vec4(1)).Vec3()
		ubo.PointLights[i] = PointLightData{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(obj.PointLight.Intensity),
		}
	}
	ubo.NumLights = int32(len(lights))
	return nil
}

// backToFront orders lights by decreasing distance to the camera so blended
// discs composite correctly.
func backToFront(lights []*scene.GameObject, camera mgl32.Vec3) []*scene.GameObject {
	sorted := make([]*scene.GameObject, len(lights))
	copy(sorted, lights)
	dist := func(o *scene.GameObject) float32 {
		d := o.Transform.Translation.Sub(camera)
		return d.Dot(d)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return dist(sorted[i]) > dist(sorted[j])
	})
	return sorted
}

func (s *PointLightSystem) Draw(frame *FrameInfo) error {
	if err := checkFrame(frame); err != nil {
		return err
	}
	if frame.Camera == nil {
		return errors.AssertionFailedf("point lights need a camera")
	}
	cb := frame.CommandBuffer
	s.pipeline.Bind(cb)
	s.builder.bindSets(cb, frame.GlobalDescriptorSet)

	for _, obj := range backToFront(frame.Scene.Lights(), frame.Camera.Position()) {
		pc := pointLightPushConstants{
			Position: obj.Transform.Translation.Vec4(1),
			Color:    obj.Color.Vec4(obj.PointLight.Intensity),
			Radius:   obj.Transform.Scale.X(),
		}
		push(s.builder, cb, &pc)
		vk.CmdDraw(cb, 6, 1, 0, 0)
	}
	return nil
}

func (s *PointLightSystem) Destroy() {
	s.pipeline.Destroy()
	s.builder.Destroy()
}
