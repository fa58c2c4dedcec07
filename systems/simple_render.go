package systems

import (
	"unsafe"

	vke "github.com/DaneLin/VulkanEngine"
	"github.com/DaneLin/VulkanEngine/scene"
)

// SimpleRenderSystem draws every object with a model using the lit
// simple_shader pipeline.
type SimpleRenderSystem struct {
	// Filter, when set, limits the objects drawn
	Filter func(*scene.GameObject) bool

	builder  *PipelineBuilder
	pipeline *vke.Pipeline
}

func NewSimpleRenderSystem(t Target) (*SimpleRenderSystem, error) {
	builder, err := NewPipelineBuilder(t, uint32(unsafe.Sizeof(MeshPushConstants{})))
	if err != nil {
		return nil, err
	}
	pipeline, err := builder.Build("simple_shader", builder.Config())
	if err != nil {
		builder.Destroy()
		return nil, err
	}
	return &SimpleRenderSystem{builder: builder, pipeline: pipeline}, nil
}

func (s *SimpleRenderSystem) Draw(frame *FrameInfo) error {
	if err := checkFrame(frame); err != nil {
		return err
	}
	cb := frame.CommandBuffer
	s.pipeline.Bind(cb)
	s.builder.bindSets(cb, frame.GlobalDescriptorSet)

	for _, obj := range meshes(frame.Scene, s.Filter) {
		pc := meshPush(obj)
		push(s.builder, cb, &pc)
		obj.Model.Bind(cb)
		obj.Model.Draw(cb)
	}
	return nil
}

func (s *SimpleRenderSystem) Destroy() {
	s.pipeline.Destroy()
	s.builder.Destroy()
}
