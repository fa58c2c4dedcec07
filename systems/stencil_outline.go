package systems

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	vke "github.com/DaneLin/VulkanEngine"
	"github.com/DaneLin/VulkanEngine/scene"
)

type OutlineOptions struct {
	// Reference is the stencil value written under outlined objects
	Reference uint32
	// Width is how far the outline is pushed out along the normals, in
	// object space
	Width float32
	Color mgl32.Vec3
}

func DefaultOutlineOptions() OutlineOptions {
	return OutlineOptions{
		Reference: 1,
		Width:     0.025,
		Color:     mgl32.Vec3{1, 0.6, 0.1},
	}
}

type outlinePushConstants struct {
	ModelMatrix mgl32.Mat4
	Color       mgl32.Vec3
	Width       float32
}

// StencilOutlineSystem draws selected objects with a toon shader while
// marking their pixels in the stencil buffer, then draws an inflated copy
// of each that only lands outside the marked pixels.
type StencilOutlineSystem struct {
	options  OutlineOptions
	outlined map[scene.ID]struct{}

	builder *PipelineBuilder
	stencil *vke.Pipeline
	outline *vke.Pipeline
}

// NewStencilOutlineSystem needs a render pass whose depth attachment has a
// stencil aspect.
func NewStencilOutlineSystem(t Target, opts OutlineOptions) (*StencilOutlineSystem, error) {
	builder, err := NewPipelineBuilder(t, uint32(unsafe.Sizeof(MeshPushConstants{})))
	if err != nil {
		return nil, err
	}
	s := &StencilOutlineSystem{
		options:  opts,
		outlined: make(map[scene.ID]struct{}),
		builder:  builder,
	}

	s.stencil, err = builder.Build("toon", stencilWriteConfig(builder.Config(), opts.Reference))
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.outline, err = builder.Build("outline", outlineConfig(builder.Config(), opts.Reference))
	if err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func stencilWriteConfig(cfg vke.PipelineConfig, reference uint32) vke.PipelineConfig {
	cfg.EnableStencil(vk.StencilOpState{
		FailOp:      vk.StencilOpReplace,
		PassOp:      vk.StencilOpReplace,
		DepthFailOp: vk.StencilOpReplace,
		CompareOp:   vk.CompareOpAlways,
		CompareMask: 0xff,
		WriteMask:   0xff,
		Reference:   reference,
	})
	return cfg
}

func outlineConfig(cfg vke.PipelineConfig, reference uint32) vke.PipelineConfig {
	cfg.EnableStencil(vk.StencilOpState{
		FailOp:      vk.StencilOpKeep,
		PassOp:      vk.StencilOpReplace,
		DepthFailOp: vk.StencilOpKeep,
		CompareOp:   vk.CompareOpNotEqual,
		CompareMask: 0xff,
		WriteMask:   0xff,
		Reference:   reference,
	})
	cfg.DepthStencil.DepthTestEnable = vk.False
	return cfg
}

func (s *StencilOutlineSystem) Options() OutlineOptions {
	return s.options
}

func (s *StencilOutlineSystem) Add(id scene.ID) {
	s.outlined[id] = struct{}{}
}

func (s *StencilOutlineSystem) Remove(id scene.ID) {
	delete(s.outlined, id)
}

func (s *StencilOutlineSystem) Contains(id scene.ID) bool {
	_, ok := s.outlined[id]
	return ok
}

func (s *StencilOutlineSystem) Draw(frame *FrameInfo) error {
	if err := checkFrame(frame); err != nil {
		return err
	}
	objs := meshes(frame.Scene, func(o *scene.GameObject) bool { return s.Contains(o.ID) })
	if len(objs) == 0 {
		return nil
	}
	cb := frame.CommandBuffer

	s.stencil.Bind(cb)
	s.builder.bindSets(cb, frame.GlobalDescriptorSet)
	for _, obj := range objs {
		pc := meshPush(obj)
		push(s.builder, cb, &pc)
		obj.Model.Bind(cb)
		obj.Model.Draw(cb)
	}

	s.outline.Bind(cb)
	for _, obj := range objs {
		pc := outlinePushConstants{
			ModelMatrix: obj.Transform.Mat4(),
			Color:       s.options.Color,
			Width:       s.options.Width,
		}
		push(s.builder, cb, &pc)
		obj.Model.Bind(cb)
		obj.Model.Draw(cb)
	}
	return nil
}

func (s *StencilOutlineSystem) Destroy() {
	if s.stencil != nil {
		s.stencil.Destroy()
	}
	if s.outline != nil {
		s.outline.Destroy()
	}
	s.builder.Destroy()
}
