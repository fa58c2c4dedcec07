package systems

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	vke "github.com/DaneLin/VulkanEngine"
	"github.com/DaneLin/VulkanEngine/scene"
)

// System records its draw calls into the frame's command buffer, inside the
// swap chain render pass.
type System interface {
	Draw(frame *FrameInfo) error
	Destroy()
}

// Target describes where systems draw: the render pass their pipelines must
// be compatible with and the set 0 layout shared by all of them.
type Target struct {
	Device          *vke.Device
	RenderPass      vk.RenderPass
	Samples         vk.SampleCountFlagBits
	ShaderDir       string
	GlobalSetLayout *vke.DescriptorSetLayout
}

// PipelineBuilder owns a pipeline layout and creates pipelines against it.
type PipelineBuilder struct {
	target    Target
	Layout    *vke.PipelineLayout
	pushSize  uint32
	pushStage vk.ShaderStageFlags
}

var vertexAndFragment = vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)

// NewPipelineBuilder creates a layout with the global set, then extraSets,
// and one push constant range of pushSize bytes when pushSize > 0.
func NewPipelineBuilder(t Target, pushSize uint32, extraSets ...*vke.DescriptorSetLayout) (*PipelineBuilder, error) {
	var sets []*vke.DescriptorSetLayout
	if t.GlobalSetLayout != nil {
		sets = append(sets, t.GlobalSetLayout)
	}
	sets = append(sets, extraSets...)

	var ranges []vk.PushConstantRange
	if pushSize > 0 {
		ranges = []vk.PushConstantRange{{
			StageFlags: vertexAndFragment,
			Offset:     0,
			Size:       pushSize,
		}}
	}
	layout, err := t.Device.CreatePipelineLayout(sets, ranges)
	if err != nil {
		return nil, err
	}
	return &PipelineBuilder{target: t, Layout: layout, pushSize: pushSize, pushStage: vertexAndFragment}, nil
}

// Config returns the default pipeline state wired to the builder's layout
// and target.
func (b *PipelineBuilder) Config() vke.PipelineConfig {
	return baseConfig(b.Layout.VKPipelineLayout, b.target.RenderPass, b.target.Samples)
}

func baseConfig(layout vk.PipelineLayout, renderPass vk.RenderPass, samples vk.SampleCountFlagBits) vke.PipelineConfig {
	cfg := vke.DefaultPipelineConfig()
	cfg.PipelineLayout = layout
	cfg.RenderPass = renderPass
	if samples != 0 {
		cfg.EnableMultisampling(samples)
	}
	return cfg
}

// Build creates a pipeline from <ShaderDir>/<shader>.vert.spv and
// <shader>.frag.spv.
func (b *PipelineBuilder) Build(shader string, cfg vke.PipelineConfig) (*vke.Pipeline, error) {
	vert, frag := vke.ShaderPaths(b.target.ShaderDir, shader)
	p, err := vke.NewPipeline(b.target.Device, vert, frag, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s pipeline", shader)
	}
	return p, nil
}

func (b *PipelineBuilder) Destroy() {
	if b.Layout != nil {
		b.Layout.Destroy()
		b.Layout = nil
	}
}

// bindSets binds sets starting at set 0.
func (b *PipelineBuilder) bindSets(cb vk.CommandBuffer, sets ...vk.DescriptorSet) {
	vk.CmdBindDescriptorSets(cb, vk.PipelineBindPointGraphics, b.Layout.VKPipelineLayout,
		0, uint32(len(sets)), sets, 0, nil)
}

func push[T any](b *PipelineBuilder, cb vk.CommandBuffer, v *T) {
	size := uint32(unsafe.Sizeof(*v))
	if size > b.pushSize {
		panic(errors.AssertionFailedf("push constant block of %d bytes exceeds range of %d", size, b.pushSize))
	}
	vk.CmdPushConstants(cb, b.Layout.VKPipelineLayout, b.pushStage, 0, size, unsafe.Pointer(v))
}

// MeshPushConstants is the per-object block of the mesh shaders.
type MeshPushConstants struct {
	ModelMatrix  mgl32.Mat4
	NormalMatrix mgl32.Mat4
}

func meshPush(obj *scene.GameObject) MeshPushConstants {
	return MeshPushConstants{
		ModelMatrix:  obj.Transform.Mat4(),
		NormalMatrix: obj.Transform.NormalMatrix(),
	}
}

// meshes returns the objects with a model that keep passes, in ID order.
// A nil keep accepts everything.
func meshes(s *scene.Scene, keep func(*scene.GameObject) bool) []*scene.GameObject {
	var out []*scene.GameObject
	for _, obj := range s.Objects() {
		if obj.Model == nil {
			continue
		}
		if keep != nil && !keep(obj) {
			continue
		}
		out = append(out, obj)
	}
	return out
}

func checkFrame(frame *FrameInfo) error {
	if frame == nil || frame.Scene == nil || frame.CommandBuffer == nil {
		return errors.AssertionFailedf("incomplete frame info")
	}
	return nil
}
