package systems

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	vke "github.com/DaneLin/VulkanEngine"
	"github.com/DaneLin/VulkanEngine/scene"
)

// LightingModel selects the fragment shader path through specialization
// constant 0.
type LightingModel int32

const (
	Phong LightingModel = iota
	Toon
	Textured

	lightingModelCount
)

func (m LightingModel) String() string {
	switch m {
	case Phong:
		return "phong"
	case Toon:
		return "toon"
	case Textured:
		return "textured"
	}
	return "unknown"
}

type specializationConstants struct {
	LightingModel    int32
	ToonDesaturation float32
}

func specializationEntries() []vk.SpecializationMapEntry {
	var c specializationConstants
	return []vk.SpecializationMapEntry{
		{ConstantID: 0, Offset: uint32(unsafe.Offsetof(c.LightingModel)), Size: uint(unsafe.Sizeof(c.LightingModel))},
		{ConstantID: 1, Offset: uint32(unsafe.Offsetof(c.ToonDesaturation)), Size: uint(unsafe.Sizeof(c.ToonDesaturation))},
	}
}

func specializationData(m LightingModel, desaturation float32) []byte {
	c := specializationConstants{LightingModel: int32(m), ToonDesaturation: desaturation}
	out := make([]byte, unsafe.Sizeof(c))
	copy(out, vke.Bytes(&c))
	return out
}

// SpecializationSystem builds one pipeline per lighting model from a single
// shader pair and draws each assigned object with its model's pipeline.
type SpecializationSystem struct {
	variants map[scene.ID]LightingModel

	builder    *PipelineBuilder
	pipelines  [lightingModelCount]*vke.Pipeline
	setLayout  *vke.DescriptorSetLayout
	pool       *vke.DescriptorPool
	textureSet vk.DescriptorSet
}

// NewSpecializationSystem binds texture at set 1 for the textured model.
func NewSpecializationSystem(t Target, texture *vke.Texture, toonDesaturation float32) (*SpecializationSystem, error) {
	if texture == nil {
		return nil, errors.AssertionFailedf("specialization system needs a texture")
	}
	s := &SpecializationSystem{variants: make(map[scene.ID]LightingModel)}

	var err error
	s.setLayout, err = vke.NewDescriptorSetLayoutBuilder().
		AddBinding(0, vk.DescriptorTypeCombinedImageSampler, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 1).
		Build(t.Device)
	if err != nil {
		return nil, err
	}
	s.pool, err = vke.NewDescriptorPoolBuilder().
		SetMaxSets(1).
		AddPoolSize(vk.DescriptorTypeCombinedImageSampler, 1).
		Build(t.Device)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.textureSet, err = vke.NewDescriptorWriter(s.setLayout, s.pool).
		WriteImage(0, texture.DescriptorInfo()).
		Build()
	if err != nil {
		s.Destroy()
		return nil, err
	}

	s.builder, err = NewPipelineBuilder(t, uint32(unsafe.Sizeof(MeshPushConstants{})), s.setLayout)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	for m := Phong; m < lightingModelCount; m++ {
		cfg := s.builder.Config()
		cfg.SpecializationEntries = specializationEntries()
		cfg.SpecializationData = specializationData(m, toonDesaturation)
		s.pipelines[m], err = s.builder.Build("specialization", cfg)
		if err != nil {
			s.Destroy()
			return nil, errors.Wrapf(err, "%s variant", m)
		}
	}
	return s, nil
}

func (s *SpecializationSystem) Assign(id scene.ID, m LightingModel) error {
	if m < 0 || m >= lightingModelCount {
		return errors.AssertionFailedf("unknown lighting model %d", m)
	}
	s.variants[id] = m
	return nil
}

func (s *SpecializationSystem) Unassign(id scene.ID) {
	delete(s.variants, id)
}

func (s *SpecializationSystem) Variant(id scene.ID) (LightingModel, bool) {
	m, ok := s.variants[id]
	return m, ok
}

// byVariant groups the assigned objects of sc per lighting model.
func (s *SpecializationSystem) byVariant(sc *scene.Scene) [lightingModelCount][]*scene.GameObject {
	var out [lightingModelCount][]*scene.GameObject
	for _, obj := range meshes(sc, nil) {
		if m, ok := s.variants[obj.ID]; ok {
			out[m] = append(out[m], obj)
		}
	}
	return out
}

func (s *SpecializationSystem) Draw(frame *FrameInfo) error {
	if err := checkFrame(frame); err != nil {
		return err
	}
	cb := frame.CommandBuffer
	for m, objs := range s.byVariant(frame.Scene) {
		if len(objs) == 0 {
			continue
		}
		s.pipelines[m].Bind(cb)
		s.builder.bindSets(cb, frame.GlobalDescriptorSet, s.textureSet)
		for _, obj := range objs {
			pc := meshPush(obj)
			push(s.builder, cb, &pc)
			obj.Model.Bind(cb)
			obj.Model.Draw(cb)
		}
	}
	return nil
}

func (s *SpecializationSystem) Destroy() {
	for _, p := range s.pipelines {
		if p != nil {
			p.Destroy()
		}
	}
	if s.builder != nil {
		s.builder.Destroy()
	}
	if s.pool != nil {
		s.pool.Destroy()
	}
	if s.setLayout != nil {
		s.setLayout.Destroy()
	}
}
