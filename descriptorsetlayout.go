package vke

import (
	"sort"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSetLayoutBuilder collects bindings for a DescriptorSetLayout.
// Each binding number may be added once.
type DescriptorSetLayoutBuilder struct {
	bindings map[uint32]vk.DescriptorSetLayoutBinding
	err      error
}

func NewDescriptorSetLayoutBuilder() *DescriptorSetLayoutBuilder {
	return &DescriptorSetLayoutBuilder{bindings: make(map[uint32]vk.DescriptorSetLayoutBinding)}
}

// AddBinding adds a binding visible to the given shader stages. count is
// the descriptor array length, usually 1.
func (b *DescriptorSetLayoutBuilder) AddBinding(binding uint32, dtype vk.DescriptorType, stages vk.ShaderStageFlags, count uint32) *DescriptorSetLayoutBuilder {
	if _, ok := b.bindings[binding]; ok {
		if b.err == nil {
			b.err = misuse(errors.Wrapf(ErrDuplicateBinding, "binding %d", binding))
		}
		return b
	}
	b.bindings[binding] = vk.DescriptorSetLayoutBinding{
		Binding:         binding,
		DescriptorType:  dtype,
		DescriptorCount: count,
		StageFlags:      stages,
	}
	return b
}

// layout returns the layout description without creating a Vulkan object.
func (b *DescriptorSetLayoutBuilder) layout() (*DescriptorSetLayout, error) {
	if b.err != nil {
		return nil, b.err
	}
	bindings := make(map[uint32]vk.DescriptorSetLayoutBinding, len(b.bindings))
	for k, v := range b.bindings {
		bindings[k] = v
	}
	return &DescriptorSetLayout{Bindings: bindings}, nil
}

func (b *DescriptorSetLayoutBuilder) Build(d *Device) (*DescriptorSetLayout, error) {
	layout, err := b.layout()
	if err != nil {
		return nil, err
	}

	list := layout.sortedBindings()
	var descriptorSetLayoutCreateInfo = &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(list)),
		PBindings:    list,
	}

	var descriptorSetLayout vk.DescriptorSetLayout
	err = vkError(vk.CreateDescriptorSetLayout(d.VKDevice, descriptorSetLayoutCreateInfo, nil, &descriptorSetLayout), "create descriptor set layout")
	if err != nil {
		return nil, err
	}

	layout.device = d.VKDevice
	layout.VKDescriptorSetLayout = descriptorSetLayout
	return layout, nil
}

// DescriptorSetLayout describes the bindings of a descriptor set.
type DescriptorSetLayout struct {
	device                vk.Device
	VKDescriptorSetLayout vk.DescriptorSetLayout
	Bindings              map[uint32]vk.DescriptorSetLayoutBinding
}

func (l *DescriptorSetLayout) sortedBindings() []vk.DescriptorSetLayoutBinding {
	list := make([]vk.DescriptorSetLayoutBinding, 0, len(l.Bindings))
	for _, b := range l.Bindings {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
	return list
}

func (l *DescriptorSetLayout) Destroy() {
	if l.VKDescriptorSetLayout == vk.NullDescriptorSetLayout {
		return
	}
	vk.DestroyDescriptorSetLayout(l.device, l.VKDescriptorSetLayout, nil)
	l.VKDescriptorSetLayout = vk.NullDescriptorSetLayout
}
