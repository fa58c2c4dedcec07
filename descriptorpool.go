package vke

import (
	vk "github.com/vulkan-go/vulkan"
)

const defaultMaxSets = 1000

type DescriptorPoolBuilder struct {
	maxSets   uint32
	poolSizes []vk.DescriptorPoolSize
	flags     vk.DescriptorPoolCreateFlags
}

func NewDescriptorPoolBuilder() *DescriptorPoolBuilder {
	return &DescriptorPoolBuilder{maxSets: defaultMaxSets}
}

// AddPoolSize informs the pool how many descriptors of a type it will hold
func (b *DescriptorPoolBuilder) AddPoolSize(dtype vk.DescriptorType, count uint32) *DescriptorPoolBuilder {
	b.poolSizes = append(b.poolSizes, vk.DescriptorPoolSize{
		Type:            dtype,
		DescriptorCount: count,
	})
	return b
}

func (b *DescriptorPoolBuilder) SetPoolFlags(flags vk.DescriptorPoolCreateFlags) *DescriptorPoolBuilder {
	b.flags = flags
	return b
}

func (b *DescriptorPoolBuilder) SetMaxSets(count uint32) *DescriptorPoolBuilder {
	b.maxSets = count
	return b
}

func (b *DescriptorPoolBuilder) createInfo() vk.DescriptorPoolCreateInfo {
	return vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       b.maxSets,
		Flags:         b.flags,
		PoolSizeCount: uint32(len(b.poolSizes)),
		PPoolSizes:    b.poolSizes,
	}
}

func (b *DescriptorPoolBuilder) Build(d *Device) (*DescriptorPool, error) {
	info := b.createInfo()

	var descriptorPool vk.DescriptorPool
	err := vkError(vk.CreateDescriptorPool(d.VKDevice, &info, nil, &descriptorPool), "create descriptor pool")
	if err != nil {
		return nil, err
	}
	return &DescriptorPool{device: d.VKDevice, VKDescriptorPool: descriptorPool}, nil
}

// DescriptorPool hands out descriptor sets. Freeing individual sets
// requires the pool to be built with
// vk.DescriptorPoolCreateFreeDescriptorSetBit.
type DescriptorPool struct {
	device           vk.Device
	VKDescriptorPool vk.DescriptorPool
}

// AllocateDescriptor allocates one set with the given layout.
func (p *DescriptorPool) AllocateDescriptor(layout *DescriptorSetLayout) (vk.DescriptorSet, error) {
	descriptorSetAllocateInfo := vk.DescriptorSetAllocateInfo{}
	descriptorSetAllocateInfo.SType = vk.StructureTypeDescriptorSetAllocateInfo
	descriptorSetAllocateInfo.DescriptorPool = p.VKDescriptorPool
	descriptorSetAllocateInfo.DescriptorSetCount = 1
	descriptorSetAllocateInfo.PSetLayouts = []vk.DescriptorSetLayout{layout.VKDescriptorSetLayout}

	sets := make([]vk.DescriptorSet, 1)
	err := vkError(vk.AllocateDescriptorSets(p.device, &descriptorSetAllocateInfo, &sets[0]), "allocate descriptor set")
	if err != nil {
		return nil, err
	}
	return sets[0], nil
}

func (p *DescriptorPool) FreeDescriptors(sets ...vk.DescriptorSet) error {
	if len(sets) == 0 {
		return nil
	}
	return vkError(vk.FreeDescriptorSets(p.device, p.VKDescriptorPool, uint32(len(sets)), &sets[0]), "free descriptor sets")
}

// ResetPool returns every set allocated from the pool.
func (p *DescriptorPool) ResetPool() error {
	return vkError(vk.ResetDescriptorPool(p.device, p.VKDescriptorPool, 0), "reset descriptor pool")
}

func (p *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(p.device, p.VKDescriptorPool, nil)
}
