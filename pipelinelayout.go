package vke

import (
	vk "github.com/vulkan-go/vulkan"
)

type PipelineLayout struct {
	device           vk.Device
	VKPipelineLayout vk.PipelineLayout
}

func (p *PipelineLayout) Destroy() {
	vk.DestroyPipelineLayout(p.device, p.VKPipelineLayout, nil)
}

// CreatePipelineLayout creates a layout from descriptor set layouts, in set
// order, and push constant ranges. Either may be empty.
func (d *Device) CreatePipelineLayout(setLayouts []*DescriptorSetLayout, pushConstants []vk.PushConstantRange) (*PipelineLayout, error) {
	var pipelineLayoutCreateInfo = vk.PipelineLayoutCreateInfo{}
	pipelineLayoutCreateInfo.SType = vk.StructureTypePipelineLayoutCreateInfo
	pipelineLayoutCreateInfo.SetLayoutCount = uint32(len(setLayouts))

	l := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, dsl := range setLayouts {
		l[i] = dsl.VKDescriptorSetLayout
	}
	pipelineLayoutCreateInfo.PSetLayouts = l

	pipelineLayoutCreateInfo.PushConstantRangeCount = uint32(len(pushConstants))
	pipelineLayoutCreateInfo.PPushConstantRanges = pushConstants

	var pipelineLayout vk.PipelineLayout

	err := vkError(vk.CreatePipelineLayout(d.VKDevice, &pipelineLayoutCreateInfo, nil, &pipelineLayout), "create pipeline layout")
	if err != nil {
		return nil, err
	}

	return &PipelineLayout{device: d.VKDevice, VKPipelineLayout: pipelineLayout}, nil
}
