package vke

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) createCommandPool() error {
	var commandPoolCreateInfo = vk.CommandPoolCreateInfo{}
	commandPoolCreateInfo.SType = vk.StructureTypeCommandPoolCreateInfo
	commandPoolCreateInfo.Flags = vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit | vk.CommandPoolCreateTransientBit)
	commandPoolCreateInfo.QueueFamilyIndex = d.indices.Graphics

	return vkError(vk.CreateCommandPool(d.VKDevice, &commandPoolCreateInfo, nil, &d.CommandPool), "create command pool")
}

func (d *Device) allocateCommandBuffers(count int) ([]vk.CommandBuffer, error) {
	var allocateInfo = vk.CommandBufferAllocateInfo{}
	allocateInfo.SType = vk.StructureTypeCommandBufferAllocateInfo
	allocateInfo.CommandPool = d.CommandPool
	allocateInfo.Level = vk.CommandBufferLevelPrimary
	allocateInfo.CommandBufferCount = uint32(count)

	buffers := make([]vk.CommandBuffer, count)
	if err := vkError(vk.AllocateCommandBuffers(d.VKDevice, &allocateInfo, buffers), "allocate command buffers"); err != nil {
		return nil, err
	}
	return buffers, nil
}

func (d *Device) freeCommandBuffers(buffers []vk.CommandBuffer) {
	vk.FreeCommandBuffers(d.VKDevice, d.CommandPool, uint32(len(buffers)), buffers)
}

func (d *Device) beginCommandBuffer(cb vk.CommandBuffer) error {
	var beginInfo = vk.CommandBufferBeginInfo{}
	beginInfo.SType = vk.StructureTypeCommandBufferBeginInfo
	return vkError(vk.BeginCommandBuffer(cb, &beginInfo), "begin command buffer")
}

func (d *Device) endCommandBuffer(cb vk.CommandBuffer) error {
	return vkError(vk.EndCommandBuffer(cb), "end command buffer")
}

// BeginSingleTimeCommands allocates and begins a throwaway command buffer
// for one-off transfer work.
func (d *Device) BeginSingleTimeCommands() (vk.CommandBuffer, error) {
	buffers, err := d.allocateCommandBuffers(1)
	if err != nil {
		return nil, err
	}
	cb := buffers[0]

	var beginInfo = vk.CommandBufferBeginInfo{}
	beginInfo.SType = vk.StructureTypeCommandBufferBeginInfo
	beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	if err := vkError(vk.BeginCommandBuffer(cb, &beginInfo), "begin single time commands"); err != nil {
		d.freeCommandBuffers(buffers)
		return nil, err
	}
	return cb, nil
}

// EndSingleTimeCommands submits cb, waits for the graphics queue to drain
// and frees cb.
func (d *Device) EndSingleTimeCommands(cb vk.CommandBuffer) error {
	defer d.freeCommandBuffers([]vk.CommandBuffer{cb})

	if err := d.endCommandBuffer(cb); err != nil {
		return err
	}
	return d.GraphicsQueue.SubmitWaitIdle(cb)
}

func (d *Device) singleTime(record func(cb vk.CommandBuffer)) error {
	cb, err := d.BeginSingleTimeCommands()
	if err != nil {
		return err
	}
	record(cb)
	return d.EndSingleTimeCommands(cb)
}

// CopyBuffer copies size bytes from the start of src to the start of dst.
func (d *Device) CopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	return errors.Wrap(d.singleTime(func(cb vk.CommandBuffer) {
		vk.CmdCopyBuffer(cb, src, dst, 1, []vk.BufferCopy{{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		}})
	}), "copy buffer")
}

func (d *Device) copyBufferToImage(b vk.Buffer, img vk.Image, width, height, layerCount uint32) error {
	return errors.Wrap(d.singleTime(func(cb vk.CommandBuffer) {
		vk.CmdCopyBufferToImage(cb, b, img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     layerCount,
			},
			ImageOffset: vk.Offset3D{},
			ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
		}})
	}), "copy buffer to image")
}

func (d *Device) pipelineBarrier(src, dst vk.PipelineStageFlags, barrier vk.ImageMemoryBarrier) error {
	return d.singleTime(func(cb vk.CommandBuffer) {
		vk.CmdPipelineBarrier(cb, src, dst, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	})
}

func (d *Device) cmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	vk.CmdBeginRenderPass(cb, info, vk.SubpassContentsInline)
}

func (d *Device) cmdEndRenderPass(cb vk.CommandBuffer) {
	vk.CmdEndRenderPass(cb)
}

func (d *Device) cmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport) {
	vk.CmdSetViewport(cb, 0, 1, []vk.Viewport{viewport})
}

func (d *Device) cmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D) {
	vk.CmdSetScissor(cb, 0, 1, []vk.Rect2D{scissor})
}
