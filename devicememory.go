package vke

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) allocate(reqs vk.MemoryRequirements, props vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	reqs.Deref()

	typeIndex, err := d.PhysicalDevice.FindMemoryType(reqs.MemoryTypeBits, props)
	if err != nil {
		return nil, err
	}

	var allocateInfo = vk.MemoryAllocateInfo{}
	allocateInfo.SType = vk.StructureTypeMemoryAllocateInfo
	allocateInfo.AllocationSize = reqs.Size
	allocateInfo.MemoryTypeIndex = typeIndex

	var memory vk.DeviceMemory
	if err := vkError(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &memory), "allocate memory"); err != nil {
		return nil, err
	}
	return memory, nil
}

func (d *Device) createBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if err := vkError(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer), "create buffer"); err != nil {
		return vk.NullBuffer, nil, err
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.VKDevice, buffer, &reqs)
	memory, err := d.allocate(reqs, props)
	if err != nil {
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
		return vk.NullBuffer, nil, errors.Wrap(err, "allocate buffer memory")
	}

	if err := vkError(vk.BindBufferMemory(d.VKDevice, buffer, memory, 0), "bind buffer memory"); err != nil {
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
		vk.FreeMemory(d.VKDevice, memory, nil)
		return vk.NullBuffer, nil, err
	}
	return buffer, memory, nil
}

func (d *Device) createImage(info *vk.ImageCreateInfo, props vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error) {
	var image vk.Image
	if err := vkError(vk.CreateImage(d.VKDevice, info, nil, &image), "create image"); err != nil {
		return nil, nil, err
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.VKDevice, image, &reqs)
	memory, err := d.allocate(reqs, props)
	if err != nil {
		vk.DestroyImage(d.VKDevice, image, nil)
		return nil, nil, errors.Wrap(err, "allocate image memory")
	}

	if err := vkError(vk.BindImageMemory(d.VKDevice, image, memory, 0), "bind image memory"); err != nil {
		vk.DestroyImage(d.VKDevice, image, nil)
		vk.FreeMemory(d.VKDevice, memory, nil)
		return nil, nil, err
	}
	return image, memory, nil
}

func (d *Device) createImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var view vk.ImageView
	if err := vkError(vk.CreateImageView(d.VKDevice, info, nil, &view), "create image view"); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

func (d *Device) destroyImageView(v vk.ImageView) {
	vk.DestroyImageView(d.VKDevice, v, nil)
}

func (d *Device) destroyImage(img vk.Image) {
	vk.DestroyImage(d.VKDevice, img, nil)
}

func (d *Device) destroyBuffer(b vk.Buffer) {
	vk.DestroyBuffer(d.VKDevice, b, nil)
}

func (d *Device) freeMemory(m vk.DeviceMemory) {
	vk.FreeMemory(d.VKDevice, m, nil)
}

func (d *Device) mapMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error) {
	var ptr unsafe.Pointer
	if err := vkError(vk.MapMemory(d.VKDevice, m, offset, size, 0, &ptr), "map memory"); err != nil {
		return nil, err
	}
	return ptr, nil
}

func (d *Device) unmapMemory(m vk.DeviceMemory) {
	vk.UnmapMemory(d.VKDevice, m)
}

func mappedRange(m vk.DeviceMemory, offset, size vk.DeviceSize) []vk.MappedMemoryRange {
	return []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: m,
		Offset: offset,
		Size:   size,
	}}
}

func (d *Device) flushMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) error {
	return vkError(vk.FlushMappedMemoryRanges(d.VKDevice, 1, mappedRange(m, offset, size)), "flush memory")
}

func (d *Device) invalidateMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) error {
	return vkError(vk.InvalidateMappedMemoryRanges(d.VKDevice, 1, mappedRange(m, offset, size)), "invalidate memory")
}
