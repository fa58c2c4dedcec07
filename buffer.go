package vke

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	units "github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
)

// bufferDevice is the part of Device a Buffer relies on.
type bufferDevice interface {
	createBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error)
	destroyBuffer(b vk.Buffer)
	freeMemory(m vk.DeviceMemory)
	mapMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error)
	unmapMemory(m vk.DeviceMemory)
	flushMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) error
	invalidateMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) error
	copyBufferToImage(b vk.Buffer, img vk.Image, width, height, layerCount uint32) error
}

// Buffer is a single VkBuffer with its own memory, divided into
// instanceCount slots of alignmentSize bytes each. Writes into a slot use
// instanceSize while flush, invalidate and descriptor ranges cover the
// padded slot.
type Buffer struct {
	device bufferDevice

	VKBuffer vk.Buffer
	memory   vk.DeviceMemory

	mapped       unsafe.Pointer
	mappedBytes  []byte
	mappedOffset vk.DeviceSize

	bufferSize    vk.DeviceSize
	instanceCount uint32
	instanceSize  vk.DeviceSize
	alignmentSize vk.DeviceSize

	usage            vk.BufferUsageFlags
	memoryProperties vk.MemoryPropertyFlags

	destroyed bool
}

// NewBuffer creates and binds a buffer large enough for instanceCount
// instances of instanceSize, each padded to minOffsetAlignment.
func NewBuffer(d *Device, instanceSize vk.DeviceSize, instanceCount uint32, usage vk.BufferUsageFlags, memoryProperties vk.MemoryPropertyFlags, minOffsetAlignment vk.DeviceSize) (*Buffer, error) {
	return newBuffer(d, instanceSize, instanceCount, usage, memoryProperties, minOffsetAlignment)
}

func newBuffer(d bufferDevice, instanceSize vk.DeviceSize, instanceCount uint32, usage vk.BufferUsageFlags, memoryProperties vk.MemoryPropertyFlags, minOffsetAlignment vk.DeviceSize) (*Buffer, error) {
	if instanceSize == 0 || instanceCount == 0 {
		return nil, errors.Newf("cannot create an empty buffer (%d x %d)", instanceCount, instanceSize)
	}

	b := &Buffer{
		device:           d,
		instanceCount:    instanceCount,
		instanceSize:     instanceSize,
		usage:            usage,
		memoryProperties: memoryProperties,
	}
	if minOffsetAlignment > 0 && instanceSize > vk.DeviceSize(math.MaxUint64)-(minOffsetAlignment-1) {
		return nil, errors.Newf("instance size %d cannot be aligned to %d", instanceSize, minOffsetAlignment)
	}
	b.alignmentSize = Alignment(instanceSize, minOffsetAlignment)
	if b.alignmentSize > vk.DeviceSize(math.MaxUint64)/vk.DeviceSize(instanceCount) {
		return nil, errors.Newf("buffer of %d x %d bytes overflows", instanceCount, b.alignmentSize)
	}
	b.bufferSize = b.alignmentSize * vk.DeviceSize(instanceCount)

	var err error
	b.VKBuffer, b.memory, err = d.createBuffer(b.bufferSize, usage, memoryProperties)
	if err != nil {
		return nil, errors.Wrapf(err, "create buffer of %s", units.BytesSize(float64(b.bufferSize)))
	}

	Logger().Debug("buffer created",
		"size", units.BytesSize(float64(b.bufferSize)),
		"instances", instanceCount,
		"alignment", uint64(b.alignmentSize))
	return b, nil
}

// Map maps size bytes starting at offset. WholeSize maps to the end of the
// buffer. Only one mapping may be live at a time.
func (b *Buffer) Map(size, offset vk.DeviceSize) error {
	if b.destroyed || b.VKBuffer == vk.NullBuffer {
		return misuse(errors.Wrap(ErrNotAllocated, "map buffer"))
	}
	if b.mapped != nil {
		return misuse(ErrAlreadyMapped)
	}

	length := size
	if size == WholeSize {
		if offset > b.bufferSize {
			return errors.Newf("map offset %d beyond buffer size %d", offset, b.bufferSize)
		}
		length = b.bufferSize - offset
	} else if offset+size > b.bufferSize {
		return errors.Newf("map range [%d, %d) beyond buffer size %d", offset, offset+size, b.bufferSize)
	}

	ptr, err := b.device.mapMemory(b.memory, offset, size)
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	b.mapped = ptr
	b.mappedBytes = unsafe.Slice((*byte)(ptr), int(length))
	b.mappedOffset = offset
	return nil
}

// Unmap releases the current mapping. It is a no-op when nothing is
// mapped.
func (b *Buffer) Unmap() {
	if b.mapped == nil {
		return
	}
	b.device.unmapMemory(b.memory)
	b.mapped = nil
	b.mappedBytes = nil
	b.mappedOffset = 0
}

// WriteToBuffer copies data into the mapped region. With WholeSize all of
// data is copied to the start of the mapping, otherwise size bytes are
// copied to offset (relative to the start of the mapping).
func (b *Buffer) WriteToBuffer(data []byte, size, offset vk.DeviceSize) error {
	if b.mapped == nil {
		return misuse(ErrNotMapped)
	}

	if size == WholeSize {
		if len(data) > len(b.mappedBytes) {
			return errors.Newf("write of %d bytes exceeds mapped region of %d", len(data), len(b.mappedBytes))
		}
		copy(b.mappedBytes, data)
		return nil
	}

	if size > vk.DeviceSize(len(data)) {
		return errors.Newf("write size %d exceeds data length %d", size, len(data))
	}
	if offset+size > vk.DeviceSize(len(b.mappedBytes)) {
		return errors.Newf("write range [%d, %d) exceeds mapped region of %d", offset, offset+size, len(b.mappedBytes))
	}
	copy(b.mappedBytes[offset:offset+size], data[:size])
	return nil
}

// Flush makes host writes in the range visible to the device. Only
// required for memory that is not host coherent.
func (b *Buffer) Flush(size, offset vk.DeviceSize) error {
	return b.device.flushMemory(b.memory, offset, size)
}

// Invalidate makes device writes in the range visible to the host.
func (b *Buffer) Invalidate(size, offset vk.DeviceSize) error {
	return b.device.invalidateMemory(b.memory, offset, size)
}

func (b *Buffer) DescriptorInfo(size, offset vk.DeviceSize) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: offset,
		Range:  size,
	}
}

// WriteToIndex writes instanceSize bytes of data into slot index.
func (b *Buffer) WriteToIndex(data []byte, index int) error {
	return b.WriteToBuffer(data, b.instanceSize, b.indexOffset(index))
}

func (b *Buffer) FlushIndex(index int) error {
	return b.Flush(b.alignmentSize, b.indexOffset(index))
}

func (b *Buffer) InvalidateIndex(index int) error {
	return b.Invalidate(b.alignmentSize, b.indexOffset(index))
}

func (b *Buffer) DescriptorInfoForIndex(index int) vk.DescriptorBufferInfo {
	return b.DescriptorInfo(b.alignmentSize, b.indexOffset(index))
}

func (b *Buffer) indexOffset(index int) vk.DeviceSize {
	return vk.DeviceSize(index) * b.alignmentSize
}

// WriteToImage copies the start of the buffer into mip level 0 of img,
// which must already be in transfer-dst layout.
func (b *Buffer) WriteToImage(img *Image, width, height uint32) error {
	if b.destroyed {
		return misuse(errors.Wrap(ErrNotAllocated, "copy buffer to image"))
	}
	return b.device.copyBufferToImage(b.VKBuffer, img.VKImage, width, height, 1)
}

func (b *Buffer) Mapped() []byte {
	return b.mappedBytes
}

func (b *Buffer) InstanceCount() uint32 {
	return b.instanceCount
}

func (b *Buffer) InstanceSize() vk.DeviceSize {
	return b.instanceSize
}

func (b *Buffer) AlignmentSize() vk.DeviceSize {
	return b.alignmentSize
}

func (b *Buffer) UsageFlags() vk.BufferUsageFlags {
	return b.usage
}

func (b *Buffer) MemoryProperties() vk.MemoryPropertyFlags {
	return b.memoryProperties
}

func (b *Buffer) Size() vk.DeviceSize {
	return b.bufferSize
}

// Destroy unmaps, destroys the buffer and frees its memory, in that order.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	b.Unmap()
	b.device.destroyBuffer(b.VKBuffer)
	b.device.freeMemory(b.memory)
	b.VKBuffer = vk.NullBuffer
	b.destroyed = true
}
