package vke

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// imageDevice is the part of Device an Image relies on.
type imageDevice interface {
	createImage(info *vk.ImageCreateInfo, props vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error)
	createImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error)
	destroyImageView(v vk.ImageView)
	destroyImage(img vk.Image)
	freeMemory(m vk.DeviceMemory)
	pipelineBarrier(src, dst vk.PipelineStageFlags, barrier vk.ImageMemoryBarrier) error
}

type ImageOptions struct {
	Width  uint32
	Height uint32
	Format vk.Format
	// MipLevels and ArrayLayers default to 1
	MipLevels   uint32
	ArrayLayers uint32
	Tiling      vk.ImageTiling
	Usage       vk.ImageUsageFlags
	// MemoryProperties of the backing allocation, usually device local
	MemoryProperties vk.MemoryPropertyFlags
	// Samples defaults to a single sample
	Samples vk.SampleCountFlagBits
}

// Image is a 2D image with its own memory and at most one view. It tracks
// the layout it was last transitioned to.
type Image struct {
	device imageDevice

	VKImage     vk.Image
	VKImageView vk.ImageView
	memory      vk.DeviceMemory

	Format      vk.Format
	Width       uint32
	Height      uint32
	mipLevels   uint32
	arrayLayers uint32
	layout      vk.ImageLayout

	destroyed bool
}

func NewImage(d *Device, opts ImageOptions) (*Image, error) {
	return newImage(d, opts)
}

func newImage(d imageDevice, opts ImageOptions) (*Image, error) {
	if opts.MipLevels == 0 {
		opts.MipLevels = 1
	}
	if opts.ArrayLayers == 0 {
		opts.ArrayLayers = 1
	}
	if opts.Samples == 0 {
		opts.Samples = vk.SampleCount1Bit
	}

	info := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    opts.Format,
		Extent: vk.Extent3D{
			Width:  opts.Width,
			Height: opts.Height,
			Depth:  1,
		},
		MipLevels:     opts.MipLevels,
		ArrayLayers:   opts.ArrayLayers,
		Samples:       opts.Samples,
		Tiling:        opts.Tiling,
		Usage:         opts.Usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	img, mem, err := d.createImage(&info, opts.MemoryProperties)
	if err != nil {
		return nil, errors.Wrapf(err, "create %dx%d image", opts.Width, opts.Height)
	}

	return &Image{
		device:      d,
		VKImage:     img,
		memory:      mem,
		Format:      opts.Format,
		Width:       opts.Width,
		Height:      opts.Height,
		mipLevels:   opts.MipLevels,
		arrayLayers: opts.ArrayLayers,
		layout:      vk.ImageLayoutUndefined,
	}, nil
}

// Layout returns the layout the image was last transitioned to.
func (i *Image) Layout() vk.ImageLayout {
	return i.layout
}

type layoutTransition struct {
	srcStage  vk.PipelineStageFlags
	dstStage  vk.PipelineStageFlags
	srcAccess vk.AccessFlags
	dstAccess vk.AccessFlags
}

// transitionFor looks up the barrier parameters for a layout change. Only
// the two transitions needed to upload a sampled texture are known.
func transitionFor(oldLayout, newLayout vk.ImageLayout) (layoutTransition, error) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return layoutTransition{
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		}, nil
	}
	return layoutTransition{}, errors.Wrapf(ErrUnsupportedLayoutTransition, "%d -> %d", oldLayout, newLayout)
}

// TransitionImageLayout records and submits a barrier moving the whole
// image from oldLayout to newLayout.
func (i *Image) TransitionImageLayout(oldLayout, newLayout vk.ImageLayout) error {
	t, err := transitionFor(oldLayout, newLayout)
	if err != nil {
		return err
	}
	if oldLayout != i.layout {
		return errors.AssertionFailedf("image is in layout %d, not %d", i.layout, oldLayout)
	}

	var barrier = vk.ImageMemoryBarrier{}
	barrier.SType = vk.StructureTypeImageMemoryBarrier
	barrier.OldLayout = oldLayout
	barrier.NewLayout = newLayout
	barrier.SrcQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.DstQueueFamilyIndex = vk.QueueFamilyIgnored
	barrier.Image = i.VKImage
	barrier.SubresourceRange.AspectMask = aspectFor(i.Format)
	barrier.SubresourceRange.BaseMipLevel = 0
	barrier.SubresourceRange.LevelCount = i.mipLevels
	barrier.SubresourceRange.BaseArrayLayer = 0
	barrier.SubresourceRange.LayerCount = i.arrayLayers
	barrier.SrcAccessMask = t.srcAccess
	barrier.DstAccessMask = t.dstAccess

	if err := i.device.pipelineBarrier(t.srcStage, t.dstStage, barrier); err != nil {
		return errors.Wrap(err, "transition image layout")
	}
	i.layout = newLayout
	return nil
}

// CreateImageView creates the image's only view, a 2D view of mip 0 and
// layer 0.
func (i *Image) CreateImageView(aspect vk.ImageAspectFlags) error {
	if i.destroyed {
		return misuse(errors.Wrap(ErrNotAllocated, "create image view"))
	}
	if i.VKImageView != vk.NullImageView {
		return misuse(ErrViewExists)
	}
	info := imageViewInfo(i.VKImage, i.Format, aspect)
	view, err := i.device.createImageView(&info)
	if err != nil {
		return errors.Wrap(err, "create image view")
	}
	i.VKImageView = view
	return nil
}

func (i *Image) DescriptorInfo(sampler vk.Sampler) vk.DescriptorImageInfo {
	return vk.DescriptorImageInfo{
		Sampler:     sampler,
		ImageView:   i.VKImageView,
		ImageLayout: i.layout,
	}
}

// Destroy releases the view, the image and its memory, in that order.
func (i *Image) Destroy() {
	if i.destroyed {
		return
	}
	if i.VKImageView != vk.NullImageView {
		i.device.destroyImageView(i.VKImageView)
		i.VKImageView = vk.NullImageView
	}
	i.device.destroyImage(i.VKImage)
	i.device.freeMemory(i.memory)
	i.destroyed = true
}

func imageViewInfo(img vk.Image, format vk.Format, aspect vk.ImageAspectFlags) vk.ImageViewCreateInfo {
	return vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
}

func hasStencilComponent(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

func aspectFor(format vk.Format) vk.ImageAspectFlags {
	switch format {
	case vk.FormatD32Sfloat, vk.FormatD16Unorm:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	case vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}
