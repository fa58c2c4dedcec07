package vke

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead of the
// GPU.
const MaxFramesInFlight = 2

// SwapChainSupport describes what a surface allows on a physical device.
type SwapChainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

type QueueFamilyIndices struct {
	Graphics uint32
	Present  uint32
}

// swapChainDevice is the part of Device a SwapChain relies on.
type swapChainDevice interface {
	imageDevice

	surfaceSupport() (SwapChainSupport, error)
	queueFamilies() QueueFamilyIndices
	msaaSamples() vk.SampleCountFlagBits
	findSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error)

	createSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	destroySwapchain(sc vk.Swapchain)
	swapchainImages(sc vk.Swapchain) ([]vk.Image, error)

	createRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	destroyRenderPass(rp vk.RenderPass)
	createFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	destroyFramebuffer(fb vk.Framebuffer)

	createSemaphore() (vk.Semaphore, error)
	destroySemaphore(s vk.Semaphore)
	createFence(signaled bool) (vk.Fence, error)
	destroyFence(f vk.Fence)
	waitForFence(f vk.Fence) error
	resetFence(f vk.Fence) error

	acquireNextImage(sc vk.Swapchain, sem vk.Semaphore, imageIndex *uint32) vk.Result
	submitGraphics(info vk.SubmitInfo, fence vk.Fence) error
	present(info *vk.PresentInfo) vk.Result
}

// SwapChain owns the presentable images together with everything that is
// sized by them: depth and multisampled color targets, the render pass,
// one framebuffer per image and the per-frame synchronization objects.
type SwapChain struct {
	device swapChainDevice

	VKSwapchain  vk.Swapchain
	imageFormat  vk.Format
	depthFormat  vk.Format
	extent       vk.Extent2D
	windowExtent vk.Extent2D
	samples      vk.SampleCountFlagBits

	images       []vk.Image
	imageViews   []vk.ImageView
	depthImages  []*Image
	colorImages  []*Image
	framebuffers []vk.Framebuffer
	renderPass   vk.RenderPass

	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	inFlightFences []vk.Fence
	imagesInFlight []vk.Fence
	currentFrame   int

	old *SwapChain
}

// NewSwapChain builds a swap chain for windowExtent. When previous is not
// nil it is handed to the driver as the old swap chain; the caller still
// owns it and must destroy it.
func NewSwapChain(d *Device, windowExtent vk.Extent2D, previous *SwapChain) (*SwapChain, error) {
	return newSwapChain(d, windowExtent, previous)
}

func newSwapChain(d swapChainDevice, windowExtent vk.Extent2D, previous *SwapChain) (*SwapChain, error) {
	s := &SwapChain{
		device:       d,
		windowExtent: windowExtent,
		samples:      d.msaaSamples(),
		old:          previous,
	}
	if err := s.init(); err != nil {
		s.Destroy()
		return nil, err
	}
	s.old = nil
	return s, nil
}

func (s *SwapChain) init() error {
	if err := s.createSwapChain(); err != nil {
		return err
	}
	if err := s.createImageViews(); err != nil {
		return err
	}
	if err := s.createDepthResources(); err != nil {
		return err
	}
	if err := s.createColorResources(); err != nil {
		return err
	}
	if err := s.createRenderPass(); err != nil {
		return err
	}
	if err := s.createFramebuffers(); err != nil {
		return err
	}
	return s.createSyncObjects()
}

func (s *SwapChain) createSwapChain() error {
	support, err := s.device.surfaceSupport()
	if err != nil {
		return errors.Wrap(err, "query swap chain support")
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.New("surface has no formats or present modes")
	}

	format := chooseSwapSurfaceFormat(support.Formats)
	presentMode := chooseSwapPresentMode(support.PresentModes)
	caps := support.Capabilities
	extent := chooseSwapExtent(caps, s.windowExtent)

	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if s.old != nil {
		createInfo.OldSwapchain = s.old.VKSwapchain
	}

	indices := s.device.queueFamilies()
	if indices.Graphics != indices.Present {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{indices.Graphics, indices.Present}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	s.VKSwapchain, err = s.device.createSwapchain(&createInfo)
	if err != nil {
		return errors.Wrap(err, "create swap chain")
	}

	s.images, err = s.device.swapchainImages(s.VKSwapchain)
	if err != nil {
		return errors.Wrap(err, "get swap chain images")
	}
	s.imageFormat = format.Format
	s.extent = extent

	Logger().Debug("swap chain created",
		"images", len(s.images),
		"width", extent.Width,
		"height", extent.Height,
		"presentMode", presentMode,
		"samples", s.samples)
	return nil
}

func (s *SwapChain) createImageViews() error {
	s.imageViews = make([]vk.ImageView, len(s.images))
	for i, img := range s.images {
		info := imageViewInfo(img, s.imageFormat, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		view, err := s.device.createImageView(&info)
		if err != nil {
			return errors.Wrapf(err, "create view for swap chain image %d", i)
		}
		s.imageViews[i] = view
	}
	return nil
}

// depthFormatCandidates prefers formats with a stencil aspect, which the
// outline pass needs.
var depthFormatCandidates = []vk.Format{
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
	vk.FormatD32Sfloat,
}

func (s *SwapChain) createDepthResources() error {
	format, err := s.device.findSupportedFormat(depthFormatCandidates,
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
	if err != nil {
		return errors.Wrap(err, "find depth format")
	}
	s.depthFormat = format

	s.depthImages = make([]*Image, 0, len(s.images))
	for i := range s.images {
		img, err := newImage(s.device, ImageOptions{
			Width:            s.extent.Width,
			Height:           s.extent.Height,
			Format:           format,
			Tiling:           vk.ImageTilingOptimal,
			Usage:            vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
			MemoryProperties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			Samples:          s.samples,
		})
		if err != nil {
			return errors.Wrapf(err, "create depth image %d", i)
		}
		s.depthImages = append(s.depthImages, img)
		if err := img.CreateImageView(aspectFor(format)); err != nil {
			return err
		}
	}
	return nil
}

// createColorResources allocates the multisampled color targets that get
// resolved into the swap chain images. Nothing is created for a single
// sample.
func (s *SwapChain) createColorResources() error {
	if s.samples == vk.SampleCount1Bit {
		return nil
	}
	s.colorImages = make([]*Image, 0, len(s.images))
	for i := range s.images {
		img, err := newImage(s.device, ImageOptions{
			Width:            s.extent.Width,
			Height:           s.extent.Height,
			Format:           s.imageFormat,
			Tiling:           vk.ImageTilingOptimal,
			Usage:            vk.ImageUsageFlags(vk.ImageUsageTransientAttachmentBit | vk.ImageUsageColorAttachmentBit),
			MemoryProperties: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			Samples:          s.samples,
		})
		if err != nil {
			return errors.Wrapf(err, "create color image %d", i)
		}
		s.colorImages = append(s.colorImages, img)
		if err := img.CreateImageView(vk.ImageAspectFlags(vk.ImageAspectColorBit)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SwapChain) multisampled() bool {
	return s.samples != vk.SampleCount1Bit
}

func (s *SwapChain) createRenderPass() error {
	depthAttachment := vk.AttachmentDescription{
		Format:         s.depthFormat,
		Samples:        s.samples,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpClear,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	depthRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	colorRefs := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorRefs,
		PDepthStencilAttachment: &depthRef,
	}

	var attachments []vk.AttachmentDescription
	if s.multisampled() {
		colorAttachment := vk.AttachmentDescription{
			Format:         s.imageFormat,
			Samples:        s.samples,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		}
		resolveAttachment := vk.AttachmentDescription{
			Format:         s.imageFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpDontCare,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		}
		subpass.PResolveAttachments = []vk.AttachmentReference{{
			Attachment: 2,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
		attachments = []vk.AttachmentDescription{colorAttachment, depthAttachment, resolveAttachment}
	} else {
		colorAttachment := vk.AttachmentDescription{
			Format:         s.imageFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		}
		attachments = []vk.AttachmentDescription{colorAttachment, depthAttachment}
	}

	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		SrcAccessMask: 0,
		DstStageMask:  stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	rp, err := s.device.createRenderPass(&info)
	if err != nil {
		return errors.Wrap(err, "create render pass")
	}
	s.renderPass = rp
	return nil
}

func (s *SwapChain) createFramebuffers() error {
	s.framebuffers = make([]vk.Framebuffer, len(s.images))
	for i := range s.images {
		var attachments []vk.ImageView
		if s.multisampled() {
			attachments = []vk.ImageView{s.colorImages[i].VKImageView, s.depthImages[i].VKImageView, s.imageViews[i]}
		} else {
			attachments = []vk.ImageView{s.imageViews[i], s.depthImages[i].VKImageView}
		}
		info := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      s.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           s.extent.Width,
			Height:          s.extent.Height,
			Layers:          1,
		}
		fb, err := s.device.createFramebuffer(&info)
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		s.framebuffers[i] = fb
	}
	return nil
}

func (s *SwapChain) createSyncObjects() error {
	s.imageAvailable = make([]vk.Semaphore, MaxFramesInFlight)
	s.renderFinished = make([]vk.Semaphore, MaxFramesInFlight)
	s.inFlightFences = make([]vk.Fence, MaxFramesInFlight)
	s.imagesInFlight = make([]vk.Fence, len(s.images))
	for i := range s.imagesInFlight {
		s.imagesInFlight[i] = vk.NullFence
	}

	var err error
	for i := 0; i < MaxFramesInFlight; i++ {
		if s.imageAvailable[i], err = s.device.createSemaphore(); err != nil {
			return errors.Wrap(err, "create image available semaphore")
		}
		if s.renderFinished[i], err = s.device.createSemaphore(); err != nil {
			return errors.Wrap(err, "create render finished semaphore")
		}
		if s.inFlightFences[i], err = s.device.createFence(true); err != nil {
			return errors.Wrap(err, "create in flight fence")
		}
	}
	return nil
}

// AcquireNextImage waits until the current frame slot is free and then
// acquires the next presentable image into imageIndex.
func (s *SwapChain) AcquireNextImage(imageIndex *uint32) Result {
	if err := s.device.waitForFence(s.inFlightFences[s.currentFrame]); err != nil {
		return fatal(errors.Wrap(err, "wait for frame fence"))
	}
	res := s.device.acquireNextImage(s.VKSwapchain, s.imageAvailable[s.currentFrame], imageIndex)
	return resultOf(res, "acquire next image")
}

// SubmitCommandBuffers submits buffers for the image at imageIndex and
// queues it for presentation. The frame slot advances whatever the
// outcome.
func (s *SwapChain) SubmitCommandBuffers(buffers []vk.CommandBuffer, imageIndex uint32) Result {
	defer func() {
		s.currentFrame = (s.currentFrame + 1) % MaxFramesInFlight
	}()

	if int(imageIndex) >= len(s.images) {
		return fatal(errors.AssertionFailedf("image index %d out of range (%d images)", imageIndex, len(s.images)))
	}

	if f := s.imagesInFlight[imageIndex]; f != vk.NullFence {
		if err := s.device.waitForFence(f); err != nil {
			return fatal(errors.Wrap(err, "wait for image fence"))
		}
	}
	s.imagesInFlight[imageIndex] = s.inFlightFences[s.currentFrame]

	signalSemaphores := []vk.Semaphore{s.renderFinished[s.currentFrame]}
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{s.imageAvailable[s.currentFrame]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      buffers,
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    signalSemaphores,
	}

	if err := s.device.resetFence(s.inFlightFences[s.currentFrame]); err != nil {
		return fatal(errors.Wrap(err, "reset frame fence"))
	}
	if err := s.device.submitGraphics(submitInfo, s.inFlightFences[s.currentFrame]); err != nil {
		return fatal(errors.Wrap(err, "submit draw command buffer"))
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    signalSemaphores,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.VKSwapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	return resultOf(s.device.present(&presentInfo), "present")
}

// CompareSwapFormats reports whether other renders into the same image and
// depth formats, meaning pipelines built for one work with the other.
func (s *SwapChain) CompareSwapFormats(other *SwapChain) bool {
	return s.imageFormat == other.imageFormat && s.depthFormat == other.depthFormat
}

func (s *SwapChain) Framebuffer(i int) vk.Framebuffer {
	return s.framebuffers[i]
}

func (s *SwapChain) RenderPass() vk.RenderPass {
	return s.renderPass
}

func (s *SwapChain) ImageView(i int) vk.ImageView {
	return s.imageViews[i]
}

func (s *SwapChain) ImageCount() int {
	return len(s.images)
}

func (s *SwapChain) ImageFormat() vk.Format {
	return s.imageFormat
}

func (s *SwapChain) DepthFormat() vk.Format {
	return s.depthFormat
}

func (s *SwapChain) Extent() vk.Extent2D {
	return s.extent
}

func (s *SwapChain) Width() uint32 {
	return s.extent.Width
}

func (s *SwapChain) Height() uint32 {
	return s.extent.Height
}

func (s *SwapChain) AspectRatio() float32 {
	return float32(s.extent.Width) / float32(s.extent.Height)
}

func (s *SwapChain) Samples() vk.SampleCountFlagBits {
	return s.samples
}

// CurrentFrame is the frame slot the next acquire will use.
func (s *SwapChain) CurrentFrame() int {
	return s.currentFrame
}

// Destroy releases everything the swap chain owns. It tolerates a
// partially initialized swap chain.
func (s *SwapChain) Destroy() {
	for _, v := range s.imageViews {
		if v != vk.NullImageView {
			s.device.destroyImageView(v)
		}
	}
	s.imageViews = nil

	if s.VKSwapchain != vk.NullSwapchain {
		s.device.destroySwapchain(s.VKSwapchain)
		s.VKSwapchain = vk.NullSwapchain
	}

	for _, img := range s.depthImages {
		img.Destroy()
	}
	s.depthImages = nil
	for _, img := range s.colorImages {
		img.Destroy()
	}
	s.colorImages = nil

	for _, fb := range s.framebuffers {
		if fb != vk.Framebuffer(vk.NullHandle) {
			s.device.destroyFramebuffer(fb)
		}
	}
	s.framebuffers = nil

	if s.renderPass != vk.NullRenderPass {
		s.device.destroyRenderPass(s.renderPass)
		s.renderPass = vk.NullRenderPass
	}

	for i := range s.imageAvailable {
		if s.imageAvailable[i] != vk.NullSemaphore {
			s.device.destroySemaphore(s.imageAvailable[i])
		}
		if s.renderFinished[i] != vk.NullSemaphore {
			s.device.destroySemaphore(s.renderFinished[i])
		}
		if s.inFlightFences[i] != vk.NullFence {
			s.device.destroyFence(s.inFlightFences[i])
		}
	}
	s.imageAvailable = nil
	s.renderFinished = nil
	s.inFlightFences = nil
	s.imagesInFlight = nil
}

func chooseSwapSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

func chooseSwapPresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

func chooseSwapExtent(caps vk.SurfaceCapabilities, window vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clampUint32(v, lo, hi uint32) uint32 {
	return max(lo, min(v, hi))
}
