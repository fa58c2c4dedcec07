package vke

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// fakeDevice stands in for a GPU. Handles are unique heap addresses and
// memory is backed by byte slices.
type fakeDevice struct {
	calls   []string
	handles []*uint64

	memory map[vk.DeviceMemory][]byte
	live   map[string]int

	imageCount   int
	surfaceFmt   vk.Format
	samples      vk.SampleCountFlagBits
	nextAcquire  uint32
	acquireQueue []vk.Result
	presentQueue []vk.Result

	fenceWaits    []vk.Fence
	barriers      []vk.ImageMemoryBarrier
	submits       int
	begun         []vk.CommandBuffer
	renderPasses  []vk.RenderPassBeginInfo
	viewports     []vk.Viewport
	swapchainInfo []vk.SwapchainCreateInfo
	waitIdles     int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		memory:     make(map[vk.DeviceMemory][]byte),
		live:       make(map[string]int),
		imageCount: 3,
		surfaceFmt: vk.FormatB8g8r8a8Srgb,
		samples:    vk.SampleCount1Bit,
	}
}

func (f *fakeDevice) handle() unsafe.Pointer {
	h := new(uint64)
	f.handles = append(f.handles, h)
	return unsafe.Pointer(h)
}

func (f *fakeDevice) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeDevice) created(kind string) {
	f.live[kind]++
}

func (f *fakeDevice) destroyed(kind string) {
	f.live[kind]--
}

// leaks returns the kinds of objects that were created and not destroyed.
func (f *fakeDevice) leaks() []string {
	var out []string
	for k, n := range f.live {
		if n != 0 {
			out = append(out, fmt.Sprintf("%s:%d", k, n))
		}
	}
	return out
}

// bufferDevice

func (f *fakeDevice) createBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, props vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	b := vk.Buffer(f.handle())
	m := vk.DeviceMemory(f.handle())
	f.memory[m] = make([]byte, size)
	f.created("buffer")
	f.created("memory")
	f.record("createBuffer %d", size)
	return b, m, nil
}

func (f *fakeDevice) destroyBuffer(b vk.Buffer) {
	f.destroyed("buffer")
	f.record("destroyBuffer")
}

func (f *fakeDevice) freeMemory(m vk.DeviceMemory) {
	delete(f.memory, m)
	f.destroyed("memory")
	f.record("freeMemory")
}

func (f *fakeDevice) mapMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) (unsafe.Pointer, error) {
	backing, ok := f.memory[m]
	if !ok {
		return nil, errors.New("unknown memory")
	}
	if offset >= vk.DeviceSize(len(backing)) {
		return nil, errors.New("map offset out of range")
	}
	f.record("mapMemory %d", offset)
	return unsafe.Pointer(&backing[offset]), nil
}

func (f *fakeDevice) unmapMemory(m vk.DeviceMemory) {
	f.record("unmapMemory")
}

func (f *fakeDevice) flushMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) error {
	f.record("flushMemory %d %d", offset, size)
	return nil
}

func (f *fakeDevice) invalidateMemory(m vk.DeviceMemory, offset, size vk.DeviceSize) error {
	f.record("invalidateMemory %d %d", offset, size)
	return nil
}

func (f *fakeDevice) copyBufferToImage(b vk.Buffer, img vk.Image, width, height, layerCount uint32) error {
	f.record("copyBufferToImage %dx%d", width, height)
	return nil
}

// imageDevice

func (f *fakeDevice) createImage(info *vk.ImageCreateInfo, props vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error) {
	img := vk.Image(f.handle())
	m := vk.DeviceMemory(f.handle())
	f.memory[m] = nil
	f.created("image")
	f.created("memory")
	f.record("createImage %dx%d", info.Extent.Width, info.Extent.Height)
	return img, m, nil
}

func (f *fakeDevice) createImageView(info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	f.created("imageView")
	f.record("createImageView")
	return vk.ImageView(f.handle()), nil
}

func (f *fakeDevice) destroyImageView(v vk.ImageView) {
	f.destroyed("imageView")
	f.record("destroyImageView")
}

func (f *fakeDevice) destroyImage(img vk.Image) {
	f.destroyed("image")
	f.record("destroyImage")
}

func (f *fakeDevice) pipelineBarrier(src, dst vk.PipelineStageFlags, barrier vk.ImageMemoryBarrier) error {
	f.barriers = append(f.barriers, barrier)
	f.record("pipelineBarrier")
	return nil
}

// swapChainDevice

func (f *fakeDevice) surfaceSupport() (SwapChainSupport, error) {
	return SwapChainSupport{
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:  uint32(f.imageCount - 1),
			MaxImageCount:  uint32(f.imageCount),
			CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		},
		Formats: []vk.SurfaceFormat{
			{Format: f.surfaceFmt, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo},
	}, nil
}

func (f *fakeDevice) queueFamilies() QueueFamilyIndices {
	return QueueFamilyIndices{Graphics: 0, Present: 0}
}

func (f *fakeDevice) msaaSamples() vk.SampleCountFlagBits {
	return f.samples
}

func (f *fakeDevice) findSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	return candidates[0], nil
}

func (f *fakeDevice) createSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	f.swapchainInfo = append(f.swapchainInfo, *info)
	f.created("swapchain")
	f.record("createSwapchain %dx%d", info.ImageExtent.Width, info.ImageExtent.Height)
	return vk.Swapchain(f.handle()), nil
}

func (f *fakeDevice) destroySwapchain(sc vk.Swapchain) {
	f.destroyed("swapchain")
	f.record("destroySwapchain")
}

func (f *fakeDevice) swapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	images := make([]vk.Image, f.imageCount)
	for i := range images {
		images[i] = vk.Image(f.handle())
	}
	return images, nil
}

func (f *fakeDevice) createRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	f.created("renderPass")
	f.record("createRenderPass %d", info.AttachmentCount)
	return vk.RenderPass(f.handle()), nil
}

func (f *fakeDevice) destroyRenderPass(rp vk.RenderPass) {
	f.destroyed("renderPass")
	f.record("destroyRenderPass")
}

func (f *fakeDevice) createFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	f.created("framebuffer")
	f.record("createFramebuffer %d", info.AttachmentCount)
	return vk.Framebuffer(f.handle()), nil
}

func (f *fakeDevice) destroyFramebuffer(fb vk.Framebuffer) {
	f.destroyed("framebuffer")
	f.record("destroyFramebuffer")
}

func (f *fakeDevice) createSemaphore() (vk.Semaphore, error) {
	f.created("semaphore")
	return vk.Semaphore(f.handle()), nil
}

func (f *fakeDevice) destroySemaphore(s vk.Semaphore) {
	f.destroyed("semaphore")
}

func (f *fakeDevice) createFence(signaled bool) (vk.Fence, error) {
	f.created("fence")
	return vk.Fence(f.handle()), nil
}

func (f *fakeDevice) destroyFence(fence vk.Fence) {
	f.destroyed("fence")
}

func (f *fakeDevice) waitForFence(fence vk.Fence) error {
	f.fenceWaits = append(f.fenceWaits, fence)
	return nil
}

func (f *fakeDevice) resetFence(fence vk.Fence) error {
	return nil
}

func (f *fakeDevice) acquireNextImage(sc vk.Swapchain, sem vk.Semaphore, imageIndex *uint32) vk.Result {
	if len(f.acquireQueue) > 0 {
		res := f.acquireQueue[0]
		f.acquireQueue = f.acquireQueue[1:]
		if res != vk.Success && res != vk.Suboptimal {
			return res
		}
		*imageIndex = f.nextAcquire
		f.nextAcquire = (f.nextAcquire + 1) % uint32(f.imageCount)
		return res
	}
	*imageIndex = f.nextAcquire
	f.nextAcquire = (f.nextAcquire + 1) % uint32(f.imageCount)
	return vk.Success
}

func (f *fakeDevice) submitGraphics(info vk.SubmitInfo, fence vk.Fence) error {
	f.submits++
	f.record("submit")
	return nil
}

func (f *fakeDevice) present(info *vk.PresentInfo) vk.Result {
	f.record("present %d", info.PImageIndices[0])
	if len(f.presentQueue) > 0 {
		res := f.presentQueue[0]
		f.presentQueue = f.presentQueue[1:]
		return res
	}
	return vk.Success
}

// rendererDevice

func (f *fakeDevice) waitIdle() error {
	f.waitIdles++
	return nil
}

func (f *fakeDevice) allocateCommandBuffers(count int) ([]vk.CommandBuffer, error) {
	out := make([]vk.CommandBuffer, count)
	for i := range out {
		out[i] = vk.CommandBuffer(f.handle())
	}
	f.live["commandBuffer"] += count
	f.record("allocateCommandBuffers %d", count)
	return out, nil
}

func (f *fakeDevice) freeCommandBuffers(buffers []vk.CommandBuffer) {
	f.live["commandBuffer"] -= len(buffers)
	f.record("freeCommandBuffers %d", len(buffers))
}

func (f *fakeDevice) beginCommandBuffer(cb vk.CommandBuffer) error {
	f.begun = append(f.begun, cb)
	return nil
}

func (f *fakeDevice) endCommandBuffer(cb vk.CommandBuffer) error {
	return nil
}

func (f *fakeDevice) cmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo) {
	f.renderPasses = append(f.renderPasses, *info)
}

func (f *fakeDevice) cmdEndRenderPass(cb vk.CommandBuffer) {}

func (f *fakeDevice) cmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport) {
	f.viewports = append(f.viewports, viewport)
}

func (f *fakeDevice) cmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D) {}

// fakeWindow reports queued extents one per Extent call, then keeps
// returning the last one.
type fakeWindow struct {
	extent     vk.Extent2D
	pending    []vk.Extent2D
	resized    bool
	waitEvents int
}

func (w *fakeWindow) Extent() vk.Extent2D {
	if len(w.pending) > 0 {
		w.extent = w.pending[0]
		w.pending = w.pending[1:]
	}
	return w.extent
}

func (w *fakeWindow) WasResized() bool {
	return w.resized
}

func (w *fakeWindow) ResetResizedFlag() {
	w.resized = false
}

func (w *fakeWindow) WaitEvents() {
	w.waitEvents++
}

var _ rendererDevice = (*fakeDevice)(nil)
var _ Window = (*fakeWindow)(nil)
