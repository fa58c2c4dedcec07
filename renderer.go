package vke

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Window is what the renderer needs from the windowing system.
type Window interface {
	// Extent returns the framebuffer size in pixels
	Extent() vk.Extent2D
	WasResized() bool
	ResetResizedFlag()
	// WaitEvents blocks until the windowing system has new events
	WaitEvents()
}

// rendererDevice is the part of Device a Renderer relies on.
type rendererDevice interface {
	swapChainDevice

	waitIdle() error
	allocateCommandBuffers(count int) ([]vk.CommandBuffer, error)
	freeCommandBuffers(buffers []vk.CommandBuffer)
	beginCommandBuffer(cb vk.CommandBuffer) error
	endCommandBuffer(cb vk.CommandBuffer) error
	cmdBeginRenderPass(cb vk.CommandBuffer, info *vk.RenderPassBeginInfo)
	cmdEndRenderPass(cb vk.CommandBuffer)
	cmdSetViewport(cb vk.CommandBuffer, viewport vk.Viewport)
	cmdSetScissor(cb vk.CommandBuffer, scissor vk.Rect2D)
}

var clearColor = []float32{0.01, 0.01, 0.01, 1}

// Renderer drives the frame loop: it acquires swap chain images, hands out
// command buffers for recording and submits them, recreating the swap chain
// whenever the surface changes.
type Renderer struct {
	window Window
	device rendererDevice

	swapChain      *SwapChain
	commandBuffers []vk.CommandBuffer

	currentImageIndex uint32
	currentFrameIndex int
	frameStarted      bool
}

func NewRenderer(window Window, d *Device) (*Renderer, error) {
	return newRenderer(window, d)
}

func newRenderer(window Window, d rendererDevice) (*Renderer, error) {
	r := &Renderer{
		window: window,
		device: d,
	}
	if err := r.recreateSwapChain(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) createCommandBuffers() error {
	buffers, err := r.device.allocateCommandBuffers(r.swapChain.ImageCount())
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	r.commandBuffers = buffers
	return nil
}

func (r *Renderer) freeCommandBuffers() {
	if len(r.commandBuffers) == 0 {
		return
	}
	r.device.freeCommandBuffers(r.commandBuffers)
	r.commandBuffers = nil
}

func (r *Renderer) recreateSwapChain() error {
	extent := r.window.Extent()
	for extent.Width == 0 || extent.Height == 0 {
		r.window.WaitEvents()
		extent = r.window.Extent()
	}

	if err := r.device.waitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	old := r.swapChain
	sc, err := newSwapChain(r.device, extent, old)
	if err != nil {
		return err
	}
	if old != nil {
		sameFormats := old.CompareSwapFormats(sc)
		old.Destroy()
		if !sameFormats {
			sc.Destroy()
			r.swapChain = nil
			return errors.WithStack(ErrSwapChainFormatChanged)
		}
		Logger().Info("swap chain recreated", "width", extent.Width, "height", extent.Height)
	}
	r.swapChain = sc

	if len(r.commandBuffers) != sc.ImageCount() {
		r.freeCommandBuffers()
		return r.createCommandBuffers()
	}
	return nil
}

// BeginFrame acquires the next image and starts recording its command
// buffer. It returns a nil command buffer without error when the swap chain
// had to be recreated; the caller should skip the frame.
func (r *Renderer) BeginFrame() (vk.CommandBuffer, error) {
	if r.frameStarted {
		return nil, misuse(ErrFrameInProgress)
	}

	res := r.swapChain.AcquireNextImage(&r.currentImageIndex)
	switch res.Status {
	case StatusOutOfDate:
		return nil, r.recreateSwapChain()
	case StatusFatal:
		return nil, errors.Wrap(res.Cause, "acquire swap chain image")
	}

	cb := r.commandBuffers[r.currentFrameIndex]
	if err := r.device.beginCommandBuffer(cb); err != nil {
		return nil, errors.Wrap(err, "begin recording command buffer")
	}
	r.frameStarted = true
	return cb, nil
}

// EndFrame finishes recording, submits and presents the frame started by
// BeginFrame.
func (r *Renderer) EndFrame() error {
	if !r.frameStarted {
		return misuse(ErrFrameNotInProgress)
	}
	r.frameStarted = false

	cb := r.commandBuffers[r.currentFrameIndex]
	if err := r.device.endCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "record command buffer")
	}

	var err error
	res := r.swapChain.SubmitCommandBuffers([]vk.CommandBuffer{cb}, r.currentImageIndex)
	switch {
	case res.Status == StatusSuboptimal || res.Status == StatusOutOfDate || r.window.WasResized():
		r.window.ResetResizedFlag()
		err = r.recreateSwapChain()
	case res.Status == StatusFatal:
		err = errors.Wrap(res.Cause, "present swap chain image")
	}

	r.currentFrameIndex = (r.currentFrameIndex + 1) % MaxFramesInFlight
	return err
}

func (r *Renderer) checkFrameBuffer(cb vk.CommandBuffer) error {
	if !r.frameStarted {
		return misuse(ErrFrameNotInProgress)
	}
	if cb != r.commandBuffers[r.currentFrameIndex] {
		return misuse(ErrCommandBufferMismatch)
	}
	return nil
}

// BeginSwapChainRenderPass clears the current framebuffer and sets a
// viewport and scissor covering the whole swap chain extent.
func (r *Renderer) BeginSwapChainRenderPass(cb vk.CommandBuffer) error {
	if err := r.checkFrameBuffer(cb); err != nil {
		return err
	}

	extent := r.swapChain.Extent()
	clearValues := []vk.ClearValue{
		vk.NewClearValue(clearColor),
		vk.NewClearDepthStencil(1, 0),
	}
	if r.swapChain.multisampled() {
		clearValues = append(clearValues, vk.NewClearValue(clearColor))
	}

	info := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  r.swapChain.RenderPass(),
		Framebuffer: r.swapChain.Framebuffer(int(r.currentImageIndex)),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	r.device.cmdBeginRenderPass(cb, &info)

	r.device.cmdSetViewport(cb, vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	r.device.cmdSetScissor(cb, vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	})
	return nil
}

func (r *Renderer) EndSwapChainRenderPass(cb vk.CommandBuffer) error {
	if err := r.checkFrameBuffer(cb); err != nil {
		return err
	}
	r.device.cmdEndRenderPass(cb)
	return nil
}

func (r *Renderer) SwapChainRenderPass() vk.RenderPass {
	return r.swapChain.RenderPass()
}

func (r *Renderer) AspectRatio() float32 {
	return r.swapChain.AspectRatio()
}

func (r *Renderer) SampleCount() vk.SampleCountFlagBits {
	return r.swapChain.Samples()
}

func (r *Renderer) ImageCount() int {
	return r.swapChain.ImageCount()
}

func (r *Renderer) IsFrameInProgress() bool {
	return r.frameStarted
}

// FrameIndex is the frame slot, in [0, MaxFramesInFlight), of the frame
// being recorded.
func (r *Renderer) FrameIndex() (int, error) {
	if !r.frameStarted {
		return 0, misuse(ErrFrameNotInProgress)
	}
	return r.currentFrameIndex, nil
}

func (r *Renderer) CurrentCommandBuffer() (vk.CommandBuffer, error) {
	if !r.frameStarted {
		return nil, misuse(ErrFrameNotInProgress)
	}
	return r.commandBuffers[r.currentFrameIndex], nil
}

// Destroy waits for the device to go idle and releases the command
// buffers and the swap chain.
func (r *Renderer) Destroy() error {
	err := r.device.waitIdle()
	r.freeCommandBuffers()
	if r.swapChain != nil {
		r.swapChain.Destroy()
		r.swapChain = nil
	}
	return errors.Wrap(err, "wait for device idle")
}
