/*
Package vke is a small Vulkan rendering core for go. It owns the pieces every frame depends on
and leaves what gets drawn to the application.

# Overview

A frame moves through a fixed set of objects. The Device picks a GPU, creates the logical
device, its queues and a command pool. The SwapChain owns the presentable images together
with the depth images, optional multisampled color images, the render pass, the framebuffers
and the per frame synchronization objects. The Renderer sits on top and drives the frame
loop, recreating the SwapChain whenever the window surface goes stale.

	r, err := vke.NewRenderer(window, device)
	...
	for !window.ShouldClose() {
		window.PollEvents()
		cb, err := r.BeginFrame()
		if err != nil {
			return err
		}
		if cb == nil {
			continue // swap chain was recreated
		}
		r.BeginSwapChainRenderPass(cb)
		// record draws
		r.EndSwapChainRenderPass(cb)
		if err := r.EndFrame(); err != nil {
			return err
		}
	}

At most MaxFramesInFlight frames are recorded ahead of the GPU. Each slot has its own command
buffer, semaphores and fence, and the fence of a swap chain image is waited on before that
image is reused.

# Native Vulkan terms

	Instance	the vulkan runtime instance
	PhysicalDevice	the physical hardware device
	Device		the logical device, target of most of the vulkan apis
	Queue		a queue which command buffers are submitted to
	DeviceMemory	an allocation backing a buffer or image
	Swapchain	a set of images which are presented to the surface
	RenderPass	the attachments a pipeline renders into
	DescriptorSet	a mapping of data for use by shaders

# Resources

Buffer and Image each own exactly one allocation. A Buffer is split into aligned instance slots
so one buffer can hold a uniform block per frame in flight. Images track their layout, and only
the transitions needed to upload sampled textures are supported.

Native vulkan handles are exposed in the fields prefixed with 'VK' so applications aren't
limited by what this package provides.

# Errors

Contract violations, such as beginning a frame twice, carry an assertion failure marker
(see errors.HasAssertionFailure in github.com/cockroachdb/errors). Driver failures are
wrapped with the operation that produced them.
*/
package vke
