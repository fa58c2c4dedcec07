package vke

import (
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) createSwapchain(info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	info.Surface = d.Surface

	var swapchain vk.Swapchain
	if err := vkError(vk.CreateSwapchain(d.VKDevice, info, nil, &swapchain), "create swapchain"); err != nil {
		return vk.NullSwapchain, err
	}
	return swapchain, nil
}

func (d *Device) destroySwapchain(sc vk.Swapchain) {
	vk.DestroySwapchain(d.VKDevice, sc, nil)
}

func (d *Device) swapchainImages(sc vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	if err := vkError(vk.GetSwapchainImages(d.VKDevice, sc, &count, nil), "get swapchain images"); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := vkError(vk.GetSwapchainImages(d.VKDevice, sc, &count, images), "get swapchain images"); err != nil {
		return nil, err
	}
	return images, nil
}

func (d *Device) createRenderPass(info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var rp vk.RenderPass
	if err := vkError(vk.CreateRenderPass(d.VKDevice, info, nil, &rp), "create render pass"); err != nil {
		return vk.NullRenderPass, err
	}
	return rp, nil
}

func (d *Device) destroyRenderPass(rp vk.RenderPass) {
	vk.DestroyRenderPass(d.VKDevice, rp, nil)
}

func (d *Device) createFramebuffer(info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var fb vk.Framebuffer
	if err := vkError(vk.CreateFramebuffer(d.VKDevice, info, nil, &fb), "create framebuffer"); err != nil {
		return nil, err
	}
	return fb, nil
}

func (d *Device) destroyFramebuffer(fb vk.Framebuffer) {
	vk.DestroyFramebuffer(d.VKDevice, fb, nil)
}

func (d *Device) acquireNextImage(sc vk.Swapchain, sem vk.Semaphore, imageIndex *uint32) vk.Result {
	return vk.AcquireNextImage(d.VKDevice, sc, vk.MaxUint64, sem, vk.NullFence, imageIndex)
}

func (d *Device) submitGraphics(info vk.SubmitInfo, fence vk.Fence) error {
	return d.GraphicsQueue.Submit(info, fence)
}

func (d *Device) present(info *vk.PresentInfo) vk.Result {
	return d.PresentQueue.Present(info)
}
