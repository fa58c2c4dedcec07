package vke

import (
	vk "github.com/vulkan-go/vulkan"
)

func (d *Device) createSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sema vk.Semaphore
	if err := vkError(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema), "create semaphore"); err != nil {
		return vk.NullSemaphore, err
	}
	return sema, nil
}

func (d *Device) destroySemaphore(s vk.Semaphore) {
	vk.DestroySemaphore(d.VKDevice, s, nil)
}

// createFence creates a fence, optionally already signaled so the first
// wait on it returns immediately.
func (d *Device) createFence(signaled bool) (vk.Fence, error) {
	var fenceCreateInfo = vk.FenceCreateInfo{}
	fenceCreateInfo.SType = vk.StructureTypeFenceCreateInfo
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := vkError(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence), "create fence"); err != nil {
		return vk.NullFence, err
	}
	return fence, nil
}

func (d *Device) destroyFence(f vk.Fence) {
	vk.DestroyFence(d.VKDevice, f, nil)
}

// waitForFence blocks without a timeout.
func (d *Device) waitForFence(f vk.Fence) error {
	return vkError(vk.WaitForFences(d.VKDevice, 1, []vk.Fence{f}, vk.True, vk.MaxUint64), "wait for fence")
}

func (d *Device) resetFence(f vk.Fence) error {
	return vkError(vk.ResetFences(d.VKDevice, 1, []vk.Fence{f}), "reset fence")
}
