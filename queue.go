package vke

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Family  uint32
	VKQueue vk.Queue
}

func getQueue(device vk.Device, family uint32) *Queue {
	var q vk.Queue
	vk.GetDeviceQueue(device, family, 0, &q)
	return &Queue{Family: family, VKQueue: q}
}

func (q *Queue) WaitIdle() error {
	return vkError(vk.QueueWaitIdle(q.VKQueue), "queue wait idle")
}

// Submit queues a single batch, signalling fence when it completes. fence
// may be vk.NullFence.
func (q *Queue) Submit(info vk.SubmitInfo, fence vk.Fence) error {
	return vkError(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{info}, fence), "queue submit")
}

// SubmitWaitIdle submits buffers and blocks until the queue drains.
func (q *Queue) SubmitWaitIdle(buffers ...vk.CommandBuffer) error {
	var submitInfo = vk.SubmitInfo{}
	submitInfo.SType = vk.StructureTypeSubmitInfo
	submitInfo.CommandBufferCount = uint32(len(buffers))
	submitInfo.PCommandBuffers = buffers

	if err := q.Submit(submitInfo, vk.NullFence); err != nil {
		return err
	}
	return q.WaitIdle()
}

func (q *Queue) Present(info *vk.PresentInfo) vk.Result {
	return vk.QueuePresent(q.VKQueue, info)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{ Family: %d }", q.Family)
}
