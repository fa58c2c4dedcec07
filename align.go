package vke

import (
	vk "github.com/vulkan-go/vulkan"
)

// WholeSize selects everything from an offset to the end of a buffer or
// memory range.
const WholeSize = vk.DeviceSize(^uint64(0))

// Alignment returns the smallest multiple of minOffsetAlignment that is at
// least instanceSize. A zero alignment leaves the size untouched. The result
// wraps when instanceSize is within minOffsetAlignment-1 of the maximum.
func Alignment(instanceSize, minOffsetAlignment vk.DeviceSize) vk.DeviceSize {
	if minOffsetAlignment == 0 {
		return instanceSize
	}
	if minOffsetAlignment&(minOffsetAlignment-1) == 0 {
		return (instanceSize + minOffsetAlignment - 1) &^ (minOffsetAlignment - 1)
	}
	return vk.DeviceSize(makeAlignUp(uint64(instanceSize), uint64(minOffsetAlignment)))
}

func makeAlignUp(a uint64, align uint64) uint64 {
	m := a % align
	if m == 0 {
		return a
	}
	a = (a - m) + align
	return a
}
