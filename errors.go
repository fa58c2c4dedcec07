package vke

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrUnsupportedLayoutTransition is returned for any image layout pair
	// outside the transition table.
	ErrUnsupportedLayoutTransition = errors.New("unsupported layout transition")

	ErrFrameInProgress        = errors.New("frame already in progress")
	ErrFrameNotInProgress     = errors.New("no frame in progress")
	ErrCommandBufferMismatch  = errors.New("command buffer does not belong to the current frame")
	ErrSwapChainFormatChanged = errors.New("swap chain image or depth format has changed")

	ErrNotMapped     = errors.New("buffer is not mapped")
	ErrAlreadyMapped = errors.New("buffer is already mapped")
	ErrNotAllocated  = errors.New("resource is not allocated")
	ErrViewExists    = errors.New("image already has a view")

	ErrDuplicateBinding = errors.New("binding already in use")
	ErrUnknownBinding   = errors.New("layout does not contain binding")

	ErrNoSuitableDevice  = errors.New("failed to find a suitable GPU")
	ErrNoSupportedFormat = errors.New("failed to find supported format")
)

// misuse marks err as a violated calling contract. Callers can detect it
// with errors.HasAssertionFailure and still match the sentinel with
// errors.Is.
func misuse(err error) error {
	return errors.WithAssertionFailure(err)
}

// vkError converts a driver result into an error annotated with op, or nil
// on success.
func vkError(res vk.Result, op string) error {
	return errors.Wrap(vk.Error(res), op)
}
