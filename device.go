package vke

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceSource is a window that can tell Vulkan which instance extensions
// it needs and create a surface for itself.
type SurfaceSource interface {
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// Device owns the Vulkan instance, the surface, the logical device with its
// queues, the command pool and the pipeline cache. Every other object
// borrows it and must be destroyed before it.
type Device struct {
	Instance       *Instance
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
	Surface        vk.Surface

	GraphicsQueue *Queue
	PresentQueue  *Queue
	CommandPool   vk.CommandPool
	PipelineCache *PipelineCache

	indices QueueFamilyIndices
	samples vk.SampleCountFlagBits
}

// NewDevice brings up Vulkan for window: instance (with validation when
// cfg.EnableValidation is set), surface, the first suitable GPU, a logical
// device, queues, command pool and pipeline cache.
func NewDevice(window SurfaceSource, cfg Config) (*Device, error) {
	d := &Device{samples: vk.SampleCount1Bit}
	if err := d.init(window, cfg); err != nil {
		d.Destroy()
		return nil, err
	}
	return d, nil
}

func (d *Device) init(window SurfaceSource, cfg Config) error {
	app := &App{
		Name:       cfg.Title,
		EngineName: "vke",
		Version:    Version{1, 0, 0},
		APIVersion: Version{1, 0, 0},
	}
	for _, ext := range window.RequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}
	if cfg.EnableValidation {
		if err := app.EnableDebugging(); err != nil {
			Logger().Warn("validation requested but unavailable", "error", err)
		}
	}

	var err error
	if d.Instance, err = app.CreateInstance(); err != nil {
		return err
	}
	if len(app.EnabledLayers) > 0 {
		if err := d.Instance.SetDebugCallback(); err != nil {
			return err
		}
	}

	if d.Surface, err = window.CreateSurface(d.Instance.VKInstance); err != nil {
		return err
	}

	if err := d.pickPhysicalDevice(); err != nil {
		return err
	}

	d.VKDevice, err = d.PhysicalDevice.CreateLogicalDevice(d.indices, []string{swapchainExtension}, app.EnabledLayers)
	if err != nil {
		return err
	}
	d.GraphicsQueue = getQueue(d.VKDevice, d.indices.Graphics)
	d.PresentQueue = getQueue(d.VKDevice, d.indices.Present)

	if err := d.createCommandPool(); err != nil {
		return err
	}
	if d.PipelineCache, err = d.CreatePipelineCache(); err != nil {
		return err
	}

	if cfg.Multisampling {
		d.samples = d.PhysicalDevice.MaxUsableSampleCount()
	}
	Logger().Info("device ready",
		"gpu", d.PhysicalDevice.DeviceName,
		"graphicsFamily", d.indices.Graphics,
		"presentFamily", d.indices.Present,
		"samples", d.samples)
	return nil
}

func (d *Device) pickPhysicalDevice() error {
	devices, err := d.Instance.PhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "enumerate physical devices")
	}
	for _, pd := range devices {
		if !pd.Suitable(d.Surface) {
			Logger().Debug("skipping unsuitable gpu", "gpu", pd.DeviceName)
			continue
		}
		d.PhysicalDevice = pd
		d.indices, _ = pd.FindQueueFamilies(d.Surface)
		return nil
	}
	return errors.WithHint(errors.WithStack(ErrNoSuitableDevice),
		"a GPU with graphics and present queues, VK_KHR_swapchain and sampler anisotropy is required")
}

// Destroy releases everything the device owns. It tolerates a partially
// initialized device.
func (d *Device) Destroy() {
	if d.VKDevice != nil {
		if d.PipelineCache != nil {
			d.PipelineCache.Destroy(d)
		}
		if d.CommandPool != vk.CommandPool(vk.NullHandle) {
			vk.DestroyCommandPool(d.VKDevice, d.CommandPool, nil)
		}
		vk.DestroyDevice(d.VKDevice, nil)
		d.VKDevice = nil
	}
	if d.Instance != nil {
		if d.Surface != vk.NullSurface {
			vk.DestroySurface(d.Instance.VKInstance, d.Surface, nil)
		}
		d.Instance.Destroy()
		d.Instance = nil
	}
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) WaitIdle() error {
	return d.waitIdle()
}

func (d *Device) waitIdle() error {
	return vkError(vk.DeviceWaitIdle(d.VKDevice), "device wait idle")
}

func (d *Device) Limits() vk.PhysicalDeviceLimits {
	return d.PhysicalDevice.Limits()
}

// SampleCount is the number of samples render targets are created with.
func (d *Device) SampleCount() vk.SampleCountFlagBits {
	return d.samples
}

func (d *Device) msaaSamples() vk.SampleCountFlagBits {
	return d.samples
}

func (d *Device) QueueFamilyIndices() QueueFamilyIndices {
	return d.indices
}

func (d *Device) queueFamilies() QueueFamilyIndices {
	return d.indices
}

func (d *Device) surfaceSupport() (SwapChainSupport, error) {
	return d.PhysicalDevice.SwapChainSupport(d.Surface)
}

func (d *Device) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	return d.PhysicalDevice.FindSupportedFormat(candidates, tiling, features)
}

func (d *Device) findSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	return d.FindSupportedFormat(candidates, tiling, features)
}
