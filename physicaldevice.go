package vke

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

const swapchainExtension = "VK_KHR_swapchain"

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func newPhysicalDevice(pd vk.PhysicalDevice) *PhysicalDevice {
	p := &PhysicalDevice{VKPhysicalDevice: pd}
	vk.GetPhysicalDeviceProperties(pd, &p.VKPhysicalDeviceProperties)
	p.VKPhysicalDeviceProperties.Deref()
	p.VKPhysicalDeviceProperties.Limits.Deref()
	p.DeviceName = vk.ToString(p.VKPhysicalDeviceProperties.DeviceName[:])
	return p
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

// Limits returns the device limits, already dereferenced.
func (p *PhysicalDevice) Limits() vk.PhysicalDeviceLimits {
	return p.VKPhysicalDeviceProperties.Limits
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	modes := make([]vk.PresentMode, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, modes))
	if err != nil {
		return nil, err
	}
	return modes, nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil))
	if err != nil {
		return nil, err
	}

	formats := make([]vk.SurfaceFormat, count)
	err = vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, formats))
	if err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps))
	if err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

// SwapChainSupport queries everything a swap chain needs to know about
// surface on this device.
func (p *PhysicalDevice) SwapChainSupport(surface vk.Surface) (SwapChainSupport, error) {
	var s SwapChainSupport
	var err error
	if s.Capabilities, err = p.GetSurfaceCapabilities(surface); err != nil {
		return s, errors.Wrap(err, "surface capabilities")
	}
	if s.Formats, err = p.GetSurfaceFormats(surface); err != nil {
		return s, errors.Wrap(err, "surface formats")
	}
	if s.PresentModes, err = p.GetSurfacePresentModes(surface); err != nil {
		return s, errors.Wrap(err, "surface present modes")
	}
	return s, nil
}

func (p *PhysicalDevice) QueueFamilies() (QueueFamilySlice, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, nil)
	if count == 0 {
		return nil, nil
	}

	queues := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, queues)

	ret := make(QueueFamilySlice, count)
	for i, queue := range queues {
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: queue}
		ret[i].VKQueueFamilyProperties.Deref()
	}
	return ret, nil
}

// FindQueueFamilies picks a graphics family and a present family for
// surface, preferring a single family that does both.
func (p *PhysicalDevice) FindQueueFamilies(surface vk.Surface) (QueueFamilyIndices, bool) {
	families, err := p.QueueFamilies()
	if err != nil {
		return QueueFamilyIndices{}, false
	}
	if both := families.FilterGraphicsAndPresent(surface); len(both) > 0 {
		i := uint32(both[0].Index)
		return QueueFamilyIndices{Graphics: i, Present: i}, true
	}
	graphics := families.FilterGraphics()
	present := families.FilterPresent(surface)
	if len(graphics) == 0 || len(present) == 0 {
		return QueueFamilyIndices{}, false
	}
	return QueueFamilyIndices{Graphics: uint32(graphics[0].Index), Present: uint32(present[0].Index)}, true
}

func (p *PhysicalDevice) VKPhysicalDeviceFeatures() vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &features)
	features.Deref()
	return features
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	memoryProperties.Deref()
	return memoryProperties
}

func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	mp := p.VKPhysicalDeviceMemoryProperties()

	var i uint32
	for i = 0; i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		if memoryTypeBits&(1<<i) != 0 && mt.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Newf("no memory type matches bits %b with properties %x", memoryTypeBits, properties)
}

func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}

	ext := make([]vk.ExtensionProperties, count)
	err = vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ext))
	for i := range ext {
		ext[i].Deref()
		names[i] = vk.ToString(ext[i].ExtensionName[:])
	}
	return names, nil
}

// FindSupportedFormat returns the first candidate whose tiling supports all
// of features.
func (p *PhysicalDevice) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(p.VKPhysicalDevice, format, &props)
		props.Deref()
		if tiling == vk.ImageTilingLinear && props.LinearTilingFeatures&features == features {
			return format, nil
		}
		if tiling == vk.ImageTilingOptimal && props.OptimalTilingFeatures&features == features {
			return format, nil
		}
	}
	return vk.FormatUndefined, errors.WithStack(ErrNoSupportedFormat)
}

// MaxUsableSampleCount is the highest sample count supported by both color
// and depth framebuffer attachments.
func (p *PhysicalDevice) MaxUsableSampleCount() vk.SampleCountFlagBits {
	limits := p.Limits()
	return maxSampleCount(limits.FramebufferColorSampleCounts & limits.FramebufferDepthSampleCounts)
}

func maxSampleCount(counts vk.SampleCountFlags) vk.SampleCountFlagBits {
	for _, c := range []vk.SampleCountFlagBits{
		vk.SampleCount64Bit,
		vk.SampleCount32Bit,
		vk.SampleCount16Bit,
		vk.SampleCount8Bit,
		vk.SampleCount4Bit,
		vk.SampleCount2Bit,
	} {
		if counts&vk.SampleCountFlags(c) != 0 {
			return c
		}
	}
	return vk.SampleCount1Bit
}

// Suitable reports whether the device can render to surface: it needs
// graphics and present queues, the swap chain extension, anisotropic
// filtering and at least one surface format and present mode.
func (p *PhysicalDevice) Suitable(surface vk.Surface) bool {
	if _, ok := p.FindQueueFamilies(surface); !ok {
		return false
	}

	exts, err := p.SupportedExtensions()
	if err != nil || !containsString(exts, swapchainExtension) {
		return false
	}

	support, err := p.SwapChainSupport(surface)
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return false
	}

	return p.VKPhysicalDeviceFeatures().SamplerAnisotropy == vk.True
}

func (p *PhysicalDevice) CreateLogicalDevice(indices QueueFamilyIndices, extensions, layers []string) (vk.Device, error) {
	families := []uint32{indices.Graphics}
	if indices.Present != indices.Graphics {
		families = append(families, indices.Present)
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for j, f := range families {
		queueCreateInfos[j] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: f,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	features := vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: vk.True,
	}

	extensions = safeStrings(extensions)
	layers = safeStrings(layers)
	createInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var device vk.Device
	if err := vkError(vk.CreateDevice(p.VKPhysicalDevice, &createInfo, nil, &device), "create logical device"); err != nil {
		return nil, err
	}
	return device, nil
}

func containsString(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
