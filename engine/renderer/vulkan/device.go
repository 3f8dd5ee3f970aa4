package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vega/engine/core"
	"github.com/spaghettifunk/vega/engine/renderer/metadata"
)

// Device groups the physical/logical device pair and the single graphics
// queue this backend renders with.
type Device struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	GraphicsQueueIndex uint32
	GraphicsQueue      vk.Queue

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures

	DepthFormat vk.Format
}

func selectPhysicalDevice(instance vk.Instance, device *Device) error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(instance, &physicalDeviceCount, nil); res != vk.Success {
		return fmt.Errorf("could not enumerate physical devices: %s", resultString(res))
	}
	if physicalDeviceCount == 0 {
		return fmt.Errorf("no Vulkan capable device found: %w", core.ErrGraphicsUnsupported)
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return fmt.Errorf("could not enumerate physical devices: %s", resultString(res))
	}

	// Prefer a discrete GPU with a graphics queue, fall back on anything
	// that can draw.
	best := -1
	bestQueue := uint32(0)
	bestDiscrete := false
	for i, physicalDevice := range physicalDevices {
		var queueFamilyCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, nil)
		queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, queueFamilies)

		graphicsQueue := int32(-1)
		for j := range queueFamilies {
			queueFamilies[j].Deref()
			if queueFamilies[j].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
				graphicsQueue = int32(j)
				break
			}
		}
		if graphicsQueue < 0 {
			continue
		}

		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
		properties.Deref()
		discrete := properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu

		if best < 0 || (discrete && !bestDiscrete) {
			best = i
			bestQueue = uint32(graphicsQueue)
			bestDiscrete = discrete
		}
	}
	if best < 0 {
		return fmt.Errorf("no device with a graphics queue found: %w", core.ErrGraphicsUnsupported)
	}

	device.PhysicalDevice = physicalDevices[best]
	device.GraphicsQueueIndex = bestQueue
	vk.GetPhysicalDeviceProperties(device.PhysicalDevice, &device.Properties)
	device.Properties.Deref()
	vk.GetPhysicalDeviceFeatures(device.PhysicalDevice, &device.Features)
	device.Features.Deref()

	core.LogInfo("selected Vulkan device %q", vk.ToString(device.Properties.DeviceName[:]))
	return nil
}

func detectDepthFormat(device *Device) error {
	candidates := []vk.Format{
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	for _, format := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, format, &properties)
		properties.Deref()
		if properties.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			device.DepthFormat = format
			return nil
		}
	}
	return fmt.Errorf("no usable depth/stencil format: %w", core.ErrGraphicsUnsupported)
}

func deviceCreate(instance vk.Instance) (*Device, error) {
	device := &Device{}
	if err := selectPhysicalDevice(instance, device); err != nil {
		return nil, err
	}
	if err := detectDepthFormat(device); err != nil {
		return nil, err
	}

	queuePriority := float32(1.0)
	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{queuePriority},
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueCreateInfo},
		PEnabledFeatures:     []vk.PhysicalDeviceFeatures{deviceFeatures},
	}

	var logicalDevice vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, nil, &logicalDevice); res != vk.Success {
		return nil, fmt.Errorf("could not create the logical device: %s", resultString(res))
	}
	device.LogicalDevice = logicalDevice

	var queue vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, device.GraphicsQueueIndex, 0, &queue)
	device.GraphicsQueue = queue

	return device, nil
}

func (d *Device) destroy() {
	if d.LogicalDevice != nil {
		vk.DestroyDevice(d.LogicalDevice, nil)
		d.LogicalDevice = nil
	}
	d.PhysicalDevice = nil
	d.GraphicsQueue = nil
}

// loadLimits maps the Vulkan device limits to the abstract limit report.
func (d *Device) loadLimits() metadata.Limits {
	limits := d.Properties.Limits
	limits.Deref()

	maxSamples := int32(1)
	counts := limits.FramebufferColorSampleCounts & limits.FramebufferDepthSampleCounts
	for _, bit := range []vk.SampleCountFlagBits{
		vk.SampleCount64Bit, vk.SampleCount32Bit, vk.SampleCount16Bit,
		vk.SampleCount8Bit, vk.SampleCount4Bit, vk.SampleCount2Bit,
	} {
		if counts&vk.SampleCountFlags(bit) != 0 {
			maxSamples = int32(bit)
			break
		}
	}

	return metadata.Limits{
		MaxColorAttachments: int32(limits.MaxColorAttachments),
		MaxComputeWorkGroupCount: [3]int32{
			int32(limits.MaxComputeWorkGroupCount[0]),
			int32(limits.MaxComputeWorkGroupCount[1]),
			int32(limits.MaxComputeWorkGroupCount[2]),
		},
		MaxComputeWorkGroupInvocations: int32(limits.MaxComputeWorkGroupInvocations),
		MaxComputeWorkGroupSize: [3]int32{
			int32(limits.MaxComputeWorkGroupSize[0]),
			int32(limits.MaxComputeWorkGroupSize[1]),
			int32(limits.MaxComputeWorkGroupSize[2]),
		},
		MaxComputeSharedMemorySize: int32(limits.MaxComputeSharedMemorySize),
		MaxDrawBuffers:             int32(limits.MaxColorAttachments),
		MaxSamples:                 maxSamples,
		MaxTextureDimension1D:      int32(limits.MaxImageDimension1D),
		MaxTextureDimension2D:      int32(limits.MaxImageDimension2D),
		MaxTextureDimension3D:      int32(limits.MaxImageDimension3D),
		MaxTextureDimensionCube:    int32(limits.MaxImageDimensionCube),
	}
}

// loadFeatures maps the Vulkan core feature set to the abstract feature
// bits. Core Vulkan guarantees most of what the capability report covers.
func (d *Device) loadFeatures() metadata.Features {
	features := metadata.FeatureCompute |
		metadata.FeatureInstancedDraw |
		metadata.FeatureColorResolve |
		metadata.FeatureShaderTextureLOD |
		metadata.FeatureTexture3D |
		metadata.FeatureTextureNPOT |
		metadata.FeatureUintUniforms |
		metadata.FeatureUniformBuffer |
		metadata.FeatureStorageBuffer |
		metadata.FeatureTextureFloatRenderable |
		metadata.FeatureTextureHalfFloatRenderable

	if d.Features.ImageCubeArray == vk.True {
		features |= metadata.FeatureTextureCubeMap
	}
	if d.Properties.DeviceType == vk.PhysicalDeviceTypeCpu {
		features |= metadata.FeatureSoftware
	}
	// Depth/stencil resolve needs VK_KHR_depth_stencil_resolve which this
	// backend does not request.
	return features
}
