package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vega/engine/core"
)

// Image is a device-local image with its backing memory and default view,
// used for the offscreen default rendertarget attachments.
type Image struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
}

func imageCreate(device *Device, width, height uint32, format vk.Format,
	usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags, samples vk.SampleCountFlagBits) (*Image, error) {

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       samples,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var handle vk.Image
	if res := vk.CreateImage(device.LogicalDevice, &imageCreateInfo, nil, &handle); res != vk.Success {
		return nil, fmt.Errorf("could not create image: %s", resultString(res))
	}
	image := &Image{
		Handle: handle,
		Width:  width,
		Height: height,
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device.LogicalDevice, image.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryIndex := findMemoryIndex(device.PhysicalDevice, memoryRequirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if memoryIndex < 0 {
		image.destroy(device)
		return nil, fmt.Errorf("no device local memory type for image: %w", core.ErrMemory)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(device.LogicalDevice, &allocateInfo, nil, &memory); res != vk.Success {
		image.destroy(device)
		return nil, fmt.Errorf("could not allocate image memory: %s", resultString(res))
	}
	image.Memory = memory

	if res := vk.BindImageMemory(device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
		image.destroy(device)
		return nil, fmt.Errorf("could not bind image memory: %s", resultString(res))
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(device.LogicalDevice, &viewCreateInfo, nil, &view); res != vk.Success {
		image.destroy(device)
		return nil, fmt.Errorf("could not create image view: %s", resultString(res))
	}
	image.View = view

	return image, nil
}

func (i *Image) destroy(device *Device) {
	if i.View != nil {
		vk.DestroyImageView(device.LogicalDevice, i.View, nil)
		i.View = nil
	}
	if i.Memory != nil {
		vk.FreeMemory(device.LogicalDevice, i.Memory, nil)
		i.Memory = nil
	}
	if i.Handle != nil {
		vk.DestroyImage(device.LogicalDevice, i.Handle, nil)
		i.Handle = nil
	}
}
