package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
)

func (d *Device) FindMemoryType(typeFilter uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	memProperties := d.physicalDevice.MemoryProperties()

	typeFlags := make([]core1_0.MemoryPropertyFlags, 0, len(memProperties.MemoryTypes))
	for _, memoryType := range memProperties.MemoryTypes {
		typeFlags = append(typeFlags, memoryType.PropertyFlags)
	}

	return findMemoryTypeIndex(typeFilter, typeFlags, properties)
}

// findMemoryTypeIndex returns the first memory type allowed by typeFilter
// whose flags include all of properties.
func findMemoryTypeIndex(typeFilter uint32, typeFlags []core1_0.MemoryPropertyFlags, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, flags := range typeFlags {
		typeBit := uint32(1 << i)

		if (typeFilter&typeBit) != 0 && (flags&properties) == properties {
			return i, nil
		}
	}

	return 0, errors.Newf("failed to find suitable memory type for %s", properties)
}

func (d *Device) FindSupportedFormat(candidates []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	return findSupportedFormat(candidates, tiling, features, func(format core1_0.Format) (core1_0.FormatFeatureFlags, core1_0.FormatFeatureFlags) {
		props := d.physicalDevice.FormatProperties(format)
		return props.LinearTilingFeatures, props.OptimalTilingFeatures
	})
}

type formatFeatureQuery func(format core1_0.Format) (linear, optimal core1_0.FormatFeatureFlags)

func findSupportedFormat(candidates []core1_0.Format, tiling core1_0.ImageTiling, features core1_0.FormatFeatureFlags, query formatFeatureQuery) (core1_0.Format, error) {
	for _, format := range candidates {
		linear, optimal := query(format)

		if tiling == core1_0.ImageTilingLinear && (linear&features) == features {
			return format, nil
		} else if tiling == core1_0.ImageTilingOptimal && (optimal&features) == features {
			return format, nil
		}
	}

	return 0, errors.Newf("failed to find supported format for tiling %s, featureset %s", tiling, features)
}

// CreateBuffer creates a buffer and binds freshly allocated memory to it. On
// failure nothing is left allocated.
func (d *Device) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	buffer, _, err := d.device.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create buffer")
	}

	memRequirements := buffer.MemoryRequirements()
	memoryTypeIndex, err := d.FindMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy(nil)
		return nil, nil, err
	}

	memory, _, err := d.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		buffer.Destroy(nil)
		return nil, nil, errors.Wrap(err, "failed to allocate buffer memory")
	}

	_, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		buffer.Destroy(nil)
		memory.Free(nil)
		return nil, nil, errors.Wrap(err, "failed to bind buffer memory")
	}

	return buffer, memory, nil
}

// CreateImageWithInfo creates an image from info and binds freshly allocated
// memory with the requested properties. On failure nothing is left allocated.
func (d *Device) CreateImageWithInfo(info core1_0.ImageCreateInfo, properties core1_0.MemoryPropertyFlags) (core1_0.Image, core1_0.DeviceMemory, error) {
	image, _, err := d.device.CreateImage(nil, info)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create image")
	}

	memReqs := image.MemoryRequirements()
	memoryIndex, err := d.FindMemoryType(memReqs.MemoryTypeBits, properties)
	if err != nil {
		image.Destroy(nil)
		return nil, nil, err
	}

	imageMemory, _, err := d.device.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memoryIndex,
	})
	if err != nil {
		image.Destroy(nil)
		return nil, nil, errors.Wrap(err, "failed to allocate image memory")
	}

	_, err = image.BindImageMemory(imageMemory, 0)
	if err != nil {
		image.Destroy(nil)
		imageMemory.Free(nil)
		return nil, nil, errors.Wrap(err, "failed to bind image memory")
	}

	return image, imageMemory, nil
}
