package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_portability_subset"
	"github.com/vkngwrapper/extensions/khr_swapchain"
)

var deviceExtensions = []string{khr_swapchain.ExtensionName}

// requiredDeviceExtensions is the swapchain extension, plus portability
// subset when the device offers it. Drivers that advertise portability
// subset require it to be enabled.
func requiredDeviceExtensions[T any](available map[string]T) []string {
	required := append([]string(nil), deviceExtensions...)
	if _, ok := available[khr_portability_subset.ExtensionName]; ok {
		required = append(required, khr_portability_subset.ExtensionName)
	}
	return required
}

func (d *Device) pickPhysicalDevice() error {
	physicalDevices, _, err := d.instance.EnumeratePhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "failed to enumerate physical devices")
	}
	if len(physicalDevices) == 0 {
		return errors.New("failed to find GPUs with Vulkan support")
	}
	d.log.Debugf("device count: %d", len(physicalDevices))

	for _, device := range physicalDevices {
		if d.isDeviceSuitable(device) {
			d.physicalDevice = device
			break
		}
	}

	if d.physicalDevice == nil {
		return errors.New("failed to find a suitable GPU")
	}

	d.properties, err = d.physicalDevice.Properties()
	if err != nil {
		return errors.Wrap(err, "failed to read physical device properties")
	}
	d.log.Debugf("physical device: %s", d.properties.DeviceName)

	return nil
}

func (d *Device) createLogicalDevice() error {
	indices, err := d.findQueueFamilies(d.physicalDevice)
	if err != nil {
		return err
	}

	uniqueQueueFamilies := []int{*indices.GraphicsFamily}
	if uniqueQueueFamilies[0] != *indices.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *indices.PresentFamily)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range uniqueQueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}

	extensions, _, err := d.physicalDevice.EnumerateDeviceExtensionProperties()
	if err != nil {
		return errors.Wrap(err, "failed to enumerate device extensions")
	}

	d.device, _, err = d.physicalDevice.CreateDevice(nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: true,
		},
		EnabledExtensionNames: requiredDeviceExtensions(extensions),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create logical device")
	}

	d.graphicsQueue = d.device.GetQueue(*indices.GraphicsFamily, 0)
	d.presentQueue = d.device.GetQueue(*indices.PresentFamily, 0)
	return nil
}

func (d *Device) isDeviceSuitable(device core1_0.PhysicalDevice) bool {
	indices, err := d.findQueueFamilies(device)
	if err != nil {
		return false
	}

	extensionsSupported := d.checkDeviceExtensionSupport(device)

	var swapchainAdequate bool
	if extensionsSupported {
		swapchainSupport, err := d.querySwapchainSupport(device)
		if err != nil {
			return false
		}

		swapchainAdequate = len(swapchainSupport.Formats) > 0 && len(swapchainSupport.PresentModes) > 0
	}

	features := device.Features()
	return indices.IsComplete() && extensionsSupported && swapchainAdequate && features.SamplerAnisotropy
}

func (d *Device) checkDeviceExtensionSupport(device core1_0.PhysicalDevice) bool {
	extensions, _, err := device.EnumerateDeviceExtensionProperties()
	if err != nil {
		return false
	}

	return len(missingNames(requiredDeviceExtensions(extensions), extensions)) == 0
}

func (d *Device) findQueueFamilies(device core1_0.PhysicalDevice) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}
	queueFamilies := device.QueueFamilyProperties()

	for queueFamilyIdx, queueFamily := range queueFamilies {
		if queueFamily.QueueCount > 0 && (queueFamily.QueueFlags&core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, _, err := d.surface.PhysicalDeviceSurfaceSupport(device, queueFamilyIdx)
		if err != nil {
			return indices, errors.Wrap(err, "failed to query surface support")
		}

		if queueFamily.QueueCount > 0 && supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func (d *Device) querySwapchainSupport(device core1_0.PhysicalDevice) (SwapchainSupportDetails, error) {
	var details SwapchainSupportDetails
	var err error

	details.Capabilities, _, err = d.surface.PhysicalDeviceSurfaceCapabilities(device)
	if err != nil {
		return details, errors.Wrap(err, "failed to query surface capabilities")
	}

	details.Formats, _, err = d.surface.PhysicalDeviceSurfaceFormats(device)
	if err != nil {
		return details, errors.Wrap(err, "failed to query surface formats")
	}

	details.PresentModes, _, err = d.surface.PhysicalDeviceSurfacePresentModes(device)
	if err != nil {
		return details, errors.Wrap(err, "failed to query present modes")
	}
	return details, nil
}
