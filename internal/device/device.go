// Package device owns the Vulkan instance, the logical device, its queues and
// the command pool, and offers the allocation and format helpers the
// swapchain, pipeline and model are built with.
package device

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/ext_debug_utils"
	"github.com/vkngwrapper/extensions/khr_surface"

	"github.com/vkngwrapper/breakable-toy/internal/logging"
)

// SurfaceSource is the window side of device creation.
type SurfaceSource interface {
	InstanceExtensions() []string
	Loader() (core.Loader, error)
	CreateSurface(instance core1_0.Instance, surfaceLoader khr_surface.Extension) (khr_surface.Surface, error)
}

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

type SwapchainSupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

type Device struct {
	log        *logging.Logger
	validation bool

	loader         core.Loader
	instance       core1_0.Instance
	debugMessenger ext_debug_utils.DebugUtilsMessenger
	surface        khr_surface.Surface

	physicalDevice core1_0.PhysicalDevice
	properties     *core1_0.PhysicalDeviceProperties
	device         core1_0.Device

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	commandPool core1_0.CommandPool
}

// New brings up everything from the loader to the command pool. There is no
// fallback: if no usable GPU is found New fails and releases whatever it had
// already created.
func New(window SurfaceSource, validation bool, log *logging.Logger) (*Device, error) {
	d := &Device{log: log, validation: validation}

	err := d.init(window)
	if err != nil {
		d.Destroy()
		return nil, err
	}

	return d, nil
}

func (d *Device) init(window SurfaceSource) error {
	var err error
	d.loader, err = window.Loader()
	if err != nil {
		return err
	}

	err = d.createInstance(window.InstanceExtensions())
	if err != nil {
		return err
	}

	err = d.setupDebugMessenger()
	if err != nil {
		return err
	}

	err = d.createSurface(window)
	if err != nil {
		return err
	}

	err = d.pickPhysicalDevice()
	if err != nil {
		return err
	}

	err = d.createLogicalDevice()
	if err != nil {
		return err
	}

	return d.createCommandPool()
}

func (d *Device) Destroy() {
	if d.commandPool != nil {
		d.commandPool.Destroy(nil)
		d.commandPool = nil
	}

	if d.device != nil {
		d.device.Destroy(nil)
		d.device = nil
	}

	if d.debugMessenger != nil {
		d.debugMessenger.Destroy(nil)
		d.debugMessenger = nil
	}

	if d.surface != nil {
		d.surface.Destroy(nil)
		d.surface = nil
	}

	if d.instance != nil {
		d.instance.Destroy(nil)
		d.instance = nil
	}
}

func (d *Device) Handle() core1_0.Device                 { return d.device }
func (d *Device) PhysicalDevice() core1_0.PhysicalDevice { return d.physicalDevice }
func (d *Device) Surface() khr_surface.Surface           { return d.surface }
func (d *Device) GraphicsQueue() core1_0.Queue           { return d.graphicsQueue }
func (d *Device) PresentQueue() core1_0.Queue            { return d.presentQueue }
func (d *Device) CommandPool() core1_0.CommandPool       { return d.commandPool }

func (d *Device) Properties() *core1_0.PhysicalDeviceProperties { return d.properties }

func (d *Device) SwapchainSupport() (SwapchainSupportDetails, error) {
	return d.querySwapchainSupport(d.physicalDevice)
}

func (d *Device) QueueFamilies() (QueueFamilyIndices, error) {
	return d.findQueueFamilies(d.physicalDevice)
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	_, err := d.device.WaitIdle()
	if err != nil {
		return errors.Wrap(err, "failed to wait for device idle")
	}
	return nil
}

func (d *Device) createCommandPool() error {
	indices, err := d.QueueFamilies()
	if err != nil {
		return err
	}

	pool, _, err := d.device.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateTransient | core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: *indices.GraphicsFamily,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create command pool")
	}
	d.commandPool = pool

	return nil
}

func (d *Device) AllocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error) {
	buffers, _, err := d.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate command buffers")
	}
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(buffers []core1_0.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	d.device.FreeCommandBuffers(buffers)
}

func (d *Device) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	d.log.Errorf("[%s %s] - %s", severity, msgType, data.Message)
	return false
}
