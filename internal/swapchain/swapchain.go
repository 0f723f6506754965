// Package swapchain owns the presentable image chain and everything sized by
// it: image views, depth buffers, framebuffers and the render pass. It also
// runs the acquire, submit and present protocol that keeps the CPU at most
// MaxFramesInFlight frames ahead of the GPU.
//
// A Swapchain is never resized. When it goes stale the caller builds a new
// one, passing the stale one as previous, and then destroys the stale one.
package swapchain

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	"github.com/vkngwrapper/extensions/khr_swapchain"

	"github.com/vkngwrapper/breakable-toy/internal/device"
	"github.com/vkngwrapper/breakable-toy/internal/logging"
)

var depthFormatCandidates = []core1_0.Format{
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

type Swapchain struct {
	dev *device.Device
	log *logging.Logger

	extension   khr_swapchain.Extension
	swapchain   khr_swapchain.Swapchain
	imageFormat core1_0.Format
	depthFormat core1_0.Format
	extent      core1_0.Extent2D
	windowSize  core1_0.Extent2D

	images     []core1_0.Image
	imageViews []core1_0.ImageView

	renderPass core1_0.RenderPass

	depthImages       []core1_0.Image
	depthImageMemorys []core1_0.DeviceMemory
	depthImageViews   []core1_0.ImageView

	framebuffers []core1_0.Framebuffer

	sync *frameSync
}

// New builds a swapchain for windowExtent. When previous is not nil its
// native chain is handed to the driver for reuse; previous stays owned by
// the caller.
func New(dev *device.Device, windowExtent core1_0.Extent2D, previous *Swapchain, log *logging.Logger) (*Swapchain, error) {
	s := &Swapchain{
		dev:        dev,
		log:        log,
		windowSize: windowExtent,
	}

	err := s.init(previous)
	if err != nil {
		s.Destroy()
		return nil, err
	}

	return s, nil
}

func (s *Swapchain) init(previous *Swapchain) error {
	err := s.createSwapchain(previous)
	if err != nil {
		return err
	}

	err = s.createImageViews()
	if err != nil {
		return err
	}

	err = s.createRenderPass()
	if err != nil {
		return err
	}

	err = s.createDepthResources()
	if err != nil {
		return err
	}

	err = s.createFramebuffers()
	if err != nil {
		return err
	}

	err = s.createSyncObjects()
	if err != nil {
		return err
	}

	return s.checkInvariants()
}

func (s *Swapchain) Framebuffer(index int) core1_0.Framebuffer { return s.framebuffers[index] }
func (s *Swapchain) ImageView(index int) core1_0.ImageView     { return s.imageViews[index] }
func (s *Swapchain) RenderPass() core1_0.RenderPass            { return s.renderPass }
func (s *Swapchain) ImageCount() int                           { return len(s.images) }
func (s *Swapchain) ImageFormat() core1_0.Format               { return s.imageFormat }
func (s *Swapchain) DepthFormat() core1_0.Format               { return s.depthFormat }
func (s *Swapchain) Extent() core1_0.Extent2D                  { return s.extent }
func (s *Swapchain) Width() int                                { return s.extent.Width }
func (s *Swapchain) Height() int                               { return s.extent.Height }

func (s *Swapchain) ExtentAspectRatio() float32 {
	return float32(s.extent.Width) / float32(s.extent.Height)
}

func (s *Swapchain) State() State      { return s.sync.state }
func (s *Swapchain) CurrentFrame() int { return s.sync.current }

// CompareFormats reports whether render passes built for other are
// compatible with this chain.
func (s *Swapchain) CompareFormats(other *Swapchain) bool {
	return other.imageFormat == s.imageFormat && other.depthFormat == s.depthFormat
}

// AcquireNextImage waits for the current frame slot to be free and then
// acquires an image. On ResultOutOfDate nothing may be drawn this frame.
func (s *Swapchain) AcquireNextImage() (int, Result, error) {
	return s.sync.acquire()
}

// SubmitCommandBuffers submits buffer, which renders into the image at
// imageIndex, presents that image and advances to the next frame slot.
func (s *Swapchain) SubmitCommandBuffers(buffer core1_0.CommandBuffer, imageIndex int) (Result, error) {
	return s.sync.submit(buffer, imageIndex)
}

func (s *Swapchain) createSwapchain(previous *Swapchain) error {
	s.extension = khr_swapchain.CreateExtensionFromDevice(s.dev.Handle())

	swapchainSupport, err := s.dev.SwapchainSupport()
	if err != nil {
		return err
	}
	if len(swapchainSupport.Formats) == 0 {
		return errors.New("surface offers no formats")
	}

	surfaceFormat := ChooseSurfaceFormat(swapchainSupport.Formats)
	presentMode := ChoosePresentMode(swapchainSupport.PresentModes)
	extent := ChooseExtent(swapchainSupport.Capabilities, s.windowSize)
	imageCount := ChooseImageCount(swapchainSupport.Capabilities)

	s.log.Infof("Present mode: V-Sync")

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int

	indices, err := s.dev.QueueFamilies()
	if err != nil {
		return err
	}

	if *indices.GraphicsFamily != *indices.PresentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = append(queueFamilyIndices, *indices.GraphicsFamily, *indices.PresentFamily)
	}

	var oldSwapchain khr_swapchain.Swapchain
	if previous != nil {
		oldSwapchain = previous.swapchain
	}

	swapchain, _, err := s.extension.CreateSwapchain(s.dev.Handle(), nil, khr_swapchain.SwapchainCreateInfo{
		Surface: s.dev.Surface(),

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   swapchainSupport.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
		OldSwapchain:   oldSwapchain,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create swap chain")
	}
	s.swapchain = swapchain
	s.extent = extent
	s.imageFormat = surfaceFormat.Format

	return nil
}

func (s *Swapchain) createImageViews() error {
	images, _, err := s.swapchain.SwapchainImages()
	if err != nil {
		return errors.Wrap(err, "failed to get swap chain images")
	}
	s.images = images

	for _, image := range images {
		view, err := s.createImageView(image, s.imageFormat, core1_0.ImageAspectColor)
		if err != nil {
			return errors.Wrap(err, "failed to create image view")
		}

		s.imageViews = append(s.imageViews, view)
	}

	return nil
}

func (s *Swapchain) createImageView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (core1_0.ImageView, error) {
	imageView, _, err := s.dev.Handle().CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	return imageView, err
}

func (s *Swapchain) createRenderPass() error {
	var err error
	s.depthFormat, err = s.dev.FindSupportedFormat(depthFormatCandidates,
		core1_0.ImageTilingOptimal,
		core1_0.FormatFeatureDepthStencilAttachment)
	if err != nil {
		return err
	}

	renderPass, _, err := s.dev.Handle().CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         s.imageFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         s.depthFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpDontCare,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		// Hold attachment writes until the acquired image has been released
		// by the presentation engine.
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create render pass")
	}
	s.renderPass = renderPass

	return nil
}

// createDepthResources gives every swapchain image its own depth buffer.
func (s *Swapchain) createDepthResources() error {
	for range s.images {
		image, memory, err := s.dev.CreateImageWithInfo(core1_0.ImageCreateInfo{
			ImageType: core1_0.ImageType2D,
			Extent: core1_0.Extent3D{
				Width:  s.extent.Width,
				Height: s.extent.Height,
				Depth:  1,
			},
			MipLevels:     1,
			ArrayLayers:   1,
			Format:        s.depthFormat,
			Tiling:        core1_0.ImageTilingOptimal,
			InitialLayout: core1_0.ImageLayoutUndefined,
			Usage:         core1_0.ImageUsageDepthStencilAttachment,
			SharingMode:   core1_0.SharingModeExclusive,
			Samples:       core1_0.Samples1,
		}, core1_0.MemoryPropertyDeviceLocal)
		if err != nil {
			return err
		}
		s.depthImages = append(s.depthImages, image)
		s.depthImageMemorys = append(s.depthImageMemorys, memory)

		view, err := s.createImageView(image, s.depthFormat, core1_0.ImageAspectDepth)
		if err != nil {
			return errors.Wrap(err, "failed to create depth image view")
		}
		s.depthImageViews = append(s.depthImageViews, view)
	}

	return nil
}

func (s *Swapchain) createFramebuffers() error {
	for i, imageView := range s.imageViews {
		framebuffer, _, err := s.dev.Handle().CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
			RenderPass: s.renderPass,
			Layers:     1,
			Attachments: []core1_0.ImageView{
				imageView,
				s.depthImageViews[i],
			},
			Width:  s.extent.Width,
			Height: s.extent.Height,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create framebuffer")
		}

		s.framebuffers = append(s.framebuffers, framebuffer)
	}

	return nil
}

func (s *Swapchain) createSyncObjects() error {
	s.sync = newFrameSync(&vkPresentEngine{
		device:        s.dev.Handle(),
		extension:     s.extension,
		swapchain:     s.swapchain,
		graphicsQueue: s.dev.GraphicsQueue(),
		presentQueue:  s.dev.PresentQueue(),
	}, len(s.images))

	for i := 0; i < MaxFramesInFlight; i++ {
		semaphore, _, err := s.dev.Handle().CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "failed to create synchronization objects for a frame")
		}
		s.sync.imageAvailable = append(s.sync.imageAvailable, semaphore)

		semaphore, _, err = s.dev.Handle().CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
		if err != nil {
			return errors.Wrap(err, "failed to create synchronization objects for a frame")
		}
		s.sync.renderFinished = append(s.sync.renderFinished, semaphore)

		fence, _, err := s.dev.Handle().CreateFence(nil, core1_0.FenceCreateInfo{
			Flags: core1_0.FenceCreateSignaled,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create synchronization objects for a frame")
		}
		s.sync.inFlight = append(s.sync.inFlight, fence)
	}

	return nil
}

// checkInvariants verifies that everything sized by the chain has one entry
// per image and that the frame ring is complete.
func (s *Swapchain) checkInvariants() error {
	imageCount := len(s.images)
	if len(s.imageViews) != imageCount ||
		len(s.depthImages) != imageCount ||
		len(s.depthImageMemorys) != imageCount ||
		len(s.depthImageViews) != imageCount ||
		len(s.framebuffers) != imageCount ||
		len(s.sync.imagesInFlight) != imageCount {
		return errors.AssertionFailedf("swap chain resources out of step: %d images, %d views, %d depth images, %d depth views, %d framebuffers, %d image fences",
			imageCount, len(s.imageViews), len(s.depthImages), len(s.depthImageViews), len(s.framebuffers), len(s.sync.imagesInFlight))
	}

	if len(s.sync.imageAvailable) != MaxFramesInFlight ||
		len(s.sync.renderFinished) != MaxFramesInFlight ||
		len(s.sync.inFlight) != MaxFramesInFlight {
		return errors.AssertionFailedf("frame ring incomplete: %d/%d/%d of %d",
			len(s.sync.imageAvailable), len(s.sync.renderFinished), len(s.sync.inFlight), MaxFramesInFlight)
	}

	return nil
}

// Destroy releases everything in reverse order of creation. The device must
// be idle.
func (s *Swapchain) Destroy() {
	if s.sync != nil {
		for _, fence := range s.sync.inFlight {
			fence.Destroy(nil)
		}
		for _, semaphore := range s.sync.renderFinished {
			semaphore.Destroy(nil)
		}
		for _, semaphore := range s.sync.imageAvailable {
			semaphore.Destroy(nil)
		}
		s.sync = nil
	}

	for _, framebuffer := range s.framebuffers {
		framebuffer.Destroy(nil)
	}
	s.framebuffers = nil

	for _, view := range s.depthImageViews {
		view.Destroy(nil)
	}
	s.depthImageViews = nil

	for _, image := range s.depthImages {
		image.Destroy(nil)
	}
	s.depthImages = nil

	for _, memory := range s.depthImageMemorys {
		memory.Free(nil)
	}
	s.depthImageMemorys = nil

	if s.renderPass != nil {
		s.renderPass.Destroy(nil)
		s.renderPass = nil
	}

	for _, view := range s.imageViews {
		view.Destroy(nil)
	}
	s.imageViews = nil
	s.images = nil

	if s.swapchain != nil {
		s.swapchain.Destroy(nil)
		s.swapchain = nil
	}
}
