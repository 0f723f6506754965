package renderer

import (
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/breakable-toy/internal/device"
	"github.com/vkngwrapper/breakable-toy/internal/logging"
	"github.com/vkngwrapper/breakable-toy/internal/model"
	"github.com/vkngwrapper/breakable-toy/internal/pipeline"
	"github.com/vkngwrapper/breakable-toy/internal/swapchain"
)

// ShaderPaths names the compiled shaders the pipeline is built from.
type ShaderPaths struct {
	Vertex   string
	Fragment string
}

type vkBackend struct {
	dev     *device.Device
	shaders pipeline.ShaderSource
	paths   ShaderPaths
	layout  core1_0.PipelineLayout
	log     *logging.Logger
}

// NewBackend builds swapchains on dev and pipelines for model.Vertex input
// with the given layout.
func NewBackend(dev *device.Device, shaders pipeline.ShaderSource, paths ShaderPaths, layout core1_0.PipelineLayout, log *logging.Logger) Backend {
	return &vkBackend{
		dev:     dev,
		shaders: shaders,
		paths:   paths,
		layout:  layout,
		log:     log,
	}
}

func (b *vkBackend) WaitIdle() error {
	return b.dev.WaitIdle()
}

func (b *vkBackend) NewChain(extent core1_0.Extent2D, previous Chain) (Chain, error) {
	var old *swapchain.Swapchain
	if previous != nil {
		old = previous.(*swapchain.Swapchain)
	}

	chain, err := swapchain.New(b.dev, extent, old, b.log)
	if err != nil {
		return nil, err
	}

	if old != nil && !chain.CompareFormats(old) {
		b.log.Warnf("swap chain image or depth format has changed")
	}

	return chain, nil
}

func (b *vkBackend) NewPipeline(chain Chain) (Pipeline, error) {
	extent := chain.Extent()

	cfg := pipeline.DefaultConfigInfo(extent.Width, extent.Height)
	cfg.RenderPass = chain.RenderPass()
	cfg.Layout = b.layout
	cfg.BindingDescriptions = model.BindingDescriptions()
	cfg.AttributeDescriptions = model.AttributeDescriptions()

	p, err := pipeline.New(b.dev, b.shaders, b.paths.Vertex, b.paths.Fragment, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *vkBackend) AllocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error) {
	return b.dev.AllocateCommandBuffers(count)
}

func (b *vkBackend) FreeCommandBuffers(buffers []core1_0.CommandBuffer) {
	b.dev.FreeCommandBuffers(buffers)
}
