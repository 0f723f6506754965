// Package renderer drives the per-frame loop: acquire an image, record the
// draw commands for it, submit and present, and rebuild the swapchain and
// pipeline whenever the surface changes.
package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/breakable-toy/internal/logging"
	"github.com/vkngwrapper/breakable-toy/internal/swapchain"
)

type Chain interface {
	AcquireNextImage() (int, swapchain.Result, error)
	SubmitCommandBuffers(buffer core1_0.CommandBuffer, imageIndex int) (swapchain.Result, error)
	ImageCount() int
	RenderPass() core1_0.RenderPass
	Framebuffer(index int) core1_0.Framebuffer
	Extent() core1_0.Extent2D
	Destroy()
}

type Pipeline interface {
	Bind(buffer core1_0.CommandBuffer)
	Destroy()
}

// Drawable is anything that can bind its buffers and issue its draw.
type Drawable interface {
	Bind(buffer core1_0.CommandBuffer)
	Draw(buffer core1_0.CommandBuffer)
}

type Window interface {
	Extent() core1_0.Extent2D
	WasResized() bool
	ResetResizedFlag()
	WaitEvents()
}

// Backend creates the GPU objects the renderer rebuilds at runtime.
type Backend interface {
	WaitIdle() error
	NewChain(extent core1_0.Extent2D, previous Chain) (Chain, error)
	NewPipeline(chain Chain) (Pipeline, error)
	AllocateCommandBuffers(count int) ([]core1_0.CommandBuffer, error)
	FreeCommandBuffers(buffers []core1_0.CommandBuffer)
}

type Renderer struct {
	window  Window
	backend Backend
	log     *logging.Logger

	drawables  []Drawable
	clearColor mgl32.Vec4

	chain          Chain
	pipeline       Pipeline
	commandBuffers []core1_0.CommandBuffer

	rebuilds int

	// record fills the command buffer for one frame.
	record func(buffer core1_0.CommandBuffer, imageIndex int) error
}

// New builds the first swapchain, its pipeline and one command buffer per
// swapchain image.
func New(window Window, backend Backend, clearColor mgl32.Vec4, log *logging.Logger, drawables ...Drawable) (*Renderer, error) {
	r := &Renderer{
		window:     window,
		backend:    backend,
		log:        log,
		drawables:  drawables,
		clearColor: clearColor,
	}
	r.record = r.recordCommandBuffer

	err := r.RecreateSwapchain()
	if err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// Rebuilds counts how many times the swapchain has been replaced.
func (r *Renderer) Rebuilds() int { return r.rebuilds }

func (r *Renderer) DrawFrame() error {
	imageIndex, res, err := r.chain.AcquireNextImage()
	if err != nil {
		return err
	}

	if res == swapchain.ResultOutOfDate {
		return r.RecreateSwapchain()
	}

	buffer := r.commandBuffers[imageIndex]
	err = r.record(buffer, imageIndex)
	if err != nil {
		return err
	}

	res, err = r.chain.SubmitCommandBuffers(buffer, imageIndex)
	if err != nil {
		return err
	}

	if res == swapchain.ResultOutOfDate || res == swapchain.ResultSuboptimal || r.window.WasResized() {
		r.window.ResetResizedFlag()
		return r.RecreateSwapchain()
	}

	return nil
}

// RecreateSwapchain waits until the window has a drawable area, then
// replaces the swapchain and pipeline. Command buffers are only reallocated
// if the number of swapchain images changed.
func (r *Renderer) RecreateSwapchain() error {
	extent := r.window.Extent()
	for extent.Width == 0 || extent.Height == 0 {
		r.window.WaitEvents()
		extent = r.window.Extent()
	}

	err := r.backend.WaitIdle()
	if err != nil {
		return err
	}

	old := r.chain
	chain, err := r.backend.NewChain(extent, old)
	if err != nil {
		return err
	}
	r.chain = chain

	if old != nil {
		old.Destroy()
		r.rebuilds++
		r.log.Debugf("swap chain recreated at %dx%d", extent.Width, extent.Height)
	}

	if old == nil || chain.ImageCount() != len(r.commandBuffers) {
		r.backend.FreeCommandBuffers(r.commandBuffers)
		r.commandBuffers = nil

		r.commandBuffers, err = r.backend.AllocateCommandBuffers(chain.ImageCount())
		if err != nil {
			return err
		}
	}

	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}

	r.pipeline, err = r.backend.NewPipeline(chain)
	return err
}

func (r *Renderer) recordCommandBuffer(buffer core1_0.CommandBuffer, imageIndex int) error {
	_, err := buffer.Begin(core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return errors.Wrap(err, "failed to begin recording command buffer")
	}

	err = buffer.CmdBeginRenderPass(core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  r.chain.RenderPass(),
			Framebuffer: r.chain.Framebuffer(imageIndex),
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: r.chain.Extent(),
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{r.clearColor[0], r.clearColor[1], r.clearColor[2], r.clearColor[3]},
				core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
			},
		})
	if err != nil {
		return errors.Wrap(err, "failed to begin render pass")
	}

	r.pipeline.Bind(buffer)
	for _, drawable := range r.drawables {
		drawable.Bind(buffer)
		drawable.Draw(buffer)
	}

	buffer.CmdEndRenderPass()

	_, err = buffer.End()
	if err != nil {
		return errors.Wrap(err, "failed to record command buffer")
	}

	return nil
}

// Close releases the command buffers, pipeline and swapchain. The device
// must be idle.
func (r *Renderer) Close() {
	if r.commandBuffers != nil {
		r.backend.FreeCommandBuffers(r.commandBuffers)
		r.commandBuffers = nil
	}

	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}

	if r.chain != nil {
		r.chain.Destroy()
		r.chain = nil
	}
}
