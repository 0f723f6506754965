// Package window wraps the SDL2 window the renderer presents into.
//
// All methods must be called from the thread that created the window.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core"
	"github.com/vkngwrapper/core/core1_0"
	"github.com/vkngwrapper/extensions/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2"

	"github.com/vkngwrapper/breakable-toy/internal/config"
	"github.com/vkngwrapper/breakable-toy/internal/logging"
)

type Window struct {
	handle *sdl.Window
	log    *logging.Logger

	closeRequested bool
	resized        bool
}

func New(cfg config.WindowConfig, log *logging.Logger) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "unable to initialise SDL")
	}

	handle, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width), int32(cfg.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "unable to create SDL window")
	}

	log.Debugf("window %q created at %dx%d", cfg.Title, cfg.Width, cfg.Height)
	return &Window{handle: handle, log: log}, nil
}

// Extent is the current drawable size. It is zero while the window is
// minimized.
func (w *Window) Extent() core1_0.Extent2D {
	if (w.handle.GetFlags() & sdl.WINDOW_MINIMIZED) != 0 {
		return core1_0.Extent2D{}
	}
	width, height := w.handle.VulkanGetDrawableSize()
	return core1_0.Extent2D{Width: int(width), Height: int(height)}
}

func (w *Window) ShouldClose() bool {
	return w.closeRequested
}

func (w *Window) WasResized() bool {
	return w.resized
}

func (w *Window) ResetResizedFlag() {
	w.resized = false
}

// PollEvents drains the event queue without blocking.
func (w *Window) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		w.handleEvent(event)
	}
}

// WaitEvents blocks until at least one event arrives, then drains the queue.
func (w *Window) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		w.handleEvent(event)
	}
	w.PollEvents()
}

func (w *Window) handleEvent(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		w.closeRequested = true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			w.closeRequested = true
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			w.resized = true
			w.log.Tracef("window resized to %dx%d", e.Data1, e.Data2)
		}
	}
}

func (w *Window) InstanceExtensions() []string {
	return w.handle.VulkanGetInstanceExtensions()
}

func (w *Window) Loader() (core.Loader, error) {
	loader, err := core.CreateLoaderFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "no Vulkan loader or installable client driver found")
	}
	return loader, nil
}

func (w *Window) CreateSurface(instance core1_0.Instance, surfaceLoader khr_surface.Extension) (khr_surface.Surface, error) {
	surface, err := vkng_sdl2.CreateSurface(instance, surfaceLoader, w.handle)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create window surface")
	}
	return surface, nil
}

func (w *Window) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
	sdl.Quit()
}
