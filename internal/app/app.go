// Package app wires the window, device, model and renderer together and runs
// the event loop.
package app

import (
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/breakable-toy/internal/config"
	"github.com/vkngwrapper/breakable-toy/internal/device"
	"github.com/vkngwrapper/breakable-toy/internal/logging"
	"github.com/vkngwrapper/breakable-toy/internal/model"
	"github.com/vkngwrapper/breakable-toy/internal/pipeline"
	"github.com/vkngwrapper/breakable-toy/internal/renderer"
	"github.com/vkngwrapper/breakable-toy/internal/window"
)

type App struct {
	cfg config.Config
	log *logging.Logger

	window         *window.Window
	device         *device.Device
	model          *model.Model
	pipelineLayout core1_0.PipelineLayout
	renderer       *renderer.Renderer

	stats *frameStats
}

// Vertices is the geometry drawn for cfg.
func Vertices(cfg config.Config) []model.Vertex {
	tri := model.Triangle()
	return model.Sierpinski(cfg.SierpinskiDepth, tri[0], tri[1], tri[2])
}

func New(cfg config.Config, shaders pipeline.ShaderSource, log *logging.Logger) (*App, error) {
	a := &App{
		cfg:   cfg,
		log:   log,
		stats: newFrameStats(cfg.StatsInterval, log),
	}

	err := a.init(shaders)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) init(shaders pipeline.ShaderSource) error {
	var err error
	a.window, err = window.New(a.cfg.Window, a.log)
	if err != nil {
		return err
	}

	a.device, err = device.New(a.window, a.cfg.Validation, a.log)
	if err != nil {
		return err
	}

	vertices := Vertices(a.cfg)
	a.model, err = model.New(a.device, vertices)
	if err != nil {
		return err
	}
	a.log.Debugf("model loaded with %d vertices", a.model.VertexCount())

	a.pipelineLayout, err = pipeline.CreateLayout(a.device)
	if err != nil {
		return err
	}

	backend := renderer.NewBackend(a.device, shaders, renderer.ShaderPaths{
		Vertex:   a.cfg.VertexShader,
		Fragment: a.cfg.FragmentShader,
	}, a.pipelineLayout, a.log)

	a.renderer, err = renderer.New(a.window, backend, a.cfg.ClearColor, a.log, a.model)
	return err
}

// Run polls events and draws until the window is closed, then waits for
// the device to go idle.
func (a *App) Run() error {
	for !a.window.ShouldClose() {
		a.window.PollEvents()

		start := a.stats.begin()
		err := a.renderer.DrawFrame()
		if err != nil {
			return err
		}
		a.stats.end(start)
	}

	a.log.Infof("window closed after %d swap chain rebuilds", a.renderer.Rebuilds())
	return a.device.WaitIdle()
}

// Close tears everything down in reverse order of creation. It is safe to
// call on a partially built App.
func (a *App) Close() {
	if a.device != nil && a.device.Handle() != nil {
		if err := a.device.WaitIdle(); err != nil {
			a.log.Errorf("%v", err)
		}
	}

	if a.renderer != nil {
		a.renderer.Close()
		a.renderer = nil
	}

	if a.pipelineLayout != nil {
		a.pipelineLayout.Destroy(nil)
		a.pipelineLayout = nil
	}

	if a.model != nil {
		a.model.Destroy()
		a.model = nil
	}

	if a.device != nil {
		a.device.Destroy()
		a.device = nil
	}

	if a.window != nil {
		a.window.Destroy()
		a.window = nil
	}
}
