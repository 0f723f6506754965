// Command breakabletoy opens a window and draws a colored triangle with
// Vulkan. The compiled shaders are loaded from a shaders directory next to
// the executable.
package main

//go:generate glslc ../../shaders/simple_shader.vert -o ../../shaders/simple_shader.vert.spv
//go:generate glslc ../../shaders/simple_shader.frag -o ../../shaders/simple_shader.frag.spv

import (
	"os"
	"runtime"

	"github.com/vkngwrapper/breakable-toy/internal/app"
	"github.com/vkngwrapper/breakable-toy/internal/assets"
	"github.com/vkngwrapper/breakable-toy/internal/config"
	"github.com/vkngwrapper/breakable-toy/internal/logging"
)

func init() {
	// SDL and the Vulkan surface must stay on the main thread.
	runtime.LockOSThread()
}

func run(cfg config.Config, log *logging.Logger) error {
	err := cfg.Validate()
	if err != nil {
		return err
	}

	shaders, err := assets.FromExecutable(log)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, shaders, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run()
}

func main() {
	cfg := config.Default()
	log := logging.New(os.Stderr, cfg.LogLevel)

	err := run(cfg, log)
	if err != nil {
		log.Criticalf("%+v", err)
		log.Close()
		os.Exit(1)
	}

	log.Close()
}
