// Package config holds the fixed settings of the demo. There are no flags,
// environment variables or config files; Default is the configuration.
package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/vkngwrapper/breakable-toy/internal/logging"
)

type WindowConfig struct {
	Width  int
	Height int
	Title  string
}

type Config struct {
	Window WindowConfig

	// Validation enables the Khronos validation layer and the debug messenger.
	Validation bool
	LogLevel   logging.Level

	// Shader paths are relative to the executable's directory.
	VertexShader   string
	FragmentShader string

	ClearColor mgl32.Vec4

	// SierpinskiDepth 0 draws the plain triangle.
	SierpinskiDepth int

	// StatsInterval is how often frame statistics are logged; 0 disables them.
	StatsInterval time.Duration
}

func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "Breakable Toy",
		},
		Validation:      true,
		LogLevel:        logging.LevelTrace,
		VertexShader:    "shaders/simple_shader.vert.spv",
		FragmentShader:  "shaders/simple_shader.frag.spv",
		ClearColor:      mgl32.Vec4{0.1, 0.1, 0.1, 1.0},
		SierpinskiDepth: 0,
		StatsInterval:   5 * time.Second,
	}
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.VertexShader == "" || c.FragmentShader == "" {
		return errors.New("vertex and fragment shader paths are required")
	}
	if c.SierpinskiDepth < 0 {
		return errors.Newf("invalid sierpinski depth %d", c.SierpinskiDepth)
	}
	if c.StatsInterval < 0 {
		return errors.Newf("invalid stats interval %s", c.StatsInterval)
	}
	return nil
}
