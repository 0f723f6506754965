package pipeline

import (
	"testing"

	"github.com/vkngwrapper/core/core1_0"
)

type testLayout struct{ core1_0.PipelineLayout }

type testRenderPass struct{ core1_0.RenderPass }

// failingSource fails the test if New gets as far as loading shaders.
type failingSource struct{ t *testing.T }

func (s failingSource) ReadSPIRV(rel string) ([]uint32, error) {
	s.t.Fatalf("ReadSPIRV(%q) called before the config was checked", rel)
	return nil, nil
}

func TestDefaultConfigInfo(t *testing.T) {
	cfg := DefaultConfigInfo(1280, 720)

	if cfg.Viewport.Width != 1280 || cfg.Viewport.Height != 720 {
		t.Fatalf("viewport\nhave %vx%v\nwant 1280x720", cfg.Viewport.Width, cfg.Viewport.Height)
	}
	if cfg.Viewport.MinDepth != 0 || cfg.Viewport.MaxDepth != 1 {
		t.Fatalf("viewport depth range\nhave [%v, %v]\nwant [0, 1]", cfg.Viewport.MinDepth, cfg.Viewport.MaxDepth)
	}
	if want := (core1_0.Extent2D{Width: 1280, Height: 720}); cfg.Scissor.Extent != want {
		t.Fatalf("scissor\nhave %v\nwant %v", cfg.Scissor.Extent, want)
	}
	if cfg.InputAssembly.Topology != core1_0.PrimitiveTopologyTriangleList {
		t.Fatalf("topology\nhave %v\nwant %v", cfg.InputAssembly.Topology, core1_0.PrimitiveTopologyTriangleList)
	}
	if cfg.Rasterization.PolygonMode != core1_0.PolygonModeFill {
		t.Fatalf("polygon mode\nhave %v\nwant %v", cfg.Rasterization.PolygonMode, core1_0.PolygonModeFill)
	}
	if cfg.Rasterization.CullMode != 0 {
		t.Fatalf("cull mode\nhave %v\nwant none", cfg.Rasterization.CullMode)
	}
	if cfg.Rasterization.FrontFace != core1_0.FrontFaceClockwise {
		t.Fatalf("front face\nhave %v\nwant %v", cfg.Rasterization.FrontFace, core1_0.FrontFaceClockwise)
	}
	if cfg.Rasterization.LineWidth != 1 {
		t.Fatalf("line width\nhave %v\nwant 1", cfg.Rasterization.LineWidth)
	}
	if cfg.Multisample.RasterizationSamples != core1_0.Samples1 {
		t.Fatalf("samples\nhave %v\nwant %v", cfg.Multisample.RasterizationSamples, core1_0.Samples1)
	}
	if cfg.ColorBlendAttachment.BlendEnabled {
		t.Fatal("blending enabled by default")
	}
	if !cfg.DepthStencil.DepthTestEnable || !cfg.DepthStencil.DepthWriteEnable {
		t.Fatal("depth test and write disabled by default")
	}
	if cfg.DepthStencil.DepthCompareOp != core1_0.CompareOpLess {
		t.Fatalf("depth compare\nhave %v\nwant %v", cfg.DepthStencil.DepthCompareOp, core1_0.CompareOpLess)
	}
	if cfg.Layout != nil || cfg.RenderPass != nil || cfg.Subpass != 0 {
		t.Fatal("default config carries a layout, render pass or subpass")
	}
}

func TestNewRequiresLayoutAndRenderPass(t *testing.T) {
	cases := []struct {
		name   string
		layout core1_0.PipelineLayout
		pass   core1_0.RenderPass
	}{
		{"no layout", nil, &testRenderPass{}},
		{"no render pass", &testLayout{}, nil},
		{"neither", nil, nil},
	}
	for _, c := range cases {
		cfg := DefaultConfigInfo(800, 600)
		cfg.Layout = c.layout
		cfg.RenderPass = c.pass

		p, err := New(nil, failingSource{t}, "a.spv", "b.spv", cfg)
		if err == nil {
			t.Fatalf("%s: want error", c.name)
		}
		if p != nil {
			t.Fatalf("%s: have pipeline alongside error", c.name)
		}
	}
}
