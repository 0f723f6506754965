// Package pipeline compiles a vertex and fragment shader and a fixed-function
// configuration into a graphics pipeline.
package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/core1_0"

	"github.com/vkngwrapper/breakable-toy/internal/device"
)

// ShaderSource loads compiled SPIR-V by path.
type ShaderSource interface {
	ReadSPIRV(rel string) ([]uint32, error)
}

// ConfigInfo holds everything about a pipeline except its shaders. Layout
// and RenderPass must be set before calling New.
type ConfigInfo struct {
	Viewport core1_0.Viewport
	Scissor  core1_0.Rect2D

	InputAssembly        core1_0.PipelineInputAssemblyStateCreateInfo
	Rasterization        core1_0.PipelineRasterizationStateCreateInfo
	Multisample          core1_0.PipelineMultisampleStateCreateInfo
	ColorBlendAttachment core1_0.PipelineColorBlendAttachmentState
	ColorBlend           core1_0.PipelineColorBlendStateCreateInfo
	DepthStencil         core1_0.PipelineDepthStencilStateCreateInfo

	BindingDescriptions   []core1_0.VertexInputBindingDescription
	AttributeDescriptions []core1_0.VertexInputAttributeDescription

	Layout     core1_0.PipelineLayout
	RenderPass core1_0.RenderPass
	Subpass    int
}

// DefaultConfigInfo draws filled triangle lists over the whole
// width x height target with depth testing and no blending or culling.
func DefaultConfigInfo(width, height int) ConfigInfo {
	return ConfigInfo{
		Viewport: core1_0.Viewport{
			X:        0,
			Y:        0,
			Width:    float32(width),
			Height:   float32(height),
			MinDepth: 0,
			MaxDepth: 1,
		},
		Scissor: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: core1_0.Extent2D{Width: width, Height: height},
		},

		InputAssembly: core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: false,
		},

		Rasterization: core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			CullMode:    0, // no culling
			FrontFace:   core1_0.FrontFaceClockwise,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},

		Multisample: core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  false,
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},

		ColorBlendAttachment: core1_0.PipelineColorBlendAttachmentState{
			BlendEnabled:   false,
			ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
		},
		ColorBlend: core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,
			BlendConstants: [4]float32{0, 0, 0, 0},
		},

		DepthStencil: core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLess,
		},
	}
}

type Pipeline struct {
	dev      *device.Device
	pipeline core1_0.Pipeline
}

func checkConfig(cfg *ConfigInfo) error {
	if cfg.Layout == nil {
		return errors.AssertionFailedf("cannot create graphics pipeline: no pipeline layout provided in config info")
	}
	if cfg.RenderPass == nil {
		return errors.AssertionFailedf("cannot create graphics pipeline: no render pass provided in config info")
	}
	return nil
}

// New reads both shaders in full and builds the pipeline. The shader
// modules only live for the duration of the call.
func New(dev *device.Device, shaders ShaderSource, vertPath, fragPath string, cfg ConfigInfo) (*Pipeline, error) {
	err := checkConfig(&cfg)
	if err != nil {
		return nil, err
	}

	vertCode, err := shaders.ReadSPIRV(vertPath)
	if err != nil {
		return nil, err
	}

	fragCode, err := shaders.ReadSPIRV(fragPath)
	if err != nil {
		return nil, err
	}

	vertShader, _, err := dev.Handle().CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: vertCode,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create shader module %s", vertPath)
	}
	defer vertShader.Destroy(nil)

	fragShader, _, err := dev.Handle().CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: fragCode,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create shader module %s", fragPath)
	}
	defer fragShader.Destroy(nil)

	colorBlend := cfg.ColorBlend
	colorBlend.Attachments = []core1_0.PipelineColorBlendAttachmentState{cfg.ColorBlendAttachment}

	pipelines, _, err := dev.Handle().CreateGraphicsPipelines(nil, nil, []core1_0.GraphicsPipelineCreateInfo{
		{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vertShader,
					Name:   "main",
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fragShader,
					Name:   "main",
				},
			},
			VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
				VertexBindingDescriptions:   cfg.BindingDescriptions,
				VertexAttributeDescriptions: cfg.AttributeDescriptions,
			},
			InputAssemblyState: &cfg.InputAssembly,
			ViewportState: &core1_0.PipelineViewportStateCreateInfo{
				Viewports: []core1_0.Viewport{cfg.Viewport},
				Scissors:  []core1_0.Rect2D{cfg.Scissor},
			},
			RasterizationState: &cfg.Rasterization,
			MultisampleState:   &cfg.Multisample,
			DepthStencilState:  &cfg.DepthStencil,
			ColorBlendState:    &colorBlend,
			Layout:             cfg.Layout,
			RenderPass:         cfg.RenderPass,
			Subpass:            cfg.Subpass,
			BasePipelineIndex:  -1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create graphics pipeline")
	}

	return &Pipeline{dev: dev, pipeline: pipelines[0]}, nil
}

func (p *Pipeline) Bind(buffer core1_0.CommandBuffer) {
	buffer.CmdBindPipeline(core1_0.PipelineBindPointGraphics, p.pipeline)
}

func (p *Pipeline) Destroy() {
	if p.pipeline != nil {
		p.pipeline.Destroy(nil)
		p.pipeline = nil
	}
}

// CreateLayout creates an empty pipeline layout: the shaders take no
// descriptors or push constants.
func CreateLayout(dev *device.Device) (core1_0.PipelineLayout, error) {
	layout, _, err := dev.Handle().CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pipeline layout")
	}
	return layout, nil
}
