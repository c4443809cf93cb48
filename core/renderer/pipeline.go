// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/core"
	"github.com/devblok/drender/gfx"
)

// ShaderNames names the two shader stages to load from a ShaderSource
type ShaderNames struct {
	Vertex   string
	Fragment string
}

// RenderGraph owns the render pass and the triangle pipeline
type RenderGraph struct {
	dc *DeviceContext

	renderPass     vk.RenderPass
	pipelineLayout vk.PipelineLayout
	pipeline       vk.Pipeline

	lifetime gfx.Lifetime
}

// NewRenderGraph creates a single pass that clears and stores the swapchain
// image, and a fixed function pipeline that draws without vertex input.
func NewRenderGraph(dc *DeviceContext, pc *PresentationChain, shaders ShaderSource, names ShaderNames, log *logrus.Entry) (*RenderGraph, error) {
	rg := &RenderGraph{dc: dc}
	if err := rg.createRenderPass(pc.Format().Format); err != nil {
		rg.Release()
		return nil, setupFault(err)
	}
	if err := rg.createPipelineLayout(); err != nil {
		rg.Release()
		return nil, setupFault(err)
	}
	if err := rg.createPipeline(pc.Extent(), shaders, names); err != nil {
		rg.Release()
		return nil, setupFault(err)
	}
	log.WithFields(logrus.Fields{
		"vertex":   names.Vertex,
		"fragment": names.Fragment,
	}).Debug("render graph created")
	return rg, nil
}

func (rg *RenderGraph) createRenderPass(format vk.Format) error {
	attachments := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	device := rg.dc.Device()
	var renderPass vk.RenderPass
	if err := vkError("CreateRenderPass", vk.CreateRenderPass(device, &rpci, nil, &renderPass)); err != nil {
		return err
	}
	rg.renderPass = renderPass
	rg.lifetime.Defer("render pass", func() {
		vk.DestroyRenderPass(device, renderPass, nil)
	})
	return nil
}

func (rg *RenderGraph) createPipelineLayout() error {
	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}

	device := rg.dc.Device()
	var pipelineLayout vk.PipelineLayout
	if err := vkError("CreatePipelineLayout", vk.CreatePipelineLayout(device, &plci, nil, &pipelineLayout)); err != nil {
		return err
	}
	rg.pipelineLayout = pipelineLayout
	rg.lifetime.Defer("pipeline layout", func() {
		vk.DestroyPipelineLayout(device, pipelineLayout, nil)
	})
	return nil
}

func (rg *RenderGraph) createPipeline(extent vk.Extent2D, shaders ShaderSource, names ShaderNames) error {
	device := rg.dc.Device()

	vertCode, err := LoadShader(shaders, names.Vertex)
	if err != nil {
		return err
	}
	fragCode, err := LoadShader(shaders, names.Fragment)
	if err != nil {
		return err
	}

	vertModule, err := createShaderModule(device, vertCode, core.VertexShaderType)
	if err != nil {
		return err
	}
	// Modules are only needed while the pipeline is created
	defer vk.DestroyShaderModule(device, vertModule, nil)

	fragModule, err := createShaderModule(device, fragCode, core.FragmentShaderType)
	if err != nil {
		return err
	}
	defer vk.DestroyShaderModule(device, fragModule, nil)

	stages := []vk.PipelineShaderStageCreateInfo{{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageVertexBit,
		Module: vertModule,
		PName:  safeString(shaderEntry),
	}, {
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageFragmentBit,
		Module: fragModule,
		PName:  safeString(shaderEntry),
	}}

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports:    []vk.Viewport{viewport},
			ScissorCount:  1,
			PScissors:     []vk.Rect2D{scissor},
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
			MinSampleShading:     1.0,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: vk.ColorComponentFlags(
					vk.ColorComponentRBit | vk.ColorComponentGBit |
						vk.ColorComponentBBit | vk.ColorComponentABit,
				),
				BlendEnable: vk.False,
			}},
		},
		Layout:     rg.pipelineLayout,
		RenderPass: rg.renderPass,
		Subpass:    0,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vkError("CreateGraphicsPipelines", vk.CreateGraphicsPipelines(device, nil, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		return err
	}
	pipeline := pipelines[0]
	rg.pipeline = pipeline
	rg.lifetime.Defer("pipeline", func() {
		vk.DestroyPipeline(device, pipeline, nil)
	})
	return nil
}

// RenderPass returns the render pass handle
func (rg *RenderGraph) RenderPass() vk.RenderPass {
	return rg.renderPass
}

// Pipeline returns the graphics pipeline handle
func (rg *RenderGraph) Pipeline() vk.Pipeline {
	return rg.pipeline
}

// Release destroys the pipeline, its layout and the render pass
func (rg *RenderGraph) Release() {
	rg.lifetime.Release()
}
