// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/gfx"
)

// The one draw every command buffer records
const (
	TriangleVertices  = 3
	TriangleInstances = 1
)

// CommandEncoder records commands into the buffer of one swapchain image
type CommandEncoder interface {
	Begin(image int) error
	BeginRenderPass(image int, clear mgl32.Vec4)
	BindPipeline(image int)
	Draw(image int, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	EndRenderPass(image int)
	End(image int) error
}

// RecordTriangle records the clear and triangle draw into each of count buffers
func RecordTriangle(enc CommandEncoder, count int, clear mgl32.Vec4) error {
	for i := 0; i < count; i++ {
		if err := enc.Begin(i); err != nil {
			return errors.Wrapf(err, "command buffer %d", i)
		}
		enc.BeginRenderPass(i, clear)
		enc.BindPipeline(i)
		enc.Draw(i, TriangleVertices, TriangleInstances, 0, 0)
		enc.EndRenderPass(i)
		if err := enc.End(i); err != nil {
			return errors.Wrapf(err, "command buffer %d", i)
		}
	}
	return nil
}

// FrameResources owns a framebuffer and a pre-recorded command buffer
// for every swapchain image, and the pool they are allocated from.
type FrameResources struct {
	dc *DeviceContext
	pc *PresentationChain
	rg *RenderGraph

	framebuffers   []vk.Framebuffer
	commandPool    vk.CommandPool
	commandBuffers []vk.CommandBuffer

	lifetime gfx.Lifetime
}

// NewFrameResources creates framebuffers over the swapchain image views and
// records the command buffers once, for simultaneous use.
func NewFrameResources(dc *DeviceContext, pc *PresentationChain, rg *RenderGraph, clear mgl32.Vec4, log *logrus.Entry) (*FrameResources, error) {
	fr := &FrameResources{dc: dc, pc: pc, rg: rg}
	if err := fr.init(clear); err != nil {
		fr.Release()
		return nil, setupFault(err)
	}
	log.WithField("buffers", len(fr.commandBuffers)).Debug("frame resources recorded")
	return fr, nil
}

func (fr *FrameResources) init(clear mgl32.Vec4) error {
	if err := fr.createFramebuffers(); err != nil {
		return err
	}
	if err := fr.createCommandPool(); err != nil {
		return err
	}
	if err := fr.allocateCommandBuffers(); err != nil {
		return err
	}
	return RecordTriangle(vkEncoder{fr}, len(fr.commandBuffers), clear)
}

func (fr *FrameResources) createFramebuffers() error {
	device := fr.dc.Device()
	extent := fr.pc.Extent()
	for idx, view := range fr.pc.views {
		attachments := []vk.ImageView{view}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      fr.rg.RenderPass(),
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if err := vkError("CreateFramebuffer", vk.CreateFramebuffer(device, &fci, nil, &framebuffer)); err != nil {
			return errors.Wrapf(err, "image %d", idx)
		}
		fr.framebuffers = append(fr.framebuffers, framebuffer)
		fr.lifetime.Defer("framebuffer", func() {
			vk.DestroyFramebuffer(device, framebuffer, nil)
		})
	}
	return nil
}

func (fr *FrameResources) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: fr.dc.Families().Graphics,
	}

	device := fr.dc.Device()
	var commandPool vk.CommandPool
	if err := vkError("CreateCommandPool", vk.CreateCommandPool(device, &cpci, nil, &commandPool)); err != nil {
		return err
	}
	fr.commandPool = commandPool
	fr.lifetime.Defer("command pool", func() {
		vk.DestroyCommandPool(device, commandPool, nil)
	})
	return nil
}

func (fr *FrameResources) allocateCommandBuffers() error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        fr.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(fr.framebuffers)),
	}

	device := fr.dc.Device()
	commandBuffers := make([]vk.CommandBuffer, len(fr.framebuffers))
	if err := vkError("AllocateCommandBuffers", vk.AllocateCommandBuffers(device, &cbai, commandBuffers)); err != nil {
		return err
	}
	fr.commandBuffers = commandBuffers
	pool := fr.commandPool
	fr.lifetime.Defer("command buffers", func() {
		vk.FreeCommandBuffers(device, pool, uint32(len(commandBuffers)), commandBuffers)
	})
	return nil
}

// CommandBuffer returns the recorded buffer for a swapchain image
func (fr *FrameResources) CommandBuffer(image uint32) vk.CommandBuffer {
	return fr.commandBuffers[image]
}

// Release frees the command buffers, the pool and the framebuffers
func (fr *FrameResources) Release() {
	fr.lifetime.Release()
}

// vkEncoder records into the command buffers of FrameResources
type vkEncoder struct {
	fr *FrameResources
}

func (e vkEncoder) Begin(image int) error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
	}
	return vkError("BeginCommandBuffer", vk.BeginCommandBuffer(e.fr.commandBuffers[image], &cbbi))
}

func (e vkEncoder) BeginRenderPass(image int, clear mgl32.Vec4) {
	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  e.fr.rg.RenderPass(),
		Framebuffer: e.fr.framebuffers[image],
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: e.fr.pc.Extent(),
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{vk.NewClearValue(clear[:])},
	}
	vk.CmdBeginRenderPass(e.fr.commandBuffers[image], &rpbi, vk.SubpassContentsInline)
}

func (e vkEncoder) BindPipeline(image int) {
	vk.CmdBindPipeline(e.fr.commandBuffers[image], vk.PipelineBindPointGraphics, e.fr.rg.Pipeline())
}

func (e vkEncoder) Draw(image int, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(e.fr.commandBuffers[image], vertexCount, instanceCount, firstVertex, firstInstance)
}

func (e vkEncoder) EndRenderPass(image int) {
	vk.CmdEndRenderPass(e.fr.commandBuffers[image])
}

func (e vkEncoder) End(image int) error {
	return vkError("EndCommandBuffer", vk.EndCommandBuffer(e.fr.commandBuffers[image]))
}
