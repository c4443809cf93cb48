// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"time"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/gfx"
)

// SyncObjects implements FrameSync with a fence and two
// semaphores per slot
type SyncObjects struct {
	device        vk.Device
	swapchain     vk.Swapchain
	graphicsQueue vk.Queue
	presentQueue  vk.Queue
	frames        *FrameResources

	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	inFlight       []vk.Fence

	lifetime gfx.Lifetime
}

// NewSyncObjects creates the synchronization primitives for slots frames
// in flight. Fences start signaled so the first wait on each slot returns.
func NewSyncObjects(dc *DeviceContext, pc *PresentationChain, fr *FrameResources, slots int) (*SyncObjects, error) {
	if slots < 1 {
		return nil, setupFault(errors.Newf("need at least one frame slot, got %d", slots))
	}
	so := &SyncObjects{
		device:        dc.Device(),
		swapchain:     pc.swapchain,
		graphicsQueue: dc.graphicsQueue,
		presentQueue:  dc.presentQueue,
		frames:        fr,
	}
	for i := 0; i < slots; i++ {
		if err := so.createSlot(); err != nil {
			so.Release()
			return nil, setupFault(errors.Wrapf(err, "frame slot %d", i))
		}
	}
	return so, nil
}

func (so *SyncObjects) createSlot() error {
	device := so.device
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var imageAvailable vk.Semaphore
	if err := vkError("CreateSemaphore", vk.CreateSemaphore(device, &sci, nil, &imageAvailable)); err != nil {
		return err
	}
	so.imageAvailable = append(so.imageAvailable, imageAvailable)
	so.lifetime.Defer("image available semaphore", func() {
		vk.DestroySemaphore(device, imageAvailable, nil)
	})

	var renderFinished vk.Semaphore
	if err := vkError("CreateSemaphore", vk.CreateSemaphore(device, &sci, nil, &renderFinished)); err != nil {
		return err
	}
	so.renderFinished = append(so.renderFinished, renderFinished)
	so.lifetime.Defer("render finished semaphore", func() {
		vk.DestroySemaphore(device, renderFinished, nil)
	})

	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	var fence vk.Fence
	if err := vkError("CreateFence", vk.CreateFence(device, &fci, nil, &fence)); err != nil {
		return err
	}
	so.inFlight = append(so.inFlight, fence)
	so.lifetime.Defer("in flight fence", func() {
		vk.DestroyFence(device, fence, nil)
	})
	return nil
}

// timeoutNanos converts a timeout, zero meaning forever
func timeoutNanos(timeout time.Duration) uint64 {
	if timeout <= 0 {
		return vk.MaxUint64
	}
	return uint64(timeout.Nanoseconds())
}

// Slots implements FrameSync
func (so *SyncObjects) Slots() int {
	return len(so.inFlight)
}

// WaitForFence implements FrameSync
func (so *SyncObjects) WaitForFence(slot int, timeout time.Duration) error {
	return vkError("WaitForFences", vk.WaitForFences(so.device, 1, []vk.Fence{so.inFlight[slot]}, vk.True, timeoutNanos(timeout)))
}

// ResetFence implements FrameSync
func (so *SyncObjects) ResetFence(slot int) error {
	return vkError("ResetFences", vk.ResetFences(so.device, 1, []vk.Fence{so.inFlight[slot]}))
}

// AcquireNextImage implements FrameSync. A suboptimal swapchain still
// hands out a usable image, presenting it reports the condition.
func (so *SyncObjects) AcquireNextImage(slot int, timeout time.Duration) (uint32, error) {
	var image uint32
	res := vk.AcquireNextImage(so.device, so.swapchain, timeoutNanos(timeout), so.imageAvailable[slot], vk.NullFence, &image)
	if res == vk.Suboptimal {
		return image, nil
	}
	return image, vkError("AcquireNextImage", res)
}

// Submit implements FrameSync
func (so *SyncObjects) Submit(slot int, image uint32) error {
	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{so.imageAvailable[slot]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{so.frames.CommandBuffer(image)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{so.renderFinished[slot]},
	}}
	return vkError("QueueSubmit", vk.QueueSubmit(so.graphicsQueue, 1, submit, so.inFlight[slot]))
}

// Present implements FrameSync
func (so *SyncObjects) Present(slot int, image uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{so.renderFinished[slot]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{so.swapchain},
		PImageIndices:      []uint32{image},
	}
	return vkError("QueuePresent", vk.QueuePresent(so.presentQueue, &presentInfo))
}

// Release destroys fences and semaphores, newest slot first
func (so *SyncObjects) Release() {
	so.lifetime.Release()
}
