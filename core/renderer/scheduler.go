// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"time"
)

// FrameSync is the GPU side of frame scheduling. Each slot has a fence
// that is signaled when the slot's last submission finished, and
// semaphores ordering acquire, render and present.
type FrameSync interface {
	// Slots returns the number of frames that may be in flight
	Slots() int

	// WaitForFence blocks until the slot's fence is signaled.
	// A zero timeout waits forever.
	WaitForFence(slot int, timeout time.Duration) error

	// ResetFence unsignals the slot's fence
	ResetFence(slot int) error

	// AcquireNextImage gets the index of the next presentable image,
	// signaling the slot's image available semaphore
	AcquireNextImage(slot int, timeout time.Duration) (uint32, error)

	// Submit queues the command buffer of image, signaling the
	// slot's fence once the GPU is done with it
	Submit(slot int, image uint32) error

	// Present queues image for presentation after rendering finished
	Present(slot int, image uint32) error
}

// FrameScheduler paces frames over a fixed ring of slots so that
// no more than Slots frames are ever in flight.
type FrameScheduler struct {
	sync    FrameSync
	slots   int
	current int
	timeout time.Duration
}

// NewFrameScheduler creates a scheduler starting at slot 0
func NewFrameScheduler(sync FrameSync, timeout time.Duration) *FrameScheduler {
	return &FrameScheduler{
		sync:    sync,
		slots:   sync.Slots(),
		timeout: timeout,
	}
}

// Current returns the slot the next frame will use
func (s *FrameScheduler) Current() int {
	return s.current
}

// DrawFrame waits for the current slot to be free, acquires an image,
// submits its command buffer, presents it and advances to the next slot.
//
// The fence is reset only after an image was acquired, so a failed or
// timed out acquire leaves the slot usable. A failure before submission
// doesn't advance the cursor.
func (s *FrameScheduler) DrawFrame() error {
	slot := s.current

	if err := s.sync.WaitForFence(slot, s.timeout); err != nil {
		return err
	}

	image, err := s.sync.AcquireNextImage(slot, s.timeout)
	if err != nil {
		return err
	}

	if err := s.sync.ResetFence(slot); err != nil {
		return err
	}

	if err := s.sync.Submit(slot, image); err != nil {
		return err
	}

	err = s.sync.Present(slot, image)
	s.current = (s.current + 1) % s.slots
	return err
}
