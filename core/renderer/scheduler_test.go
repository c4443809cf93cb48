// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
)

// stubGPU models fences as channels that are closed when signaled.
// Unless autoComplete is set submitted work never finishes on its own.
type stubGPU struct {
	mu           sync.Mutex
	fences       []chan struct{}
	images       uint32
	nextImage    uint32
	autoComplete bool

	calls   []string
	submits int

	acquireErr error
	presentErr error
}

func newStubGPU(slots int, images uint32, autoComplete bool) *stubGPU {
	g := &stubGPU{images: images, autoComplete: autoComplete}
	for i := 0; i < slots; i++ {
		signaled := make(chan struct{})
		close(signaled)
		g.fences = append(g.fences, signaled)
	}
	return g
}

func (g *stubGPU) record(format string, args ...interface{}) {
	g.calls = append(g.calls, fmt.Sprintf(format, args...))
}

func (g *stubGPU) Slots() int { return len(g.fences) }

func (g *stubGPU) WaitForFence(slot int, timeout time.Duration) error {
	g.mu.Lock()
	g.record("wait %d", slot)
	fence := g.fences[slot]
	g.mu.Unlock()

	if timeout == 0 {
		<-fence
		return nil
	}
	select {
	case <-fence:
		return nil
	case <-time.After(timeout):
		return errors.Mark(errors.New("stub fence timeout"), ErrFrameTimeout)
	}
}

func (g *stubGPU) ResetFence(slot int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("reset %d", slot)
	g.fences[slot] = make(chan struct{})
	return nil
}

func (g *stubGPU) AcquireNextImage(slot int, timeout time.Duration) (uint32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquireErr != nil {
		g.record("acquire %d failed", slot)
		return 0, g.acquireErr
	}
	image := g.nextImage
	g.nextImage = (g.nextImage + 1) % g.images
	g.record("acquire %d -> %d", slot, image)
	return image, nil
}

func (g *stubGPU) Submit(slot int, image uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("submit %d image %d", slot, image)
	g.submits++
	if g.autoComplete {
		close(g.fences[slot])
	}
	return nil
}

func (g *stubGPU) Present(slot int, image uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("present %d image %d", slot, image)
	return g.presentErr
}

// finish signals the fence of slot as the GPU would on completion
func (g *stubGPU) finish(slot int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.fences[slot])
}

func (g *stubGPU) submitted() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submits
}

func TestSchedulerRotatesSlots(t *testing.T) {
	c := qt.New(t)
	gpu := newStubGPU(2, 3, true)
	s := NewFrameScheduler(gpu, 0)

	var slots []int
	for i := 0; i < 5; i++ {
		slots = append(slots, s.Current())
		c.Assert(s.DrawFrame(), qt.IsNil)
	}
	c.Assert(slots, qt.DeepEquals, []int{0, 1, 0, 1, 0})
	c.Assert(s.Current(), qt.Equals, 1)
	c.Assert(gpu.calls[:10], qt.DeepEquals, []string{
		"wait 0", "acquire 0 -> 0", "reset 0", "submit 0 image 0", "present 0 image 0",
		"wait 1", "acquire 1 -> 1", "reset 1", "submit 1 image 1", "present 1 image 1",
	})
	// the command buffer follows the acquired image, not the slot
	c.Assert(gpu.calls[13], qt.Equals, "submit 0 image 2")
	c.Assert(gpu.calls[18], qt.Equals, "submit 1 image 0")
}

func TestSchedulerBlocksThirdFrame(t *testing.T) {
	c := qt.New(t)
	gpu := newStubGPU(2, 3, false)
	s := NewFrameScheduler(gpu, 0)

	c.Assert(s.DrawFrame(), qt.IsNil)
	c.Assert(s.DrawFrame(), qt.IsNil)
	c.Assert(gpu.submitted(), qt.Equals, 2)

	done := make(chan error, 1)
	go func() {
		done <- s.DrawFrame()
	}()

	select {
	case err := <-done:
		c.Fatalf("third frame returned while two frames were in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	c.Assert(gpu.submitted(), qt.Equals, 2)

	gpu.finish(0)
	select {
	case err := <-done:
		c.Assert(err, qt.IsNil)
	case <-time.After(5 * time.Second):
		c.Fatal("third frame never completed after its slot was freed")
	}
	c.Assert(gpu.submitted(), qt.Equals, 3)
	c.Assert(s.Current(), qt.Equals, 1)
}

func TestSchedulerTimeoutIsRecoverable(t *testing.T) {
	c := qt.New(t)
	gpu := newStubGPU(2, 3, false)
	s := NewFrameScheduler(gpu, 10*time.Millisecond)

	c.Assert(s.DrawFrame(), qt.IsNil)
	c.Assert(s.DrawFrame(), qt.IsNil)

	err := s.DrawFrame()
	c.Assert(errors.Is(err, ErrFrameTimeout), qt.IsTrue)
	c.Assert(IsRecoverable(err), qt.IsTrue)
	c.Assert(errors.Is(err, ErrDeviceLost), qt.IsFalse)
	c.Assert(gpu.submitted(), qt.Equals, 2)
	c.Assert(s.Current(), qt.Equals, 0)

	gpu.finish(0)
	c.Assert(s.DrawFrame(), qt.IsNil)
	c.Assert(gpu.submitted(), qt.Equals, 3)
}

func TestSchedulerAcquireFailureKeepsSlotUsable(t *testing.T) {
	c := qt.New(t)
	gpu := newStubGPU(2, 3, true)
	s := NewFrameScheduler(gpu, 0)

	gpu.acquireErr = errors.Mark(errors.New("vk.AcquireNextImage(): out of date"), ErrSwapchainOutOfDate)
	err := s.DrawFrame()
	c.Assert(errors.Is(err, ErrSwapchainOutOfDate), qt.IsTrue)
	c.Assert(gpu.calls, qt.DeepEquals, []string{"wait 0", "acquire 0 failed"})
	c.Assert(s.Current(), qt.Equals, 0)

	// the fence was never reset so the next wait doesn't block
	gpu.acquireErr = nil
	c.Assert(s.DrawFrame(), qt.IsNil)
	c.Assert(gpu.submitted(), qt.Equals, 1)
}

func TestSchedulerPresentFailureStillAdvances(t *testing.T) {
	c := qt.New(t)
	gpu := newStubGPU(2, 3, true)
	s := NewFrameScheduler(gpu, 0)

	gpu.presentErr = errors.Mark(errors.New("vk.QueuePresent(): suboptimal"), ErrSwapchainOutOfDate)
	err := s.DrawFrame()
	c.Assert(IsRecoverable(err), qt.IsTrue)
	c.Assert(s.Current(), qt.Equals, 1)
	c.Assert(gpu.submitted(), qt.Equals, 1)
}

func TestSingleSlotScheduler(t *testing.T) {
	c := qt.New(t)
	gpu := newStubGPU(1, 2, true)
	s := NewFrameScheduler(gpu, 0)
	for i := 0; i < 3; i++ {
		c.Assert(s.DrawFrame(), qt.IsNil)
		c.Assert(s.Current(), qt.Equals, 0)
	}
}
