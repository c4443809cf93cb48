// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/core"
)

// SDL is a window backed by SDL2
type SDL struct {
	events

	window *sdl.Window
}

// NewSDL initialises SDL with its Vulkan loader and opens a window
func NewSDL(cfg core.WindowConfiguration, width, height uint32) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}

	flags := uint32(sdl.WINDOW_VULKAN)
	if cfg.Resizable {
		flags |= sdl.WINDOW_RESIZABLE
	}
	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(width),
		int32(height),
		flags)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	return &SDL{window: window}, nil
}

// ProcAddr implements core.Window
func (s *SDL) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// InstanceExtensions implements core.Window
func (s *SDL) InstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

// CreateSurface implements core.Window
func (s *SDL) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return vk.SurfaceFromPointer(uintptr(surface)), nil
}

// FramebufferSize implements core.Window
func (s *SDL) FramebufferSize() (uint32, uint32) {
	w, h := s.window.VulkanGetDrawableSize()
	if w < 0 || h < 0 {
		return 0, 0
	}
	return uint32(w), uint32(h)
}

// PollEvents implements core.Window
func (s *SDL) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.QuitEvent:
			s.closing = true
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				s.closing = true
			}
		case *sdl.WindowEvent:
			switch et.Event {
			case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED,
				sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
				s.resized = true
			}
		}
	}
}

// Destroy implements core.Window
func (s *SDL) Destroy() {
	s.window.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
