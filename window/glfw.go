// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/core"
)

// GLFW is a window backed by GLFW
type GLFW struct {
	events

	window *glfw.Window
}

// NewGLFW initialises GLFW and opens a window without a client API
func NewGLFW(cfg core.WindowConfiguration, width, height uint32) (*GLFW, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init()")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw: vulkan loader not found")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if cfg.Resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	window, err := glfw.CreateWindow(int(width), int(height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw.CreateWindow()")
	}

	g := &GLFW{window: window}
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		g.resized = true
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})
	return g, nil
}

// ProcAddr implements core.Window
func (g *GLFW) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// InstanceExtensions implements core.Window
func (g *GLFW) InstanceExtensions() []string {
	return g.window.GetRequiredInstanceExtensions()
}

// CreateSurface implements core.Window
func (g *GLFW) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := g.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "glfw.CreateWindowSurface()")
	}
	return vk.SurfaceFromPointer(surface), nil
}

// FramebufferSize implements core.Window
func (g *GLFW) FramebufferSize() (uint32, uint32) {
	w, h := g.window.GetFramebufferSize()
	if w < 0 || h < 0 {
		return 0, 0
	}
	return uint32(w), uint32(h)
}

// PollEvents implements core.Window
func (g *GLFW) PollEvents() {
	glfw.PollEvents()
	if g.window.ShouldClose() {
		g.closing = true
	}
}

// Destroy implements core.Window
func (g *GLFW) Destroy() {
	g.window.Destroy()
	glfw.Terminate()
}
