// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the pieces shared by every part of the renderer:
// configuration, the windowing contract and time services.
package core

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Window describes the windowing collaborator the renderer presents to.
// All methods must be called from the thread that created the window.
type Window interface {
	// ProcAddr returns the vkGetInstanceProcAddr loader of the
	// windowing library, it has to be set before any Vulkan call
	ProcAddr() unsafe.Pointer

	// InstanceExtensions lists instance extensions the window
	// system needs for presentation
	InstanceExtensions() []string

	// CreateSurface creates a presentable surface for the instance
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// FramebufferSize returns the drawable size in pixels
	FramebufferSize() (width, height uint32)

	// PollEvents processes pending window events
	PollEvents()

	// ShouldClose reports if the user asked to close the window
	ShouldClose() bool

	// Resized reports whether the framebuffer changed size since
	// the last call, the flag is cleared by the call
	Resized() bool

	// Destroy destroys the window and shuts down the windowing library
	Destroy()
}

// Renderer describes the rendering machinery.
// It's ready to draw as soon as it is constructed.
type Renderer interface {
	// DrawFrame renders and presents a single frame
	DrawFrame() error

	// Close waits for the device to go idle and
	// releases every resource in reverse creation order
	Close() error
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vertex"
	case FragmentShaderType:
		return "fragment"
	}
	return "unknown"
}
