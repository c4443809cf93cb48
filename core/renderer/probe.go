// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilyIndices holds the queue families chosen for drawing
// and for presentation. A family is only valid when its Has flag is set.
type QueueFamilyIndices struct {
	Graphics    uint32
	Present     uint32
	HasGraphics bool
	HasPresent  bool
}

// IsComplete reports whether both roles have a family
func (q QueueFamilyIndices) IsComplete() bool {
	return q.HasGraphics && q.HasPresent
}

// Shared reports whether a single family serves both roles
func (q QueueFamilyIndices) Shared() bool {
	return q.IsComplete() && q.Graphics == q.Present
}

// Unique returns the distinct families, graphics first
func (q QueueFamilyIndices) Unique() []uint32 {
	var out []uint32
	if q.HasGraphics {
		out = append(out, q.Graphics)
	}
	if q.HasPresent && (!q.HasGraphics || q.Present != q.Graphics) {
		out = append(out, q.Present)
	}
	return out
}

// PresentSupport answers whether a queue family can present to the surface
type PresentSupport func(family uint32) (bool, error)

// FindQueueFamilies scans families in order and takes the first one
// with graphics capability and the first one able to present. Families
// without queues are skipped, scanning stops once both are found.
func FindQueueFamilies(families []vk.QueueFamilyProperties, present PresentSupport) (QueueFamilyIndices, error) {
	var indices QueueFamilyIndices
	for i, family := range families {
		if family.QueueCount == 0 {
			continue
		}
		idx := uint32(i)

		if !indices.HasGraphics && family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.Graphics = idx
			indices.HasGraphics = true
		}

		if !indices.HasPresent {
			supported, err := present(idx)
			if err != nil {
				return indices, err
			}
			if supported {
				indices.Present = idx
				indices.HasPresent = true
			}
		}

		if indices.IsComplete() {
			break
		}
	}
	return indices, nil
}

// SwapchainSupport is what a surface offers on a given device
type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Adequate reports whether a swapchain can be built at all
func (s SwapchainSupport) Adequate() bool {
	return len(s.Formats) > 0 && len(s.PresentModes) > 0
}

// DeviceQuerier answers the capability questions asked about a physical
// device against the target surface.
type DeviceQuerier interface {
	// Name identifies the device in diagnostics
	Name() string

	// QueueFamilies lists queue family properties in index order
	QueueFamilies() []vk.QueueFamilyProperties

	// SurfaceSupport reports if family can present to the surface
	SurfaceSupport(family uint32) (bool, error)

	// Extensions lists supported device extension names
	Extensions() ([]string, error)

	// SwapchainSupport describes the surface on this device
	SwapchainSupport() (SwapchainSupport, error)
}

// Assessment is the result of checking a device for adequacy
type Assessment struct {
	Families          QueueFamilyIndices
	MissingExtensions []string
	Support           SwapchainSupport
	SwapchainAdequate bool
}

// Adequate reports whether the device can run the renderer
func (a Assessment) Adequate() bool {
	return a.Families.IsComplete() && len(a.MissingExtensions) == 0 && a.SwapchainAdequate
}

// Reason describes why a device isn't adequate, empty if it is
func (a Assessment) Reason() string {
	var reasons []string
	if !a.Families.HasGraphics {
		reasons = append(reasons, "no graphics queue family")
	}
	if !a.Families.HasPresent {
		reasons = append(reasons, "no queue family can present to the surface")
	}
	if len(a.MissingExtensions) > 0 {
		reasons = append(reasons, "missing extensions "+strings.Join(a.MissingExtensions, ", "))
	} else if !a.SwapchainAdequate {
		reasons = append(reasons, "surface offers no formats or present modes")
	}
	return strings.Join(reasons, "; ")
}

// Assess checks a device for queue families, required extensions and
// swapchain support. Swapchain support is only queried when every
// required extension is available.
func Assess(q DeviceQuerier, required []string) (Assessment, error) {
	var a Assessment

	families, err := FindQueueFamilies(q.QueueFamilies(), q.SurfaceSupport)
	if err != nil {
		return a, err
	}
	a.Families = families

	available, err := q.Extensions()
	if err != nil {
		return a, err
	}
	a.MissingExtensions = missing(required, available)

	if len(a.MissingExtensions) == 0 {
		support, err := q.SwapchainSupport()
		if err != nil {
			return a, err
		}
		a.Support = support
		a.SwapchainAdequate = support.Adequate()
	}
	return a, nil
}

// PickPhysicalDevice returns the index of the first adequate candidate
// along with its assessment.
func PickPhysicalDevice(candidates []DeviceQuerier, required []string) (int, Assessment, error) {
	if len(candidates) == 0 {
		return -1, Assessment{}, ErrNoPhysicalDevices
	}

	var rejected []string
	for i, c := range candidates {
		a, err := Assess(c, required)
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("%s: %v", c.Name(), err))
			continue
		}
		if a.Adequate() {
			return i, a, nil
		}
		rejected = append(rejected, fmt.Sprintf("%s: %s", c.Name(), a.Reason()))
	}
	return -1, Assessment{}, errors.WithDetail(ErrNoAdequateDevice, strings.Join(rejected, "\n"))
}
