// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import vk "github.com/vulkan-go/vulkan"

// PreferredSurfaceFormat is what the presentation chain asks for first
var PreferredSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Unorm,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}

// ChooseSurfaceFormat picks BGRA8 UNORM in sRGB nonlinear space when
// offered. A lone UNDEFINED entry means the surface has no preference.
// Otherwise the first offered format is used. formats must not be empty.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return PreferredSurfaceFormat
	}
	for _, f := range formats {
		if f.Format == PreferredSurfaceFormat.Format && f.ColorSpace == PreferredSurfaceFormat.ColorSpace {
			return f
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers MAILBOX, then IMMEDIATE. FIFO is
// always available so it's the fallback.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	best := vk.PresentModeFifo
	for _, m := range modes {
		switch m {
		case vk.PresentModeMailbox:
			return m
		case vk.PresentModeImmediate:
			best = m
		}
	}
	return best
}

// ChooseExtent uses the surface's current extent when it is defined,
// otherwise the requested size clamped to what the surface allows.
func ChooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image over the minimum, bounded by the
// maximum when the surface has one.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseSharing returns exclusive sharing when one family draws and
// presents, and concurrent sharing across both families otherwise.
func ChooseSharing(q QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if q.Graphics == q.Present {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, []uint32{q.Graphics, q.Present}
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
