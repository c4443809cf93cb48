// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/gfx"
)

// PresentationChain owns the swapchain and a view for each of its images
type PresentationChain struct {
	dc *DeviceContext

	swapchain   vk.Swapchain
	format      vk.SurfaceFormat
	presentMode vk.PresentMode
	extent      vk.Extent2D
	images      []vk.Image
	views       []vk.ImageView

	lifetime gfx.Lifetime
}

// ErrZeroExtent is returned when the surface has no area to present to,
// usually because the window is minimized
var ErrZeroExtent = errors.New("surface extent is zero")

// NewPresentationChain negotiates format, present mode, extent and image
// count with the surface and creates the swapchain for a width by height window.
func NewPresentationChain(dc *DeviceContext, width, height uint32, log *logrus.Entry) (*PresentationChain, error) {
	pc := &PresentationChain{dc: dc}
	if err := pc.init(width, height, log); err != nil {
		pc.Release()
		return nil, setupFault(err)
	}
	return pc, nil
}

func (pc *PresentationChain) init(width, height uint32, log *logrus.Entry) error {
	support, err := pc.dc.SwapchainSupport()
	if err != nil {
		return err
	}
	if !support.Adequate() {
		return errors.New("surface offers no formats or present modes")
	}
	caps := support.Capabilities

	pc.format = ChooseSurfaceFormat(support.Formats)
	pc.presentMode = ChoosePresentMode(support.PresentModes)
	pc.extent = ChooseExtent(caps, width, height)
	if pc.extent.Width == 0 || pc.extent.Height == 0 {
		return ErrZeroExtent
	}
	imageCount := ChooseImageCount(caps)
	sharing, families := ChooseSharing(pc.dc.Families())

	scci := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               pc.dc.surface,
		MinImageCount:         imageCount,
		ImageFormat:           pc.format.Format,
		ImageColorSpace:       pc.format.ColorSpace,
		ImageExtent:           pc.extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharing,
		QueueFamilyIndexCount: uint32(len(families)),
		PQueueFamilyIndices:   families,
		PreTransform:          caps.CurrentTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           pc.presentMode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}

	device := pc.dc.Device()
	var swapchain vk.Swapchain
	if err := vkError("CreateSwapchain", vk.CreateSwapchain(device, &scci, nil, &swapchain)); err != nil {
		return err
	}
	pc.swapchain = swapchain
	pc.lifetime.Defer("swapchain", func() {
		vk.DestroySwapchain(device, swapchain, nil)
	})

	var numImages uint32
	if err := vkError("GetSwapchainImages", vk.GetSwapchainImages(device, swapchain, &numImages, nil)); err != nil {
		return err
	}
	pc.images = make([]vk.Image, numImages)
	if err := vkError("GetSwapchainImages", vk.GetSwapchainImages(device, swapchain, &numImages, pc.images)); err != nil {
		return err
	}

	if err := pc.createImageViews(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"width":   pc.extent.Width,
		"height":  pc.extent.Height,
		"images":  len(pc.images),
		"format":  pc.format.Format,
		"present": pc.presentMode,
		"sharing": sharing,
	}).Debug("swapchain created")
	return nil
}

func (pc *PresentationChain) createImageViews() error {
	device := pc.dc.Device()
	for idx, image := range pc.images {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   pc.format.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		if err := vkError("CreateImageView", vk.CreateImageView(device, &ivci, nil, &imageView)); err != nil {
			return errors.Wrapf(err, "image %d", idx)
		}
		pc.views = append(pc.views, imageView)
		pc.lifetime.Defer("image view", func() {
			vk.DestroyImageView(device, imageView, nil)
		})
	}
	return nil
}

// Format returns the negotiated surface format
func (pc *PresentationChain) Format() vk.SurfaceFormat {
	return pc.format
}

// Extent returns the size of the swapchain images
func (pc *PresentationChain) Extent() vk.Extent2D {
	return pc.extent
}

// ImageCount returns the number of swapchain images
func (pc *PresentationChain) ImageCount() int {
	return len(pc.images)
}

// Release destroys the image views and the swapchain
func (pc *PresentationChain) Release() {
	pc.lifetime.Release()
}
