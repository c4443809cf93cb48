// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/core"
	"github.com/devblok/drender/device"
	"github.com/devblok/drender/gfx"
)

// DeviceContext owns the surface, the chosen physical device and the
// logical device with its graphics and present queues.
type DeviceContext struct {
	instance *Instance
	surface  vk.Surface
	physical vk.PhysicalDevice
	querier  DeviceQuerier
	device   vk.Device

	families      QueueFamilyIndices
	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	lifetime gfx.Lifetime
}

// DeviceOptions configures logical device creation
type DeviceOptions struct {
	Extensions []string

	// Layers are set on the device for older loaders when validating
	Layers []string
}

// NewDeviceContext creates a surface for window, picks the first adequate
// physical device and creates the logical device on it.
func NewDeviceContext(instance *Instance, window core.Window, opts DeviceOptions, log *logrus.Entry) (*DeviceContext, error) {
	dc := &DeviceContext{instance: instance}
	if err := dc.init(window, opts, log); err != nil {
		dc.Release()
		return nil, setupFault(err)
	}
	return dc, nil
}

func (dc *DeviceContext) init(window core.Window, opts DeviceOptions, log *logrus.Entry) error {
	surface, err := window.CreateSurface(dc.instance.Handle())
	if err != nil {
		return errors.Wrap(err, "window surface")
	}
	dc.surface = surface
	instance := dc.instance.Handle()
	dc.lifetime.Defer("surface", func() {
		vk.DestroySurface(instance, surface, nil)
	})

	devices, err := PhysicalDevices(instance)
	if err != nil {
		return err
	}
	candidates := make([]DeviceQuerier, len(devices))
	for i, pd := range devices {
		candidates[i] = NewDeviceQuerier(pd, surface)
	}
	idx, assessment, err := PickPhysicalDevice(candidates, opts.Extensions)
	if err != nil {
		return err
	}
	dc.physical = devices[idx]
	dc.querier = candidates[idx]
	dc.families = assessment.Families

	info := device.Describe(dc.physical)
	log.WithFields(logrus.Fields{
		"device":   info.Name,
		"type":     info.Type,
		"api":      info.APIVersion,
		"graphics": dc.families.Graphics,
		"present":  dc.families.Present,
	}).Info("physical device selected")

	return dc.createLogicalDevice(opts)
}

func (dc *DeviceContext) createLogicalDevice(opts DeviceOptions) error {
	var queueInfos []vk.DeviceQueueCreateInfo
	for _, family := range dc.families.Unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(opts.Extensions)),
		PpEnabledExtensionNames: safeStrings(opts.Extensions),
		EnabledLayerCount:       uint32(len(opts.Layers)),
		PpEnabledLayerNames:     safeStrings(opts.Layers),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}

	var logicalDevice vk.Device
	if err := vkError("CreateDevice", vk.CreateDevice(dc.physical, &dci, nil, &logicalDevice)); err != nil {
		return err
	}
	dc.device = logicalDevice
	dc.lifetime.Defer("device", func() {
		vk.DestroyDevice(logicalDevice, nil)
	})

	vk.GetDeviceQueue(logicalDevice, dc.families.Graphics, 0, &dc.graphicsQueue)
	vk.GetDeviceQueue(logicalDevice, dc.families.Present, 0, &dc.presentQueue)
	return nil
}

// Device returns the logical device
func (dc *DeviceContext) Device() vk.Device {
	return dc.device
}

// Families returns the queue families in use
func (dc *DeviceContext) Families() QueueFamilyIndices {
	return dc.families
}

// SwapchainSupport queries the surface again, its
// capabilities change with the window
func (dc *DeviceContext) SwapchainSupport() (SwapchainSupport, error) {
	return dc.querier.SwapchainSupport()
}

// WaitIdle blocks until the device finished all work
func (dc *DeviceContext) WaitIdle() error {
	if dc.device == nil {
		return nil
	}
	return vkError("DeviceWaitIdle", vk.DeviceWaitIdle(dc.device))
}

// Release destroys the logical device and the surface
func (dc *DeviceContext) Release() {
	dc.lifetime.Release()
}
