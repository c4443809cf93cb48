// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// physicalDevice answers capability queries through the Vulkan API
type physicalDevice struct {
	handle  vk.PhysicalDevice
	surface vk.Surface
}

// NewDeviceQuerier wraps a physical device for probing against surface
func NewDeviceQuerier(handle vk.PhysicalDevice, surface vk.Surface) DeviceQuerier {
	return physicalDevice{handle: handle, surface: surface}
}

func (p physicalDevice) Name() string {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(p.handle, &props)
	props.Deref()
	return vk.ToString(props.DeviceName[:])
}

func (p physicalDevice) QueueFamilies() []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.handle, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.handle, &count, families)
	for i := range families {
		families[i].Deref()
	}
	return families
}

func (p physicalDevice) SurfaceSupport(family uint32) (bool, error) {
	var supported vk.Bool32
	if err := vkError("GetPhysicalDeviceSurfaceSupport", vk.GetPhysicalDeviceSurfaceSupport(p.handle, family, p.surface, &supported)); err != nil {
		return false, err
	}
	return supported == vk.True, nil
}

func (p physicalDevice) Extensions() ([]string, error) {
	return DeviceExtensions(p.handle)
}

func (p physicalDevice) SwapchainSupport() (SwapchainSupport, error) {
	var support SwapchainSupport

	if err := vkError("GetPhysicalDeviceSurfaceCapabilities", vk.GetPhysicalDeviceSurfaceCapabilities(p.handle, p.surface, &support.Capabilities)); err != nil {
		return support, err
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vkError("GetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(p.handle, p.surface, &formatCount, nil)); err != nil {
		return support, err
	}
	if formatCount > 0 {
		support.Formats = make([]vk.SurfaceFormat, formatCount)
		if err := vkError("GetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(p.handle, p.surface, &formatCount, support.Formats)); err != nil {
			return support, err
		}
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	var modeCount uint32
	if err := vkError("GetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(p.handle, p.surface, &modeCount, nil)); err != nil {
		return support, err
	}
	if modeCount > 0 {
		support.PresentModes = make([]vk.PresentMode, modeCount)
		if err := vkError("GetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(p.handle, p.surface, &modeCount, support.PresentModes)); err != nil {
			return support, err
		}
	}
	return support, nil
}

// DeviceExtensions lists the extensions a physical device supports
func DeviceExtensions(handle vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vkError("EnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(handle, "", &count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vkError("EnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(handle, "", &count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range props {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// PhysicalDevices enumerates the physical devices of an instance
func PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := vkError("EnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoPhysicalDevices
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vkError("EnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(instance, &count, devices)); err != nil {
		return nil, errors.WithStack(err)
	}
	return devices[:count], nil
}
