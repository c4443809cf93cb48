// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	vk "github.com/vulkan-go/vulkan"
)

// Describe collects what the driver reports about a physical device.
// Failing queries mark the info Invalid instead of aborting.
func Describe(pd vk.PhysicalDevice) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	// Get extension info
	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, nil)); err != nil {
		info.Invalid = true
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(pd, "", &numDeviceExtensions, deviceExt)); err != nil {
		info.Invalid = true
	}
	for _, ext := range deviceExt {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	// Get layers info
	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, nil)); err != nil {
		info.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(pd, &numDeviceLayers, deviceLayers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	// Get memory info
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		heap := memoryProperties.MemoryHeaps[iMem]
		heap.Deref()
		info.Memory += heap.Size
	}

	// Get queue families
	var numFamilies uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &numFamilies, nil)
	families := make([]vk.QueueFamilyProperties, numFamilies)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &numFamilies, families)
	for i := range families {
		families[i].Deref()
	}
	info.QueueFamilies = DescribeQueueFamilies(families)

	// Get general device info
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	info.ID = int(props.DeviceID)
	info.VendorID = int(props.VendorID)
	info.Name = vk.ToString(props.DeviceName[:])
	info.DriverVersion = int(props.DriverVersion)
	info.APIVersion = Version(props.ApiVersion)
	info.Type = TypeName(props.DeviceType)
	return info
}

// DescribeAll describes every physical device of the instance
func DescribeAll(instance vk.Instance) ([]PhysicalDeviceInfo, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)); err != nil {
		return nil, err
	}
	infos := make([]PhysicalDeviceInfo, 0, deviceCount)
	for _, pd := range devices[:deviceCount] {
		infos = append(infos, Describe(pd))
	}
	return infos, nil
}
