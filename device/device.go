// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device describes physical rendering devices.
package device

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	APIVersion    string
	Name          string
	Type          string
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        vk.DeviceSize
	QueueFamilies []QueueFamilyInfo
}

// QueueFamilyInfo describes one queue family of a device
type QueueFamilyInfo struct {
	Index    int
	Queues   int
	Graphics bool
	Compute  bool
	Transfer bool
}

// Version formats a packed Vulkan version number
func Version(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>22, (v>>12)&0x3ff, v&0xfff)
}

// TypeName names a physical device type
func TypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "other"
}

// DescribeQueueFamilies turns queue family properties into a report
func DescribeQueueFamilies(families []vk.QueueFamilyProperties) []QueueFamilyInfo {
	infos := make([]QueueFamilyInfo, len(families))
	for i, f := range families {
		infos[i] = QueueFamilyInfo{
			Index:    i,
			Queues:   int(f.QueueCount),
			Graphics: f.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Compute:  f.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0,
			Transfer: f.QueueFlags&vk.QueueFlags(vk.QueueTransferBit) != 0,
		}
	}
	return infos
}
