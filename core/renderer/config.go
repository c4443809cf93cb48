// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import vk "github.com/vulkan-go/vulkan"

// Identification handed to the driver
const (
	EngineName     = "VK_DR"
	DebugReportEXT = "VK_EXT_debug_report"
	SwapchainKHR   = "VK_KHR_swapchain"
	shaderEntry    = "main"
)

// ApplicationInfo describes the application to the Vulkan driver,
// requesting API 1.1.
func ApplicationInfo(name string) *vk.ApplicationInfo {
	return &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 1, 0),
		ApplicationVersion: vk.MakeVersion(0, 0, 1),
		EngineVersion:      vk.MakeVersion(0, 0, 1),
		PApplicationName:   safeString(name),
		PEngineName:        safeString(EngineName),
	}
}
