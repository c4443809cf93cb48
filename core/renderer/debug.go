// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"unsafe"

	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

const debugReportAll = vk.DebugReportInformationBit | vk.DebugReportWarningBit |
	vk.DebugReportPerformanceWarningBit | vk.DebugReportErrorBit | vk.DebugReportDebugBit

func (i *Instance) createDebugCallback(log *logrus.Entry) error {
	entry := log.WithField("source", "validation")
	drcci := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(debugReportAll),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
			object uint64, location uint, messageCode int32, pLayerPrefix string,
			pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

			entry.WithFields(logrus.Fields{
				"layer": pLayerPrefix,
				"code":  messageCode,
			}).Log(debugReportLevel(flags), pMessage)
			return vk.Bool32(vk.False)
		},
	}

	var callback vk.DebugReportCallback
	if err := vkError("CreateDebugReportCallback", vk.CreateDebugReportCallback(i.handle, &drcci, nil, &callback)); err != nil {
		return err
	}
	i.debug = callback

	instance := i.handle
	i.lifetime.Defer("debug report callback", func() {
		vk.DestroyDebugReportCallback(instance, callback, nil)
	})
	return nil
}

// debugReportLevel maps report severities to log levels, the most
// severe flag wins. Nothing maps below info, so every layer message
// reaches the default log output while validation is on.
func debugReportLevel(flags vk.DebugReportFlags) logrus.Level {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return logrus.ErrorLevel
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		return logrus.WarnLevel
	}
	return logrus.InfoLevel
}
