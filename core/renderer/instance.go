// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/gfx"
)

// InstanceOptions configures instance creation
type InstanceOptions struct {
	ApplicationName string

	// ProcAddr is the loader entry point, the system loader
	// is used when nil
	ProcAddr unsafe.Pointer

	// Extensions required by the window system
	Extensions []string

	// Validation enables the validation layers and
	// a debug report callback that logs their messages
	Validation bool
	Layers     []string
}

// Instance owns the Vulkan instance and the debug callback
type Instance struct {
	handle vk.Instance
	debug  vk.DebugReportCallback

	lifetime gfx.Lifetime
}

// NewInstance loads Vulkan, checks the validation layers when they are
// requested and creates the instance.
func NewInstance(opts InstanceOptions, log *logrus.Entry) (*Instance, error) {
	if opts.ProcAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, setupFault(errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()"))
		}
	} else {
		vk.SetGetInstanceProcAddr(opts.ProcAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, setupFault(errors.Wrap(err, "vk.Init()"))
	}

	extensions := append([]string{}, opts.Extensions...)
	var layers []string
	if opts.Validation {
		available, err := InstanceLayers()
		if err != nil {
			return nil, setupFault(err)
		}
		if miss := missing(opts.Layers, available); len(miss) > 0 {
			return nil, setupFault(errors.WithDetailf(ErrValidationLayersUnavailable, "missing %v", miss))
		}
		layers = opts.Layers
		extensions = append(extensions, DebugReportEXT)
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        ApplicationInfo(opts.ApplicationName),
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	i := &Instance{}
	var instance vk.Instance
	if err := vkError("CreateInstance", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, setupFault(err)
	}
	i.handle = instance
	i.lifetime.Defer("instance", func() {
		vk.DestroyInstance(instance, nil)
	})

	if err := vk.InitInstance(instance); err != nil {
		i.Release()
		return nil, setupFault(errors.Wrap(err, "vk.InitInstance()"))
	}

	if opts.Validation {
		if err := i.createDebugCallback(log); err != nil {
			i.Release()
			return nil, setupFault(err)
		}
	}

	log.WithFields(logrus.Fields{
		"extensions": extensions,
		"layers":     layers,
	}).Debug("vulkan instance created")
	return i, nil
}

// Handle returns the Vulkan handle
func (i *Instance) Handle() vk.Instance {
	return i.handle
}

// Release destroys the debug callback and the instance
func (i *Instance) Release() {
	i.lifetime.Release()
}

// InstanceLayers lists the layers the loader can enable
func InstanceLayers() ([]string, error) {
	var count uint32
	if err := vkError("EnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.LayerProperties, count)
	if err := vkError("EnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, props)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range props {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}
