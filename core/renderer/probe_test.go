// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

func family(flags vk.QueueFlagBits, count uint32) vk.QueueFamilyProperties {
	return vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(flags), QueueCount: count}
}

type presentOracle struct {
	supported map[uint32]bool
	asked     []uint32
}

func (p *presentOracle) support(i uint32) (bool, error) {
	p.asked = append(p.asked, i)
	return p.supported[i], nil
}

func TestFindQueueFamiliesSingleFamily(t *testing.T) {
	c := qt.New(t)
	oracle := &presentOracle{supported: map[uint32]bool{0: true, 1: true}}
	families := []vk.QueueFamilyProperties{
		family(vk.QueueGraphicsBit|vk.QueueComputeBit, 16),
		family(vk.QueueTransferBit, 2),
	}

	indices, err := FindQueueFamilies(families, oracle.support)
	c.Assert(err, qt.IsNil)
	c.Assert(indices.IsComplete(), qt.IsTrue)
	c.Assert(indices.Shared(), qt.IsTrue)
	c.Assert(indices.Graphics, qt.Equals, uint32(0))
	c.Assert(indices.Present, qt.Equals, uint32(0))
	c.Assert(indices.Unique(), qt.DeepEquals, []uint32{0})
	// complete after the first family, the second one is never asked about
	c.Assert(oracle.asked, qt.DeepEquals, []uint32{0})
}

func TestFindQueueFamiliesSplitFamilies(t *testing.T) {
	c := qt.New(t)
	oracle := &presentOracle{supported: map[uint32]bool{2: true, 3: true}}
	families := []vk.QueueFamilyProperties{
		family(vk.QueueTransferBit, 1),
		family(vk.QueueGraphicsBit, 1),
		family(vk.QueueComputeBit, 1),
		family(vk.QueueGraphicsBit, 1),
	}

	indices, err := FindQueueFamilies(families, oracle.support)
	c.Assert(err, qt.IsNil)
	c.Assert(indices.IsComplete(), qt.IsTrue)
	c.Assert(indices.Shared(), qt.IsFalse)
	c.Assert(indices.Graphics, qt.Equals, uint32(1))
	c.Assert(indices.Present, qt.Equals, uint32(2))
	c.Assert(indices.Unique(), qt.DeepEquals, []uint32{1, 2})
	c.Assert(oracle.asked, qt.DeepEquals, []uint32{0, 1, 2})
}

func TestFindQueueFamiliesSkipsEmptyFamilies(t *testing.T) {
	c := qt.New(t)
	oracle := &presentOracle{supported: map[uint32]bool{0: true, 1: true}}
	families := []vk.QueueFamilyProperties{
		family(vk.QueueGraphicsBit, 0),
		family(vk.QueueGraphicsBit, 4),
	}

	indices, err := FindQueueFamilies(families, oracle.support)
	c.Assert(err, qt.IsNil)
	c.Assert(indices.Graphics, qt.Equals, uint32(1))
	c.Assert(indices.Present, qt.Equals, uint32(1))
	c.Assert(oracle.asked, qt.DeepEquals, []uint32{1})
}

func TestFindQueueFamiliesIncomplete(t *testing.T) {
	c := qt.New(t)
	oracle := &presentOracle{}
	indices, err := FindQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueGraphicsBit, 1)}, oracle.support)
	c.Assert(err, qt.IsNil)
	c.Assert(indices.HasGraphics, qt.IsTrue)
	c.Assert(indices.HasPresent, qt.IsFalse)
	c.Assert(indices.IsComplete(), qt.IsFalse)

	indices, err = FindQueueFamilies(nil, oracle.support)
	c.Assert(err, qt.IsNil)
	c.Assert(indices.IsComplete(), qt.IsFalse)
	c.Assert(indices.Unique(), qt.HasLen, 0)
}

func TestFindQueueFamiliesOracleError(t *testing.T) {
	boom := errors.New("surface gone")
	_, err := FindQueueFamilies([]vk.QueueFamilyProperties{family(vk.QueueGraphicsBit, 1)}, func(uint32) (bool, error) {
		return false, boom
	})
	qt.Assert(t, errors.Is(err, boom), qt.IsTrue)
}

type fakeDevice struct {
	name       string
	families   []vk.QueueFamilyProperties
	present    map[uint32]bool
	extensions []string
	support    SwapchainSupport

	supportQueries int
}

func (f *fakeDevice) Name() string                              { return f.name }
func (f *fakeDevice) QueueFamilies() []vk.QueueFamilyProperties { return f.families }
func (f *fakeDevice) SurfaceSupport(i uint32) (bool, error)     { return f.present[i], nil }
func (f *fakeDevice) Extensions() ([]string, error)             { return f.extensions, nil }
func (f *fakeDevice) SwapchainSupport() (SwapchainSupport, error) {
	f.supportQueries++
	return f.support, nil
}

func adequateDevice(name string) *fakeDevice {
	return &fakeDevice{
		name:       name,
		families:   []vk.QueueFamilyProperties{family(vk.QueueGraphicsBit, 1)},
		present:    map[uint32]bool{0: true},
		extensions: []string{"VK_KHR_maintenance1", SwapchainKHR},
		support: SwapchainSupport{
			Formats:      []vk.SurfaceFormat{PreferredSurfaceFormat},
			PresentModes: []vk.PresentMode{vk.PresentModeFifo},
		},
	}
}

func TestAssessAdequateDevice(t *testing.T) {
	c := qt.New(t)
	a, err := Assess(adequateDevice("gpu"), []string{SwapchainKHR})
	c.Assert(err, qt.IsNil)
	c.Assert(a.Adequate(), qt.IsTrue)
	c.Assert(a.Reason(), qt.Equals, "")
}

func TestAssessEachConditionIsRequired(t *testing.T) {
	tests := []struct {
		about  string
		mutate func(*fakeDevice)
		reason string
	}{{
		about:  "no graphics family",
		mutate: func(d *fakeDevice) { d.families = []vk.QueueFamilyProperties{family(vk.QueueComputeBit, 1)} },
		reason: "no graphics queue family",
	}, {
		about:  "no present family",
		mutate: func(d *fakeDevice) { d.present = nil },
		reason: "no queue family can present to the surface",
	}, {
		about:  "missing swapchain extension",
		mutate: func(d *fakeDevice) { d.extensions = []string{"VK_KHR_maintenance1"} },
		reason: "missing extensions VK_KHR_swapchain",
	}, {
		about:  "no surface formats",
		mutate: func(d *fakeDevice) { d.support.Formats = nil },
		reason: "surface offers no formats or present modes",
	}, {
		about:  "no present modes",
		mutate: func(d *fakeDevice) { d.support.PresentModes = nil },
		reason: "surface offers no formats or present modes",
	}}

	c := qt.New(t)
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			d := adequateDevice("gpu")
			test.mutate(d)
			a, err := Assess(d, []string{SwapchainKHR})
			c.Assert(err, qt.IsNil)
			c.Assert(a.Adequate(), qt.IsFalse)
			c.Assert(a.Reason(), qt.Equals, test.reason)
		})
	}
}

func TestAssessSkipsSwapchainQueryWithoutExtensions(t *testing.T) {
	c := qt.New(t)
	d := adequateDevice("gpu")
	d.extensions = nil
	a, err := Assess(d, []string{SwapchainKHR})
	c.Assert(err, qt.IsNil)
	c.Assert(a.SwapchainAdequate, qt.IsFalse)
	c.Assert(d.supportQueries, qt.Equals, 0)
}

func TestPickPhysicalDeviceFirstMatch(t *testing.T) {
	c := qt.New(t)
	bad := adequateDevice("integrated")
	bad.extensions = nil
	first := adequateDevice("first")
	second := adequateDevice("second")

	idx, a, err := PickPhysicalDevice([]DeviceQuerier{bad, first, second}, []string{SwapchainKHR})
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 1)
	c.Assert(a.Adequate(), qt.IsTrue)
}

func TestPickPhysicalDeviceFailures(t *testing.T) {
	c := qt.New(t)
	_, _, err := PickPhysicalDevice(nil, []string{SwapchainKHR})
	c.Assert(errors.Is(err, ErrNoPhysicalDevices), qt.IsTrue)

	bad := adequateDevice("integrated")
	bad.present = nil
	_, _, err = PickPhysicalDevice([]DeviceQuerier{bad}, []string{SwapchainKHR})
	c.Assert(errors.Is(err, ErrNoAdequateDevice), qt.IsTrue)
	c.Assert(errors.FlattenDetails(err), qt.Contains, "integrated: no queue family can present to the surface")
}

func TestMissing(t *testing.T) {
	c := qt.New(t)
	c.Assert(missing([]string{"a", "b\x00", "c"}, []string{"c", "a"}), qt.DeepEquals, []string{"b\x00"})
	c.Assert(missing(nil, []string{"a"}), qt.HasLen, 0)
}
