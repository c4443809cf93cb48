// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/drender/core"
)

func TestVkErrorClassification(t *testing.T) {
	tests := []struct {
		result      vk.Result
		marker      error
		recoverable bool
	}{
		{vk.Timeout, ErrFrameTimeout, true},
		{vk.NotReady, ErrFrameTimeout, true},
		{vk.ErrorOutOfDate, ErrSwapchainOutOfDate, true},
		{vk.Suboptimal, ErrSwapchainOutOfDate, true},
		{vk.ErrorDeviceLost, ErrDeviceLost, false},
		{vk.ErrorSurfaceLost, ErrSurfaceLost, false},
	}

	c := qt.New(t)
	for _, test := range tests {
		err := vkError("WaitForFences", test.result)
		c.Assert(err, qt.IsNotNil)
		c.Assert(errors.Is(err, test.marker), qt.IsTrue, qt.Commentf("result %d", test.result))
		c.Assert(IsRecoverable(err), qt.Equals, test.recoverable, qt.Commentf("result %d", test.result))
	}

	c.Assert(vkError("CreateDevice", vk.Success), qt.IsNil)
	err := vkError("CreateDevice", vk.ErrorOutOfHostMemory)
	c.Assert(err, qt.ErrorMatches, `vk\.CreateDevice\(\): .+`)
	c.Assert(IsRecoverable(err), qt.IsFalse)
}

func TestTimeoutIsNotDeviceLost(t *testing.T) {
	c := qt.New(t)
	err := vkError("WaitForFences", vk.Timeout)
	c.Assert(errors.Is(err, ErrDeviceLost), qt.IsFalse)
	c.Assert(err, qt.ErrorMatches, `vk\.WaitForFences\(\): timeout`)
}

func TestSetupFault(t *testing.T) {
	c := qt.New(t)
	c.Assert(setupFault(nil), qt.IsNil)
	err := setupFault(errors.Wrap(ErrNoAdequateDevice, "device context"))
	c.Assert(errors.Is(err, ErrSetup), qt.IsTrue)
	c.Assert(errors.Is(err, ErrNoAdequateDevice), qt.IsTrue)
	c.Assert(IsRecoverable(err), qt.IsFalse)
}

func TestTimeoutNanos(t *testing.T) {
	c := qt.New(t)
	c.Assert(timeoutNanos(0), qt.Equals, uint64(vk.MaxUint64))
	c.Assert(timeoutNanos(time.Millisecond), qt.Equals, uint64(1000000))
}

func TestDebugReportLevel(t *testing.T) {
	c := qt.New(t)
	c.Assert(debugReportLevel(vk.DebugReportFlags(vk.DebugReportErrorBit|vk.DebugReportWarningBit)), qt.Equals, logrus.ErrorLevel)
	c.Assert(debugReportLevel(vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit)), qt.Equals, logrus.WarnLevel)
	c.Assert(debugReportLevel(vk.DebugReportFlags(vk.DebugReportInformationBit)), qt.Equals, logrus.InfoLevel)
	c.Assert(debugReportLevel(vk.DebugReportFlags(vk.DebugReportDebugBit)), qt.Equals, logrus.InfoLevel)

	// verbose layer output shows up with the stock configuration
	logger := logrus.New()
	c.Assert(core.DefaultConfiguration().Log.Apply(logger), qt.IsNil)
	for _, bit := range []vk.DebugReportFlagBits{
		vk.DebugReportDebugBit, vk.DebugReportInformationBit,
		vk.DebugReportWarningBit, vk.DebugReportPerformanceWarningBit, vk.DebugReportErrorBit,
	} {
		c.Assert(logger.IsLevelEnabled(debugReportLevel(vk.DebugReportFlags(bit))), qt.IsTrue, qt.Commentf("flag %d", bit))
	}
}

func TestApplicationInfo(t *testing.T) {
	c := qt.New(t)
	info := ApplicationInfo("Vulkan Deferred Renderer")
	c.Assert(info.PApplicationName, qt.Equals, "Vulkan Deferred Renderer\x00")
	c.Assert(info.PEngineName, qt.Equals, "VK_DR\x00")
	c.Assert(info.ApiVersion, qt.Equals, vk.MakeVersion(1, 1, 0))
	c.Assert(safeStrings([]string{"a", "b\x00"}), qt.DeepEquals, []string{"a\x00", "b\x00"})
}
