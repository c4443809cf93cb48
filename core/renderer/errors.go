// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Setup faults. Everything returned while building the renderer
// is marked with ErrSetup.
var (
	ErrSetup                       = errors.New("renderer setup failed")
	ErrNoPhysicalDevices           = errors.New("failed to find GPUs with Vulkan support")
	ErrNoAdequateDevice            = errors.New("failed to find a suitable GPU")
	ErrValidationLayersUnavailable = errors.New("validation layers requested, but not available")
	ErrInvalidShader               = errors.New("invalid SPIR-V shader")
)

// Steady state faults, returned while drawing frames.
var (
	// ErrFrameTimeout means a bounded wait expired, the frame
	// was skipped and drawing may continue.
	ErrFrameTimeout = errors.New("frame wait timed out")

	// ErrSwapchainOutOfDate means the surface changed and the
	// presentation chain has to be rebuilt.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")

	ErrDeviceLost  = errors.New("device lost")
	ErrSurfaceLost = errors.New("surface lost")

	ErrClosed = errors.New("renderer is closed")
)

// IsRecoverable reports whether drawing may continue after err.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, ErrFrameTimeout) || errors.Is(err, ErrSwapchainOutOfDate)
}

func setupFault(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, ErrSetup)
}

// vkError turns a failing result into an error named after the call.
// Results that have a meaning for frame pacing are marked accordingly.
func vkError(call string, res vk.Result) error {
	if res == vk.Success {
		return nil
	}
	err := errors.Newf("vk.%s(): %s", call, describeResult(res))
	switch res {
	case vk.Timeout, vk.NotReady:
		return errors.Mark(err, ErrFrameTimeout)
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return errors.Mark(err, ErrSwapchainOutOfDate)
	case vk.ErrorDeviceLost:
		return errors.Mark(err, ErrDeviceLost)
	case vk.ErrorSurfaceLost:
		return errors.Mark(err, ErrSurfaceLost)
	}
	return err
}

func describeResult(res vk.Result) string {
	switch res {
	case vk.Timeout:
		return "timeout"
	case vk.NotReady:
		return "not ready"
	case vk.Suboptimal:
		return "suboptimal"
	}
	if err := vk.Error(res); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("result %d", res)
}
