// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package renderer implements a Vulkan renderer that clears a window
// and draws a single triangle, with up to a configured number of
// frames in flight.
package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/devblok/drender/core"
	"github.com/devblok/drender/gfx"
)

// Renderer owns every stage of the Vulkan setup. Stages are created in
// order, each from the ones before it, and released in reverse.
type Renderer struct {
	cfg     core.RendererConfiguration
	window  core.Window
	shaders ShaderSource
	log     *logrus.Entry

	lifetime   gfx.Lifetime
	deviceMark int

	instance  *Instance
	device    *DeviceContext
	chain     *PresentationChain
	graph     *RenderGraph
	frames    *FrameResources
	sync      *SyncObjects
	scheduler *FrameScheduler

	// waitIdle and build are the device barrier and the swapchain
	// stage builder, set to the Vulkan versions by NewRenderer
	waitIdle func() error
	build    func() error

	recreate bool
	closed   bool
}

var _ core.Renderer = (*Renderer)(nil)

// NewRenderer builds the instance, device, presentation chain, render
// graph, frame resources and synchronization for window. On failure
// everything created so far is released.
func NewRenderer(window core.Window, shaders ShaderSource, cfg core.RendererConfiguration, log *logrus.Entry) (*Renderer, error) {
	r := &Renderer{
		cfg:     cfg,
		window:  window,
		shaders: shaders,
		log:     log,
	}
	r.lifetime.OnRelease = func(name string) {
		log.WithField("stage", name).Trace("releasing")
	}

	instance, err := NewInstance(InstanceOptions{
		ApplicationName: cfg.ApplicationName,
		ProcAddr:        window.ProcAddr(),
		Extensions:      window.InstanceExtensions(),
		Validation:      cfg.Validation,
		Layers:          cfg.ValidationLayers,
	}, log)
	if err != nil {
		return nil, err
	}
	r.instance = instance
	r.lifetime.Push("instance", instance)

	deviceOpts := DeviceOptions{Extensions: cfg.DeviceExtensions}
	if cfg.Validation {
		deviceOpts.Layers = cfg.ValidationLayers
	}
	dc, err := NewDeviceContext(instance, window, deviceOpts, log)
	if err != nil {
		r.lifetime.Release()
		return nil, err
	}
	r.device = dc
	r.lifetime.Push("device context", dc)
	r.deviceMark = r.lifetime.Len()
	r.waitIdle = dc.WaitIdle
	r.build = r.buildChain

	if err := r.start(); err != nil {
		r.lifetime.Release()
		return nil, err
	}
	return r, nil
}

// start builds the swapchain stages. A window that starts minimized
// gets them on its first visible frame instead.
func (r *Renderer) start() error {
	if err := r.build(); err != nil {
		if !errors.Is(err, ErrZeroExtent) {
			return err
		}
		r.log.Debug("surface has no extent yet, deferring swapchain creation")
		r.recreate = true
	}
	return nil
}

// buildChain creates everything that depends on the swapchain
func (r *Renderer) buildChain() error {
	width, height := r.window.FramebufferSize()
	if width == 0 || height == 0 {
		width, height = r.cfg.ScreenWidth, r.cfg.ScreenHeight
	}

	chain, err := NewPresentationChain(r.device, width, height, r.log)
	if err != nil {
		return err
	}
	r.chain = chain
	r.lifetime.Push("presentation chain", chain)

	graph, err := NewRenderGraph(r.device, chain, r.shaders, ShaderNames{
		Vertex:   r.cfg.VertexShader,
		Fragment: r.cfg.FragmentShader,
	}, r.log)
	if err != nil {
		r.lifetime.ReleaseTo(r.deviceMark)
		return err
	}
	r.graph = graph
	r.lifetime.Push("render graph", graph)

	frames, err := NewFrameResources(r.device, chain, graph, r.cfg.ClearColor, r.log)
	if err != nil {
		r.lifetime.ReleaseTo(r.deviceMark)
		return err
	}
	r.frames = frames
	r.lifetime.Push("frame resources", frames)

	sync, err := NewSyncObjects(r.device, chain, frames, r.cfg.FramesInFlight)
	if err != nil {
		r.lifetime.ReleaseTo(r.deviceMark)
		return err
	}
	r.sync = sync
	r.lifetime.Push("sync objects", sync)

	r.scheduler = NewFrameScheduler(sync, r.cfg.FrameTimeout.Duration)
	return nil
}

// Recreate rebuilds the swapchain and everything built on it,
// after waiting for the device to finish in-flight work.
func (r *Renderer) Recreate() error {
	if r.closed {
		return ErrClosed
	}
	if err := r.waitIdle(); err != nil {
		return err
	}
	r.scheduler = nil
	r.lifetime.ReleaseTo(r.deviceMark)
	r.chain, r.graph, r.frames, r.sync = nil, nil, nil, nil

	if err := r.build(); err != nil {
		return err
	}
	r.recreate = false
	entry := r.log
	if r.chain != nil {
		entry = entry.WithFields(logrus.Fields{
			"width":  r.chain.Extent().Width,
			"height": r.chain.Extent().Height,
		})
	}
	entry.Debug("swapchain recreated")
	return nil
}

// DrawFrame implements core.Renderer. A surface that changed size is
// rebuilt before drawing, a minimized window draws nothing.
func (r *Renderer) DrawFrame() error {
	if r.closed {
		return ErrClosed
	}
	if r.window.Resized() {
		r.recreate = true
	}
	if r.recreate || r.scheduler == nil {
		if err := r.Recreate(); err != nil {
			if errors.Is(err, ErrZeroExtent) {
				return nil
			}
			return err
		}
	}

	err := r.scheduler.DrawFrame()
	if errors.Is(err, ErrSwapchainOutOfDate) {
		r.recreate = true
		r.log.WithError(err).Debug("swapchain needs recreation")
		return nil
	}
	return err
}

// Close implements core.Renderer. Only the first call releases anything.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.lifetime.Drain(r.waitIdle)
	r.scheduler = nil
	r.log.Debug("renderer released")
	return err
}
