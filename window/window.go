// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window provides the windowing collaborators the renderer draws into.
// Windows must be created and used from the main, locked OS thread.
package window

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/devblok/drender/core"
)

// New opens a window with the configured backend
func New(cfg core.WindowConfiguration, width, height uint32) (core.Window, error) {
	var (
		w   core.Window
		err error
	)
	switch strings.ToLower(cfg.Backend) {
	case core.WindowSDL, "":
		w, err = NewSDL(cfg, width, height)
	case core.WindowGLFW:
		w, err = NewGLFW(cfg, width, height)
	default:
		return nil, errors.Newf("unknown window backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// events keeps the state both backends report through core.Window
type events struct {
	closing bool
	resized bool
}

func (e *events) ShouldClose() bool {
	return e.closing
}

func (e *events) Resized() bool {
	r := e.resized
	e.resized = false
	return r
}
