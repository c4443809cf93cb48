// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package window

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/drender/core"
)

func TestResizedIsConsumed(t *testing.T) {
	c := qt.New(t)

	var e events
	c.Assert(e.Resized(), qt.IsFalse)

	e.resized = true
	c.Assert(e.Resized(), qt.IsTrue)
	c.Assert(e.Resized(), qt.IsFalse)
}

func TestShouldClose(t *testing.T) {
	c := qt.New(t)

	var e events
	c.Assert(e.ShouldClose(), qt.IsFalse)
	e.closing = true
	c.Assert(e.ShouldClose(), qt.IsTrue)
}

func TestUnknownBackend(t *testing.T) {
	c := qt.New(t)

	w, err := New(core.WindowConfiguration{Backend: "wayland"}, 800, 600)
	c.Assert(err, qt.ErrorMatches, `unknown window backend "wayland"`)
	c.Assert(w, qt.IsNil)
}
