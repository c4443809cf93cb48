// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the ownership rules that renderer resources follow.
package gfx

// Releasable defines any item holding native memory or handles that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// ReleaseFunc adapts a plain function into a Releasable.
type ReleaseFunc func()

// Release implements Releasable
func (f ReleaseFunc) Release() {
	if f != nil {
		f()
	}
}
