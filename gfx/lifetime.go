// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "sync"

type entry struct {
	name string
	item Releasable
}

// Lifetime owns a stack of releasables and frees them in the
// reverse order of acquisition. The zero value is ready to use.
type Lifetime struct {
	// OnRelease, when set, is called with the name of every
	// item right before it is released.
	OnRelease func(name string)

	mutex   sync.Mutex
	entries []entry
}

// Push takes ownership of item under a descriptive name.
func (l *Lifetime) Push(name string, item Releasable) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries = append(l.entries, entry{name: name, item: item})
}

// Defer is a shorthand for pushing a ReleaseFunc.
func (l *Lifetime) Defer(name string, fn func()) {
	l.Push(name, ReleaseFunc(fn))
}

// Len returns the number of items currently owned.
func (l *Lifetime) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.entries)
}

// Names lists owned items in acquisition order.
func (l *Lifetime) Names() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.name
	}
	return names
}

// ReleaseTo releases items in reverse order until only mark remain.
// Marks are obtained with Len.
func (l *Lifetime) ReleaseTo(mark int) {
	if mark < 0 {
		mark = 0
	}
	for {
		l.mutex.Lock()
		if len(l.entries) <= mark {
			l.mutex.Unlock()
			return
		}
		last := l.entries[len(l.entries)-1]
		l.entries = l.entries[:len(l.entries)-1]
		l.mutex.Unlock()

		if l.OnRelease != nil {
			l.OnRelease(last.name)
		}
		last.item.Release()
	}
}

// Release frees every owned item, newest first.
func (l *Lifetime) Release() {
	l.ReleaseTo(0)
}

// Drain runs barrier and then releases everything. Items are
// released even if barrier fails, its error is returned.
func (l *Lifetime) Drain(barrier func() error) error {
	var err error
	if barrier != nil {
		err = barrier()
	}
	l.Release()
	return err
}
