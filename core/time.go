// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/loov/hrtime"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{
		fps:           cfg.FramesPerSecond,
		statsInterval: cfg.StatsInterval.Duration,
	}
	if cfg.FramesPerSecond > 0 {
		t.fpsTicker = time.NewTicker(time.Second / time.Duration(cfg.FramesPerSecond))
	}
	return t
}

// Time contains all the time services and tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	statsInterval time.Duration
	counter       FrameCounter
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// Pace blocks until the next frame is due. Uncapped
// services return immediately.
func (t *Time) Pace(ctx context.Context) error {
	if t.fpsTicker == nil {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.fpsTicker.C:
		return nil
	}
}

// Counter returns the frame counter of this service
func (t *Time) Counter() *FrameCounter {
	return &t.counter
}

// Report calls fn with frame statistics every stats interval until
// ctx is done. It returns immediately when reporting is disabled.
func (t *Time) Report(ctx context.Context, fn func(FrameStats)) error {
	if t.statsInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(t.statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(t.counter.Snapshot())
		}
	}
}

// Stop releases the tickers
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
}

// FrameStats summarises the frames recorded since the last snapshot
type FrameStats struct {
	Frames int64
	Mean   time.Duration
}

// FrameCounter measures frame times with a high resolution clock.
// It is safe to record from one goroutine and snapshot from another.
type FrameCounter struct {
	frames int64
	total  int64
}

// Start returns a timestamp to hand to Stop
func (f *FrameCounter) Start() time.Duration {
	return hrtime.Now()
}

// Stop records a frame that started at start
func (f *FrameCounter) Stop(start time.Duration) {
	f.Record(hrtime.Since(start))
}

// Record adds a frame of the given duration
func (f *FrameCounter) Record(d time.Duration) {
	atomic.AddInt64(&f.frames, 1)
	atomic.AddInt64(&f.total, int64(d))
}

// Snapshot returns the statistics so far and resets the counter
func (f *FrameCounter) Snapshot() FrameStats {
	frames := atomic.SwapInt64(&f.frames, 0)
	total := atomic.SwapInt64(&f.total, 0)
	stats := FrameStats{Frames: frames}
	if frames > 0 {
		stats.Mean = time.Duration(total / frames)
	}
	return stats
}
