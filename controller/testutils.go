package controller

import (
	"context"
	"sync"

	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/snapshot"
)

/*
Fakes for exercising the controller without a live backend.
*/

////////////////////////////////////////////////////////////////////////////////

// FakeBackend serves a fixed sequence of snapshots and records every call.
// Each Step, Reset or Delete advances to the next snapshot in the sequence,
// staying on the last one once exhausted.
type FakeBackend struct {
	mtx       sync.Mutex
	snapshots []*snapshot.Snapshot
	current   int
	calls     []string

	// Err, if set, is returned from every call.
	Err error
	// Block, if set, is received from before each mutating call returns.
	Block chan struct{}
}

// NewFakeBackend returns a backend serving snapshots in order.
func NewFakeBackend(snapshots ...*snapshot.Snapshot) *FakeBackend {
	return &FakeBackend{snapshots: snapshots}
}

// Calls returns the calls made so far, e.g. "snapshot", "delete 20".
func (f *FakeBackend) Calls() []string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]string{}, f.calls...)
}

func (f *FakeBackend) record(call string) error {
	f.mtx.Lock()
	f.calls = append(f.calls, call)
	err := f.Err
	f.mtx.Unlock()
	return err
}

func (f *FakeBackend) advance(ctx context.Context, call string) error {
	if err := f.record(call); err != nil {
		return err
	}
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.current < len(f.snapshots)-1 {
		f.current++
	}
	return nil
}

func (f *FakeBackend) Snapshot(context.Context) (*snapshot.Snapshot, error) {
	if err := f.record("snapshot"); err != nil {
		return nil, err
	}
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.snapshots[f.current], nil
}

func (f *FakeBackend) Step(ctx context.Context) error {
	return f.advance(ctx, "step")
}

func (f *FakeBackend) Reset(ctx context.Context) error {
	return f.advance(ctx, "reset")
}

func (f *FakeBackend) Delete(ctx context.Context, key snapshot.Key) error {
	return f.advance(ctx, "delete "+key.String())
}

// RecordingDisplay keeps every frame drawn to it.
type RecordingDisplay struct {
	mtx    sync.Mutex
	frames []*layout.Layout
}

func (d *RecordingDisplay) Draw(l *layout.Layout, _ int) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.frames = append(d.frames, l)
}

// Frames returns the number of frames drawn.
func (d *RecordingDisplay) Frames() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return len(d.frames)
}

// Last returns the most recent frame, or nil.
func (d *RecordingDisplay) Last() *layout.Layout {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if len(d.frames) == 0 {
		return nil
	}
	return d.frames[len(d.frames)-1]
}
