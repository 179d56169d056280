package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/snapshot"
	"github.com/wkalt/treeviz/util/log"
	"golang.org/x/sync/semaphore"
)

/*
Package controller owns the debugger's interactive state: the current snapshot,
the layout derived from it, and the cell being dragged, if any.

Pointer operations only touch the local layout and complete synchronously.
Backend actions (step, reset, delete, refresh) each run a full request, fetch,
rebuild and draw sequence. At most one action runs at a time; an action
requested while another is in flight fails immediately with ErrBusy rather than
queueing behind it. A failed action leaves the previous snapshot and layout in
place.
*/

////////////////////////////////////////////////////////////////////////////////

// ErrBusy is returned when a backend action is requested while another is in
// flight.
var ErrBusy = errors.New("another action is in progress")

// ErrNotLoaded is returned by operations that need a snapshot before the first
// successful refresh.
var ErrNotLoaded = errors.New("no snapshot loaded")

// Backend is the tree service the controller drives.
type Backend interface {
	Snapshot(ctx context.Context) (*snapshot.Snapshot, error)
	Step(ctx context.Context) error
	Reset(ctx context.Context) error
	Delete(ctx context.Context, key snapshot.Key) error
}

// Display receives every frame the controller produces. The layout passed to
// Draw is owned by the display.
type Display interface {
	Draw(l *layout.Layout, capacity int)
}

// Controller is the interaction state machine.
type Controller struct {
	backend Backend
	display Display
	cfg     layout.Config
	busy    *semaphore.Weighted

	mtx      sync.Mutex
	snap     *snapshot.Snapshot
	layout   *layout.Layout
	dragging int
}

// New returns a controller with nothing loaded. Call Refresh to fetch the
// first snapshot.
func New(backend Backend, display Display, cfg layout.Config) *Controller {
	return &Controller{
		backend:  backend,
		display:  display,
		cfg:      cfg,
		busy:     semaphore.NewWeighted(1),
		dragging: -1,
	}
}

// Snapshot returns the current snapshot, or nil before the first refresh.
func (c *Controller) Snapshot() *snapshot.Snapshot {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.snap
}

// Layout returns a copy of the current layout, including drag offsets, or nil
// before the first refresh.
func (c *Controller) Layout() *layout.Layout {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.layout == nil {
		return nil
	}
	return c.layout.Clone()
}

// Dragging returns the index of the cell being dragged.
func (c *Controller) Dragging() (int, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.dragging, c.dragging >= 0
}

// HitTestCell returns the index of the first cell containing (x, y).
func (c *Controller) HitTestCell(x, y float64) (int, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.hitTest(x, y)
}

func (c *Controller) hitTest(x, y float64) (int, bool) {
	if c.layout == nil {
		return 0, false
	}
	return c.layout.CellAt(x, y)
}

// BeginDrag starts dragging the cell under (x, y). Missing every cell is not
// an error; it reports false and leaves nothing being dragged.
func (c *Controller) BeginDrag(x, y float64) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	idx, ok := c.hitTest(x, y)
	if !ok {
		c.dragging = -1
		return false
	}
	c.dragging = idx
	return true
}

// PointerMove moves the dragged cell to (x, y) and redraws. It reports false
// and does nothing if no cell is being dragged.
func (c *Controller) PointerMove(x, y float64) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.dragging < 0 || c.layout == nil {
		return false
	}
	if err := c.layout.MoveCell(c.dragging, x, y); err != nil {
		c.dragging = -1
		return false
	}
	c.draw()
	return true
}

// EndDrag stops dragging. The dropped position lasts until the next rebuild.
func (c *Controller) EndDrag() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.dragging = -1
}

// RequestDelete asks the backend to delete the key of the cell under (x, y)
// and refreshes. It reports whether a cell was hit; a miss issues no request
// and succeeds even while another action is in flight.
func (c *Controller) RequestDelete(ctx context.Context, x, y float64) (bool, error) {
	c.mtx.Lock()
	idx, ok := c.hitTest(x, y)
	var key snapshot.Key
	if ok {
		key = c.layout.Cells[idx].Key
	}
	c.mtx.Unlock()
	if !ok {
		return false, nil
	}
	if !c.busy.TryAcquire(1) {
		return true, ErrBusy
	}
	defer c.busy.Release(1)
	ctx = log.AddTags(ctx, "action", "delete", "key", int64(key))
	if err := c.backend.Delete(ctx, key); err != nil {
		return true, fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return true, c.refresh(ctx)
}

// DeleteKey asks the backend to delete key directly, without a hit test, and
// refreshes.
func (c *Controller) DeleteKey(ctx context.Context, key snapshot.Key) error {
	return c.action(log.AddTags(ctx, "action", "delete", "key", int64(key)), func(ctx context.Context) error {
		if err := c.backend.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	})
}

// RequestStep advances the backend's pending operation and refreshes.
func (c *Controller) RequestStep(ctx context.Context) error {
	return c.action(log.AddTags(ctx, "action", "step"), func(ctx context.Context) error {
		if err := c.backend.Step(ctx); err != nil {
			return fmt.Errorf("failed to step: %w", err)
		}
		return nil
	})
}

// RequestReset resets the backend's tree and refreshes.
func (c *Controller) RequestReset(ctx context.Context) error {
	return c.action(log.AddTags(ctx, "action", "reset"), func(ctx context.Context) error {
		if err := c.backend.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}
		return nil
	})
}

// Refresh fetches the current snapshot, rebuilds the layout from scratch and
// redraws. Drag offsets are lost.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.action(log.AddTags(ctx, "action", "refresh"), nil)
}

// Relayout rebuilds the layout from the current snapshot without contacting
// the backend, discarding drag offsets.
func (c *Controller) Relayout() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.snap == nil {
		return ErrNotLoaded
	}
	return c.rebuild(c.snap)
}

// action runs fn, if any, under the busy guard and then refreshes.
func (c *Controller) action(ctx context.Context, fn func(context.Context) error) error {
	if !c.busy.TryAcquire(1) {
		return ErrBusy
	}
	defer c.busy.Release(1)
	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return c.refresh(ctx)
}

func (c *Controller) refresh(ctx context.Context) error {
	snap, err := c.backend.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	digest, err := snap.Digest()
	if err != nil {
		return err
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if err := c.rebuild(snap); err != nil {
		return err
	}
	log.Debugw(ctx, "refreshed",
		"digest", fmt.Sprintf("%016x", digest),
		"nodes", len(c.layout.Nodes),
		"cells", len(c.layout.Cells),
	)
	return nil
}

// rebuild replaces the snapshot and layout and draws. The caller holds mtx.
func (c *Controller) rebuild(snap *snapshot.Snapshot) error {
	l, err := layout.Build(snap, c.cfg)
	if err != nil {
		return err
	}
	c.snap = snap
	c.layout = l
	c.dragging = -1
	c.draw()
	return nil
}

func (c *Controller) draw() {
	if c.display == nil {
		return
	}
	c.display.Draw(c.layout.Clone(), c.snap.NodeCapacity)
}
