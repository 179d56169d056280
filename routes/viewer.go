package routes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/goccy/go-json"
	"github.com/spaolacci/murmur3"
	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/render"
	"github.com/wkalt/treeviz/util/log"
)

/*
The viewer is the display the controller draws into when running as a server.
It keeps the most recent layout and renders it on request. Encoded frames are
cached by format and layout digest, so polling clients and repeated drags back
to an earlier position do not re-render.
*/

////////////////////////////////////////////////////////////////////////////////

// ErrNoFrame is returned when nothing has been drawn yet.
var ErrNoFrame = errors.New("no frame drawn")

// Viewer is a controller display serving rendered frames over HTTP.
type Viewer struct {
	palette render.Palette
	frames  *ristretto.Cache[string, []byte]
	hub     *Hub

	mtx      sync.RWMutex
	layout   *layout.Layout
	capacity int
	digest   uint64
}

// NewViewer returns a viewer with a frame cache bounded to cacheBytes. Each
// drawn frame is announced on hub, if not nil.
func NewViewer(hub *Hub, palette render.Palette, cacheBytes int64) (*Viewer, error) {
	frames, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 10_000,
		MaxCost:     cacheBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create frame cache: %w", err)
	}
	return &Viewer{palette: palette, frames: frames, hub: hub}, nil
}

// Draw records l as the current frame and notifies websocket clients.
func (v *Viewer) Draw(l *layout.Layout, capacity int) {
	digest, err := layoutDigest(l, capacity)
	if err != nil {
		log.Errorw(context.Background(), "failed to digest layout", "error", err)
		return
	}
	v.mtx.Lock()
	v.layout = l
	v.capacity = capacity
	v.digest = digest
	v.mtx.Unlock()
	if v.hub != nil {
		v.hub.Broadcast(Event{Type: EventFrame, Digest: formatDigest(digest)})
	}
}

// Digest returns the digest of the current frame.
func (v *Viewer) Digest() (string, bool) {
	v.mtx.RLock()
	defer v.mtx.RUnlock()
	if v.layout == nil {
		return "", false
	}
	return formatDigest(v.digest), true
}

// Frame returns the current frame encoded in format, along with its digest.
func (v *Viewer) Frame(format render.Format) ([]byte, string, error) {
	v.mtx.RLock()
	l, capacity, digest := v.layout, v.capacity, v.digest
	v.mtx.RUnlock()
	if l == nil {
		return nil, "", ErrNoFrame
	}
	key := string(format) + ":" + formatDigest(digest)
	if data, ok := v.frames.Get(key); ok {
		return data, formatDigest(digest), nil
	}
	buf := &bytes.Buffer{}
	if err := render.Encode(buf, format, l, capacity, v.palette); err != nil {
		return nil, "", err
	}
	data := buf.Bytes()
	v.frames.Set(key, data, int64(len(data)))
	return data, formatDigest(digest), nil
}

// Close releases the frame cache.
func (v *Viewer) Close() {
	v.frames.Close()
}

func layoutDigest(l *layout.Layout, capacity int) (uint64, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return 0, fmt.Errorf("failed to encode layout: %w", err)
	}
	data = strconv.AppendInt(data, int64(capacity), 10)
	return murmur3.Sum64(data), nil
}

func formatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}
