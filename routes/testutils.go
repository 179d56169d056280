package routes

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wkalt/treeviz/controller"
	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/render"
	"github.com/wkalt/treeviz/snapshot"
)

// TestServer is a viewer server backed by a fake backend.
type TestServer struct {
	URL        string
	Backend    *controller.FakeBackend
	Controller *controller.Controller
	Viewer     *Viewer
}

// MakeTestRoutes starts a viewer server over a fake backend serving snaps. If
// load is true the first snapshot is fetched before returning.
func MakeTestRoutes(ctx context.Context, t *testing.T, load bool, snaps ...*snapshot.Snapshot) *TestServer {
	t.Helper()
	ctx, cancel := context.WithCancel(ctx)
	hub := NewHub()
	go hub.Run(ctx)
	viewer, err := NewViewer(hub, render.DefaultPalette(), 1<<20)
	require.NoError(t, err)
	backend := controller.NewFakeBackend(snaps...)
	ctrl := controller.New(backend, viewer, layout.DefaultConfig())
	if load {
		require.NoError(t, ctrl.Refresh(ctx))
	}
	srv := httptest.NewServer(MakeRoutes(ctrl, viewer, hub, []string{"*"}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		viewer.Close()
	})
	return &TestServer{URL: srv.URL, Backend: backend, Controller: ctrl, Viewer: viewer}
}
