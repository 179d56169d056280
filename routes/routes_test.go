package routes_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/treeviz/client"
	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/routes"
	"github.com/wkalt/treeviz/snapshot"
	"github.com/wkalt/treeviz/util/httputil"
)

func do(t *testing.T, method, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestIndex(t *testing.T) {
	srv := routes.MakeTestRoutes(context.Background(), t, false, snapshot.SingleLeaf(3, 10, 20))
	resp, body := do(t, http.MethodGet, srv.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "/frame.svg")
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	// only the primary button starts or ends a drag
	assert.Regexp(t, `"mousedown", function \(e\) \{\s*if \(e\.button === 0\) pointer\("down", e\)`, string(body))
	assert.Regexp(t, `"mouseup", function \(e\) \{\s*if \(e\.button === 0\) pointer\("up", e\)`, string(body))
}

func TestFrame(t *testing.T) {
	ctx := context.Background()
	t.Run("nothing drawn", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, false, snapshot.SingleLeaf(3, 10, 20))
		resp, _ := do(t, http.MethodGet, srv.URL+"/frame.svg")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
	t.Run("svg", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, true, snapshot.SingleLeaf(3, 10, 20))
		resp, body := do(t, http.MethodGet, srv.URL+"/frame.svg")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
		assert.Contains(t, string(body), ">20</text>")
		etag := resp.Header.Get("ETag")
		require.NotEmpty(t, etag)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/frame.svg", nil)
		require.NoError(t, err)
		req.Header.Set("If-None-Match", etag)
		resp2, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp2.Body.Close()
		assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
	})
	t.Run("png", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, true, snapshot.SingleLeaf(3, 10, 20))
		resp, body := do(t, http.MethodGet, srv.URL+"/frame.png")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.True(t, strings.HasPrefix(string(body), "\x89PNG"))
	})
	t.Run("etag changes after a drag", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, true, snapshot.SingleLeaf(3, 10, 20))
		before, _ := do(t, http.MethodGet, srv.URL+"/frame.svg")
		do(t, http.MethodPost, srv.URL+"/pointer/down?x=50&y=150")
		do(t, http.MethodPost, srv.URL+"/pointer/move?x=300&y=300")
		after, _ := do(t, http.MethodGet, srv.URL+"/frame.svg")
		assert.NotEqual(t, before.Header.Get("ETag"), after.Header.Get("ETag"))
	})
}

func TestLayoutAndSnapshot(t *testing.T) {
	ctx := context.Background()
	t.Run("not loaded", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, false, snapshot.SingleLeaf(3, 10, 20))
		resp, _ := do(t, http.MethodGet, srv.URL+"/layout")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp, _ = do(t, http.MethodGet, srv.URL+"/snapshot")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
	t.Run("loaded", func(t *testing.T) {
		snap := snapshot.SingleLeaf(3, 10, 20)
		snap.ToDelete = snapshot.KeyPtr(20)
		srv := routes.MakeTestRoutes(ctx, t, true, snap)
		resp, body := do(t, http.MethodGet, srv.URL+"/layout")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		l := layout.Layout{}
		require.NoError(t, json.Unmarshal(body, &l))
		require.Len(t, l.Cells, 2)
		assert.Equal(t, 110.0, l.Cells[1].X)
		assert.Contains(t, string(body), `"highlight":"to_delete"`)

		resp, body = do(t, http.MethodGet, srv.URL+"/snapshot")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decoded, err := snapshot.Decode(strings.NewReader(string(body)))
		require.NoError(t, err)
		assert.Equal(t, snap, decoded)
	})
}

func TestPointer(t *testing.T) {
	ctx := context.Background()
	srv := routes.MakeTestRoutes(ctx, t, true, snapshot.SingleLeaf(3, 10, 20), snapshot.SingleLeaf(3, 10))
	cases := []struct {
		assertion string
		path      string
		code      int
		hit       bool
	}{
		{"down on a cell", "/pointer/down?x=50&y=150", http.StatusOK, true},
		{"move while dragging", "/pointer/move?x=400&y=400", http.StatusOK, true},
		{"up", "/pointer/up?x=400&y=400", http.StatusOK, false},
		{"move after release", "/pointer/move?x=10&y=10", http.StatusOK, false},
		{"down on nothing", "/pointer/down?x=900&y=900", http.StatusOK, false},
		{"context on nothing", "/pointer/context?x=900&y=900", http.StatusOK, false},
		{"missing coordinate", "/pointer/down?x=50", http.StatusBadRequest, false},
		{"bad coordinate", "/pointer/down?x=50&y=abc", http.StatusBadRequest, false},
		{"unknown event", "/pointer/wheel?x=1&y=1", http.StatusBadRequest, false},
		{"context on a cell deletes", "/pointer/context?x=110&y=150", http.StatusOK, true},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+c.path)
			require.Equal(t, c.code, resp.StatusCode, string(body))
			if c.code != http.StatusOK {
				return
			}
			pr := routes.PointerResponse{}
			require.NoError(t, json.Unmarshal(body, &pr))
			assert.Equal(t, c.hit, pr.Hit)
		})
	}
	assert.Equal(t, []string{"snapshot", "delete 20", "snapshot"}, srv.Backend.Calls())
}

func TestActions(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		assertion string
		path      string
		calls     []string
		cells     int
	}{
		{"step", "/step", []string{"snapshot", "step", "snapshot"}, 3},
		{"reset", "/reset", []string{"snapshot", "reset", "snapshot"}, 3},
		{"refresh", "/refresh", []string{"snapshot", "snapshot"}, 2},
		{"relayout", "/relayout", []string{"snapshot"}, 2},
		{"delete", "/delete?val=10", []string{"snapshot", "delete 10", "snapshot"}, 3},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			srv := routes.MakeTestRoutes(ctx, t, true,
				snapshot.SingleLeaf(3, 10, 20),
				snapshot.SingleLeaf(3, 20, 30, 40),
			)
			resp, body := do(t, http.MethodPost, srv.URL+c.path)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			ar := routes.ActionResponse{}
			require.NoError(t, json.Unmarshal(body, &ar))
			assert.Equal(t, 1, ar.Nodes)
			assert.Equal(t, c.cells, ar.Cells)
			assert.Len(t, ar.Digest, 16)
			assert.Equal(t, c.calls, srv.Backend.Calls())
		})
	}
}

func TestActionErrors(t *testing.T) {
	ctx := context.Background()
	t.Run("invalid delete key", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, true, snapshot.SingleLeaf(3, 10, 20))
		resp, _ := do(t, http.MethodPost, srv.URL+"/delete?val=ten")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	t.Run("relayout before load", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, false, snapshot.SingleLeaf(3, 10, 20))
		resp, _ := do(t, http.MethodPost, srv.URL+"/relayout")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
	t.Run("backend failure", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, true, snapshot.SingleLeaf(3, 10, 20))
		srv.Backend.Err = client.APIError{Endpoint: "/step", Status: 500, Body: "boom"}
		resp, body := do(t, http.MethodPost, srv.URL+"/step")
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
		er := httputil.ErrorResponse{}
		require.NoError(t, json.Unmarshal(body, &er))
		assert.Contains(t, er.Error, "boom")
	})
	t.Run("malformed snapshot", func(t *testing.T) {
		bad := snapshot.SingleLeaf(3, 10)
		bad.RootNode = snapshot.InnerRef(0)
		srv := routes.MakeTestRoutes(ctx, t, true, snapshot.SingleLeaf(3, 10, 20), bad)
		resp, _ := do(t, http.MethodPost, srv.URL+"/step")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		resp, body := do(t, http.MethodGet, srv.URL+"/layout")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"key":20`)
	})
	t.Run("busy", func(t *testing.T) {
		srv := routes.MakeTestRoutes(ctx, t, true, snapshot.SingleLeaf(3, 10, 20))
		srv.Backend.Block = make(chan struct{})
		done := make(chan int)
		go func() {
			resp, err := http.Post(srv.URL+"/step", "", nil)
			if err != nil {
				done <- 0
				return
			}
			resp.Body.Close()
			done <- resp.StatusCode
		}()
		require.Eventually(t, func() bool {
			return len(srv.Backend.Calls()) == 2
		}, time.Second, time.Millisecond)
		resp, _ := do(t, http.MethodPost, srv.URL+"/reset")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		resp, body := do(t, http.MethodPost, srv.URL+"/pointer/context?x=500&y=500")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"hit":false`)
		close(srv.Backend.Block)
		assert.Equal(t, http.StatusOK, <-done)
	})
}
