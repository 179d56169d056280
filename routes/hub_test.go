package routes_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/treeviz/routes"
	"github.com/wkalt/treeviz/snapshot"
)

func dial(t *testing.T, srv *routes.TestServer) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) routes.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	e := routes.Event{}
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

// handshake sends an invalid message and waits for the error reply, which is
// only delivered once the connection is registered with the hub.
func handshake(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	e := readEvent(t, conn)
	require.Equal(t, routes.EventError, e.Type)
}

func TestWebsocketFrameEvents(t *testing.T) {
	srv := routes.MakeTestRoutes(context.Background(), t, true,
		snapshot.SingleLeaf(3, 10, 20),
		snapshot.SingleLeaf(3, 10),
	)
	conn := dial(t, srv)
	handshake(t, conn)

	resp, body := do(t, http.MethodPost, srv.URL+"/step")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ar := routes.ActionResponse{}
	require.NoError(t, json.Unmarshal(body, &ar))

	e := readEvent(t, conn)
	assert.Equal(t, routes.EventFrame, e.Type)
	assert.Equal(t, ar.Digest, e.Digest)
}

func TestWebsocketPointerMessages(t *testing.T) {
	srv := routes.MakeTestRoutes(context.Background(), t, true, snapshot.SingleLeaf(3, 10, 20))
	conn := dial(t, srv)
	handshake(t, conn)

	send := func(msg routes.PointerMessage) {
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
	}
	send(routes.PointerMessage{Type: routes.PointerDown, X: 50, Y: 150})
	send(routes.PointerMessage{Type: routes.PointerMove, X: 250, Y: 350})
	e := readEvent(t, conn)
	require.Equal(t, routes.EventFrame, e.Type)
	send(routes.PointerMessage{Type: routes.PointerUp, X: 250, Y: 350})

	l := srv.Controller.Layout()
	assert.Equal(t, 250.0, l.Cells[0].X)
	assert.Equal(t, 350.0, l.Cells[0].Y)

	send(routes.PointerMessage{Type: "wheel"})
	e = readEvent(t, conn)
	assert.Equal(t, routes.EventError, e.Type)
	assert.Contains(t, e.Error, "unknown pointer event")
}
