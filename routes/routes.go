package routes

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wkalt/treeviz/client"
	"github.com/wkalt/treeviz/controller"
	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/render"
	"github.com/wkalt/treeviz/snapshot"
	"github.com/wkalt/treeviz/util/httputil"
	"github.com/wkalt/treeviz/util/log"
	"github.com/wkalt/treeviz/util/mw"
)

/*
routes exposes the controller over HTTP. The page served at / shows the current
frame and forwards pointer events and button presses back to the controller,
either as POST requests or over the websocket.
*/

////////////////////////////////////////////////////////////////////////////////

//go:embed static/index.html
var indexHTML []byte

// Pointer event names accepted on /pointer/{event} and the websocket.
const (
	PointerDown    = "down"
	PointerMove    = "move"
	PointerUp      = "up"
	PointerContext = "context"
)

// PointerResponse is the response to a pointer event. Hit reports whether the
// event landed on a cell (down, context) or moved one (move).
type PointerResponse struct {
	Event string `json:"event"`
	Hit   bool   `json:"hit"`
}

// ActionResponse summarizes the layout after an action completes.
type ActionResponse struct {
	Nodes  int    `json:"nodes"`
	Cells  int    `json:"cells"`
	Digest string `json:"digest,omitempty"`
}

// MakeRoutes builds the viewer's router.
func MakeRoutes(
	ctrl *controller.Controller,
	viewer *Viewer,
	hub *Hub,
	allowedOrigins []string,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(mw.WithRequestID)
	r.Use(mw.WithCORSAllowedOrigins(allowedOrigins))
	r.HandleFunc("/", newIndexHandler()).Methods("GET")
	r.HandleFunc("/frame.svg", newFrameHandler(viewer, render.FormatSVG)).Methods("GET")
	r.HandleFunc("/frame.png", newFrameHandler(viewer, render.FormatPNG)).Methods("GET")
	r.HandleFunc("/layout", newLayoutHandler(ctrl)).Methods("GET")
	r.HandleFunc("/snapshot", newSnapshotHandler(ctrl)).Methods("GET")
	r.HandleFunc("/pointer/{event}", newPointerHandler(ctrl)).Methods("POST")
	r.HandleFunc("/step", newActionHandler(ctrl, viewer, ctrl.RequestStep)).Methods("POST")
	r.HandleFunc("/reset", newActionHandler(ctrl, viewer, ctrl.RequestReset)).Methods("POST")
	r.HandleFunc("/refresh", newActionHandler(ctrl, viewer, ctrl.Refresh)).Methods("POST")
	r.HandleFunc("/relayout", newActionHandler(ctrl, viewer, func(context.Context) error {
		return ctrl.Relayout()
	})).Methods("POST")
	r.HandleFunc("/delete", newDeleteHandler(ctrl, viewer)).Methods("POST")
	r.HandleFunc("/ws", newWebsocketHandler(ctrl, hub)).Methods("GET")
	return r
}

func newIndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write(indexHTML); err != nil {
			log.Debugw(r.Context(), "error writing index", "error", err)
		}
	}
}

func newFrameHandler(viewer *Viewer, format render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		data, digest, err := viewer.Frame(format)
		if err != nil {
			if errors.Is(err, ErrNoFrame) {
				httputil.NotFound(ctx, w, "no frame drawn yet")
				return
			}
			httputil.InternalServerError(ctx, w, "failed to render frame: %s", err)
			return
		}
		etag := `"` + digest + `"`
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if _, err := w.Write(data); err != nil {
			log.Debugw(ctx, "error writing frame", "error", err)
		}
	}
}

func newLayoutHandler(ctrl *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := ctrl.Layout()
		if l == nil {
			httputil.NotFound(ctx, w, "%s", controller.ErrNotLoaded)
			return
		}
		httputil.WriteJSON(ctx, w, http.StatusOK, l)
	}
}

func newSnapshotHandler(ctrl *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		snap := ctrl.Snapshot()
		if snap == nil {
			httputil.NotFound(ctx, w, "%s", controller.ErrNotLoaded)
			return
		}
		httputil.WriteJSON(ctx, w, http.StatusOK, snap)
	}
}

func newPointerHandler(ctrl *controller.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		event := mux.Vars(r)["event"]
		x, err := parseCoordinate(r, "x")
		if err != nil {
			httputil.BadRequest(ctx, w, "%s", err)
			return
		}
		y, err := parseCoordinate(r, "y")
		if err != nil {
			httputil.BadRequest(ctx, w, "%s", err)
			return
		}
		hit, err := dispatchPointer(ctx, ctrl, event, x, y)
		if err != nil {
			writeActionError(ctx, w, err)
			return
		}
		httputil.WriteJSON(ctx, w, http.StatusOK, PointerResponse{Event: event, Hit: hit})
	}
}

func newActionHandler(
	ctrl *controller.Controller,
	viewer *Viewer,
	action func(context.Context) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log.Infow(ctx, "action request", "path", r.URL.Path)
		if err := action(ctx); err != nil {
			writeActionError(ctx, w, err)
			return
		}
		writeActionResponse(ctx, w, ctrl, viewer)
	}
}

func newDeleteHandler(ctrl *controller.Controller, viewer *Viewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		val := r.URL.Query().Get("val")
		key, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			httputil.BadRequest(ctx, w, "invalid key %q", val)
			return
		}
		log.Infow(ctx, "delete request", "key", key)
		if err := ctrl.DeleteKey(ctx, snapshot.Key(key)); err != nil {
			writeActionError(ctx, w, err)
			return
		}
		writeActionResponse(ctx, w, ctrl, viewer)
	}
}

func writeActionResponse(ctx context.Context, w http.ResponseWriter, ctrl *controller.Controller, viewer *Viewer) {
	resp := ActionResponse{}
	if l := ctrl.Layout(); l != nil {
		resp.Nodes = len(l.Nodes)
		resp.Cells = len(l.Cells)
	}
	if digest, ok := viewer.Digest(); ok {
		resp.Digest = digest
	}
	httputil.WriteJSON(ctx, w, http.StatusOK, resp)
}

// writeActionError maps controller failures onto response codes: a busy
// controller is a conflict, a backend failure is a bad gateway, and a
// snapshot we cannot lay out is our problem.
func writeActionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, controller.ErrBusy):
		httputil.Conflict(ctx, w, "%s", err)
	case errors.Is(err, controller.ErrNotLoaded):
		httputil.NotFound(ctx, w, "%s", err)
	case errors.Is(err, errUnknownPointerEvent):
		httputil.BadRequest(ctx, w, "%s", err)
	case snapshot.IsMalformed(err), errors.Is(err, layout.ErrReferenceCycle):
		httputil.InternalServerError(ctx, w, "backend served an unusable snapshot: %s", err)
	case errors.Is(err, client.APIError{}), errors.Is(err, client.ErrUnavailable):
		httputil.BadGateway(ctx, w, "%s", err)
	default:
		httputil.InternalServerError(ctx, w, "%s", err)
	}
}

var errUnknownPointerEvent = errors.New("unknown pointer event")

// dispatchPointer applies a pointer event to the controller.
func dispatchPointer(ctx context.Context, ctrl *controller.Controller, event string, x, y float64) (bool, error) {
	switch event {
	case PointerDown:
		return ctrl.BeginDrag(x, y), nil
	case PointerMove:
		return ctrl.PointerMove(x, y), nil
	case PointerUp:
		ctrl.EndDrag()
		return false, nil
	case PointerContext:
		return ctrl.RequestDelete(ctx, x, y)
	default:
		return false, fmt.Errorf("%w %q", errUnknownPointerEvent, event)
	}
}

func parseCoordinate(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, fmt.Errorf("missing %s", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}
