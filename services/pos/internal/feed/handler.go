package feed

import (
	"net/http"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

// Handler mounts the realtime endpoints.
type Handler struct {
	view   *View
	sse    *SSEHandler
	ws     *WSHandler
	logger apt.Logger
	tlm    *telemetry.HTTP
}

func NewHandler(view *View, hub *Hub, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		view:   view,
		sse:    NewSSEHandler(hub, logger),
		ws:     NewWSHandler(hub, logger),
		logger: logger,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.sse.ServeHTTP)
	r.Get("/ws", h.ws.ServeHTTP)
	r.Get("/feed/snapshot", h.Snapshot)
}

// Snapshot handles GET /feed/snapshot, the state a client loads before
// following /events or /ws.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.FeedSnapshot")
	defer finish()

	apt.Respond(w, http.StatusOK, h.view.Snapshot(), nil)
}
