package kitchen

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/pos/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/pos/pkg/enums/station"
	"github.com/appetiteclub/pos/services/pos/internal/fault"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type HandlerDeps struct {
	Repo     TicketRepository
	Cache    *TicketStateCache
	Workflow Workflow
	Clock    func() time.Time
}

type Handler struct {
	repo     TicketRepository
	cache    *TicketStateCache
	workflow Workflow
	clock    func() time.Time
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Handler{
		repo:     deps.Repo,
		cache:    deps.Cache,
		workflow: deps.Workflow,
		clock:    clock,
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.ListTickets)
		r.Get("/{id}", h.GetTicket)
		r.Patch("/{id}/start", h.StartTicket)
		r.Patch("/{id}/ready", h.ReadyTicket)
		r.Patch("/{id}/close", h.CloseTicket)
		r.Patch("/{id}/priority", h.SetPriority)
	})
	r.Get("/kitchen/board", h.Board)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// ListTickets handles GET /tickets?station=&status=&order_id=
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTickets")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	q := r.URL.Query()
	stationCode := q.Get("station")
	if stationCode != "" && station.ByName(stationCode) == nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid station")
		return
	}
	status := q.Get("status")
	if status != "" && kitchenstatus.ByName(status) == nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	var tickets []*Ticket
	if orderIDStr := q.Get("order_id"); orderIDStr != "" {
		orderID, err := uuid.Parse(orderIDStr)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}
		if h.repo == nil {
			apt.RespondError(w, http.StatusServiceUnavailable, "Ticket repository unavailable")
			return
		}
		tickets, err = h.repo.FindByOrderID(ctx, orderID)
		if err != nil {
			log.Errorf("cannot list tickets for order: %v", err)
			apt.RespondError(w, fault.HTTPStatus(err), "Could not list tickets")
			return
		}
	} else if h.cache != nil {
		tickets = h.cache.Query(stationCode, status)
	} else if h.repo != nil {
		filter := TicketFilter{Station: stationCode}
		if status != "" {
			filter.Statuses = []string{status}
		}
		var err error
		tickets, err = h.repo.List(ctx, filter)
		if err != nil {
			log.Errorf("cannot list tickets: %v", err)
			apt.RespondError(w, fault.HTTPStatus(err), "Could not list tickets")
			return
		}
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"tickets": h.views(tickets),
	}, nil)
}

// GetTicket handles GET /tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTicket")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	var ticket *Ticket
	if h.cache != nil {
		ticket = h.cache.Get(id)
	}
	if ticket == nil && h.repo != nil {
		var err error
		ticket, err = h.repo.FindByID(r.Context(), id)
		if err != nil && !errors.Is(err, ErrTicketNotFound) {
			log.Errorf("cannot find ticket: %v", err)
			apt.RespondError(w, fault.HTTPStatus(err), "Could not load ticket")
			return
		}
	}
	if ticket == nil {
		apt.RespondError(w, http.StatusNotFound, "Ticket not found")
		return
	}

	apt.Respond(w, http.StatusOK, NewTicketView(ticket, h.clock()), nil)
}

func (h *Handler) StartTicket(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "Handler.StartTicket", ActionStart)
}

func (h *Handler) ReadyTicket(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "Handler.ReadyTicket", ActionReady)
}

func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, "Handler.CloseTicket", ActionClose)
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request, span string, action Action) {
	w, r, finish := h.tlm.Start(w, r, span)
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}
	if h.workflow == nil {
		apt.RespondError(w, http.StatusServiceUnavailable, "Ticket workflow unavailable")
		return
	}

	ticket, err := h.workflow.AdvanceTicket(r.Context(), id, action)
	if err != nil {
		h.respondError(w, log, err, "cannot advance ticket")
		return
	}

	apt.Respond(w, http.StatusOK, NewTicketView(ticket, h.clock()), nil)
}

type priorityPayload struct {
	Priority Priority `json:"priority"`
}

// SetPriority handles PATCH /tickets/{id}/priority
func (h *Handler) SetPriority(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetPriority")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	var payload priorityPayload
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if h.workflow == nil {
		apt.RespondError(w, http.StatusServiceUnavailable, "Ticket workflow unavailable")
		return
	}

	ticket, err := h.workflow.SetTicketPriority(r.Context(), id, payload.Priority)
	if err != nil {
		h.respondError(w, log, err, "cannot set ticket priority")
		return
	}

	apt.Respond(w, http.StatusOK, NewTicketView(ticket, h.clock()), nil)
}

// Board handles GET /kitchen/board?station= and groups the station's
// tickets by status.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Board")
	defer finish()

	stationCode := r.URL.Query().Get("station")
	if stationCode != "" && station.ByName(stationCode) == nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid station")
		return
	}
	if h.cache == nil {
		apt.RespondError(w, http.StatusServiceUnavailable, "Ticket cache unavailable")
		return
	}

	columns := []kitchenstatus.Status{
		kitchenstatus.Statuses.Pending,
		kitchenstatus.Statuses.InProgress,
		kitchenstatus.Statuses.Ready,
	}
	board := make(map[string][]TicketView, len(columns))
	for _, col := range columns {
		board[col.Code()] = h.views(h.cache.Query(stationCode, col.Code()))
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"station": stationCode,
		"columns": board,
	}, nil)
}

func (h *Handler) views(tickets []*Ticket) []TicketView {
	now := h.clock()
	out := make([]TicketView, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, NewTicketView(t, now))
	}
	return out
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid ticket ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, log apt.Logger, err error, msg string) {
	status := fault.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err)
	} else {
		log.Debug(msg, "error", err)
	}
	apt.RespondError(w, status, fault.Message(err))
}
