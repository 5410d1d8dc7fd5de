package pos

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/pos/pkg/enums/ordertype"
	"github.com/appetiteclub/pos/services/pos/internal/fault"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  apt.Logger
	config  *apt.Config
	tlm     *telemetry.HTTP
}

func NewHandler(service *Service, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		service: service,
		logger:  logger,
		config:  config,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.SubmitOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/payments", h.RecordPayment)
		r.Get("/{id}/payments", h.ListPayments)
		r.Post("/{id}/void", h.VoidOrder)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

// SubmitOrder handles POST /orders
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SubmitOrder")
	defer finish()
	log := h.log(r)

	var req SubmitRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	sub, err := h.service.SubmitOrder(r.Context(), req)
	if err != nil {
		h.respondError(w, log, err, "cannot submit order")
		return
	}

	links := apt.RESTfulLinksFor(sub.Order)
	if !sub.Replayed {
		w.WriteHeader(http.StatusCreated)
	}
	apt.RespondSuccess(w, sub, links...)
}

// ListOrders handles GET /orders?bill_status=&status=&type=&today=true&limit=
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()
	log := h.log(r)

	q := r.URL.Query()
	filter := order.Filter{
		BillStatus: order.BillStatus(q.Get("bill_status")),
		Status:     order.Status(q.Get("status")),
		Type:       q.Get("type"),
	}
	switch filter.BillStatus {
	case "", order.BillPaid, order.BillUnpaid:
	default:
		apt.RespondError(w, http.StatusBadRequest, "Invalid bill status")
		return
	}
	if filter.Type != "" && ordertype.ByName(filter.Type) == nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order type")
		return
	}
	if v := q.Get("today"); v != "" {
		today, err := strconv.ParseBool(v)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid today flag")
			return
		}
		if today {
			from, to := h.service.Today()
			filter.CreatedFrom, filter.CreatedTo = &from, &to
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			apt.RespondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.respondError(w, log, err, "cannot list orders")
		return
	}

	apt.RespondCollection(w, orders, "order")
}

// GetOrder handles GET /orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.respondError(w, log, err, "cannot get order")
		return
	}

	apt.RespondSuccess(w, view, apt.RESTfulLinksFor(view.Order)...)
}

type paymentPayload struct {
	ID        uuid.UUID       `json:"id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
}

// RecordPayment handles POST /orders/{id}/payments
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RecordPayment")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}
	var payload paymentPayload
	if !h.decode(w, r, log, &payload) {
		return
	}

	result, err := h.service.RecordPayment(r.Context(), id, order.PaymentInput{
		ID:        payload.ID,
		Amount:    payload.Amount,
		Method:    payload.Method,
		Reference: payload.Reference,
	})
	if err != nil {
		h.respondError(w, log, err, "cannot record payment")
		return
	}

	if !result.Replayed {
		w.WriteHeader(http.StatusCreated)
	}
	apt.RespondSuccess(w, result, apt.RESTfulLinksFor(result.Payment)...)
}

// ListPayments handles GET /orders/{id}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListPayments")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.respondError(w, log, err, "cannot list payments")
		return
	}

	apt.RespondCollection(w, payments, "payment")
}

type voidPayload struct {
	Note string `json:"note"`
}

// VoidOrder handles POST /orders/{id}/void
func (h *Handler) VoidOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.VoidOrder")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}
	var payload voidPayload
	if !h.decode(w, r, log, &payload) {
		return
	}

	o, err := h.service.VoidOrder(r.Context(), id, payload.Note)
	if err != nil {
		h.respondError(w, log, err, "cannot void order")
		return
	}

	apt.RespondSuccess(w, o, apt.RESTfulLinksFor(o)...)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log apt.Logger, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("cannot read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Request body too large or unreadable")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
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
