package catalog

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/appetiteclub/pos/services/pos/internal/fault"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	repo   Repo
	logger apt.Logger
	config *apt.Config
	tlm    *telemetry.HTTP
}

func NewHandler(repo Repo, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu/items", func(r chi.Router) {
		r.Get("/", h.ListMenuItems)
		r.Post("/", h.CreateMenuItem)
		r.Get("/code/{shortCode}", h.GetMenuItemByCode)
		r.Get("/{id}", h.GetMenuItem)
		r.Put("/{id}", h.UpdateMenuItem)
		r.Patch("/{id}/availability", h.SetAvailability)
	})
}

// ListMenuItems handles GET /menu/items?category=&station=&available=true
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenuItems")
	defer finish()
	log := h.log(r)

	q := r.URL.Query()
	filter := Filter{
		Category: q.Get("category"),
		Station:  q.Get("station"),
	}
	if v := q.Get("available"); v != "" {
		only, err := strconv.ParseBool(v)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid available flag")
			return
		}
		filter.AvailableOnly = only
	}

	items, err := h.repo.List(r.Context(), filter)
	if err != nil {
		log.Error("cannot list menu items", "error", err)
		apt.RespondError(w, fault.HTTPStatus(err), "Could not list menu items")
		return
	}

	apt.RespondCollection(w, items, "menu/item")
}

// GetMenuItem handles GET /menu/items/{id}
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItem")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	item, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.respondRepoError(w, log, err, "cannot load menu item")
		return
	}

	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

// GetMenuItemByCode handles GET /menu/items/code/{shortCode}
func (h *Handler) GetMenuItemByCode(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetMenuItemByCode")
	defer finish()
	log := h.log(r)

	item, err := h.repo.GetByShortCode(r.Context(), chi.URLParam(r, "shortCode"))
	if err != nil {
		h.respondRepoError(w, log, err, "cannot load menu item by code")
		return
	}

	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

// CreateMenuItem handles POST /menu/items
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateMenuItem")
	defer finish()
	log := h.log(r)

	item, ok := h.decodeMenuItemPayload(w, r, log)
	if !ok {
		return
	}

	item.BeforeCreate()
	if errs := Validate(item); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		h.respondValidationErrors(w, errs)
		return
	}

	if err := h.repo.Create(r.Context(), item); err != nil {
		h.respondRepoError(w, log, err, "cannot create menu item")
		return
	}

	log.Info("menu item created", "id", item.ID.String(), "short_code", item.ShortCode)
	links := apt.RESTfulLinksFor(item)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, item, links...)
}

// UpdateMenuItem handles PUT /menu/items/{id}
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	existing, err := h.repo.Get(ctx, id)
	if err != nil {
		h.respondRepoError(w, log, err, "cannot load menu item")
		return
	}

	item, ok := h.decodeMenuItemPayload(w, r, log)
	if !ok {
		return
	}

	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	item.BeforeUpdate()
	if errs := Validate(item); len(errs) > 0 {
		log.Debug("validation failed", "errors", errs)
		h.respondValidationErrors(w, errs)
		return
	}

	if err := h.repo.Save(ctx, item); err != nil {
		h.respondRepoError(w, log, err, "cannot save menu item")
		return
	}

	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

type availabilityPayload struct {
	Available *bool `json:"available"`
}

// SetAvailability handles PATCH /menu/items/{id}/availability
func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetAvailability")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var payload availabilityPayload
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Available == nil {
		apt.RespondError(w, http.StatusBadRequest, "Field available is required")
		return
	}

	item, err := h.repo.Get(ctx, id)
	if err != nil {
		h.respondRepoError(w, log, err, "cannot load menu item")
		return
	}

	item.Available = *payload.Available
	item.BeforeUpdate()
	if err := h.repo.Save(ctx, item); err != nil {
		h.respondRepoError(w, log, err, "cannot save menu item")
		return
	}

	log.Info("menu item availability changed", "id", item.ID.String(), "available", item.Available)
	apt.RespondSuccess(w, item, apt.RESTfulLinksFor(item)...)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr, "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decodeMenuItemPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (*MenuItem, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return nil, false
	}

	var item MenuItem
	if err := json.Unmarshal(body, &item); err != nil {
		log.Debug("error decoding JSON", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return nil, false
	}

	return &item, true
}

func (h *Handler) respondRepoError(w http.ResponseWriter, log apt.Logger, err error, msg string) {
	status := fault.HTTPStatus(err)
	if errors.Is(err, ErrMenuItemNotFound) {
		apt.RespondError(w, status, "Menu item not found")
		return
	}
	log.Error(msg, "error", err)
	apt.RespondError(w, status, fault.Message(err))
}

func (h *Handler) respondValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  "Validation failed",
		"errors": errs,
	})
}
