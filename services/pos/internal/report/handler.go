package report

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
)

const defaultRangeDays = 30

type Handler struct {
	service *Service
	logger  apt.Logger
	tlm     *telemetry.HTTP
}

func NewHandler(service *Service, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		service: service,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/daily", h.Daily)
		r.Get("/sales", h.Sales)
		r.Get("/kitchen", h.Kitchen)
	})
}

// Daily handles GET /reports/daily?date=2025-03-14
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Daily")
	defer finish()

	day := h.service.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.ParseInLocation(time.DateOnly, v, day.Location())
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		day = d
	}

	summary, err := h.service.Daily(r.Context(), day)
	if err != nil {
		h.logger.Error("cannot build daily summary", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not build daily summary")
		return
	}

	apt.Respond(w, http.StatusOK, summary, nil)
}

// Sales handles GET /reports/sales?from=&to=&format=csv
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Sales")
	defer finish()

	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	report, err := h.service.Sales(r.Context(), from, to)
	if err != nil {
		h.logger.Error("cannot build sales report", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not build sales report")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		rows := [][]string{{"item", "quantity", "revenue"}}
		for _, it := range report.TopItems {
			rows = append(rows, []string{it.Name, strconv.Itoa(it.Quantity), it.Revenue.StringFixed(2)})
		}
		h.writeCSV(w, "sales-report", from, rows)
		return
	}

	apt.Respond(w, http.StatusOK, report, nil)
}

// Kitchen handles GET /reports/kitchen?from=&to=&format=csv
func (h *Handler) Kitchen(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Kitchen")
	defer finish()

	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	perf, err := h.service.Kitchen(r.Context(), from, to)
	if err != nil {
		h.logger.Error("cannot build kitchen report", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not build kitchen report")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		rows := [][]string{{"date", "ticket", "station", "status", "cook_minutes", "sla_minutes", "breached"}}
		for _, row := range perf.Rows {
			rows = append(rows, []string{
				row.Date,
				row.TicketID.String(),
				row.Station,
				row.Status,
				strconv.FormatFloat(row.CookMinutes, 'f', 1, 64),
				strconv.Itoa(row.SLAMinutes),
				strconv.FormatBool(row.Breached),
			})
		}
		h.writeCSV(w, "kitchen-report", from, rows)
		return
	}

	apt.Respond(w, http.StatusOK, perf, nil)
}

// parseRange reads from/to as dates. The range covers whole days, so to is
// moved to the start of the following day. Defaults to the last 30 days.
func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := h.service.Now()
	loc := now.Location()
	to := startOfDay(now).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -defaultRangeDays)

	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		d, err := time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid from date")
			return time.Time{}, time.Time{}, false
		}
		from = d
	}
	if v := q.Get("to"); v != "" {
		d, err := time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid to date")
			return time.Time{}, time.Time{}, false
		}
		to = d.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		apt.RespondError(w, http.StatusBadRequest, "from must not be after to")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *Handler) writeCSV(w http.ResponseWriter, name string, from time.Time, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+"-"+from.Format(time.DateOnly)+`.csv"`)
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		h.logger.Error("cannot write csv", "error", err)
	}
}
