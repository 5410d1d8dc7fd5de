package report

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
)

func newTestRouter(src *stubSource) http.Handler {
	svc := NewService(src, func() time.Time { return day })
	h := NewHandler(svc, apt.NewNoopLogger())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHandlerReports(t *testing.T) {
	router := newTestRouter(&stubSource{
		orders:   sampleOrders(),
		tickets:  sampleTickets(),
		payments: samplePayments(),
	})

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"dailyDefault", "/reports/daily", http.StatusOK},
		{"dailyDate", "/reports/daily?date=2025-03-14", http.StatusOK},
		{"dailyBadDate", "/reports/daily?date=14/03/2025", http.StatusBadRequest},
		{"salesRange", "/reports/sales?from=2025-03-01&to=2025-03-14", http.StatusOK},
		{"salesBadFrom", "/reports/sales?from=yesterday", http.StatusBadRequest},
		{"salesInverted", "/reports/sales?from=2025-03-15&to=2025-03-01", http.StatusBadRequest},
		{"kitchenDefault", "/reports/kitchen", http.StatusOK},
		{"kitchenBadTo", "/reports/kitchen?to=soon", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandlerCSV(t *testing.T) {
	router := newTestRouter(&stubSource{
		orders:   sampleOrders(),
		tickets:  sampleTickets(),
		payments: samplePayments(),
	})

	tests := []struct {
		name       string
		path       string
		wantHeader string
		wantLines  int
	}{
		{"sales", "/reports/sales?from=2025-03-14&to=2025-03-14&format=csv", "item,quantity,revenue", 3},
		{"kitchen", "/reports/kitchen?from=2025-03-14&to=2025-03-14&format=csv", "date,ticket,station,status,cook_minutes,sla_minutes,breached", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
				t.Errorf("content type = %s", ct)
			}
			lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
			if lines[0] != tt.wantHeader {
				t.Errorf("header = %q", lines[0])
			}
			if len(lines) != tt.wantLines {
				t.Errorf("lines = %d, want %d", len(lines), tt.wantLines)
			}
		})
	}
}

func TestHandlerSourceFailure(t *testing.T) {
	router := newTestRouter(&stubSource{fail: true})

	for _, path := range []string{"/reports/daily", "/reports/sales", "/reports/kitchen"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", path, w.Code)
		}
	}
}
