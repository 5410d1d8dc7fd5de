package feed

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/pkg/event"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe("a")
	b := hub.Subscribe("b")

	hub.Broadcast(Message{Event: "order-update", Data: []byte(`{}`)})

	for name, ch := range map[string]<-chan Message{"a": a, "b": b} {
		select {
		case msg := <-ch:
			if msg.Event != "order-update" {
				t.Errorf("%s got %s", name, msg.Event)
			}
		default:
			t.Errorf("%s received nothing", name)
		}
	}

	hub.Unsubscribe("a")
	if _, ok := <-a; ok {
		t.Error("unsubscribed channel still open")
	}
	if hub.Count() != 1 {
		t.Errorf("Count() = %d, want 1", hub.Count())
	}

	hub.Close()
	if _, ok := <-b; ok {
		t.Error("Close() left a channel open")
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	hub := NewHub(nil)
	ch := hub.Subscribe("slow")
	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Broadcast(Message{Event: "x"})
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestRelayOverLocalBus(t *testing.T) {
	bus := NewLocalBus(nil)
	view := NewView(nil)
	cache := kitchen.NewTicketStateCache(nil, nil, nil)
	hub := NewHub(nil)
	pushes := hub.Subscribe("screen")

	relay := NewRelay(bus, view, cache, hub, apt.NewNoopLogger())
	if err := relay.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	tk := &kitchen.Ticket{ID: uuid.New(), OrderID: uuid.New(), Station: "tea", Status: "PENDING", CreatedAt: t0, UpdatedAt: t0.Add(time.Minute)}
	stale := tk.Clone()
	stale.UpdatedAt = t0

	_ = bus.Publish(ctx, event.ChangesTopic, encode(t, event.OpInsert, event.EntityTicket, tk.ID, tk.UpdatedAt, tk))
	_ = bus.Publish(ctx, event.ChangesTopic, encode(t, event.OpUpdate, event.EntityTicket, tk.ID, stale.UpdatedAt, stale))
	_ = bus.Publish(ctx, event.ChangesTopic, []byte("garbage"))
	_ = bus.Publish(ctx, event.UrgencyTopic, []byte(`{"urgency":"warning"}`))

	if _, ok := view.Ticket(tk.ID); !ok {
		t.Error("view missed the ticket")
	}
	if cache.Get(tk.ID) == nil {
		t.Error("cache missed the ticket")
	}
	if len(pushes) != 2 {
		t.Fatalf("pushes = %d, want 2 (insert and urgency)", len(pushes))
	}
	if msg := <-pushes; msg.Event != "ticket-insert" {
		t.Errorf("first push = %s", msg.Event)
	}
	if msg := <-pushes; msg.Event != event.EventTicketUrgencyChanged {
		t.Errorf("second push = %s", msg.Event)
	}
}

func TestRelayStartWithoutSubscriber(t *testing.T) {
	if err := NewRelay(nil, nil, nil, nil, nil).Start(context.Background()); err == nil {
		t.Error("Start() without subscriber should fail")
	}
}

func TestSSEHandlerStreamsMessages(t *testing.T) {
	hub := NewHub(nil)
	h := NewHandler(NewView(nil), hub, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readUntil := func(prefix string) string {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("stream ended waiting for %q: %v", prefix, err)
			}
			if strings.HasPrefix(line, prefix) {
				return strings.TrimSpace(line)
			}
		}
	}
	readUntil("retry: 2000")

	for hub.Count() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	hub.Broadcast(Message{Event: "order-update", Data: []byte(`{"id":"1"}`)})

	if got := readUntil("event:"); got != "event: order-update" {
		t.Errorf("event line = %q", got)
	}
	if got := readUntil("data:"); got != `data: {"id":"1"}` {
		t.Errorf("data line = %q", got)
	}
}

func TestWSHandlerPushesFrames(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(NewWSHandler(hub, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	for hub.Count() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	hub.Broadcast(Message{Event: "payment-insert", Data: []byte(`{"amount":"150"}`)})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Event != "payment-insert" || frame.Data["amount"] != "150" {
		t.Errorf("frame = %+v", frame)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	view := NewView(nil)
	view.Apply(OrderChange(event.OpInsert, testOrder(order.StatusPending, t0)))
	h := NewHandler(view, NewHub(nil), nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed/snapshot", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "6f1c3c52-6d0e-4a4f-9a39-7a3c1d2e9b10") {
		t.Errorf("snapshot missing order: %s", w.Body.String())
	}
}
