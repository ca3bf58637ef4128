package sse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestServeStream(t *testing.T) {
	h, clock := newTestHub(t, Config{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeStream(h, w, r, WithUserID(r.URL.Query().Get("user")))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?user=u1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	clientID := resp.Header.Get("X-Client-ID")
	if clientID == "" {
		t.Fatal("missing X-Client-ID header")
	}

	dec := NewDecoder(resp.Body)
	ev, err := dec.Next()
	if err != nil || ev.Type != EventTypeConnected {
		t.Fatalf("first event = %+v, err = %v", ev, err)
	}

	clock.Advance(5 * time.Second)
	if n := h.SendToUser("u1", Event{ID: "1", Type: "update", Data: map[string]string{"k": "v"}}); n != 1 {
		t.Fatalf("SendToUser() = %d", n)
	}
	ev, err = dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != "update" || ev.ID != "1" {
		t.Errorf("event = %+v", ev)
	}
	// Relaying the frame, not queueing it, refreshes the last ping.
	waitFor(t, func() bool {
		c := h.GetClient(clientID)
		return c != nil && c.LastPing().Equal(clock.Now())
	})

	cancel()
	waitFor(t, func() bool { return h.GetClient(clientID) == nil })
}

func TestServeStream_CapacityExceeded(t *testing.T) {
	h, _ := newTestHub(t, Config{MaxConnections: 1})
	attach(t, h)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	ServeStream(h, rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != "CAPACITY_EXCEEDED" {
		t.Errorf("code = %q", body.Error.Code)
	}
}
