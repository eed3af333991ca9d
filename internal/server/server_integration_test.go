package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/starkcad/internal/app"
	"github.com/ayusman/starkcad/internal/document"
	"github.com/ayusman/starkcad/internal/metrics"
)

func TestAPI_CommandWorkflow(t *testing.T) {
	doc := document.New(nil)
	doc.SeedDefault()
	srv := New(Config{App: app.New(app.Config{Document: doc})})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Create a sphere by command
	body := `{"operation":"CREATE_SOLID","parameters":{"type":"SPHERE"}}`
	resp, err := client.Post(ts.URL+"/api/command", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /api/command error = %v", err)
	}
	var created struct {
		Applied bool   `json:"applied"`
		ID      string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if !created.Applied || created.ID == "" {
		t.Fatalf("command result = %+v, want applied", created)
	}

	// 2. Select it
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/selection", strings.NewReader(`{"ids":["`+created.ID+`"]}`))
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/selection error = %v", err)
	}
	resp.Body.Close()

	// 3. Delete the selection
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/selection", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/selection error = %v", err)
	}
	var removed struct {
		Removed int `json:"removed"`
	}
	json.NewDecoder(resp.Body).Decode(&removed)
	resp.Body.Close()
	if removed.Removed != 1 {
		t.Errorf("removed = %d, want 1", removed.Removed)
	}

	// 4. Only the default cube is left
	resp, _ = client.Get(ts.URL + "/api/document")
	var listed struct {
		Solids []document.Solid `json:"solids"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Solids) != 1 || listed.Solids[0].ID != document.DefaultCubeID {
		t.Errorf("solids = %+v, want only the default cube", listed.Solids)
	}
}

func TestStateHub_Broadcast(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket test in short mode")
	}

	m := metrics.New()
	a := app.New(app.Config{Metrics: m})
	hub := NewStateHub(a, m)
	hub.interval = 5 * time.Millisecond
	hub.Start()
	defer hub.Stop()

	ts := httptest.NewServer(hub)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first app.State
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("initial state: %v", err)
	}
	if first.Tool != "SELECT" {
		t.Errorf("initial tool = %s, want SELECT", first.Tool)
	}

	a.Tick()
	a.Tick()

	for {
		var next app.State
		if err := conn.ReadJSON(&next); err != nil {
			t.Fatalf("waiting for tick broadcast: %v", err)
		}
		if next.Tick == 2 {
			break
		}
	}

	if hub.Clients() != 1 {
		t.Errorf("Clients() = %d, want 1", hub.Clients())
	}
}

type staticPreview struct {
	frame []byte
	calls atomic.Int32
}

func (p *staticPreview) Preview() []byte {
	p.calls.Add(1)
	return p.frame
}

func TestStreamHandler_WritesFrame(t *testing.T) {
	jpg := []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}
	src := &staticPreview{frame: jpg}
	h := NewStreamHandler(src)
	h.interval = time.Millisecond

	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %s, want multipart/x-mixed-replace", ct)
	}

	want := "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: 6\r\n\r\n"
	buf := make([]byte, len(want)+len(jpg))
	n := 0
	for n < len(buf) {
		k, err := resp.Body.Read(buf[n:])
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		n += k
	}
	if string(buf[:len(want)]) != want {
		t.Errorf("part header = %q, want %q", buf[:len(want)], want)
	}
	if !bytes.Equal(buf[len(want):], jpg) {
		t.Errorf("part body = % x, want % x", buf[len(want):], jpg)
	}
}

func TestStreamHandler_OnlyGet(t *testing.T) {
	h := NewStreamHandler(&staticPreview{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stream", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
