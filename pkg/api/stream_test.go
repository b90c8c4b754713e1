package api

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rubiojr/newsbin/pkg/realtime"
)

func TestStatusStream(t *testing.T) {
	srv, ts := newTestServer(t)

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parsing server url: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/api/status/stream"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	var event realtime.StatusEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading initial event: %v", err)
	}
	if event.Type != "status" || event.Status != "stopped" {
		t.Fatalf("initial event = %+v", event)
	}

	if err := srv.harvester.StartJob(); err != nil {
		t.Fatalf("starting job: %v", err)
	}
	defer srv.harvester.StopJob()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("reading job event: %v", err)
	}
	if event.Status != "running" {
		t.Errorf("job event status = %q, want running", event.Status)
	}
}

func TestStatusStreamRejectsPlainGet(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/status/stream")
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("plain GET code = %d, want 400", resp.StatusCode)
	}
}
