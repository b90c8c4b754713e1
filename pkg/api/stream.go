package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rubiojr/newsbin/pkg/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The REST endpoints already allow any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleStatusStream upgrades to a websocket and pushes fetch status
// events as they happen. The first message reports the current state.
func (s *Server) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	id, events := s.hub.Register()
	defer s.hub.Unregister(id)

	status := "stopped"
	if s.harvester.JobRunning() {
		status = "running"
	}
	if err := conn.WriteJSON(realtime.NewStatusEvent(status, 0)); err != nil {
		return
	}

	// Drain the client side so we notice a close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
