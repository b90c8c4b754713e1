// Package api exposes the article collection over HTTP: fetch job
// control, feed management, search, statistics, export, and a websocket
// status stream.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rubiojr/newsbin/pkg/auth"
	"github.com/rubiojr/newsbin/pkg/export"
	"github.com/rubiojr/newsbin/pkg/feeds"
	"github.com/rubiojr/newsbin/pkg/harvester"
	"github.com/rubiojr/newsbin/pkg/log"
	"github.com/rubiojr/newsbin/pkg/realtime"
	"github.com/rubiojr/newsbin/pkg/search"
	"github.com/rubiojr/newsbin/pkg/storage"
)

type Server struct {
	store     *storage.Storage
	search    *search.Service
	exporter  *export.Exporter
	harvester *harvester.Harvester
	hub       *realtime.Hub
	feeds     *feeds.List
	auth      *auth.Manager
	logger    *log.Logger
}

func NewServer(store *storage.Storage, feedList *feeds.List, harv *harvester.Harvester, hub *realtime.Hub, authMgr *auth.Manager) *Server {
	return &Server{
		store:     store,
		search:    search.NewService(store),
		exporter:  export.New(store),
		harvester: harv,
		hub:       hub,
		feeds:     feedList,
		auth:      authMgr,
		logger:    log.ForService("api"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Status:  "error",
		Message: message,
	})
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
