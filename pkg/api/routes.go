package api

import (
	"net/http"
)

// RegisterRoutes wires every endpoint onto the mux. Data routes pass
// through the auth middleware; register, login, token validation and the
// health check stay open so a client can bootstrap a session.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", s.HandleRegister)
	mux.HandleFunc("POST /api/login", s.HandleLogin)
	mux.HandleFunc("GET /api/token/valid", s.HandleTokenValid)
	mux.HandleFunc("GET /health", s.HandleHealth)

	mux.Handle("GET /api/feeds", s.protected(s.HandleGetFeeds))
	mux.Handle("POST /api/feeds", s.protected(s.HandleSetFeeds))
	mux.Handle("POST /api/fetch/start", s.protected(s.HandleFetchStart))
	mux.Handle("POST /api/fetch/stop", s.protected(s.HandleFetchStop))
	mux.Handle("GET /api/fetch/status", s.protected(s.HandleFetchStatus))
	mux.Handle("GET /api/articles/search", s.protected(s.HandleSearch))
	mux.Handle("GET /api/articles/statistics", s.protected(s.HandleStatistics))
	mux.Handle("GET /api/articles/full_text", s.protected(s.HandleFullText))
	mux.Handle("GET /api/articles/export", s.protected(s.HandleExport))
	mux.Handle("GET /api/articles/export/query", s.protected(s.HandleExportQuery))
	mux.Handle("GET /api/status/stream", s.protected(s.HandleStatusStream))
}

func (s *Server) protected(handler http.HandlerFunc) http.Handler {
	if s.auth == nil {
		return handler
	}
	return s.auth.Middleware(handler)
}
