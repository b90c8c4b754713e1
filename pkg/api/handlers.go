package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rubiojr/newsbin/pkg/auth"
	"github.com/rubiojr/newsbin/pkg/export"
	"github.com/rubiojr/newsbin/pkg/harvester"
	"github.com/rubiojr/newsbin/pkg/search"
	"github.com/rubiojr/newsbin/pkg/storage"
	"github.com/rubiojr/newsbin/pkg/version"
)

const noArticlesMessage = "No articles found. Please fetch the articles first."

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var creds CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.writeJSON(w, http.StatusBadRequest, MessageResponse{Msg: "Invalid request body"})
		return
	}

	switch err := s.auth.Register(creds.Password); {
	case errors.Is(err, auth.ErrMissingPassword):
		s.writeJSON(w, http.StatusBadRequest, MessageResponse{Msg: "Missing username or password"})
	case errors.Is(err, auth.ErrUserExists):
		s.writeJSON(w, http.StatusConflict, MessageResponse{Msg: "User already exists"})
	case err != nil:
		s.logger.Errorf("registering user: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, MessageResponse{Msg: "User created"})
	}
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.writeJSON(w, http.StatusBadRequest, MessageResponse{Msg: "Invalid request body"})
		return
	}

	token, err := s.auth.Login(creds.Password)
	switch {
	case errors.Is(err, auth.ErrMissingPassword):
		s.writeJSON(w, http.StatusBadRequest, MessageResponse{Msg: "Missing username or password"})
	case errors.Is(err, auth.ErrNoUser):
		s.writeJSON(w, http.StatusNotFound, MessageResponse{Msg: "User does not exist"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeJSON(w, http.StatusUnauthorized, MessageResponse{Msg: "Invalid username or password"})
	case err != nil:
		s.logger.Errorf("logging in: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
	}
}

func (s *Server) HandleTokenValid(w http.ResponseWriter, r *http.Request) {
	// Without a registered user every token is as good as any other.
	valid := !s.auth.Registered() || s.auth.ValidToken(auth.BearerToken(r))
	s.writeJSON(w, http.StatusOK, TokenValidResponse{Valid: valid})
}

func (s *Server) HandleGetFeeds(w http.ResponseWriter, r *http.Request) {
	urls, err := s.feeds.Load()
	if err != nil {
		s.logger.Errorf("loading feeds: %v", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, urls)
}

func (s *Server) HandleSetFeeds(w http.ResponseWriter, r *http.Request) {
	var req FeedsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.feeds.Save(req.FeedURLs); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: "success"})
}

func (s *Server) HandleFetchStart(w http.ResponseWriter, r *http.Request) {
	if err := s.harvester.StartJob(); err != nil {
		if errors.Is(err, harvester.ErrAlreadyRunning) {
			s.writeJSON(w, http.StatusConflict, StatusResponse{Status: "already running"})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, StatusResponse{Status: "started"})
}

func (s *Server) HandleFetchStop(w http.ResponseWriter, r *http.Request) {
	if err := s.harvester.StopJob(); err != nil {
		if errors.Is(err, harvester.ErrNotRunning) {
			s.writeJSON(w, http.StatusConflict, StatusResponse{Status: "it was not running"})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: "stopped"})
}

func (s *Server) HandleFetchStatus(w http.ResponseWriter, r *http.Request) {
	if s.harvester.JobRunning() {
		s.writeJSON(w, http.StatusOK, StatusResponse{Status: "running"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params := search.ParseSearchParams(r.URL.Query())

	results, err := s.search.Search(r.Context(), params)
	if err != nil {
		if errors.Is(err, storage.ErrNoArticles) {
			s.writeError(w, http.StatusNotFound, noArticlesMessage)
			return
		}
		s.logger.Errorf("searching: %v", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Database error when searching: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Data:       results.Rows,
		TotalCount: results.TotalCount,
		Page:       results.Page,
		PerPage:    results.PerPage,
		SearchID:   results.SearchID,
	})
}

func (s *Server) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context(), s.searchIDs(r))
	if err != nil {
		if errors.Is(err, storage.ErrNoArticles) {
			s.writeError(w, http.StatusNotFound, noArticlesMessage)
			return
		}
		s.logger.Errorf("getting statistics: %v", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Database error when getting statistics: %v", err))
		return
	}

	// Three parallel series: domains, subdirectories, dates.
	s.writeJSON(w, http.StatusOK, []interface{}{stats.Domains, stats.Subdirectories, stats.Dates})
}

func (s *Server) HandleFullText(w http.ResponseWriter, r *http.Request) {
	texts, err := s.store.FullTexts(r.Context(), s.searchIDs(r))
	if err != nil {
		if errors.Is(err, storage.ErrNoArticles) {
			s.writeError(w, http.StatusNotFound, noArticlesMessage)
			return
		}
		s.logger.Errorf("getting full texts: %v", err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Database error when getting full texts: %v", err))
		return
	}

	entries := make([]FullTextEntry, len(texts))
	for i, text := range texts {
		entries[i] = FullTextEntry{FullText: text}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "articles", nil)
}

func (s *Server) HandleExportQuery(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "articles_query", s.searchIDs(r))
}

func (s *Server) serveExport(w http.ResponseWriter, r *http.Request, base string, ids []int64) {
	if len(r.URL.Query()["format"]) > 1 {
		s.writeError(w, http.StatusBadRequest, "Invalid format requested.")
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		if errors.Is(err, export.ErrNoFormat) {
			s.writeError(w, http.StatusBadRequest, "No format specified.")
			return
		}
		s.writeError(w, http.StatusBadRequest, "Invalid format requested.")
		return
	}

	if err := s.store.CheckReady(); err != nil {
		if errors.Is(err, storage.ErrNoArticles) {
			s.writeError(w, http.StatusNotFound, noArticlesMessage)
			return
		}
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Database error when downloading: %v", err))
		return
	}

	// A fetch run in flight could hand us a half-written batch.
	if err := s.harvester.WaitIdle(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	name := format.FileName(base)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if err := s.exporter.Write(r.Context(), w, format, ids); err != nil {
		// Headers are already on the wire, all we can do is log.
		s.logger.Errorf("exporting %s: %v", name, err)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	})
}

// searchIDs resolves the optional search_id parameter into the ids of a
// cached search result. Unknown or absent tokens mean "everything".
func (s *Server) searchIDs(r *http.Request) []int64 {
	token := r.URL.Query().Get("search_id")
	if token == "" {
		return nil
	}
	ids, ok := s.search.LookupResult(token)
	if !ok {
		return nil
	}
	return ids
}
