package api

import (
	"time"

	"github.com/rubiojr/newsbin/pkg/search"
)

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

type TokenValidResponse struct {
	Valid bool `json:"valid"`
}

type CredentialsRequest struct {
	Password string `json:"password"`
}

type FeedsRequest struct {
	FeedURLs []string `json:"feedUrls"`
}

type SearchResponse struct {
	Data       []search.Row `json:"data"`
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	PerPage    int          `json:"per_page"`
	SearchID   string       `json:"search_id"`
}

type FullTextEntry struct {
	FullText string `json:"full_text"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}
