package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/logger"
)

func TestNormalizeRequestStatus(t *testing.T) {
	tests := []struct {
		name         string
		workflow     int
		availability int
		expected     string
	}{
		{"available beats pending", 1, 5, "available"},
		{"available beats declined", 3, 5, "available"},
		{"pending", 1, 0, "requested"},
		{"approved", 2, 3, "approved"},
		{"declined", 3, 1, "declined"},
		{"failed", 4, 0, "failed"},
		{"partially available is not available", 2, 4, "approved"},
		{"unknown workflow", 9, 0, "unknown"},
		{"zero", 0, 0, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeRequestStatus(tt.workflow, tt.availability); got != tt.expected {
				t.Errorf("NormalizeRequestStatus(%d, %d) = %q, want %q", tt.workflow, tt.availability, got, tt.expected)
			}
		})
	}
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func (c *mapCache) Lookup(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Store(_ context.Context, key, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = title
}

const requestPageJSON = `{
  "pageInfo": {"pages": 1, "results": 5},
  "results": [
    {"id": 1, "status": 1, "createdAt": "2024-05-01T10:00:00.000Z", "type": "movie",
     "media": {"tmdbId": 438631, "status": 5, "mediaType": "movie"},
     "requestedBy": {"username": "", "plexUsername": "alice", "email": "a@x"}},
    {"id": 2, "status": 2, "createdAt": "2024-05-02T10:00:00.000Z", "type": "tv",
     "media": {"tmdbId": 1399, "status": 3, "mediaType": "tv"},
     "requestedBy": {"displayName": "Bob"}},
    {"id": 3, "status": 3, "createdAt": "2024-05-03T10:00:00.000Z", "type": "movie",
     "media": {"tmdbId": 999, "status": 1, "mediaType": "movie"}},
    {"id": 4, "status": 4, "createdAt": "2024-05-04T10:00:00.000Z", "type": "movie",
     "media": {"tmdbId": 77, "status": 1, "mediaType": "movie", "title": "Inline Title"},
     "requestedBy": {"email": "c@x"}},
    {"id": 5, "status": 1, "createdAt": "2024-05-05T10:00:00.000Z", "type": "tv",
     "media": {"tmdbId": 55, "status": 1, "mediaType": "tv"}}
  ]
}`

func overseerrServer(t *testing.T, lookups *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
			return
		}
		switch r.URL.Path {
		case "/api/v1/request":
			q := r.URL.Query()
			if q.Get("take") != "10" || q.Get("skip") != "0" || q.Get("sort") != "added" || q.Get("filter") != "all" {
				t.Errorf("query = %v", q)
			}
			_, _ = w.Write([]byte(requestPageJSON))
		case "/api/v1/movie/438631":
			lookups.Add(1)
			_, _ = w.Write([]byte(`{"title":"Dune: Part Two","originalTitle":"Dune"}`))
		case "/api/v1/tv/1399":
			lookups.Add(1)
			_, _ = w.Write([]byte(`{"name":"","originalName":"Game of Thrones"}`))
		case "/api/v1/movie/999":
			lookups.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/v1/tv/55":
			lookups.Add(1)
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRequests(t *testing.T) {
	var lookups atomic.Int32
	srv := overseerrServer(t, &lookups)
	cfg := configFor(t, domain.RequestManager, srv.URL)
	cfg.APIKey = "key"

	cache := &mapCache{m: map[string]string{}}
	rm := NewRequestManager(newTestClient(), cache, logger.NewNop())

	got, err := rm.Requests(context.Background(), cfg, 0, "")
	if err != nil {
		t.Fatalf("Requests() error: %v", err)
	}

	expected := []MediaRequest{
		{ID: 1, Title: "Dune: Part Two", RequestedBy: "alice", RequestedAt: "2024-05-01T10:00:00.000Z", Status: "available", MediaType: "movie"},
		{ID: 2, Title: "Game of Thrones", RequestedBy: "Bob", RequestedAt: "2024-05-02T10:00:00.000Z", Status: "approved", MediaType: "tv"},
		{ID: 3, Title: "Unknown", RequestedBy: "Unknown", RequestedAt: "2024-05-03T10:00:00.000Z", Status: "declined", MediaType: "movie"},
		{ID: 4, Title: "Inline Title", RequestedBy: "c@x", RequestedAt: "2024-05-04T10:00:00.000Z", Status: "failed", MediaType: "movie"},
		{ID: 5, Title: "Unknown series", RequestedBy: "Unknown", RequestedAt: "2024-05-05T10:00:00.000Z", Status: "requested", MediaType: "tv"},
	}
	if !got.Online || len(got.Requests) != len(expected) {
		t.Fatalf("Requests() = %+v", got)
	}
	for i := range expected {
		if got.Requests[i] != expected[i] {
			t.Errorf("request %d = %+v, want %+v", i, got.Requests[i], expected[i])
		}
	}
	if n := lookups.Load(); n != 4 {
		t.Errorf("lookups = %d, want 4", n)
	}

	// Resolved titles are memoized, failed and fallback ones are not.
	if _, err := rm.Requests(context.Background(), cfg, 0, ""); err != nil {
		t.Fatalf("Requests() error: %v", err)
	}
	if n := lookups.Load(); n != 6 {
		t.Errorf("lookups after second call = %d, want 6", n)
	}
}

func TestRequestsFailures(t *testing.T) {
	var lookups atomic.Int32
	srv := overseerrServer(t, &lookups)

	rm := NewRequestManager(newTestClient(), nil, logger.NewNop())

	wrongKey := configFor(t, domain.RequestManager, srv.URL)
	wrongKey.APIKey = "nope"
	_, err := rm.Requests(context.Background(), wrongKey, 10, "all")
	ie, ok := AsError(err)
	if !ok || ie.Kind != KindUpstreamStatus || ie.StatusCode != http.StatusUnauthorized {
		t.Fatalf("error = %v, want upstream 401", err)
	}
	if ie.Detail != `{"message":"Unauthorized"}` {
		t.Errorf("Detail = %q", ie.Detail)
	}

	noKey := configFor(t, domain.RequestManager, srv.URL)
	_, err = rm.Requests(context.Background(), noKey, 10, "all")
	if ie, ok := AsError(err); !ok || ie.Kind != KindIncomplete {
		t.Errorf("error = %v, want KindIncomplete", err)
	}

	disabled := domain.DefaultIntegration(domain.RequestManager)
	_, err = rm.Requests(context.Background(), disabled, 10, "all")
	if ie, ok := AsError(err); !ok || ie.Message != "Overseerr integration not configured or disabled" {
		t.Errorf("error = %v", err)
	}
}

func TestRequestsEnrichmentRunsConcurrently(t *testing.T) {
	const delay = 200 * time.Millisecond
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/request" {
			_, _ = w.Write([]byte(`{"results":[
				{"id":1,"status":1,"type":"movie","media":{"tmdbId":1,"mediaType":"movie"}},
				{"id":2,"status":1,"type":"movie","media":{"tmdbId":2,"mediaType":"movie"}},
				{"id":3,"status":1,"type":"movie","media":{"tmdbId":3,"mediaType":"movie"}},
				{"id":4,"status":1,"type":"movie","media":{"tmdbId":4,"mediaType":"movie"}}
			]}`))
			return
		}
		time.Sleep(delay)
		_, _ = w.Write([]byte(`{"title":"T"}`))
	}))
	defer srv.Close()

	cfg := configFor(t, domain.RequestManager, srv.URL)
	cfg.APIKey = "key"

	start := time.Now()
	got, err := NewRequestManager(newTestClient(), nil, logger.NewNop()).Requests(context.Background(), cfg, 10, "")
	if err != nil {
		t.Fatalf("Requests() error: %v", err)
	}
	elapsed := time.Since(start)

	for _, r := range got.Requests {
		if r.Title != "T" {
			t.Errorf("request %d title = %q", r.ID, r.Title)
		}
	}
	if elapsed >= 3*delay {
		t.Errorf("enrichment took %v, lookups look sequential", elapsed)
	}
}
