package integrations

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/metrics"
)

// mediaAvailable is the availability sentinel meaning "fully available".
const mediaAvailable = 5

const (
	unknownTitle  = "Unknown"
	unknownMovie  = "Unknown movie"
	unknownSeries = "Unknown series"
	unknownUser   = "Unknown"
)

// NormalizeRequestStatus folds the workflow status of a request and the
// availability of its media into one code. Availability wins: a request
// whose media is available is "available" whatever its workflow state.
func NormalizeRequestStatus(workflow, availability int) string {
	if availability == mediaAvailable {
		return "available"
	}
	switch workflow {
	case 1:
		return "requested"
	case 2:
		return "approved"
	case 3:
		return "declined"
	case 4:
		return "failed"
	default:
		return "unknown"
	}
}

// TitleCache memoizes resolved request titles across calls.
type TitleCache interface {
	Lookup(ctx context.Context, key string) (string, bool)
	Store(ctx context.Context, key, title string)
}

// MediaRequest is one normalized request.
type MediaRequest struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	RequestedBy string `json:"requestedBy"`
	RequestedAt string `json:"requestedAt"`
	Status      string `json:"status"`
	MediaType   string `json:"mediaType"`
}

// Requests is the successful request list payload.
type Requests struct {
	Online   bool           `json:"online"`
	Requests []MediaRequest `json:"requests"`
}

// RequestManager talks to an Overseerr (or Jellyseerr) server.
type RequestManager struct {
	client *Client
	cache  TitleCache
	logger logger.Logger
}

// NewRequestManager builds the adapter. cache may be nil.
func NewRequestManager(client *Client, cache TitleCache, log logger.Logger) *RequestManager {
	return &RequestManager{client: client, cache: cache, logger: log}
}

type requestUser struct {
	Username     string `json:"username"`
	PlexUsername string `json:"plexUsername"`
	DisplayName  string `json:"displayName"`
	Email        string `json:"email"`
}

func (u *requestUser) label() string {
	if u == nil {
		return unknownUser
	}
	for _, v := range []string{u.Username, u.PlexUsername, u.DisplayName, u.Email} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return unknownUser
}

type requestMedia struct {
	TMDBID    int    `json:"tmdbId"`
	Status    int    `json:"status"`
	MediaType string `json:"mediaType"`
	Title     string `json:"title"`
	Name      string `json:"name"`
}

type requestEntry struct {
	ID          int           `json:"id"`
	Status      int           `json:"status"`
	CreatedAt   string        `json:"createdAt"`
	Type        string        `json:"type"`
	Title       string        `json:"title"`
	Media       *requestMedia `json:"media"`
	RequestedBy *requestUser  `json:"requestedBy"`
}

func (e requestEntry) mediaType() string {
	if e.Media != nil && e.Media.MediaType != "" {
		return e.Media.MediaType
	}
	return e.Type
}

func (e requestEntry) inlineTitle() string {
	if e.Media != nil {
		if t := strings.TrimSpace(e.Media.Title); t != "" {
			return t
		}
		if t := strings.TrimSpace(e.Media.Name); t != "" {
			return t
		}
	}
	return strings.TrimSpace(e.Title)
}

type requestPage struct {
	Results []requestEntry `json:"results"`
}

type mediaDetail struct {
	Title         string `json:"title"`
	OriginalTitle string `json:"originalTitle"`
	Name          string `json:"name"`
	OriginalName  string `json:"originalName"`
}

// Requests lists the latest requests, normalized and titled. filter defaults
// to "all".
func (r *RequestManager) Requests(ctx context.Context, cfg domain.IntegrationConfig, limit int, filter string) (Requests, error) {
	service := serviceName(domain.RequestManager, cfg)
	if !cfg.Enabled {
		return Requests{}, notConfigured(service)
	}
	base := baseURL(cfg)
	if base == "" || cfg.APIKey == "" {
		return Requests{}, incomplete(service, "host/port/apiKey")
	}

	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = "all"
	}
	q := url.Values{}
	q.Set("take", strconv.Itoa(ClampLimit(limit)))
	q.Set("skip", "0")
	q.Set("sort", "added")
	q.Set("filter", filter)

	req, err := r.newRequest(ctx, service, base+"/api/v1/request?"+q.Encode(), cfg.APIKey)
	if err != nil {
		return Requests{}, err
	}
	resp, err := r.client.do(ctx, call{service: service, operation: "requests"}, req)
	if err != nil {
		return Requests{}, err
	}

	var page requestPage
	if err := decodeJSON(service, resp.body, &page); err != nil {
		return Requests{}, err
	}

	out := make([]MediaRequest, len(page.Results))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range page.Results {
		availability := 0
		if entry.Media != nil {
			availability = entry.Media.Status
		}
		out[i] = MediaRequest{
			ID:          entry.ID,
			Title:       entry.inlineTitle(),
			RequestedBy: entry.RequestedBy.label(),
			RequestedAt: entry.CreatedAt,
			Status:      NormalizeRequestStatus(entry.Status, availability),
			MediaType:   entry.mediaType(),
		}
		if out[i].Title != "" {
			continue
		}
		g.Go(func() error {
			out[i].Title = r.resolveTitle(gctx, service, base, cfg.APIKey, entry)
			return nil
		})
	}
	_ = g.Wait() // lookups swallow their own failures

	return Requests{Online: true, Requests: out}, nil
}

// resolveTitle fetches the canonical title of a request's media. Failures are
// logged and rendered as "Unknown".
func (r *RequestManager) resolveTitle(ctx context.Context, service, base, apiKey string, entry requestEntry) string {
	mediaType := entry.mediaType()
	if entry.Media == nil || entry.Media.TMDBID == 0 {
		return unknownTitle
	}

	var path, fallback string
	switch mediaType {
	case "movie":
		path, fallback = "/api/v1/movie/", unknownMovie
	case "tv":
		path, fallback = "/api/v1/tv/", unknownSeries
	default:
		return unknownTitle
	}

	id := strconv.Itoa(entry.Media.TMDBID)
	key := mediaType + ":" + id
	if r.cache != nil {
		if title, ok := r.cache.Lookup(ctx, key); ok {
			metrics.RecordTitleCache(true)
			return title
		}
		metrics.RecordTitleCache(false)
	}

	req, err := r.newRequest(ctx, service, base+path+id, apiKey)
	if err != nil {
		return unknownTitle
	}
	resp, err := r.client.do(ctx, call{service: service, operation: "title_lookup", isolated: true}, req)
	if err != nil {
		r.logger.Warn("request title lookup failed",
			logger.String("service", service),
			logger.String("media", key),
			logger.Error(err))
		return unknownTitle
	}

	var detail mediaDetail
	if err := decodeJSON(service, resp.body, &detail); err != nil {
		r.logger.Warn("request title lookup returned unreadable body",
			logger.String("service", service),
			logger.String("media", key),
			logger.Error(err))
		return unknownTitle
	}

	var title string
	if mediaType == "movie" {
		title = firstNonEmpty(detail.Title, detail.OriginalTitle)
	} else {
		title = firstNonEmpty(detail.Name, detail.OriginalName)
	}
	if title == "" {
		return fallback
	}
	if r.cache != nil {
		r.cache.Store(ctx, key, title)
	}
	return title
}

func (r *RequestManager) newRequest(ctx context.Context, service, target, apiKey string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, invalidRequest(service, err)
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
