package integrations

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/homedash/internal/domain"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// ClampLimit maps a caller supplied page size onto [1, MaxListLimit],
// falling back to DefaultListLimit for non-positive values.
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	if n > MaxListLimit {
		return MaxListLimit
	}
	return n
}

// Download is one unfinished torrent.
type Download struct {
	Name            string `json:"name"`
	DownloadSpeed   int64  `json:"downloadSpeed"` // bytes/s
	ETA             int64  `json:"eta"`           // seconds
	ProgressPercent int    `json:"progressPercent"`
	State           string `json:"state"`
}

// Downloads is the successful downloads payload.
type Downloads struct {
	Online    bool       `json:"online"`
	Downloads []Download `json:"downloads"`
}

// TorrentClient talks to the qBittorrent Web API.
type TorrentClient struct {
	client *Client
}

func NewTorrentClient(client *Client) *TorrentClient {
	return &TorrentClient{client: client}
}

// finishedStates are the states qBittorrent reports once all data is present.
var finishedStates = map[string]struct{}{
	"pausedUP":   {},
	"stoppedUP":  {},
	"uploading":  {},
	"stalledUP":  {},
	"queuedUP":   {},
	"forcedUP":   {},
	"checkingUP": {},
}

// completedField accepts either a boolean flag or a completed byte count.
type completedField struct {
	set   bool
	flag  bool
	bytes float64
	isNum bool
}

func (c *completedField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		c.set, c.flag = true, b
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	c.set, c.isNum, c.bytes = true, true, n
	return nil
}

type torrentInfo struct {
	Name      string         `json:"name"`
	DLSpeed   int64          `json:"dlspeed"`
	ETA       int64          `json:"eta"`
	Progress  float64        `json:"progress"`
	State     string         `json:"state"`
	AddedOn   int64          `json:"added_on"`
	Size      float64        `json:"size"`
	Completed completedField `json:"completed"`
}

// finished reports whether a torrent has all its data.
func (t torrentInfo) finished() bool {
	if t.Completed.set {
		if !t.Completed.isNum && t.Completed.flag {
			return true
		}
		if t.Completed.isNum && t.Size > 0 && t.Completed.bytes >= t.Size {
			return true
		}
	}
	if t.Progress >= 1 {
		return true
	}
	_, done := finishedStates[t.State]
	return done
}

// Downloads logs in, lists torrents and returns the unfinished ones, most
// recently added first, truncated to limit.
func (t *TorrentClient) Downloads(ctx context.Context, cfg domain.IntegrationConfig, limit int) (Downloads, error) {
	service := serviceName(domain.TorrentClient, cfg)
	if !cfg.Enabled {
		return Downloads{}, notConfigured(service)
	}
	base := baseURL(cfg)
	if base == "" || cfg.Username == "" || cfg.Password == "" {
		return Downloads{}, incomplete(service, "host/port/username/password")
	}

	cookies, err := t.login(ctx, service, base, cfg.Username, cfg.Password)
	if err != nil {
		return Downloads{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/v2/torrents/info", http.NoBody)
	if err != nil {
		return Downloads{}, invalidRequest(service, err)
	}
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	resp, err := t.client.do(ctx, call{
		service:   service,
		operation: "torrent_list",
		failure:   service + " torrent list request failed",
	}, req)
	if err != nil {
		return Downloads{}, err
	}

	var torrents []torrentInfo
	if err := decodeJSON(service, resp.body, &torrents); err != nil {
		return Downloads{}, err
	}

	return Downloads{
		Online:    true,
		Downloads: selectDownloads(torrents, ClampLimit(limit)),
	}, nil
}

func (t *TorrentClient) login(ctx context.Context, service, base, username, password string) ([]*http.Cookie, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, invalidRequest(service, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// qBittorrent's CSRF protection compares Referer/Origin with its own host
	req.Header.Set("Referer", base)
	req.Header.Set("Origin", base)

	resp, err := t.client.do(ctx, call{
		service:   service,
		operation: "login",
		failure:   service + " login failed",
	}, req)
	if err != nil {
		return nil, err
	}

	if len(resp.cookies) == 0 {
		detail := "login returned no session cookie"
		if strings.EqualFold(strings.TrimSpace(string(resp.body)), "Fails.") {
			detail = "invalid username or password"
		}
		return nil, &Error{
			Kind:       KindAuth,
			Service:    service,
			Message:    service + " login failed",
			StatusCode: resp.status,
			Detail:     detail,
		}
	}
	return resp.cookies, nil
}

func selectDownloads(torrents []torrentInfo, limit int) []Download {
	active := make([]torrentInfo, 0, len(torrents))
	for _, t := range torrents {
		if !t.finished() {
			active = append(active, t)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].AddedOn > active[j].AddedOn
	})
	if len(active) > limit {
		active = active[:limit]
	}

	out := make([]Download, 0, len(active))
	for _, t := range active {
		out = append(out, Download{
			Name:            t.Name,
			DownloadSpeed:   t.DLSpeed,
			ETA:             t.ETA,
			ProgressPercent: percent(t.Progress),
			State:           t.State,
		})
	}
	return out
}

func percent(ratio float64) int {
	p := math.Round(ratio * 100)
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return int(p)
	}
}
