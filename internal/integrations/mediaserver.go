package integrations

import (
	"context"
	"html"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/MrSnakeDoc/homedash/internal/domain"
)

// Session is one item currently played on the media server.
type Session struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle,omitempty"`
	User            string `json:"user"`
	Type            string `json:"type"`
	State           string `json:"state,omitempty"`
	ProgressPercent int    `json:"progressPercent"`
}

// NowPlaying is the successful now-playing payload.
type NowPlaying struct {
	Online   bool      `json:"online"`
	Sessions []Session `json:"sessions"`
}

// MediaServer talks to a Plex server.
type MediaServer struct {
	client *Client
}

func NewMediaServer(client *Client) *MediaServer {
	return &MediaServer{client: client}
}

// NowPlaying lists the active playback sessions.
func (m *MediaServer) NowPlaying(ctx context.Context, cfg domain.IntegrationConfig) (NowPlaying, error) {
	service := serviceName(domain.MediaServer, cfg)
	if !cfg.Enabled {
		return NowPlaying{}, notConfigured(service)
	}
	base := baseURL(cfg)
	if base == "" || cfg.Token == "" {
		return NowPlaying{}, incomplete(service, "host/port/token")
	}

	target := base + "/status/sessions?X-Plex-Token=" + url.QueryEscape(cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return NowPlaying{}, invalidRequest(service, err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := m.client.do(ctx, call{service: service, operation: "now_playing"}, req)
	if err != nil {
		return NowPlaying{}, err
	}

	return NowPlaying{
		Online:   true,
		Sessions: ExtractSessions(string(resp.body)),
	}, nil
}

var (
	sessionElement = regexp.MustCompile(`<(?:Video|Track)\b([^>]*)>([\s\S]*?)</(?:Video|Track)>`)
	userElement    = regexp.MustCompile(`<User\b([^>]*)>`)
	playerElement  = regexp.MustCompile(`<Player\b([^>]*)>`)
	xmlAttribute   = regexp.MustCompile(`([A-Za-z_:][-A-Za-z0-9_:.]*)\s*=\s*"([^"]*)"`)
)

// ExtractSessions scrapes the session list returned by /status/sessions.
//
// For every <Video> or <Track> element:
//   - title is grandparentTitle (the show or artist) when present, else title
//   - subtitle is the item's own title when grandparentTitle was used
//   - user is the title attribute of the nested <User>
//   - type is copied verbatim
//   - state is the state attribute of the nested <Player>
//   - progressPercent is round(viewOffset/duration*100) clamped to [0,100],
//     0 when duration is missing or zero
//
// Anything that does not look like a session element is ignored.
func ExtractSessions(body string) []Session {
	matches := sessionElement.FindAllStringSubmatch(body, -1)
	sessions := make([]Session, 0, len(matches))

	for _, m := range matches {
		attrs := parseAttributes(m[1])
		inner := m[2]

		s := Session{
			Title: attrs["title"],
			Type:  attrs["type"],
		}
		if show := attrs["grandparentTitle"]; show != "" {
			s.Title = show
			s.Subtitle = attrs["title"]
		}
		if um := userElement.FindStringSubmatch(inner); um != nil {
			s.User = parseAttributes(um[1])["title"]
		}
		if pm := playerElement.FindStringSubmatch(inner); pm != nil {
			s.State = parseAttributes(pm[1])["state"]
		}
		s.ProgressPercent = progressPercent(attrs["viewOffset"], attrs["duration"])

		sessions = append(sessions, s)
	}
	return sessions
}

func parseAttributes(raw string) map[string]string {
	out := make(map[string]string)
	for _, m := range xmlAttribute.FindAllStringSubmatch(raw, -1) {
		out[m[1]] = html.UnescapeString(m[2])
	}
	return out
}

func progressPercent(offset, duration string) int {
	d, err := strconv.ParseFloat(duration, 64)
	if err != nil || d <= 0 {
		return 0
	}
	o, err := strconv.ParseFloat(offset, 64)
	if err != nil || o <= 0 {
		return 0
	}
	p := math.Round(o / d * 100)
	if p > 100 {
		return 100
	}
	return int(p)
}
