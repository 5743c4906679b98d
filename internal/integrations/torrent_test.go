package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/MrSnakeDoc/homedash/internal/domain"
)

func TestTorrentFinished(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		finished bool
	}{
		{"completed flag beats stale progress", `{"completed":true,"progress":0.6,"state":"downloading"}`, true},
		{"progress one without flag", `{"progress":1.0,"state":"downloading"}`, true},
		{"paused after completion", `{"progress":0.99,"state":"pausedUP"}`, true},
		{"stopped after completion", `{"progress":0.5,"state":"stoppedUP"}`, true},
		{"seeding", `{"progress":0.999,"state":"uploading"}`, true},
		{"completed bytes reach size", `{"completed":1000,"size":1000,"progress":0.2,"state":"downloading"}`, true},
		{"completed bytes below size", `{"completed":10,"size":1000,"progress":0.01,"state":"downloading"}`, false},
		{"completed false", `{"completed":false,"progress":0.4,"state":"downloading"}`, false},
		{"paused mid download", `{"progress":0.4,"state":"pausedDL"}`, false},
		{"stalled download", `{"progress":0.1,"state":"stalledDL"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var info torrentInfo
			if err := json.Unmarshal([]byte(tt.raw), &info); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got := info.finished(); got != tt.finished {
				t.Errorf("finished() = %v, want %v", got, tt.finished)
			}
		})
	}
}

func TestSelectDownloads(t *testing.T) {
	torrents := []torrentInfo{
		{Name: "old", AddedOn: 100, Progress: 0.5, State: "downloading", DLSpeed: 10, ETA: 60},
		{Name: "done", AddedOn: 500, Progress: 1, State: "uploading"},
		{Name: "new", AddedOn: 300, Progress: 0.254, State: "downloading", DLSpeed: 2048, ETA: 120},
		{Name: "mid", AddedOn: 200, Progress: 0, State: "metaDL"},
	}

	got := selectDownloads(torrents, 2)

	expected := []Download{
		{Name: "new", DownloadSpeed: 2048, ETA: 120, ProgressPercent: 25, State: "downloading"},
		{Name: "mid", ProgressPercent: 0, State: "metaDL"},
	}
	if len(got) != len(expected) {
		t.Fatalf("got %+v, want %+v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("download %d = %+v, want %+v", i, got[i], expected[i])
		}
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 10}, {-3, 10}, {1, 1}, {25, 25}, {100, 100}, {1000, 100},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func qbittorrentServer(t *testing.T, loginCookie bool, listStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/auth/login":
			if r.Method != http.MethodPost {
				t.Errorf("login method = %s", r.Method)
			}
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm: %v", err)
			}
			if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "adminadmin" {
				_, _ = w.Write([]byte("Fails."))
				return
			}
			if loginCookie {
				http.SetCookie(w, &http.Cookie{Name: "SID", Value: "session-1", Path: "/"})
			}
			_, _ = w.Write([]byte("Ok."))
		case "/api/v2/torrents/info":
			c, err := r.Cookie("SID")
			if err != nil || c.Value != "session-1" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			if listStatus != http.StatusOK {
				w.WriteHeader(listStatus)
				return
			}
			_, _ = w.Write([]byte(`[
				{"name":"a","added_on":1,"progress":0.1,"state":"downloading","dlspeed":5,"eta":10,"completed":0,"size":100},
				{"name":"b","added_on":3,"progress":0.6,"state":"downloading","completed":true},
				{"name":"c","added_on":2,"progress":1.0,"state":"downloading"},
				{"name":"d","added_on":4,"progress":0.5,"state":"stalledDL","dlspeed":0,"eta":8640000}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloads(t *testing.T) {
	srv := qbittorrentServer(t, true, http.StatusOK)
	cfg := configFor(t, domain.TorrentClient, srv.URL)
	cfg.Username, cfg.Password = "admin", "adminadmin"

	got, err := NewTorrentClient(newTestClient()).Downloads(context.Background(), cfg, 0)
	if err != nil {
		t.Fatalf("Downloads() error: %v", err)
	}
	if !got.Online || len(got.Downloads) != 2 {
		t.Fatalf("Downloads() = %+v", got)
	}
	if got.Downloads[0].Name != "d" || got.Downloads[1].Name != "a" {
		t.Errorf("order = %s, %s, want d, a", got.Downloads[0].Name, got.Downloads[1].Name)
	}
}

func TestDownloadsFailures(t *testing.T) {
	tests := []struct {
		name     string
		cookie   bool
		list     int
		password string
		kind     Kind
		message  string
	}{
		{"no session cookie", false, http.StatusOK, "adminadmin", KindAuth, "qBittorrent login failed"},
		{"bad credentials", true, http.StatusOK, "wrong", KindAuth, "qBittorrent login failed"},
		{"list failure", true, http.StatusInternalServerError, "adminadmin", KindUpstreamStatus, "qBittorrent torrent list request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := qbittorrentServer(t, tt.cookie, tt.list)
			cfg := configFor(t, domain.TorrentClient, srv.URL)
			cfg.Username, cfg.Password = "admin", tt.password

			_, err := NewTorrentClient(newTestClient()).Downloads(context.Background(), cfg, 10)
			ie, ok := AsError(err)
			if !ok {
				t.Fatalf("error = %v, want *Error", err)
			}
			if ie.Kind != tt.kind || ie.Message != tt.message {
				t.Errorf("got kind=%v message=%q, want kind=%v message=%q", ie.Kind, ie.Message, tt.kind, tt.message)
			}
			if ie.HTTPStatus() != http.StatusBadGateway {
				t.Errorf("HTTPStatus() = %d", ie.HTTPStatus())
			}
		})
	}
}

func TestDownloadsTransportFailures(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	// Login succeeds, then the list connection drops without an answer.
	dropping := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/auth/login" {
			http.SetCookie(w, &http.Cookie{Name: "SID", Value: "session-1", Path: "/"})
			_, _ = w.Write([]byte("Ok."))
			return
		}
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("Hijack: %v", err)
			return
		}
		_ = conn.Close()
	}))
	defer dropping.Close()

	tests := []struct {
		name    string
		url     string
		message string
	}{
		{"login unreachable", closedURL, "qBittorrent login failed"},
		{"list connection dropped", dropping.URL, "qBittorrent torrent list request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := configFor(t, domain.TorrentClient, tt.url)
			cfg.Username, cfg.Password = "admin", "adminadmin"

			_, err := NewTorrentClient(newTestClient()).Downloads(context.Background(), cfg, 10)
			ie, ok := AsError(err)
			if !ok || ie.Kind != KindTransport {
				t.Fatalf("error = %v, want transport error", err)
			}
			if ie.Message != tt.message {
				t.Errorf("Message = %q, want %q", ie.Message, tt.message)
			}
			if ie.Detail == "" {
				t.Error("Detail must carry the transport error")
			}
		})
	}
}

func TestDownloadsPreconditions(t *testing.T) {
	client := NewTorrentClient(newTestClient())

	disabled := domain.DefaultIntegration(domain.TorrentClient)
	if _, err := client.Downloads(context.Background(), disabled, 10); err == nil {
		t.Fatal("expected error for disabled integration")
	} else if ie, _ := AsError(err); ie.Kind != KindNotConfigured {
		t.Errorf("kind = %v, want KindNotConfigured", ie.Kind)
	}

	noCreds := configFor(t, domain.TorrentClient, "qb.lan:8080")
	noCreds.Username = "admin"
	_, err := client.Downloads(context.Background(), noCreds, 10)
	ie, ok := AsError(err)
	if !ok || ie.Kind != KindIncomplete {
		t.Fatalf("error = %v, want KindIncomplete", err)
	}
	if ie.Message != "qBittorrent settings incomplete (host/port/username/password)" {
		t.Errorf("Message = %q", ie.Message)
	}
}
