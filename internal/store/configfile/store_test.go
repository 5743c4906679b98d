package configfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/logger"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", DefaultFileName)
	return New(path, logger.NewNop()), path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store, path := newTestStore(t)

	cfg := store.Load(context.Background())

	if len(cfg.Tiles) != 0 {
		t.Errorf("expected no tiles, got %d", len(cfg.Tiles))
	}
	if cfg.Integrations != domain.DefaultIntegrations() {
		t.Errorf("expected default integrations, got %+v", cfg.Integrations)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Load should not create the file, stat err = %v", err)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	cfg := domain.DefaultAppConfig()
	cfg.Tiles = []domain.Tile{
		{ID: "svc-1", Name: "Sonarr", URL: "192.168.1.50:8989", Protocol: "http", Host: "192.168.1.50", Port: 8989},
		{ID: "svc-2", Name: "NAS", URL: "https://nas.lan", Protocol: "https", Host: "nas.lan", Port: 443},
	}
	cfg.Integrations.MediaServer.Enabled = true
	cfg.Integrations.MediaServer.Host = "10.0.0.5"
	cfg.Integrations.MediaServer.Token = "plex-token"

	saved, err := store.Save(ctx, cfg)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Fresh store: bypass the in-memory copy.
	reloaded := New(path, logger.NewNop()).Load(ctx)

	if len(reloaded.Tiles) != 2 || reloaded.Tiles[0] != saved.Tiles[0] || reloaded.Tiles[1] != saved.Tiles[1] {
		t.Errorf("tiles not preserved: %+v", reloaded.Tiles)
	}
	if reloaded.Integrations != saved.Integrations {
		t.Errorf("integrations = %+v, want %+v", reloaded.Integrations, saved.Integrations)
	}
	if reloaded.Integrations.MediaServer.Token != "plex-token" {
		t.Errorf("token lost on disk")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store, path := newTestStore(t)

	if _, err := store.Save(context.Background(), domain.DefaultAppConfig()); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != DefaultFileName {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only %s", names, DefaultFileName)
	}
}

func TestLoadLegacyShapes(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantTiles int
		check     func(t *testing.T, cfg domain.AppConfig)
	}{
		{
			name:      "bare tile array",
			content:   `[{"id":"svc-a","name":"Radarr","url":"radarr.lan:7878","host":"radarr.lan","port":7878,"protocol":"http"}]`,
			wantTiles: 1,
			check: func(t *testing.T, cfg domain.AppConfig) {
				if cfg.Tiles[0].Name != "Radarr" {
					t.Errorf("tile = %+v", cfg.Tiles[0])
				}
				if cfg.Integrations != domain.DefaultIntegrations() {
					t.Errorf("integrations not defaulted: %+v", cfg.Integrations)
				}
			},
		},
		{
			name: "containers and product keys",
			content: `{
				"containers": [{"id":"svc-b","name":"Plex","url":"http://plex.lan:32400"}],
				"integrations": {
					"plex": {"enabled": true, "host": "plex.lan", "token": "abc"},
					"qbittorrent": {"enabled": true, "host": "qb.lan", "username": "admin", "password": "pw"},
					"overseerr": {"apiKey": "key"}
				}
			}`,
			wantTiles: 1,
			check: func(t *testing.T, cfg domain.AppConfig) {
				ms := cfg.Integrations.MediaServer
				if !ms.Enabled || ms.Host != "plex.lan" || ms.Token != "abc" || ms.Port != 32400 || ms.Name != "Plex" {
					t.Errorf("media server = %+v", ms)
				}
				tc := cfg.Integrations.TorrentClient
				if tc.Username != "admin" || tc.Password != "pw" || tc.Port != 8080 {
					t.Errorf("torrent client = %+v", tc)
				}
				if cfg.Integrations.RequestManager.APIKey != "key" || cfg.Integrations.RequestManager.Enabled {
					t.Errorf("request manager = %+v", cfg.Integrations.RequestManager)
				}
			},
		},
		{
			name:      "current shape wins over legacy keys",
			content:   `{"version":1,"tiles":[],"containers":[{"id":"x","name":"old"}],"integrations":{"mediaServer":{"host":"new.lan"},"plex":{"host":"old.lan"}}}`,
			wantTiles: 0,
			check: func(t *testing.T, cfg domain.AppConfig) {
				if cfg.Integrations.MediaServer.Host != "new.lan" {
					t.Errorf("media server host = %q, want new.lan", cfg.Integrations.MediaServer.Host)
				}
			},
		},
		{
			name:      "corrupt document",
			content:   `{"tiles": [`,
			wantTiles: 0,
			check: func(t *testing.T, cfg domain.AppConfig) {
				if cfg.Integrations != domain.DefaultIntegrations() {
					t.Errorf("expected defaults, got %+v", cfg.Integrations)
				}
			},
		},
		{
			name:      "scalar document",
			content:   `"nope"`,
			wantTiles: 0,
		},
		{
			name:      "empty file",
			content:   "",
			wantTiles: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, path := newTestStore(t)
			writeFile(t, path, tt.content)

			cfg := store.Load(context.Background())

			if cfg.Tiles == nil {
				t.Fatalf("Tiles must never be nil")
			}
			if len(cfg.Tiles) != tt.wantTiles {
				t.Fatalf("got %d tiles, want %d", len(cfg.Tiles), tt.wantTiles)
			}
			if cfg.Version != domain.CurrentConfigVersion {
				t.Errorf("Version = %d", cfg.Version)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestUpdateKeepsUntouchedSecrets(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	_, err := store.Update(ctx, func(cfg *domain.AppConfig) error {
		cfg.Integrations.TorrentClient.Username = "admin"
		cfg.Integrations.TorrentClient.Password = "secret"
		cfg.Integrations.TorrentClient.Host = "qb.lan"
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	_, err = store.Update(ctx, func(cfg *domain.AppConfig) error {
		cfg.Integrations.TorrentClient.Enabled = true
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got := New(path, logger.NewNop()).Load(ctx).Integrations.TorrentClient
	if !got.Enabled || got.Username != "admin" || got.Password != "secret" || got.Host != "qb.lan" {
		t.Errorf("torrent client after partial update = %+v", got)
	}
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	store, path := newTestStore(t)
	boom := errors.New("boom")

	_, err := store.Update(context.Background(), func(cfg *domain.AppConfig) error {
		cfg.Tiles = append(cfg.Tiles, domain.Tile{ID: "x"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist after failed update")
	}
	if n := len(store.Load(context.Background()).Tiles); n != 0 {
		t.Errorf("cache mutated by failed update: %d tiles", n)
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	store, path := newTestStore(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(ctx, func(cfg *domain.AppConfig) error {
				cfg.Tiles = append(cfg.Tiles, domain.Tile{ID: fmt.Sprintf("svc-%d", i), Name: "t"})
				return nil
			})
			if err != nil {
				t.Errorf("Update() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got := New(path, logger.NewNop()).Load(ctx)
	if len(got.Tiles) != writers {
		t.Errorf("got %d tiles on disk, want %d", len(got.Tiles), writers)
	}
}

func TestLoadReturnsCopies(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	cfg := domain.DefaultAppConfig()
	cfg.Tiles = []domain.Tile{{ID: "svc-1", Name: "one"}}
	if _, err := store.Save(ctx, cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	first := store.Load(ctx)
	first.Tiles[0].Name = "mutated"

	if got := store.Load(ctx).Tiles[0].Name; got != "one" {
		t.Errorf("cached document mutated through Load result: %q", got)
	}
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	writeFile(t, blocker, "x")

	// Parent "directory" is a regular file, MkdirAll must fail.
	store := New(filepath.Join(blocker, DefaultFileName), logger.NewNop())

	_, err := store.Save(context.Background(), domain.DefaultAppConfig())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Save() error = %v, want ErrPersistence", err)
	}
	if !strings.Contains(err.Error(), "create directory") {
		t.Errorf("error should name the failing step: %v", err)
	}
}
