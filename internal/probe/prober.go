package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/metrics"
	"github.com/MrSnakeDoc/homedash/internal/utils"
)

const (
	DefaultTimeout       = 3 * time.Second
	DefaultOfflineStatus = 500

	errNoURL      = "No URL configured"
	errInvalidURL = "Invalid URL"
)

// Options tunes the prober.
type Options struct {
	Timeout        time.Duration // per probe, 0 = DefaultTimeout
	OfflineStatus  int           // lowest status reported offline, 0 = DefaultOfflineStatus
	MaxConcurrency int           // 0 = one goroutine per tile
	SkipTLSVerify  bool          // accept self-signed certificates
}

// Prober checks tile reachability with HEAD requests.
type Prober struct {
	client *http.Client
	opts   Options
	logger logger.Logger
}

func New(opts Options, log logger.Logger) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.OfflineStatus <= 0 {
		opts.OfflineStatus = DefaultOfflineStatus
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.Timeout,
				KeepAlive: 0,
			}).DialContext,
			TLSHandshakeTimeout: opts.Timeout,
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: opts.SkipTLSVerify, //nolint:gosec // homelab services commonly run self-signed
			},
			DisableKeepAlives: true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// A redirect is an answer, don't follow it
			return http.ErrUseLastResponse
		},
	}

	return &Prober{
		client: client,
		opts:   opts,
		logger: log,
	}
}

// ProbeAll checks every tile concurrently. Results keep the input order and
// one failing tile never affects another.
func (p *Prober) ProbeAll(ctx context.Context, tiles []domain.Tile) []domain.ProbeResult {
	results := make([]domain.ProbeResult, len(tiles))
	if len(tiles) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.opts.MaxConcurrency > 0 {
		g.SetLimit(p.opts.MaxConcurrency)
	}

	for i := range tiles {
		g.Go(func() error {
			results[i] = p.Probe(gctx, tiles[i])
			return nil
		})
	}
	_ = g.Wait() // probes never return errors

	return results
}

// Probe checks a single tile.
func (p *Prober) Probe(ctx context.Context, tile domain.Tile) domain.ProbeResult {
	res := domain.ProbeResult{Tile: tile}

	target, reason := CheckURL(tile)
	if target == "" {
		res.URL = tile.URL // echo what the user typed
		res.Error = reason
		metrics.RecordProbe("skipped", 0)
		return res
	}
	res.URL = target

	start := time.Now()
	status, err := p.head(ctx, target)
	elapsed := time.Since(start)
	res.LatencyMs = elapsed.Milliseconds()

	if err != nil {
		res.Error = describe(err)
		metrics.RecordProbe("error", elapsed)
		p.logger.Debug("probe failed",
			logger.String("tile", tile.ID),
			logger.String("url", target),
			logger.Error(err))
		return res
	}

	res.StatusCode = &status
	res.Online = status > 0 && status < p.opts.OfflineStatus
	if res.Online {
		metrics.RecordProbe("online", elapsed)
	} else {
		metrics.RecordProbe("offline", elapsed)
	}
	return res
}

func (p *Prober) head(ctx context.Context, target string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, http.NoBody)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	utils.Close(resp.Body)
	return resp.StatusCode, nil
}

// CheckURL returns the address a tile is probed at. Stored coordinates win
// over the raw URL. When nothing can be probed the returned reason is set.
func CheckURL(tile domain.Tile) (target, reason string) {
	if ep, ok := tile.Endpoint(); ok {
		return ep.String(), ""
	}
	if tile.URL == "" {
		return "", errNoURL
	}
	ep, err := domain.ParseEndpoint(tile.URL)
	if err != nil {
		return "", errInvalidURL
	}
	return ep.String(), ""
}

func describe(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return err.Error()
}
