package integrations

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MrSnakeDoc/homedash/internal/domain"
	"github.com/MrSnakeDoc/homedash/internal/logger"
	"github.com/MrSnakeDoc/homedash/internal/metrics"
	"github.com/MrSnakeDoc/homedash/internal/utils"
)

const (
	DefaultTimeout         = 10 * time.Second
	DefaultBreakerCooldown = 30 * time.Second

	maxBodyBytes = 8 << 20
	userAgent    = "homedash"
)

// ClientOptions configures the HTTP client shared by every adapter.
type ClientOptions struct {
	Timeout       time.Duration
	SkipTLSVerify bool

	// BreakerFailures is the number of consecutive transport errors or 5xx
	// answers that open an upstream's circuit. Zero disables the breaker.
	BreakerFailures int
	// BreakerCooldown is how long an open circuit rejects calls before a
	// single trial request is let through.
	BreakerCooldown time.Duration
}

// Client performs upstream calls with a hard timeout and turns every
// failure into an *Error.
type Client struct {
	http    *http.Client
	timeout time.Duration
	logger  logger.Logger

	breakerFailures uint32
	breakerCooldown time.Duration
	mu              sync.Mutex
	breakers        map[string]*gobreaker.CircuitBreaker[*response] // by upstream host
}

func NewClient(opts ClientOptions, log logger.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: opts.Timeout,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: opts.SkipTLSVerify, //nolint:gosec // self-signed homelab upstreams
		},
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		timeout: opts.Timeout,
		logger:  log,

		breakerFailures: uint32(max(opts.BreakerFailures, 0)),
		breakerCooldown: cmp.Or(opts.BreakerCooldown, DefaultBreakerCooldown),
		breakers:        make(map[string]*gobreaker.CircuitBreaker[*response]),
	}
}

// breaker returns the circuit for host, nil when breaking is off.
func (c *Client) breaker(host string) *gobreaker.CircuitBreaker[*response] {
	if c.breakerFailures == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	threshold := c.breakerFailures
	cb := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Upstream 4xx means the service is up but refused us; only
		// unreachable or failing upstreams count against the circuit.
		IsSuccessful: func(err error) bool {
			ie, ok := AsError(err)
			if !ok {
				return err == nil
			}
			return ie.Kind != KindTransport && !(ie.Kind == KindUpstreamStatus && ie.StatusCode >= 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitState(name, to.String())
			c.logger.Warn("upstream circuit state changed",
				logger.String("upstream", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	c.breakers[host] = cb
	metrics.RecordCircuitState(host, gobreaker.StateClosed.String())
	return cb
}

// response is a fully read upstream answer.
type response struct {
	status  int
	header  http.Header
	cookies []*http.Cookie
	body    []byte
}

// call describes one upstream request.
type call struct {
	service   string
	operation string
	// failure replaces the default failure message when set.
	failure string
	// isolated calls bypass the host circuit and never count against it.
	isolated bool
}

func (cl call) failureMessage() string {
	if cl.failure != "" {
		return cl.failure
	}
	return "Error while talking to " + cl.service
}

// do sends req and reads the body. Non-2xx answers, transport errors and
// calls rejected by an open circuit come back as *Error.
func (c *Client) do(ctx context.Context, cl call, req *http.Request) (*response, error) {
	var cb *gobreaker.CircuitBreaker[*response]
	if !cl.isolated {
		cb = c.breaker(req.URL.Host)
	}
	if cb == nil {
		return c.send(ctx, cl, req)
	}

	out, err := cb.Execute(func() (*response, error) {
		return c.send(ctx, cl, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordUpstream(cl.service, cl.operation, 0, err)
		return nil, &Error{
			Kind:    KindUnavailable,
			Service: cl.service,
			Message: cl.service + " is temporarily unavailable",
			Detail:  "upstream failed repeatedly, retrying after " + c.breakerCooldown.String(),
			Err:     err,
		}
	}
	return out, err
}

func (c *Client) send(ctx context.Context, cl call, req *http.Request) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req = req.WithContext(ctx)
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		detail, cause := scrubError(err)
		metrics.RecordUpstream(cl.service, cl.operation, time.Since(start), err)
		c.logger.Warn("upstream call failed",
			logger.String("service", cl.service),
			logger.String("operation", cl.operation),
			logger.String("error", detail))
		return nil, &Error{
			Kind:    KindTransport,
			Service: cl.service,
			Message: cl.failureMessage(),
			Detail:  detail,
			Err:     cause,
		}
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		detail, cause := scrubError(err)
		metrics.RecordUpstream(cl.service, cl.operation, time.Since(start), err)
		return nil, &Error{
			Kind:    KindTransport,
			Service: cl.service,
			Message: cl.failureMessage(),
			Detail:  detail,
			Err:     cause,
		}
	}

	out := &response{
		status:  resp.StatusCode,
		header:  resp.Header,
		cookies: resp.Cookies(),
		body:    body,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := cl.failure
		if msg == "" {
			msg = fmt.Sprintf("%s responded with status %d", cl.service, resp.StatusCode)
		}
		upstreamErr := &Error{
			Kind:       KindUpstreamStatus,
			Service:    cl.service,
			Message:    msg,
			StatusCode: resp.StatusCode,
			Detail:     excerpt(body),
		}
		metrics.RecordUpstream(cl.service, cl.operation, time.Since(start), upstreamErr)
		c.logger.Warn("upstream returned non-success status",
			logger.String("service", cl.service),
			logger.String("operation", cl.operation),
			logger.Int("status", resp.StatusCode))
		return out, upstreamErr
	}

	metrics.RecordUpstream(cl.service, cl.operation, time.Since(start), nil)
	return out, nil
}

// scrubError renders err without the request URL's query, userinfo and
// fragment. Upstream tokens travel in query strings.
func scrubError(err error) (string, error) {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err.Error(), err
	}
	return ue.Op + " " + redactURL(ue.URL) + ": " + ue.Err.Error(), ue.Err
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "request"
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
}

// invalidRequest reports a request that could not be built from the settings.
func invalidRequest(service string, err error) *Error {
	detail, cause := scrubError(err)
	return &Error{Kind: KindIncomplete, Service: service, Message: service + " settings invalid", Detail: detail, Err: cause}
}

// decodeJSON unmarshals an upstream body into v.
func decodeJSON(service string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{
			Kind:    KindDecode,
			Service: service,
			Message: "Unexpected response from " + service,
			Detail:  excerpt(body),
			Err:     err,
		}
	}
	return nil
}

// serviceName returns the display name stored in the settings.
func serviceName(key domain.IntegrationKey, cfg domain.IntegrationConfig) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return domain.DefaultIntegration(key).Name
}

// baseURL returns the upstream root for cfg, "" when coordinates are missing.
func baseURL(cfg domain.IntegrationConfig) string {
	ep, ok := cfg.Endpoint()
	if !ok {
		return ""
	}
	return strings.TrimRight(ep.String(), "/")
}
