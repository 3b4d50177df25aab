package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"stock-whisperer/pkg/logger"

	"golang.org/x/time/rate"
)

// StatusError is returned for non-2xx provider responses so callers and the
// retry loop can branch on the status code.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.StatusCode)
}

// ErrStopped is returned for work enqueued after the gateway has been stopped.
var ErrStopped = errors.New("gateway stopped")

// FetchFunc performs a single outbound call and returns the raw response body.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Config holds the throttling and retry settings for a Gateway.
type Config struct {
	Quota             int           // max calls per window
	Window            time.Duration // rolling quota window
	InterRequestDelay time.Duration // pause between consecutive dequeued calls
	MaxRetries        int           // retry cap for 429 and network failures
	DefaultRetryAfter time.Duration // wait for 429 without a retry-after hint
	InitialBackoff    time.Duration // first network-failure backoff step
	MaxBackoff        time.Duration // backoff ceiling
	RequestTimeout    time.Duration // per-attempt HTTP timeout
}

func (c *Config) applyDefaults() {
	if c.Quota <= 0 {
		c.Quota = 5
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	if c.InterRequestDelay <= 0 {
		c.InterRequestDelay = 200 * time.Millisecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DefaultRetryAfter <= 0 {
		c.DefaultRetryAfter = 2 * time.Second
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
}

type task struct {
	ctx    context.Context
	fn     FetchFunc
	result chan taskResult
}

type taskResult struct {
	body []byte
	err  error
}

// Gateway serializes outbound provider calls through a FIFO queue, enforces a
// fixed quota per rolling window and retries transient failures. All network
// calls to a provider are expected to funnel through one Gateway instance.
type Gateway struct {
	cfg    Config
	log    *logger.Logger
	client *http.Client

	mu    sync.Mutex
	queue []*task
	wake  chan struct{}

	windowStart time.Time
	callCount   int
	pacer       *rate.Limiter

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// New creates a Gateway and starts its single worker loop.
func New(cfg Config, log *logger.Logger) *Gateway {
	cfg.applyDefaults()
	g := &Gateway{
		cfg:     cfg,
		log:     log,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		wake:    make(chan struct{}, 1),
		pacer:   rate.NewLimiter(rate.Every(cfg.InterRequestDelay), 1),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go g.run()
	return g
}

// Enqueue adds a unit of work to the queue and blocks until it completes.
// FIFO order is guaranteed among calls enqueued while the worker is active,
// including enqueues made from within an executing fetch.
func (g *Gateway) Enqueue(ctx context.Context, fn FetchFunc) ([]byte, error) {
	select {
	case <-g.stopped:
		return nil, ErrStopped
	default:
	}

	t := &task{ctx: ctx, fn: fn, result: make(chan taskResult, 1)}

	g.mu.Lock()
	g.queue = append(g.queue, t)
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}

	select {
	case res := <-t.result:
		return res.body, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get performs a throttled GET against the given URL, returning the body on
// 2xx and a *StatusError otherwise.
func (g *Gateway) Get(ctx context.Context, url string) ([]byte, error) {
	return g.Enqueue(ctx, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{
				StatusCode: resp.StatusCode,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Body:       string(body),
			}
		}
		return body, nil
	})
}

// Stop shuts the worker down. Pending tasks fail with ErrStopped.
func (g *Gateway) Stop() {
	g.stopOnce.Do(func() { close(g.stopped) })
	<-g.done
}

func (g *Gateway) run() {
	defer close(g.done)
	g.windowStart = time.Now()

	for {
		t := g.dequeue()
		if t == nil {
			select {
			case <-g.wake:
				continue
			case <-g.stopped:
				g.failPending()
				return
			}
		}

		if t.ctx.Err() != nil {
			t.result <- taskResult{err: t.ctx.Err()}
			continue
		}

		if !g.waitForQuota(t) {
			g.failPending()
			return
		}

		if err := g.pacer.Wait(t.ctx); err != nil {
			t.result <- taskResult{err: err}
			continue
		}

		g.callCount++
		body, err := g.execute(t)
		t.result <- taskResult{body: body, err: err}
	}
}

func (g *Gateway) dequeue() *task {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return nil
	}
	t := g.queue[0]
	g.queue = g.queue[1:]
	return t
}

func (g *Gateway) failPending() {
	g.mu.Lock()
	pending := g.queue
	g.queue = nil
	g.mu.Unlock()
	for _, t := range pending {
		t.result <- taskResult{err: ErrStopped}
	}
}

// waitForQuota blocks the worker loop (never the enqueuers) until the current
// window has room for one more call. Returns false when the gateway stops.
func (g *Gateway) waitForQuota(t *task) bool {
	for {
		now := time.Now()
		if now.Sub(g.windowStart) >= g.cfg.Window {
			g.windowStart = now
			g.callCount = 0
		}
		if g.callCount < g.cfg.Quota {
			return true
		}

		wait := g.cfg.Window - now.Sub(g.windowStart)
		g.log.Debug("Gateway quota exhausted, waiting for window reset",
			logger.IntField("quota", g.cfg.Quota),
			logger.Field("wait", wait))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-g.stopped:
			timer.Stop()
			t.result <- taskResult{err: ErrStopped}
			return false
		}
	}
}

func (g *Gateway) execute(t *task) ([]byte, error) {
	var lastErr error
	backoff := g.cfg.InitialBackoff

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		body, err := t.fn(t.ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if t.ctx.Err() != nil {
			return nil, t.ctx.Err()
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			if statusErr.StatusCode != http.StatusTooManyRequests {
				// Non-retryable HTTP error; callers decide how to interpret it.
				return nil, err
			}
			wait := statusErr.RetryAfter
			if wait <= 0 {
				wait = g.cfg.DefaultRetryAfter
			}
			g.log.Warn("Provider rate limited request, retrying",
				logger.IntField("attempt", attempt+1),
				logger.Field("wait", wait))
			if !g.sleep(t.ctx, wait) {
				return nil, g.abortErr(t.ctx)
			}
			continue
		}

		// Network-level failure: exponential backoff with jitter.
		jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))
		wait := backoff + jitter
		if wait > g.cfg.MaxBackoff {
			wait = g.cfg.MaxBackoff
		}
		g.log.Warn("Request failed, backing off",
			logger.ErrorField(err),
			logger.IntField("attempt", attempt+1),
			logger.Field("wait", wait))
		if !g.sleep(t.ctx, wait) {
			return nil, g.abortErr(t.ctx)
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

// abortErr distinguishes a caller cancellation from a gateway shutdown.
func (g *Gateway) abortErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrStopped
}

func (g *Gateway) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-g.stopped:
		return false
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
