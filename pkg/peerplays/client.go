package peerplays

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rafflelab/backend/pkg/xcontext"
)

const (
	maxBackoff                 = 60 * time.Second
	defaultHealthCheckInterval = 10 * time.Second
	dialTimeout                = 5 * time.Second
)

var ErrNoEndpoint = errors.New("no peerplays endpoint available")

type ClientConfigs struct {
	Endpoints           []string
	HealthCheckInterval time.Duration

	// MaxRetryTimeout bounds the total time spent reconnecting. Zero means
	// retrying forever.
	MaxRetryTimeout time.Duration
}

// Client is a websocket JSON-RPC connection to one node of the endpoint list.
// It fails over to another node when the health check fails.
type Client struct {
	cfg ClientConfigs

	mutex    sync.RWMutex
	conn     *rpc.Client
	endpoint string

	sleep  func(context.Context, time.Duration) error
	cancel context.CancelFunc
	done   chan struct{}
}

func Dial(ctx context.Context, cfg ClientConfigs) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoint
	}

	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = defaultHealthCheckInterval
	}

	c := &Client{cfg: cfg, sleep: sleepContext, done: make(chan struct{})}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	heartbeatCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.heartbeat(heartbeatCtx)

	return c, nil
}

func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Endpoint() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.endpoint
}

// Call invokes method of the named api, e.g. ("database", "get_chain_id").
func (c *Client) Call(ctx context.Context, result any, api, method string, params ...any) error {
	c.mutex.RLock()
	conn := c.conn
	c.mutex.RUnlock()

	if conn == nil {
		return ErrNoEndpoint
	}

	if params == nil {
		params = []any{}
	}

	if err := conn.CallContext(ctx, result, "call", api, method, params); err != nil {
		return fmt.Errorf("%s.%s: %w", api, method, err)
	}

	return nil
}

func (c *Client) heartbeat(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		callCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthCheckInterval)
		var props map[string]any
		err := c.Call(callCtx, &props, apiDatabase, methodGetGlobalProperties)
		cancel()
		if err == nil || ctx.Err() != nil {
			continue
		}

		xcontext.Logger(ctx).Warnf("Peerplays node %s is unhealthy, reconnecting: %v", c.Endpoint(), err)
		if err := c.connect(ctx); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot reconnect to peerplays: %v", err)
		}
	}
}

// connect dials every endpoint, keeps the fastest one and retries with an
// exponential backoff if none answers.
func (c *Client) connect(ctx context.Context) error {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		conn, endpoint, err := c.dialFastest(ctx)
		if err == nil {
			c.mutex.Lock()
			old := c.conn
			c.conn, c.endpoint = conn, endpoint
			c.mutex.Unlock()

			if old != nil {
				old.Close()
			}

			xcontext.Logger(ctx).Infof("Connected to peerplays node %s", endpoint)
			return nil
		}

		backoff := Backoff(attempt)
		if c.cfg.MaxRetryTimeout > 0 && time.Since(start)+backoff > c.cfg.MaxRetryTimeout {
			return fmt.Errorf("%w: %v", ErrNoEndpoint, err)
		}

		xcontext.Logger(ctx).Warnf("Cannot connect to peerplays, retry in %s: %v", backoff, err)
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
	}
}

type dialResult struct {
	conn     *rpc.Client
	endpoint string
	latency  time.Duration
}

func (c *Client) dialFastest(ctx context.Context) (*rpc.Client, string, error) {
	results := make([]dialResult, 0, len(c.cfg.Endpoints))
	var lastErr error
	for _, endpoint := range c.cfg.Endpoints {
		conn, latency, err := dialEndpoint(ctx, endpoint)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot dial peerplays node %s: %v", endpoint, err)
			lastErr = err
			continue
		}

		results = append(results, dialResult{conn: conn, endpoint: endpoint, latency: latency})
	}

	if len(results) == 0 {
		return nil, "", lastErr
	}

	sort.Slice(results, func(i, j int) bool { return results[i].latency < results[j].latency })
	for _, r := range results[1:] {
		r.conn.Close()
	}

	return results[0].conn, results[0].endpoint, nil
}

func dialEndpoint(ctx context.Context, endpoint string) (*rpc.Client, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	start := time.Now()
	conn, err := rpc.DialWebsocket(ctx, endpoint, "")
	if err != nil {
		return nil, 0, err
	}

	var chainID string
	if err := conn.CallContext(ctx, &chainID, "call", apiDatabase, methodGetChainID, []any{}); err != nil {
		conn.Close()
		return nil, 0, err
	}

	return conn, time.Since(start), nil
}

// Backoff returns the delay before the given reconnection attempt, starting at
// two seconds and capped at one minute.
func Backoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}

	d := time.Duration(math.Pow(2, float64(attempt+1))) * time.Second
	if d > maxBackoff {
		return maxBackoff
	}

	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
