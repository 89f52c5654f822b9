package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"
)

const (
	connectTimeout = 5 * time.Second
	healthTimeout  = 500 * time.Millisecond
)

// Config points at the Valkey instance shared by bot processes.
type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string        // e.g. "azwabot:", a trailing ":" is added when missing
	ConnectTimeout time.Duration // 0 means connectTimeout
}

// Client is the connection used for the schedule store lease and for health
// reporting. Create it with NewClient and Close it on shutdown.
type Client struct {
	inner   valkeylib.Client
	prefix  string
	address string
}

// NewClient connects and pings once so a wrong address fails at startup
// instead of on the first scan.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
		Password:    cfg.Password,
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client for %s: %w", cfg.Address, err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = connectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c := &Client{inner: inner, prefix: normalizePrefix(cfg.KeyPrefix), address: cfg.Address}
	if err := c.Ping(ctx); err != nil {
		inner.Close()
		return nil, fmt.Errorf("valkey at %s did not answer within %v: %w", cfg.Address, timeout, err)
	}

	logrus.Debugf("[VALKEY] Connected to %s (db %d, prefix %q)", cfg.Address, cfg.DB, c.prefix)
	return c, nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return prefix
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key joins parts under the configured prefix: Key("lock", "x") -> "azwabot:lock:x".
func (c *Client) Key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// IsConnected pings with a short timeout. Used by the health endpoint.
func (c *Client) IsConnected() bool {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		logrus.WithError(err).Debugf("[VALKEY] %s unreachable", c.address)
		return false
	}
	return true
}

// IsNil reports whether err is a Valkey nil reply, e.g. SET NX on a taken key.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
