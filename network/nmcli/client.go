// Package nmcli implements network.Manager by driving the nmcli command
// line tool and NetworkManager's secret interface.
package nmcli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shazow/nmctl/network"
)

// DefaultResetDelay is how long the radio stays off during ResetWifi. The
// hardware reinitializes asynchronously and reports no completion.
const DefaultResetDelay = 5 * time.Second

// Options configures a Client. The zero value is usable.
type Options struct {
	// Secrets defaults to BusSecrets over the Client's transport.
	Secrets SecretSource
	// MinVersion defaults to MinVersion.
	MinVersion string
	// ResetDelay defaults to DefaultResetDelay.
	ResetDelay time.Duration
	Logger     *slog.Logger
}

// Client implements network.Manager on top of a Transport.
//
// Every read re-queries nmcli. The only state kept between calls is a cache
// of hardware addresses per device. Concurrent callers are not serialized.
type Client struct {
	transport  Transport
	secrets    SecretSource
	logger     *slog.Logger
	resetDelay time.Duration
	version    string

	mu      sync.Mutex
	hwAddrs map[string]string
}

var _ network.Manager = (*Client)(nil)

// New creates a Client and checks that the installed nmcli is recent
// enough. It returns network.ErrIncompatibleVersion for older releases and
// network.ErrNotAvailable when the version cannot be queried.
func New(ctx context.Context, t Transport, opts Options) (*Client, error) {
	c := &Client{
		transport:  t,
		secrets:    opts.Secrets,
		logger:     opts.Logger,
		resetDelay: opts.ResetDelay,
		hwAddrs:    make(map[string]string),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.secrets == nil {
		c.secrets = BusSecrets{Transport: t}
	}
	if c.resetDelay == 0 {
		c.resetDelay = DefaultResetDelay
	}
	minVersion := opts.MinVersion
	if minVersion == "" {
		minVersion = MinVersion
	}

	if err := c.checkVersion(ctx, minVersion); err != nil {
		return nil, err
	}
	return c, nil
}

// Version returns the nmcli version found by New.
func (c *Client) Version() string {
	return c.version
}

func (c *Client) checkVersion(ctx context.Context, minVersion string) error {
	r := c.run(ctx, "--version")
	if !r.OK() {
		return fmt.Errorf("failed to query nmcli version: %w: %w", network.ErrNotAvailable, commandError([]string{"--version"}, r))
	}
	v := parseVersionOutput(r.Output)
	cmp, err := CompareVersions(v, minVersion)
	if err != nil {
		return fmt.Errorf("unrecognized nmcli version %q: %w", v, network.ErrIncompatibleVersion)
	}
	if cmp < 0 {
		c.logger.Error("nmcli version too old", "version", v, "minimum", minVersion)
		return fmt.Errorf("nmcli %s is older than %s: %w", v, minVersion, network.ErrIncompatibleVersion)
	}
	c.version = v
	return nil
}

func (c *Client) run(ctx context.Context, args ...string) Result {
	return c.transport.Execute(ctx, TargetTool, args...)
}

// query runs a read-only command and returns its output, or a
// *CommandError when it exits non-zero.
func (c *Client) query(ctx context.Context, args ...string) (string, error) {
	r := c.run(ctx, args...)
	if !r.OK() {
		return "", commandError(args, r)
	}
	return r.Output, nil
}

// exec runs a mutating command and converts failure into a *CommandError.
func (c *Client) exec(ctx context.Context, args ...string) error {
	r := c.run(ctx, args...)
	if !r.OK() {
		err := commandError(args, r)
		c.logger.Warn("command failed", "error", err)
		return err
	}
	return nil
}
