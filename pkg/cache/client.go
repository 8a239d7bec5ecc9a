// Package cache wraps the Olric cluster client as the gateway's tenant KV
// capability. Every operation is scoped to a tenant's derived namespace:
// the namespace identifier names the DMap, so tenants can never observe
// each other's keys.
package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	olriclib "github.com/olric-data/olric"
	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/errors"
	"github.com/matchid-dev/appgate/pkg/namespace"
)

// Client wraps an Olric cluster client for namespaced cache operations.
type Client struct {
	client  olriclib.Client
	logger  *zap.Logger
	timeout time.Duration
}

// Config holds configuration for the cache client.
type Config struct {
	// Servers is a list of Olric server addresses (e.g., ["localhost:3320"]).
	// If empty, defaults to ["localhost:3320"].
	Servers []string

	// Timeout is the timeout for client operations.
	// If zero, defaults to 10 seconds.
	Timeout time.Duration
}

// NewClient creates a new cache client wrapper.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	servers := cfg.Servers
	if len(servers) == 0 {
		servers = []string{"localhost:3320"}
	}

	client, err := olriclib.NewClusterClient(servers)
	if err != nil {
		return nil, fmt.Errorf("failed to create Olric cluster client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		client:  client,
		logger:  logger,
		timeout: timeout,
	}, nil
}

// Get returns the value stored under key in the tenant's namespace.
// Returns a NotFoundError when the key does not exist.
func (c *Client) Get(ctx context.Context, ns namespace.Namespace, key string) (string, error) {
	dm, err := c.client.NewDMap(ns.String())
	if err != nil {
		return "", errors.NewCacheError("get", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	gr, err := dm.Get(ctx, key)
	if err != nil {
		if isKeyNotFound(err) {
			return "", errors.NewNotFoundError("key", key)
		}
		return "", errors.NewCacheError("get", err)
	}

	value, err := gr.String()
	if err != nil {
		return "", errors.NewCacheError("decode", err)
	}
	return value, nil
}

// Put stores value under key in the tenant's namespace.
func (c *Client) Put(ctx context.Context, ns namespace.Namespace, key, value string) error {
	dm, err := c.client.NewDMap(ns.String())
	if err != nil {
		return errors.NewCacheError("put", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := dm.Put(ctx, key, value); err != nil {
		return errors.NewCacheError("put", err)
	}
	return nil
}

// Delete removes key from the tenant's namespace. Returns a NotFoundError
// when nothing was deleted.
func (c *Client) Delete(ctx context.Context, ns namespace.Namespace, key string) error {
	dm, err := c.client.NewDMap(ns.String())
	if err != nil {
		return errors.NewCacheError("delete", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	deleted, err := dm.Delete(ctx, key)
	if err != nil {
		if isKeyNotFound(err) {
			return errors.NewNotFoundError("key", key)
		}
		return errors.NewCacheError("delete", err)
	}
	if deleted == 0 {
		return errors.NewNotFoundError("key", key)
	}
	return nil
}

// Scan lists keys in the tenant's namespace, optionally filtered by a match
// expression.
func (c *Client) Scan(ctx context.Context, ns namespace.Namespace, match string) ([]string, error) {
	dm, err := c.client.NewDMap(ns.String())
	if err != nil {
		return nil, errors.NewCacheError("scan", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var iterator olriclib.Iterator
	if match != "" {
		iterator, err = dm.Scan(ctx, olriclib.Match(match))
	} else {
		iterator, err = dm.Scan(ctx)
	}
	if err != nil {
		return nil, errors.NewCacheError("scan", err)
	}
	defer iterator.Close()

	keys := make([]string, 0)
	for iterator.Next() {
		keys = append(keys, iterator.Key())
	}
	return keys, nil
}

// Health checks if the cache is reachable with a put/get round trip.
func (c *Client) Health(ctx context.Context) error {
	dm, err := c.client.NewDMap("_health_check")
	if err != nil {
		return fmt.Errorf("failed to create DMap for health check: %w", err)
	}

	testKey := fmt.Sprintf("_health_%d", time.Now().UnixNano())
	testValue := "ok"

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := dm.Put(ctx, testKey, testValue); err != nil {
		return fmt.Errorf("health check put failed: %w", err)
	}

	gr, err := dm.Get(ctx, testKey)
	if err != nil {
		return fmt.Errorf("health check get failed: %w", err)
	}

	val, err := gr.String()
	if err != nil {
		return fmt.Errorf("health check value decode failed: %w", err)
	}
	if val != testValue {
		return fmt.Errorf("health check value mismatch: expected %q, got %q", testValue, val)
	}

	_, _ = dm.Delete(ctx, testKey)

	return nil
}

// Close closes the cache client connection.
func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close(ctx)
}

// isKeyNotFound handles both wrapped and string-form not-found errors from
// Olric.
func isKeyNotFound(err error) bool {
	return stderrors.Is(err, olriclib.ErrKeyNotFound) || strings.Contains(err.Error(), "key not found")
}
