package source

import (
	"context"
	"errors"
	"time"

	"docgen"
	"docgen/internal/docx"

	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "docgen:template:"

// ErrCacheMiss is returned by a Store that does not hold a key.
var ErrCacheMiss = errors.New("source: cache miss")

// Store is the byte cache behind Cached.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cached keeps the raw bytes of templates in a Store. Documents are still
// parsed per Load so that callers never share a tree. Cache failures are
// logged and fall through to the origin.
type Cached struct {
	origin Reader
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCached(origin Reader, store Store, ttl time.Duration) *Cached {
	return &Cached{origin: origin, store: store, ttl: ttl, logger: docgen.Logger}
}

// WithLogger returns a copy of c logging to logger.
func (c *Cached) WithLogger(logger zerolog.Logger) *Cached {
	cp := *c
	cp.logger = logger
	return &cp
}

func (c *Cached) Read(ctx context.Context, name string) ([]byte, error) {
	data, _, _, err := c.read(ctx, name)
	return data, err
}

// read returns the template bytes, its cleaned name and whether the bytes
// came from the store.
func (c *Cached) read(ctx context.Context, name string) ([]byte, string, bool, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return nil, "", false, err
	}
	key := cacheKeyPrefix + cleaned

	data, err := c.store.Get(ctx, key)
	if err == nil {
		c.logger.Debug().Str("template", cleaned).Msg("Template cache hit")
		return data, cleaned, true, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn().Err(err).Str("template", cleaned).Msg("Template cache read failed")
	}

	data, err = c.fetch(ctx, cleaned)
	return data, cleaned, false, err
}

func (c *Cached) fetch(ctx context.Context, cleaned string) ([]byte, error) {
	data, err := c.origin.Read(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, cacheKeyPrefix+cleaned, data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("template", cleaned).Msg("Template cache write failed")
	}
	return data, nil
}

// Load parses the template. A cached entry that no longer parses is evicted
// and the template is read again from the origin.
func (c *Cached) Load(ctx context.Context, name string) (*docx.Document, error) {
	data, cleaned, hit, err := c.read(ctx, name)
	if err != nil {
		return nil, err
	}
	doc, err := docx.Parse(name, data)
	if err == nil || !hit {
		return doc, err
	}

	c.logger.Warn().Err(err).Str("template", cleaned).Msg("Evicting unreadable cached template")
	if delErr := c.store.Delete(ctx, cacheKeyPrefix+cleaned); delErr != nil {
		c.logger.Warn().Err(delErr).Str("template", cleaned).Msg("Template cache delete failed")
	}
	data, err = c.fetch(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	return docx.Parse(name, data)
}
