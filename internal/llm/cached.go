package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// CachedClient serves repeated prompts from a TTL cache and spaces requests
// with a token bucket.
type CachedClient struct {
	inner   Client
	cache   *completionCache
	limiter *rateLimiter
	model   string
}

// Wrap adds caching and rate limiting around inner.
func Wrap(inner Client, cfg Config) *CachedClient {
	return &CachedClient{
		inner:   inner,
		cache:   newCompletionCache(cfg.CacheTTL),
		limiter: newRateLimiter(cfg.RateLimit),
		model:   cfg.Model,
	}
}

// Provider returns the wrapped provider's name.
func (c *CachedClient) Provider() string {
	return c.inner.Provider()
}

// Complete returns a cached answer when the same prompt was answered within
// the TTL, otherwise waits for a token and asks the provider.
func (c *CachedClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	key := c.cacheKey(prompt)
	if text, ok := c.cache.get(key); ok {
		slog.Debug("llm cache hit", "provider", c.Provider())
		return text, nil
	}

	if err := c.limiter.wait(ctx); err != nil {
		return "", err
	}

	text, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.cache.set(key, text)
	return text, nil
}

// Close stops the cache janitor.
func (c *CachedClient) Close() {
	c.cache.Close()
}

func (c *CachedClient) cacheKey(p Prompt) string {
	h := sha256.New()
	for _, part := range []string{c.inner.Provider(), c.model, p.System, p.User} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
