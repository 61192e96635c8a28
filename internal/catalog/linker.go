package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Presigner signs read URLs for stored objects.
type Presigner interface {
	PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error)
}

// URLCache caches signed URLs. Get reports a miss with ok == false.
type URLCache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Linker turns storage keys into URLs clients can fetch.
type Linker struct {
	baseURL   string
	presigner Presigner
	ttl       time.Duration
	cache     URLCache
	logger    *zap.SugaredLogger
}

// NewLinker links keys under baseURL when it is set, and with presigned GET
// URLs valid for ttl otherwise. cache may be nil.
func NewLinker(baseURL string, presigner Presigner, ttl time.Duration, cache URLCache, logger *zap.SugaredLogger) *Linker {
	return &Linker{
		baseURL:   strings.TrimRight(baseURL, "/"),
		presigner: presigner,
		ttl:       ttl,
		cache:     cache,
		logger:    logger,
	}
}

// URL returns nil for an absent key.
func (l *Linker) URL(ctx context.Context, key *string) (*string, error) {
	if key == nil || *key == "" {
		return nil, nil
	}
	k := strings.TrimLeft(*key, "/")

	if l.baseURL != "" {
		u := l.baseURL + "/" + k
		return &u, nil
	}

	cacheKey := "signed:" + k
	if l.cache != nil {
		if u, ok, err := l.cache.Get(ctx, cacheKey); err != nil {
			l.logger.Warnw("signed url cache read failed", "key", k, "error", err)
		} else if ok {
			return &u, nil
		}
	}

	u, err := l.presigner.PresignGetObject(ctx, k, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s: %w", k, err)
	}

	if l.cache != nil {
		// expire from the cache before the signature does
		if err := l.cache.Set(ctx, cacheKey, u, l.ttl-l.ttl/10); err != nil {
			l.logger.Warnw("signed url cache write failed", "key", k, "error", err)
		}
	}
	return &u, nil
}
