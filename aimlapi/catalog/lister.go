package catalog

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
	"github.com/BaSui01/aimlflow/aimlapi/request"
	"github.com/BaSui01/aimlflow/internal/cache"
)

// Doer performs one HTTP exchange.
type Doer interface {
	Do(ctx context.Context, d *request.Descriptor) (*payload.Payload, error)
}

// CacheRecorder observes catalog cache lookups.
type CacheRecorder interface {
	RecordCacheLookup(cache string, hit bool)
}

// ModelsFromListing returns the model entries of a listing response. The
// listing may be {"models": [...]}, {"data": [...]} or a bare array.
func ModelsFromListing(p *payload.Payload) []*payload.Node {
	if p == nil {
		return nil
	}
	root := p.Root()
	list := root
	for _, key := range []string{"models", "data"} {
		if n := root.Get(key); n != nil && n.Kind != payload.KindNull {
			list = n
			break
		}
	}
	return list.Items()
}

// Lister fetches GET {base}/models and caches the raw listing.
type Lister struct {
	doer     Doer
	store    cache.Store
	ttl      time.Duration
	logger   *zap.Logger
	recorder CacheRecorder
	group    singleflight.Group
}

// ListerOption configures a Lister.
type ListerOption func(*Lister)

// WithTTL sets how long a listing stays cached.
func WithTTL(ttl time.Duration) ListerOption {
	return func(l *Lister) { l.ttl = ttl }
}

// WithCacheRecorder attaches a cache metrics recorder.
func WithCacheRecorder(r CacheRecorder) ListerOption {
	return func(l *Lister) { l.recorder = r }
}

// NewLister creates a Lister. A nil store disables caching.
func NewLister(doer Doer, store cache.Store, logger *zap.Logger, opts ...ListerOption) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Lister{
		doer:   doer,
		store:  store,
		ttl:    10 * time.Minute,
		logger: logger.With(zap.String("component", "catalog")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func cacheKey(baseURL string) string {
	base, _ := request.ResolveEndpoint(baseURL, "/models")
	return "catalog:" + base
}

// Models returns every listed model for baseURL.
func (l *Lister) Models(ctx context.Context, baseURL string) ([]*payload.Node, error) {
	key := cacheKey(baseURL)

	if l.store != nil {
		raw, err := l.store.Get(ctx, key)
		switch {
		case err == nil:
			if p, perr := payload.Parse([]byte(raw)); perr == nil {
				l.record(true)
				return ModelsFromListing(p), nil
			}
			l.logger.Warn("discarding corrupt catalog cache entry", zap.String("key", key))
		case !cache.IsCacheMiss(err):
			l.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		l.record(false)
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		d := request.Build(baseURL, "/models", http.MethodGet)
		p, err := l.doer.Do(ctx, d)
		if err != nil {
			return nil, err
		}
		if l.store != nil {
			if err := l.store.Set(ctx, key, string(p.Raw()), l.ttl); err != nil {
				l.logger.Warn("catalog cache write failed", zap.Error(err))
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	models := ModelsFromListing(v.(*payload.Payload))
	l.logger.Debug("catalog fetched", zap.String("base_url", baseURL), zap.Int("models", len(models)))
	return models, nil
}

// Options returns the model options usable with op.
func (l *Lister) Options(ctx context.Context, baseURL string, op aimlapi.Operation) ([]Option, error) {
	models, err := l.Models(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	return FilterForOperation(models, op), nil
}

// Invalidate drops the cached listing for baseURL.
func (l *Lister) Invalidate(ctx context.Context, baseURL string) error {
	if l.store == nil {
		return nil
	}
	return l.store.Delete(ctx, cacheKey(baseURL))
}

func (l *Lister) record(hit bool) {
	if l.recorder != nil {
		l.recorder.RecordCacheLookup("catalog", hit)
	}
}
