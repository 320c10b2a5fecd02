package notifier

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"sjsage522/wuweimonitor/internal/monitor"
	"sjsage522/wuweimonitor/logger"
	"sjsage522/wuweimonitor/pkg/errors"
	"sjsage522/wuweimonitor/services/cache"
	"sjsage522/wuweimonitor/services/publisher"
)

const (
	// messageKey is the stream field holding the encoded product
	messageKey = "b64_target"

	keyPrefix = "wuwei_notified:"
)

// Notifier publishes target products after each refresh. A product is
// published once per TTL; the URLs already sent are remembered in Cache.
type Notifier struct {
	Publisher publisher.Publisher
	Cache     cache.CacheService
	TTL       time.Duration
	log       *logger.Logger
}

// New creates a notifier
func New(pub publisher.Publisher, cacheSvc cache.CacheService, ttl time.Duration) *Notifier {
	return &Notifier{
		Publisher: pub,
		Cache:     cacheSvc,
		TTL:       ttl,
		log:       logger.ForPublisher(),
	}
}

// HandleRefresh is a monitor.RefreshHook. Errors are logged and never
// propagated to the refresh.
func (n *Notifier) HandleRefresh(ctx context.Context, snap monitor.Snapshot) {
	published, err := n.Notify(ctx, snap)
	if err != nil {
		n.log.Error().Err(err).Int("published", published).Msg("Target notification incomplete")
		return
	}
	if published > 0 {
		n.log.Info().Int("published", published).Msg("Published target products")
	}
}

// Notify publishes the snapshot's unseen targets and returns how many were sent
func (n *Notifier) Notify(ctx context.Context, snap monitor.Snapshot) (int, error) {
	var errs []error
	published := 0

	for _, product := range snap.Targets() {
		key := keyPrefix + product.URL
		if n.Cache != nil {
			if _, err := n.Cache.Get(key); err == nil {
				continue
			}
		}

		data, err := json.Marshal(product)
		if err != nil {
			errs = append(errs, errors.NewPublisher(product.URL, "failed to encode product", err))
			continue
		}

		if err := n.Publisher.Publish(ctx, messageKey, data); err != nil {
			errs = append(errs, errors.NewPublisher(product.URL, "failed to publish product", err))
			continue
		}
		published++

		if n.Cache != nil {
			if err := n.Cache.Set(key, []byte(product.FetchedAt.Format(time.RFC3339)), n.TTL); err != nil {
				errs = append(errs, errors.NewCache(product.URL, "failed to remember notification", err))
			}
		}
	}

	if published > 0 {
		if err := n.Publisher.TrimStreams(ctx); err != nil {
			errs = append(errs, errors.NewPublisher("stream", "failed to trim stream", err))
		}
	}

	return published, stderrors.Join(errs...)
}
