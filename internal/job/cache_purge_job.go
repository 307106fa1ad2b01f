package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// QueryCachePurgeJob deletes cache entries past their expiry. Reads already
// treat them as absent; this only reclaims space.
type QueryCachePurgeJob struct {
	cache expiredPurger
}

func NewQueryCachePurgeJob(cache expiredPurger) *QueryCachePurgeJob {
	return &QueryCachePurgeJob{cache: cache}
}

func (j *QueryCachePurgeJob) Name() string {
	return "query_cache_purge"
}

func (j *QueryCachePurgeJob) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}
	n, err := j.cache.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("expired cache entries purged", zap.Int64("count", n))
	return nil
}
