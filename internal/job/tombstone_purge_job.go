package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type tombstonePurger interface {
	PurgeDeleted(ctx context.Context, olderThan time.Duration) (int64, error)
}

type ChunkTombstonePurgeJob struct {
	index         tombstonePurger
	retentionDays int
}

func NewChunkTombstonePurgeJob(index tombstonePurger, retentionDays int) *ChunkTombstonePurgeJob {
	return &ChunkTombstonePurgeJob{index: index, retentionDays: retentionDays}
}

func (j *ChunkTombstonePurgeJob) Name() string {
	return "chunk_tombstone_purge"
}

func (j *ChunkTombstonePurgeJob) Run(ctx context.Context) error {
	if j.index == nil {
		return nil
	}
	days := j.retentionDays
	if days <= 0 {
		days = 7
	}
	n, err := j.index.PurgeDeleted(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("deleted chunks purged", zap.Int64("count", n), zap.Int("retention_days", days))
	return nil
}
