package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/download"
	"github.com/procyborg2222/SAFETAG/internal/storage"
)

const (
	TaskPruneDownloads = "prune-downloads"
	TaskPruneArtifacts = "prune-artifacts"
)

// PruneDownloads drops download buttons idle for longer than idleTTL.
func PruneDownloads(reg *download.Registry, idleTTL time.Duration, log *zap.Logger) TaskFunc {
	return func(context.Context) error {
		if n := reg.Prune(idleTTL); n > 0 {
			log.Info("pruned idle downloads", zap.Int("removed", n))
		}
		return nil
	}
}

// PruneArtifacts removes stored guide artifacts older than ttl.
func PruneArtifacts(store storage.Store, ttl time.Duration, now func() time.Time, log *zap.Logger) TaskFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) error {
		n, err := store.Prune(ctx, now().Add(-ttl))
		if n > 0 {
			log.Info("pruned guide artifacts", zap.Int("removed", n))
		}
		return err
	}
}

// RegisterHousekeeping adds the download and artifact pruning tasks on schedule.
func RegisterHousekeeping(s *Scheduler, schedule string, reg *download.Registry, idleTTL time.Duration, store storage.Store, artifactTTL time.Duration) error {
	if err := s.Add(TaskPruneDownloads, schedule, PruneDownloads(reg, idleTTL, s.log)); err != nil {
		return err
	}
	return s.Add(TaskPruneArtifacts, schedule, PruneArtifacts(store, artifactTTL, nil, s.log))
}
