package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Kamal-Wagle/recondition/internal/queue"
	"github.com/Kamal-Wagle/recondition/internal/storage"
)

type BlobStore interface {
	Delete(ctx context.Context, blobID string) error
	ListKeys(ctx context.Context, folder string) ([]storage.ObjectInfo, error)
}

// ReferenceSource reports every blob id a collection of records points at.
type ReferenceSource interface {
	ReferencedBlobIDs(ctx context.Context) ([]string, error)
}

// Processor handles the maintenance tasks read from the orphan stream.
type Processor struct {
	blobs   BlobStore
	refs    []ReferenceSource
	folders []string
	grace   time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewProcessor(blobs BlobStore, refs []ReferenceSource, folders []string, grace time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		blobs:   blobs,
		refs:    refs,
		folders: folders,
		grace:   grace,
		now:     time.Now,
		logger:  logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := queue.ParseTask(msg)
	if err != nil {
		// a malformed entry will never parse; let it be acked
		p.logger.Error().Err(err).Str("message_id", msg.ID).Msg("dropping malformed task")
		return nil
	}

	switch task.Type {
	case queue.TaskOrphan:
		return p.handleOrphan(ctx, task)
	case queue.TaskSweep:
		return p.handleSweep(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		return nil
	}
}

// handleOrphan deletes one journaled blob unless a record has started
// pointing at it since it was queued.
func (p *Processor) handleOrphan(ctx context.Context, task queue.Task) error {
	if task.BlobID == "" {
		p.logger.Warn().Msg("orphan task without blob id")
		return nil
	}

	referenced, err := p.referenced(ctx)
	if err != nil {
		return err
	}
	if _, ok := referenced[task.BlobID]; ok {
		p.logger.Info().Str("blob_id", task.BlobID).Msg("orphan is referenced, keeping")
		return nil
	}

	switch err := p.blobs.Delete(ctx, task.BlobID); {
	case err == nil:
		p.logger.Info().Str("blob_id", task.BlobID).Str("reason", task.Reason).Msg("orphan deleted")
	case errors.Is(err, storage.ErrBlobNotFound):
		p.logger.Warn().Str("blob_id", task.BlobID).Msg("orphan already gone")
	default:
		return fmt.Errorf("delete orphan %s: %w", task.BlobID, err)
	}
	return nil
}

// handleSweep deletes every stored blob older than the grace period that no
// record references. Younger blobs may belong to a request still in flight.
func (p *Processor) handleSweep(ctx context.Context) error {
	referenced, err := p.referenced(ctx)
	if err != nil {
		return err
	}

	cutoff := p.now().Add(-p.grace)
	var scanned, deleted, failed int
	for _, folder := range p.folders {
		objects, err := p.blobs.ListKeys(ctx, folder)
		if err != nil {
			return err
		}
		for _, obj := range objects {
			scanned++
			if obj.LastModified.After(cutoff) {
				continue
			}
			if _, ok := referenced[obj.Key]; ok {
				continue
			}
			if err := p.blobs.Delete(ctx, obj.Key); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
				failed++
				p.logger.Error().Err(err).Str("blob_id", obj.Key).Msg("sweep delete failed")
				continue
			}
			deleted++
		}
	}

	p.logger.Info().
		Int("scanned", scanned).
		Int("deleted", deleted).
		Int("failed", failed).
		Msg("orphan sweep finished")
	return nil
}

func (p *Processor) referenced(ctx context.Context) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, src := range p.refs {
		ids, err := src.ReferencedBlobIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("load referenced blobs: %w", err)
		}
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set, nil
}
