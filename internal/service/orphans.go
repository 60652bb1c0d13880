package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kamal-Wagle/recondition/internal/queue"
)

const (
	ReasonUploadAborted  = "upload_aborted"
	ReasonRecordNotSaved = "record_not_saved"
	ReasonDeleteFailed   = "delete_failed"
)

const journalTimeout = 2 * time.Second

// OrphanJournal queues blobs that a failed request left behind so the worker
// can remove them later. Recording never fails the request.
type OrphanJournal struct {
	producer *queue.Producer
	log      zerolog.Logger
}

func NewOrphanJournal(producer *queue.Producer, log zerolog.Logger) *OrphanJournal {
	return &OrphanJournal{producer: producer, log: log}
}

func (j *OrphanJournal) Record(ctx context.Context, reason string, blobIDs ...string) {
	if len(blobIDs) == 0 {
		return
	}

	tasks := make([]queue.Task, 0, len(blobIDs))
	for _, id := range blobIDs {
		tasks = append(tasks, queue.Task{Type: queue.TaskOrphan, BlobID: id, Reason: reason})
	}

	// the request context is often already cancelled at this point
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if err := j.producer.Enqueue(ctx, tasks...); err != nil {
		j.log.Error().Err(err).Str("reason", reason).Strs("blob_ids", blobIDs).Msg("record orphaned blobs failed")
		return
	}
	j.log.Warn().Str("reason", reason).Strs("blob_ids", blobIDs).Msg("orphaned blobs queued for cleanup")
}
