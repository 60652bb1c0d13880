package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/storage"
)

const maxParallelUploads = 4

type BlobStore interface {
	Upload(ctx context.Context, folder string, file media.File) (storage.Blob, error)
	Delete(ctx context.Context, blobID string) error
}

type OrphanRecorder interface {
	Record(ctx context.Context, reason string, blobIDs ...string)
}

// LinkForm selects which public link shape is stored for an upload.
type LinkForm int

const (
	ViewLink LinkForm = iota
	PreviewLink
)

// Assets moves file bytes in and out of the object store on behalf of the
// record services.
type Assets struct {
	blobs   BlobStore
	orphans OrphanRecorder
	log     zerolog.Logger
}

func NewAssets(blobs BlobStore, orphans OrphanRecorder, log zerolog.Logger) *Assets {
	return &Assets{blobs: blobs, orphans: orphans, log: log}
}

// Upload stores every file concurrently and returns their references in
// input order. If any upload fails the whole batch fails, and blobs that did
// make it are handed to the orphan journal.
func (a *Assets) Upload(ctx context.Context, folder string, files []media.File, form LinkForm) (models.ImageSet, error) {
	refs := make(models.ImageSet, len(files))
	if len(files) == 0 {
		return refs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, file := range files {
		g.Go(func() error {
			blob, err := a.blobs.Upload(gctx, folder, file)
			if err != nil {
				return fmt.Errorf("upload %s: %w", file.Name, err)
			}
			link := blob.Link
			if form == PreviewLink {
				link = storage.PreviewLink(link)
			}
			refs[i] = models.ImageRef{URL: link, BlobID: blob.ID}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var stored []string
		for _, ref := range refs {
			if ref.BlobID != "" {
				stored = append(stored, ref.BlobID)
			}
		}
		a.orphans.Record(ctx, ReasonUploadAborted, stored...)
		return nil, err
	}
	return refs, nil
}

// Release deletes blobs one after another. A blob that is already gone is
// fine; any other failure is logged and journaled, never returned.
func (a *Assets) Release(ctx context.Context, blobIDs []string) {
	var failed []string
	for _, id := range blobIDs {
		err := a.blobs.Delete(ctx, id)
		switch {
		case err == nil:
			a.log.Info().Str("blob_id", id).Msg("blob deleted")
		case errors.Is(err, storage.ErrBlobNotFound):
			a.log.Warn().Str("blob_id", id).Msg("blob already gone")
		default:
			a.log.Error().Err(err).Str("blob_id", id).Msg("blob delete failed")
			failed = append(failed, id)
		}
	}
	a.orphans.Record(ctx, ReasonDeleteFailed, failed...)
}

// Abandon journals freshly uploaded blobs whose record could not be saved.
func (a *Assets) Abandon(ctx context.Context, blobIDs []string) {
	a.orphans.Record(ctx, ReasonRecordNotSaved, blobIDs...)
}
