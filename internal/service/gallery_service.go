package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kamal-Wagle/recondition/internal/ids"
	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/models"
)

type GalleryStore interface {
	Create(ctx context.Context, img models.GalleryImage) (models.GalleryImage, error)
	List(ctx context.Context) ([]models.GalleryImage, error)
	GetByID(ctx context.Context, id string) (models.GalleryImage, error)
	Delete(ctx context.Context, id string) (models.GalleryImage, error)
}

type GalleryService struct {
	images GalleryStore
	assets *Assets
	folder string
	log    zerolog.Logger
}

func NewGalleryService(images GalleryStore, assets *Assets, folder string, log zerolog.Logger) *GalleryService {
	return &GalleryService{
		images: images,
		assets: assets,
		folder: folder,
		log:    log,
	}
}

func (s *GalleryService) Create(ctx context.Context, category, title string, file *media.File) (models.GalleryImage, error) {
	if category == "" || title == "" || file == nil {
		return models.GalleryImage{}, &ValidationError{Message: "Missing required fields: category, title or image"}
	}

	refs, err := s.assets.Upload(ctx, s.folder, []media.File{*file}, ViewLink)
	if err != nil {
		return models.GalleryImage{}, fmt.Errorf("upload gallery image: %w", err)
	}

	created, err := s.images.Create(ctx, models.GalleryImage{
		ID:       ids.New(),
		Category: category,
		Title:    title,
		Image:    refs.First(),
	})
	if err != nil {
		s.assets.Abandon(ctx, refs.BlobIDs())
		return models.GalleryImage{}, fmt.Errorf("save gallery image: %w", err)
	}

	s.log.Info().Str("gallery_image_id", created.ID).Str("category", category).Msg("gallery image created")
	return created, nil
}

func (s *GalleryService) List(ctx context.Context) ([]models.GalleryImage, error) {
	return s.images.List(ctx)
}

func (s *GalleryService) Get(ctx context.Context, id string) (models.GalleryImage, error) {
	return s.images.GetByID(ctx, id)
}

func (s *GalleryService) Delete(ctx context.Context, id string) (models.GalleryImage, error) {
	img, err := s.images.GetByID(ctx, id)
	if err != nil {
		return models.GalleryImage{}, err
	}

	s.assets.Release(ctx, []string{img.Image.BlobID})

	deleted, err := s.images.Delete(ctx, id)
	if err != nil {
		return models.GalleryImage{}, fmt.Errorf("delete gallery image: %w", err)
	}

	s.log.Info().Str("gallery_image_id", id).Msg("gallery image deleted")
	return deleted, nil
}
