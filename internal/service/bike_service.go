package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kamal-Wagle/recondition/internal/ids"
	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/models"
)

type BikeStore interface {
	Create(ctx context.Context, bike models.Bike) (models.Bike, error)
	List(ctx context.Context) ([]models.Bike, error)
	GetByID(ctx context.Context, id string) (models.Bike, error)
	Update(ctx context.Context, bike models.Bike) (models.Bike, error)
	Delete(ctx context.Context, id string) (models.Bike, error)
}

type BikeService struct {
	bikes  BikeStore
	assets *Assets
	folder string
	log    zerolog.Logger
}

func NewBikeService(bikes BikeStore, assets *Assets, folder string, log zerolog.Logger) *BikeService {
	return &BikeService{
		bikes:  bikes,
		assets: assets,
		folder: folder,
		log:    log,
	}
}

// Create uploads the photos and then saves the listing. Bike links are
// stored in their inline preview form.
func (s *BikeService) Create(ctx context.Context, details models.BikeDetails, files []media.File) (models.Bike, error) {
	if len(files) == 0 {
		return models.Bike{}, &ValidationError{Field: "images", Message: "Invalid features/specifications/images"}
	}

	images, err := s.assets.Upload(ctx, s.folder, files, PreviewLink)
	if err != nil {
		return models.Bike{}, fmt.Errorf("upload bike images: %w", err)
	}

	bike := models.Bike{ID: ids.New(), Images: images}
	bike.Apply(details)

	created, err := s.bikes.Create(ctx, bike)
	if err != nil {
		s.assets.Abandon(ctx, images.BlobIDs())
		return models.Bike{}, fmt.Errorf("save bike: %w", err)
	}

	s.log.Info().Str("bike_id", created.ID).Int("images", len(images)).Msg("bike created")
	return created, nil
}

func (s *BikeService) List(ctx context.Context) ([]models.Bike, error) {
	return s.bikes.List(ctx)
}

func (s *BikeService) Get(ctx context.Context, id string) (models.Bike, error) {
	return s.bikes.GetByID(ctx, id)
}

// Update overwrites the listing's fields. When files are given the old photos
// are released first and replaced by the new ones; otherwise they are kept.
func (s *BikeService) Update(ctx context.Context, id string, details models.BikeDetails, files []media.File) (models.Bike, error) {
	bike, err := s.bikes.GetByID(ctx, id)
	if err != nil {
		return models.Bike{}, err
	}
	bike.Apply(details)

	var fresh models.ImageSet
	if len(files) > 0 {
		s.assets.Release(ctx, bike.Images.BlobIDs())

		fresh, err = s.assets.Upload(ctx, s.folder, files, PreviewLink)
		if err != nil {
			return models.Bike{}, fmt.Errorf("upload bike images: %w", err)
		}
		bike.Images = fresh
	}

	updated, err := s.bikes.Update(ctx, bike)
	if err != nil {
		s.assets.Abandon(ctx, fresh.BlobIDs())
		return models.Bike{}, fmt.Errorf("update bike: %w", err)
	}

	s.log.Info().Str("bike_id", id).Bool("images_replaced", len(fresh) > 0).Msg("bike updated")
	return updated, nil
}

// Delete releases every photo of the listing and then removes it.
func (s *BikeService) Delete(ctx context.Context, id string) (models.Bike, error) {
	bike, err := s.bikes.GetByID(ctx, id)
	if err != nil {
		return models.Bike{}, err
	}

	s.assets.Release(ctx, bike.Images.BlobIDs())

	deleted, err := s.bikes.Delete(ctx, id)
	if err != nil {
		return models.Bike{}, fmt.Errorf("delete bike: %w", err)
	}

	s.log.Info().Str("bike_id", id).Msg("bike deleted")
	return deleted, nil
}
