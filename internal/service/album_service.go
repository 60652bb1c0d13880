package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kamal-Wagle/recondition/internal/ids"
	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/models"
)

type AlbumStore interface {
	Create(ctx context.Context, album models.Album) (models.Album, error)
	List(ctx context.Context) ([]models.Album, error)
	GetByID(ctx context.Context, id string) (models.Album, error)
	Delete(ctx context.Context, id string) (models.Album, error)
}

type AlbumService struct {
	albums AlbumStore
	assets *Assets
	folder string
	log    zerolog.Logger
}

func NewAlbumService(albums AlbumStore, assets *Assets, folder string, log zerolog.Logger) *AlbumService {
	return &AlbumService{
		albums: albums,
		assets: assets,
		folder: folder,
		log:    log,
	}
}

func (s *AlbumService) Create(ctx context.Context, name, description string, files []media.File) (models.Album, error) {
	if name == "" || description == "" || len(files) == 0 {
		return models.Album{}, &ValidationError{Message: "Missing required fields: albumName, description, or images"}
	}

	images, err := s.assets.Upload(ctx, s.folder, files, ViewLink)
	if err != nil {
		return models.Album{}, fmt.Errorf("upload album images: %w", err)
	}

	created, err := s.albums.Create(ctx, models.Album{
		ID:          ids.New(),
		AlbumName:   name,
		Description: description,
		Images:      images,
	})
	if err != nil {
		s.assets.Abandon(ctx, images.BlobIDs())
		return models.Album{}, fmt.Errorf("save album: %w", err)
	}

	s.log.Info().Str("album_id", created.ID).Int("images", len(images)).Msg("album created")
	return created, nil
}

func (s *AlbumService) List(ctx context.Context) ([]models.Album, error) {
	return s.albums.List(ctx)
}

func (s *AlbumService) Get(ctx context.Context, id string) (models.Album, error) {
	return s.albums.GetByID(ctx, id)
}

func (s *AlbumService) Delete(ctx context.Context, id string) (models.Album, error) {
	album, err := s.albums.GetByID(ctx, id)
	if err != nil {
		return models.Album{}, err
	}

	s.assets.Release(ctx, album.Images.BlobIDs())

	deleted, err := s.albums.Delete(ctx, id)
	if err != nil {
		return models.Album{}, fmt.Errorf("delete album: %w", err)
	}

	s.log.Info().Str("album_id", id).Msg("album deleted")
	return deleted, nil
}
