package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kamal-Wagle/recondition/internal/models"
)

const albumColumns = `id, album_name, description, images, created_at, updated_at`

type AlbumRepository struct {
	pool *pgxpool.Pool
}

func NewAlbumRepository(pool *pgxpool.Pool) *AlbumRepository {
	return &AlbumRepository{pool: pool}
}

func (r *AlbumRepository) Create(ctx context.Context, album models.Album) (models.Album, error) {
	const query = `
		INSERT INTO albums (id, album_name, description, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + albumColumns

	return scanAlbum(r.pool.QueryRow(ctx, query, album.ID, album.AlbumName, album.Description, album.Images))
}

func (r *AlbumRepository) List(ctx context.Context) ([]models.Album, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

func (r *AlbumRepository) GetByID(ctx context.Context, id string) (models.Album, error) {
	album, err := scanAlbum(r.pool.QueryRow(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = $1`, id))
	return album, notFound(err, ErrNotFound)
}

func (r *AlbumRepository) Delete(ctx context.Context, id string) (models.Album, error) {
	album, err := scanAlbum(r.pool.QueryRow(ctx, `DELETE FROM albums WHERE id = $1 RETURNING `+albumColumns, id))
	return album, notFound(err, ErrNotFound)
}

func (r *AlbumRepository) ReferencedBlobIDs(ctx context.Context) ([]string, error) {
	return collectStrings(ctx, r.pool, `
		SELECT img->>'blobId'
		FROM albums, jsonb_array_elements(images) AS img
		WHERE img ? 'blobId'
	`)
}

func scanAlbum(row pgx.Row) (models.Album, error) {
	var album models.Album
	if err := row.Scan(
		&album.ID,
		&album.AlbumName,
		&album.Description,
		&album.Images,
		&album.CreatedAt,
		&album.UpdatedAt,
	); err != nil {
		return models.Album{}, err
	}
	return album, nil
}
