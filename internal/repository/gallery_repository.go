package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kamal-Wagle/recondition/internal/models"
)

const galleryColumns = `id, category, title, src, blob_id, created_at`

type GalleryRepository struct {
	pool *pgxpool.Pool
}

func NewGalleryRepository(pool *pgxpool.Pool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

func (r *GalleryRepository) Create(ctx context.Context, img models.GalleryImage) (models.GalleryImage, error) {
	const query = `
		INSERT INTO gallery_images (id, category, title, src, blob_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + galleryColumns

	return scanGalleryImage(r.pool.QueryRow(ctx, query, img.ID, img.Category, img.Title, img.Image.URL, img.Image.BlobID))
}

func (r *GalleryRepository) List(ctx context.Context) ([]models.GalleryImage, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+galleryColumns+` FROM gallery_images ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []models.GalleryImage{}
	for rows.Next() {
		img, err := scanGalleryImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *GalleryRepository) GetByID(ctx context.Context, id string) (models.GalleryImage, error) {
	img, err := scanGalleryImage(r.pool.QueryRow(ctx, `SELECT `+galleryColumns+` FROM gallery_images WHERE id = $1`, id))
	return img, notFound(err, ErrNotFound)
}

func (r *GalleryRepository) Delete(ctx context.Context, id string) (models.GalleryImage, error) {
	img, err := scanGalleryImage(r.pool.QueryRow(ctx, `DELETE FROM gallery_images WHERE id = $1 RETURNING `+galleryColumns, id))
	return img, notFound(err, ErrNotFound)
}

func (r *GalleryRepository) ReferencedBlobIDs(ctx context.Context) ([]string, error) {
	return collectStrings(ctx, r.pool, `SELECT blob_id FROM gallery_images`)
}

func scanGalleryImage(row pgx.Row) (models.GalleryImage, error) {
	var img models.GalleryImage
	if err := row.Scan(
		&img.ID,
		&img.Category,
		&img.Title,
		&img.Image.URL,
		&img.Image.BlobID,
		&img.CreatedAt,
	); err != nil {
		return models.GalleryImage{}, err
	}
	return img, nil
}
