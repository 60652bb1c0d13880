package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kamal-Wagle/recondition/internal/models"
)

const bikeColumns = `id, name, price, year, mileage, condition, type, brand, engine, fuel_type,
	transmission, color, owners, insurance, registration, description,
	features, specifications, images, created_at, updated_at`

type BikeRepository struct {
	pool *pgxpool.Pool
}

func NewBikeRepository(pool *pgxpool.Pool) *BikeRepository {
	return &BikeRepository{pool: pool}
}

func (r *BikeRepository) Create(ctx context.Context, bike models.Bike) (models.Bike, error) {
	const query = `
		INSERT INTO bikes (
			id, name, price, year, mileage, condition, type, brand, engine, fuel_type,
			transmission, color, owners, insurance, registration, description,
			features, specifications, images, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16,
			$17, $18, $19, NOW(), NOW()
		)
		RETURNING ` + bikeColumns

	row := r.pool.QueryRow(ctx, query,
		bike.ID,
		bike.Name,
		bike.Price,
		bike.Year,
		bike.Mileage,
		bike.Condition,
		bike.Type,
		bike.Brand,
		bike.Engine,
		bike.FuelType,
		bike.Transmission,
		bike.Color,
		bike.Owners,
		bike.Insurance,
		bike.Registration,
		bike.Description,
		bike.Features,
		bike.Specifications,
		bike.Images,
	)
	return scanBike(row)
}

func (r *BikeRepository) List(ctx context.Context) ([]models.Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bikes := []models.Bike{}
	for rows.Next() {
		bike, err := scanBike(rows)
		if err != nil {
			return nil, err
		}
		bikes = append(bikes, bike)
	}
	return bikes, rows.Err()
}

func (r *BikeRepository) GetByID(ctx context.Context, id string) (models.Bike, error) {
	query := `SELECT ` + bikeColumns + ` FROM bikes WHERE id = $1`
	bike, err := scanBike(r.pool.QueryRow(ctx, query, id))
	return bike, notFound(err, ErrNotFound)
}

// Update replaces every editable field and the image list of an existing bike.
func (r *BikeRepository) Update(ctx context.Context, bike models.Bike) (models.Bike, error) {
	const query = `
		UPDATE bikes SET
			name = $2, price = $3, year = $4, mileage = $5, condition = $6, type = $7,
			brand = $8, engine = $9, fuel_type = $10, transmission = $11, color = $12,
			owners = $13, insurance = $14, registration = $15, description = $16,
			features = $17, specifications = $18, images = $19, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bikeColumns

	row := r.pool.QueryRow(ctx, query,
		bike.ID,
		bike.Name,
		bike.Price,
		bike.Year,
		bike.Mileage,
		bike.Condition,
		bike.Type,
		bike.Brand,
		bike.Engine,
		bike.FuelType,
		bike.Transmission,
		bike.Color,
		bike.Owners,
		bike.Insurance,
		bike.Registration,
		bike.Description,
		bike.Features,
		bike.Specifications,
		bike.Images,
	)
	updated, err := scanBike(row)
	return updated, notFound(err, ErrNotFound)
}

// Delete removes the bike and returns the record as it was.
func (r *BikeRepository) Delete(ctx context.Context, id string) (models.Bike, error) {
	query := `DELETE FROM bikes WHERE id = $1 RETURNING ` + bikeColumns
	bike, err := scanBike(r.pool.QueryRow(ctx, query, id))
	return bike, notFound(err, ErrNotFound)
}

func (r *BikeRepository) ReferencedBlobIDs(ctx context.Context) ([]string, error) {
	return collectStrings(ctx, r.pool, `
		SELECT img->>'blobId'
		FROM bikes, jsonb_array_elements(images) AS img
		WHERE img ? 'blobId'
	`)
}

func scanBike(row pgx.Row) (models.Bike, error) {
	var bike models.Bike
	if err := row.Scan(
		&bike.ID,
		&bike.Name,
		&bike.Price,
		&bike.Year,
		&bike.Mileage,
		&bike.Condition,
		&bike.Type,
		&bike.Brand,
		&bike.Engine,
		&bike.FuelType,
		&bike.Transmission,
		&bike.Color,
		&bike.Owners,
		&bike.Insurance,
		&bike.Registration,
		&bike.Description,
		&bike.Features,
		&bike.Specifications,
		&bike.Images,
		&bike.CreatedAt,
		&bike.UpdatedAt,
	); err != nil {
		return models.Bike{}, err
	}
	return bike, nil
}
