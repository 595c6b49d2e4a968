package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lensfolio/api/internal/models"
)

var ErrImageNotFound = errors.New("image not found")

const imageColumns = `
	id, title, original_name, category, display_section, location, year,
	bucket, object_key, content_type, width, height, size_bytes, views, uploaded_at
`

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func (r *ImageRepository) Create(ctx context.Context, image models.Image) error {
	const query = `
		INSERT INTO images (
			id, title, original_name, category, display_section, location, year,
			bucket, object_key, content_type, width, height, size_bytes, views, uploaded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, 0, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		image.ID,
		image.Title,
		image.OriginalName,
		image.Category,
		image.DisplaySection,
		nullable(image.Location),
		nullable(image.Year),
		image.Bucket,
		image.ObjectKey,
		image.ContentType,
		image.Width,
		image.Height,
		image.SizeBytes,
	)
	return err
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (models.Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	image, err := scanImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, ErrImageNotFound
		}
		return models.Image{}, err
	}
	return image, nil
}

func (r *ImageRepository) List(ctx context.Context, category string) ([]models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images ORDER BY uploaded_at DESC`
	args := []any{}
	if category != "" && category != "all" {
		query = `SELECT ` + imageColumns + ` FROM images WHERE category = $1 ORDER BY uploaded_at DESC`
		args = append(args, category)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectImages(rows)
}

func (r *ImageRepository) ListBySection(ctx context.Context, section models.DisplaySection, category string) ([]models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE display_section = $1 ORDER BY category, original_name`
	args := []any{section}
	if category != "" && category != "all" {
		query = `SELECT ` + imageColumns + ` FROM images WHERE display_section = $1 AND category = $2 ORDER BY category, original_name`
		args = append(args, category)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectImages(rows)
}

type ImageMetaUpdate struct {
	Title          *string
	Category       *string
	DisplaySection *string
	Location       *string
	Year           *string
}

func (r *ImageRepository) UpdateMeta(ctx context.Context, id string, update ImageMetaUpdate) error {
	const query = `
		UPDATE images SET
			title = COALESCE($2, title),
			category = COALESCE($3, category),
			display_section = COALESCE($4, display_section),
			location = COALESCE($5, location),
			year = COALESCE($6, year)
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id,
		update.Title, update.Category, update.DisplaySection, update.Location, update.Year)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

// IncrementViews relies on the database's atomic add; concurrent bumps for the
// same image may interleave freely.
func (r *ImageRepository) IncrementViews(ctx context.Context, id string, delta int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE images SET views = views + $2 WHERE id = $1`, id, delta)
	return err
}

type Stats struct {
	TotalImages   int64
	TotalViews    int64
	RecentUploads int64
	CountByCat    map[string]int64
	ViewsByCat    map[string]int64
	TopViewed     []models.Image
}

func (r *ImageRepository) CollectStats(ctx context.Context, recentSince time.Time, topN int) (Stats, error) {
	stats := Stats{
		CountByCat: map[string]int64{},
		ViewsByCat: map[string]int64{},
	}

	const totals = `
		SELECT COUNT(*),
		       COALESCE(SUM(views), 0),
		       COUNT(*) FILTER (WHERE uploaded_at >= $1)
		FROM images
	`
	if err := r.pool.QueryRow(ctx, totals, recentSince).Scan(
		&stats.TotalImages, &stats.TotalViews, &stats.RecentUploads,
	); err != nil {
		return Stats{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*), COALESCE(SUM(views), 0) FROM images GROUP BY category`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count, views int64
		if err := rows.Scan(&category, &count, &views); err != nil {
			return Stats{}, err
		}
		stats.CountByCat[category] = count
		stats.ViewsByCat[category] = views
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	topRows, err := r.pool.Query(ctx, `SELECT `+imageColumns+` FROM images ORDER BY views DESC LIMIT $1`, topN)
	if err != nil {
		return Stats{}, err
	}
	defer topRows.Close()
	stats.TopViewed, err = collectImages(topRows)
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func scanImage(row pgx.Row) (models.Image, error) {
	var image models.Image
	var location, year *string
	if err := row.Scan(
		&image.ID,
		&image.Title,
		&image.OriginalName,
		&image.Category,
		&image.DisplaySection,
		&location,
		&year,
		&image.Bucket,
		&image.ObjectKey,
		&image.ContentType,
		&image.Width,
		&image.Height,
		&image.SizeBytes,
		&image.Views,
		&image.UploadedAt,
	); err != nil {
		return models.Image{}, err
	}
	if location != nil {
		image.Location = *location
	}
	if year != nil {
		image.Year = *year
	}
	return image, nil
}

func collectImages(rows pgx.Rows) ([]models.Image, error) {
	var images []models.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
