package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/perceptlab/study-engine/pkg/models"
)

// PickRandomImage draws one catalog row uniformly at random, skipping the
// given image ids. Returns ErrEmptyCatalog when nothing remains.
func (s *PostgresStore) PickRandomImage(ctx context.Context, exclude []string) (*models.Image, error) {
	if exclude == nil {
		exclude = []string{}
	}
	sql := `
		SELECT id, image_id, image_url, width, height, object_count, difficulty
		FROM images
		WHERE image_id != ALL($1)
		ORDER BY random()
		LIMIT 1;
	`
	var img models.Image
	err := s.pool.QueryRow(ctx, sql, exclude).Scan(
		&img.ID, &img.ImageID, &img.ImageURL,
		&img.Width, &img.Height, &img.ObjectCount, &img.Difficulty,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmptyCatalog
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick random image: %v", err)
	}
	return &img, nil
}

// EnsureImage returns the surrogate id for an image id, inserting the catalog
// row first if this is the first time the asset is seen. This is the only way
// the catalog grows at runtime.
func (s *PostgresStore) EnsureImage(ctx context.Context, imageID, imageURL string) (int64, error) {
	return ensureImage(ctx, s.pool, imageID, imageURL)
}

// queryRower lets ensureImage run on the pool or inside a transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func ensureImage(ctx context.Context, q queryRower, imageID, imageURL string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO images (image_id, image_url)
		VALUES ($1, $2)
		ON CONFLICT (image_id) DO NOTHING
		RETURNING id;
	`, imageID, imageURL).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to insert image: %v", err)
	}

	// Row already existed; fetch its id.
	err = q.QueryRow(ctx, `SELECT id FROM images WHERE image_id = $1`, imageID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve image id: %v", err)
	}
	return id, nil
}

// EnsureAttentionCheck marks an image as an attention check with the given
// expected keyword. An image carries at most one check; re-registering an
// existing one is a no-op so operator edits to the row survive restarts.
func (s *PostgresStore) EnsureAttentionCheck(ctx context.Context, imageID, expectedKeyword string) error {
	imageFK, err := s.EnsureImage(ctx, imageID, "/api/images/"+imageID)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO attention_checks (image_fk, expected_keyword)
		VALUES ($1, $2)
		ON CONFLICT (image_fk) DO NOTHING;
	`, imageFK, expectedKeyword)
	if err != nil {
		return fmt.Errorf("failed to register attention check: %v", err)
	}
	return nil
}

// CountImages returns the catalog size for the health check.
func (s *PostgresStore) CountImages(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count images: %v", err)
	}
	return n, nil
}

// GetAttentionCheck returns the active attention-check row for an image id,
// or ErrNotFound when the image is not an attention check.
func (s *PostgresStore) GetAttentionCheck(ctx context.Context, imageID string) (*models.AttentionCheck, error) {
	sql := `
		SELECT ac.id, ac.image_fk, ac.expected_keyword, ac.strict, ac.active
		FROM attention_checks ac
		JOIN images i ON i.id = ac.image_fk
		WHERE i.image_id = $1 AND ac.active;
	`
	var check models.AttentionCheck
	err := s.pool.QueryRow(ctx, sql, imageID).Scan(
		&check.ID, &check.ImageFK, &check.ExpectedKeyword, &check.Strict, &check.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attention check: %v", err)
	}
	return &check, nil
}
