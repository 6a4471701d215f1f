package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/election-survey-api/internal/models"
)

const regionColumns = `id, name, description, coordinates, city, state, created_at`

// RegionRepository persists field regions.
type RegionRepository struct {
	db *sqlx.DB
}

// NewRegionRepository constructs the repository.
func NewRegionRepository(db *sqlx.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// List returns regions ordered by name.
func (r *RegionRepository) List(ctx context.Context) ([]models.Region, error) {
	query := `SELECT ` + regionColumns + ` FROM regions ORDER BY name ASC`
	var regions []models.Region
	if err := r.db.SelectContext(ctx, &regions, query); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

// FindByID returns a region; sql.ErrNoRows passes through.
func (r *RegionRepository) FindByID(ctx context.Context, id string) (*models.Region, error) {
	query := `SELECT ` + regionColumns + ` FROM regions WHERE id = $1`
	var region models.Region
	if err := r.db.GetContext(ctx, &region, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find region: %w", err)
	}
	return &region, nil
}

// Create inserts a region.
func (r *RegionRepository) Create(ctx context.Context, region *models.Region) error {
	if region.ID == "" {
		region.ID = uuid.NewString()
	}
	if region.CreatedAt.IsZero() {
		region.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO regions (id, name, description, coordinates, city, state, created_at)
		VALUES (:id, :name, :description, :coordinates, :city, :state, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, region); err != nil {
		return fmt.Errorf("create region: %w", err)
	}
	return nil
}

// Update replaces the editable region fields.
func (r *RegionRepository) Update(ctx context.Context, region *models.Region) error {
	const query = `UPDATE regions SET name = :name, description = :description, coordinates = :coordinates, city = :city, state = :state WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, region)
	if err != nil {
		return fmt.Errorf("update region: %w", err)
	}
	return expectAffected(result, "update region")
}

// Delete removes a region; its assignments cascade.
func (r *RegionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM regions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete region: %w", err)
	}
	return expectAffected(result, "delete region")
}
