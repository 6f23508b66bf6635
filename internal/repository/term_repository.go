package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

// TermRepository provides read access to academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository creates a new term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID loads a term by id.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	const query = `SELECT id, name, academic_year, start_date, end_date, is_active, created_at, updated_at FROM terms WHERE id = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindActive returns the currently active term.
func (r *TermRepository) FindActive(ctx context.Context) (*models.Term, error) {
	const query = `SELECT id, name, academic_year, start_date, end_date, is_active, created_at, updated_at FROM terms WHERE is_active = TRUE ORDER BY start_date DESC LIMIT 1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query); err != nil {
		return nil, err
	}
	return &term, nil
}
