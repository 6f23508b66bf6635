package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/forhay123/haybee-edu-sub012/internal/models"
)

// HolidayRepository persists the public holiday calendar.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository creates a new holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

const holidayColumns = `id, date, name, is_school_closed, created_at, updated_at`

// FindByID loads a holiday by id.
func (r *HolidayRepository) FindByID(ctx context.Context, id string) (*models.PublicHoliday, error) {
	query := fmt.Sprintf(`SELECT %s FROM public_holidays WHERE id = $1`, holidayColumns)
	var holiday models.PublicHoliday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		return nil, err
	}
	return &holiday, nil
}

// FindByDate returns the holiday on a calendar date, if any.
func (r *HolidayRepository) FindByDate(ctx context.Context, date time.Time) (*models.PublicHoliday, error) {
	query := fmt.Sprintf(`SELECT %s FROM public_holidays WHERE date = $1`, holidayColumns)
	var holiday models.PublicHoliday
	if err := r.db.GetContext(ctx, &holiday, query, date); err != nil {
		return nil, err
	}
	return &holiday, nil
}

// List returns holidays matching the filter with pagination.
func (r *HolidayRepository) List(ctx context.Context, filter models.HolidayFilter) ([]models.PublicHoliday, int, error) {
	base := "FROM public_holidays WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY date ASC LIMIT %d OFFSET %d", holidayColumns, base, size, offset)
	var holidays []models.PublicHoliday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list holidays: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count holidays: %w", err)
	}

	return holidays, total, nil
}

// ListByRange returns all holidays inside [from, to].
func (r *HolidayRepository) ListByRange(ctx context.Context, from, to time.Time) ([]models.PublicHoliday, error) {
	query := fmt.Sprintf(`SELECT %s FROM public_holidays WHERE date >= $1 AND date <= $2 ORDER BY date ASC`, holidayColumns)
	var holidays []models.PublicHoliday
	if err := r.db.SelectContext(ctx, &holidays, query, from, to); err != nil {
		return nil, fmt.Errorf("list holidays by range: %w", err)
	}
	return holidays, nil
}

// Insert stores a new holiday.
func (r *HolidayRepository) Insert(ctx context.Context, holiday *models.PublicHoliday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	holiday.CreatedAt = now
	holiday.UpdatedAt = now

	const query = `INSERT INTO public_holidays (id, date, name, is_school_closed, created_at, updated_at) VALUES (:id, :date, :name, :is_school_closed, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("insert holiday: %w", err)
	}
	return nil
}

// Update modifies an existing holiday.
func (r *HolidayRepository) Update(ctx context.Context, holiday *models.PublicHoliday) error {
	holiday.UpdatedAt = time.Now().UTC()
	const query = `UPDATE public_holidays SET date = :date, name = :name, is_school_closed = :is_school_closed, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, holiday)
	if err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("holiday %s not found", holiday.ID)
	}
	return nil
}

// Delete removes a holiday.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM public_holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("holiday %s not found", id)
	}
	return nil
}

// CountUpcoming reports holidays on or after the given date.
func (r *HolidayRepository) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM public_holidays WHERE date >= $1`, from); err != nil {
		return 0, fmt.Errorf("count upcoming holidays: %w", err)
	}
	return total, nil
}
