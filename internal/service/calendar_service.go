package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/forhay123/haybee-edu-sub012/internal/dto"
	"github.com/forhay123/haybee-edu-sub012/internal/models"
	appErrors "github.com/forhay123/haybee-edu-sub012/pkg/errors"
)

type holidayRepository interface {
	FindByID(ctx context.Context, id string) (*models.PublicHoliday, error)
	FindByDate(ctx context.Context, date time.Time) (*models.PublicHoliday, error)
	List(ctx context.Context, filter models.HolidayFilter) ([]models.PublicHoliday, int, error)
	ListByRange(ctx context.Context, from, to time.Time) ([]models.PublicHoliday, error)
	Insert(ctx context.Context, holiday *models.PublicHoliday) error
	Update(ctx context.Context, holiday *models.PublicHoliday) error
	Delete(ctx context.Context, id string) error
}

type calendarTermRepository interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// CalendarService answers school-day questions and manages the holiday
// calendar. It never mutates schedules itself.
type CalendarService struct {
	holidays  holidayRepository
	terms     calendarTermRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(holidays holidayRepository, terms calendarTermRepository, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{holidays: holidays, terms: terms, validator: validate, logger: logger}
}

// IsSchoolDay reports whether lessons run on the given date. Weekends and
// closed holidays are non-school days; an open holiday keeps the school day.
func (s *CalendarService) IsSchoolDay(ctx context.Context, date time.Time) (bool, *models.PublicHoliday, error) {
	day := models.DateOnly(date)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, nil, nil
	}

	holiday, err := s.holidays.FindByDate(ctx, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil, nil
		}
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holiday calendar")
	}
	if holiday.IsSchoolClosed {
		return false, holiday, nil
	}
	return true, holiday, nil
}

// NextSchoolDay walks forward from the day after start, bounded by limit,
// and returns the first school day. Returns false when none exists within
// the bound.
func (s *CalendarService) NextSchoolDay(ctx context.Context, start, limit time.Time) (time.Time, bool, error) {
	day := models.DateOnly(start).AddDate(0, 0, 1)
	bound := models.DateOnly(limit)
	for !day.After(bound) {
		ok, _, err := s.IsSchoolDay(ctx, day)
		if err != nil {
			return time.Time{}, false, err
		}
		if ok {
			return day, true, nil
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, false, nil
}

// CheckDate answers the single-date lookup exposed over the API.
func (s *CalendarService) CheckDate(ctx context.Context, date time.Time) (*dto.HolidayCheckResponse, error) {
	ok, holiday, err := s.IsSchoolDay(ctx, date)
	if err != nil {
		return nil, err
	}
	resp := &dto.HolidayCheckResponse{
		Date:        models.DateOnly(date).Format("2006-01-02"),
		IsSchoolDay: ok,
	}
	if holiday != nil {
		resp.HolidayName = holiday.Name
	}
	return resp, nil
}

// RescheduleImpact reports, for one term week, which weekdays fall on closed
// holidays and where their periods would move under the reschedule policy.
func (s *CalendarService) RescheduleImpact(ctx context.Context, termID string, weekNumber int) (*dto.RescheduleImpactResponse, error) {
	if weekNumber < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "week number must be positive")
	}

	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	weekStart := term.WeekStart(weekNumber)
	weekEnd := weekStart.AddDate(0, 0, 6)

	resp := &dto.RescheduleImpactResponse{TermID: termID, WeekNumber: weekNumber}
	for day := weekStart; !day.After(weekEnd); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		ok, holiday, err := s.IsSchoolDay(ctx, day)
		if err != nil {
			return nil, err
		}
		if ok || holiday == nil {
			continue
		}

		item := dto.RescheduleImpactItem{
			Date:        day.Format("2006-01-02"),
			HolidayName: holiday.Name,
		}
		next, found, err := s.NextSchoolDay(ctx, day, weekEnd)
		if err != nil {
			return nil, err
		}
		if found {
			item.NextSchoolDay = next.Format("2006-01-02")
		} else {
			item.Lost = true
		}
		resp.Items = append(resp.Items, item)
	}

	return resp, nil
}

// ListHolidays returns the holiday calendar with pagination.
func (s *CalendarService) ListHolidays(ctx context.Context, filter models.HolidayFilter) ([]models.PublicHoliday, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	holidays, total, err := s.holidays.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return holidays, pagination, nil
}

// CreateHoliday registers a holiday.
func (s *CalendarService) CreateHoliday(ctx context.Context, req dto.CreateHolidayRequest) (*models.PublicHoliday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}

	holiday := &models.PublicHoliday{
		Date:           models.DateOnly(req.Date),
		Name:           req.Name,
		IsSchoolClosed: req.IsSchoolClosed,
	}
	if err := s.holidays.Insert(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	s.logger.Info("holiday created", zap.String("holiday_id", holiday.ID), zap.Time("date", holiday.Date))
	return holiday, nil
}

// UpdateHoliday modifies an existing holiday.
func (s *CalendarService) UpdateHoliday(ctx context.Context, id string, req dto.UpdateHolidayRequest) (*models.PublicHoliday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}

	holiday, err := s.holidays.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}

	holiday.Date = models.DateOnly(req.Date)
	holiday.Name = req.Name
	holiday.IsSchoolClosed = req.IsSchoolClosed
	if err := s.holidays.Update(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update holiday")
	}
	return holiday, nil
}

// DeleteHoliday removes a holiday.
func (s *CalendarService) DeleteHoliday(ctx context.Context, id string) error {
	if _, err := s.holidays.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}
	if err := s.holidays.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	return nil
}
