package schedule

import (
	"context"
	"errors"
	"time"

	"tutorbook/internal/logger"
	"tutorbook/internal/metrics"
)

var ErrInvalidHourRange = errors.New("start hour must be before end hour")

// BookingSource reports occupied slot numbers so availability can be
// computed without importing the booking package.
type BookingSource interface {
	ActiveSlotsByHour(ctx context.Context, date time.Time) (map[int][]int, error)
}

// BookingCanceller cancels all active bookings on a date. Used only
// when cascade-on-block is enabled.
type BookingCanceller interface {
	CancelActiveByDate(ctx context.Context, date time.Time, reason string) (int, error)
}

type Service interface {
	Availability(ctx context.Context, date time.Time) ([]HourAvailability, error)
	Block(ctx context.Context, date time.Time, reason string) (*BlockedDate, error)
	Unblock(ctx context.Context, date time.Time) error
	ListBlocked(ctx context.Context) ([]BlockedDate, error)
	CreateCustomSession(ctx context.Context, req CreateCustomSessionRequest) (*CustomSession, error)
	DeleteCustomSession(ctx context.Context, id int) error
	ListCustomSessions(ctx context.Context) ([]CustomSession, error)
}

type service struct {
	repo          Repository
	bookings      BookingSource
	canceller     BookingCanceller
	template      WeeklyTemplate
	cascadeCancel bool
}

func NewService(repo Repository, bookings BookingSource, canceller BookingCanceller, template WeeklyTemplate, cascadeCancel bool) Service {
	if template == nil {
		template = DefaultTemplate()
	}
	return &service{
		repo:          repo,
		bookings:      bookings,
		canceller:     canceller,
		template:      template,
		cascadeCancel: cascadeCancel,
	}
}

// Availability computes the open slots for a date: blocked dates have
// none, otherwise the weekly template plus any custom sessions for the
// date, minus active bookings. Read-only.
func (s *service) Availability(ctx context.Context, date time.Time) ([]HourAvailability, error) {
	metrics.RecordAvailabilityRequest()
	date = NormalizeDate(date)

	blocked, err := s.repo.IsDateBlocked(ctx, date)
	if err != nil {
		return nil, err
	}
	if blocked {
		return []HourAvailability{}, nil
	}

	capacity := s.template.CapacityByHour(date.Weekday())

	customSessions, err := s.repo.GetCustomSessionsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, cs := range customSessions {
		for h := cs.StartHour; h < cs.EndHour; h++ {
			capacity[h] += cs.MaxSlots
		}
	}

	booked, err := s.bookings.ActiveSlotsByHour(ctx, date)
	if err != nil {
		return nil, err
	}

	result := make([]HourAvailability, 0, len(capacity))
	for _, hour := range sortedHours(capacity) {
		cap := capacity[hour]
		taken := make(map[int]bool, len(booked[hour]))
		for _, n := range booked[hour] {
			taken[n] = true
		}

		free := make([]int, 0, cap)
		for n := 1; n <= cap; n++ {
			if !taken[n] {
				free = append(free, n)
			}
		}

		available := cap - len(booked[hour])
		if available < 0 {
			available = 0
		}

		result = append(result, HourAvailability{
			Hour:                 hour,
			Capacity:             cap,
			BookedCount:          len(booked[hour]),
			Available:            available,
			AvailableSlotNumbers: free,
		})
	}

	return result, nil
}

func (s *service) Block(ctx context.Context, date time.Time, reason string) (*BlockedDate, error) {
	blocked, err := s.repo.BlockDate(ctx, date, reason)
	if err != nil {
		return nil, err
	}

	if s.cascadeCancel && s.canceller != nil {
		// The block is already committed at this point; a cascade
		// failure leaves bookings to clean up manually but must not
		// report the block itself as failed.
		cancelled, err := s.canceller.CancelActiveByDate(ctx, date, reason)
		if err != nil {
			logger.Errorf("Date %s blocked but cascade-cancel failed: %v", date.Format(DateLayout), err)
			return blocked, nil
		}
		if cancelled > 0 {
			logger.Infof("Cascade-cancelled %d bookings on blocked date %s", cancelled, date.Format(DateLayout))
		}
	}

	return blocked, nil
}

func (s *service) Unblock(ctx context.Context, date time.Time) error {
	return s.repo.UnblockDate(ctx, date)
}

func (s *service) ListBlocked(ctx context.Context) ([]BlockedDate, error) {
	return s.repo.ListBlockedDates(ctx)
}

func (s *service) CreateCustomSession(ctx context.Context, req CreateCustomSessionRequest) (*CustomSession, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if req.StartHour >= req.EndHour {
		return nil, ErrInvalidHourRange
	}

	return s.repo.CreateCustomSession(ctx, date, req.StartHour, req.EndHour, req.MaxSlots, req.Reason)
}

func (s *service) DeleteCustomSession(ctx context.Context, id int) error {
	return s.repo.DeleteCustomSession(ctx, id)
}

func (s *service) ListCustomSessions(ctx context.Context) ([]CustomSession, error) {
	return s.repo.ListCustomSessions(ctx)
}
