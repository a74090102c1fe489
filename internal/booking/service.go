package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorbook/internal/logger"
	"tutorbook/internal/metrics"
	"tutorbook/internal/schedule"
	"tutorbook/internal/user"
)

var (
	ErrPastDate        = errors.New("cannot book a date in the past")
	ErrHourClosed      = errors.New("hour is not open for booking")
	ErrSlotFull        = errors.New("no slots available for this hour")
	ErrStudentRequired = errors.New("student_name or learner_id required")
	ErrInvalidStatus   = errors.New("unknown booking status")
	ErrForbidden       = errors.New("not allowed")
)

// Notifier delivers booking lifecycle messages. Delivery failures are
// logged, never surfaced to the caller.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, email, name, sessionType, details string) error
	SendBookingStatusUpdate(ctx context.Context, email, name, details, status string) error
	SendBookingCancellation(ctx context.Context, email, name, details string) error
}

type Service interface {
	Create(ctx context.Context, userID int, req CreateBookingRequest) (*Booking, error)
	UpdateStatus(ctx context.Context, actorID int, isAdmin bool, bookingID int, newStatus string) (*Booking, error)
	Cancel(ctx context.Context, actorID int, isAdmin bool, bookingID int) error
	GetUserBookings(ctx context.Context, userID int) ([]Booking, error)
	GetBookingsByDate(ctx context.Context, date time.Time) ([]BookingWithUser, error)
}

type service struct {
	repo     Repository
	schedule schedule.Service
	userRepo user.Repository
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, scheduleService schedule.Service, userRepo user.Repository, notifier Notifier) Service {
	return &service{
		repo:     repo,
		schedule: scheduleService,
		userRepo: userRepo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create books a slot. The availability check and the insert are not
// one critical section here; the storage-level unique index on the
// slot key settles races, so a lost race surfaces as ErrSlotTaken.
func (s *service) Create(ctx context.Context, userID int, req CreateBookingRequest) (*Booking, error) {
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	// ParseDate yields UTC midnight, so the cutoff must be computed in
	// UTC too or servers west of UTC reject same-day bookings.
	if date.Before(schedule.NormalizeDate(s.now().UTC())) {
		return nil, ErrPastDate
	}

	if req.StudentName == "" && req.LearnerID == nil {
		return nil, ErrStudentRequired
	}

	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
	}

	slots, err := s.schedule.Availability(ctx, date)
	if err != nil {
		return nil, err
	}

	var hourSlot *schedule.HourAvailability
	for i := range slots {
		if slots[i].Hour == req.Hour {
			hourSlot = &slots[i]
			break
		}
	}
	if hourSlot == nil {
		return nil, ErrHourClosed
	}
	if hourSlot.Available <= 0 || len(hourSlot.AvailableSlotNumbers) == 0 {
		return nil, ErrSlotFull
	}

	slotNumber := hourSlot.AvailableSlotNumbers[0]
	if req.SlotNumber != nil {
		requested := *req.SlotNumber
		found := false
		for _, n := range hourSlot.AvailableSlotNumbers {
			if n == requested {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrSlotTaken
		}
		slotNumber = requested
	}

	var idempotencyKey *string
	if req.IdempotencyKey != "" {
		idempotencyKey = &req.IdempotencyKey
	}

	created, err := s.repo.Create(ctx, &Booking{
		UserID:         userID,
		LearnerID:      req.LearnerID,
		StudentName:    req.StudentName,
		Date:           date,
		Hour:           req.Hour,
		SlotNumber:     slotNumber,
		Package:        req.Package,
		SessionType:    req.SessionType,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.RecordBookingConflict()
		}
		return nil, err
	}

	metrics.RecordBooking(created.SessionType)

	if owner, err := s.userRepo.FindByID(ctx, userID); err == nil {
		details := fmt.Sprintf("%s at %02d:00, slot %d", created.Date.Format("Jan 2, 2006"), created.Hour, created.SlotNumber)
		if err := s.notifier.SendBookingConfirmation(ctx, owner.Email, owner.Name, created.SessionType, details); err != nil {
			logger.Errorf("Failed to queue booking confirmation for %s: %v", owner.Email, err)
		}
	}

	return created, nil
}

func (s *service) UpdateStatus(ctx context.Context, actorID int, isAdmin bool, bookingID int, newStatus string) (*Booking, error) {
	if !ValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		// Self-service is limited to cancelling your own booking.
		if booking.UserID != actorID || newStatus != StatusCancelled {
			return nil, ErrForbidden
		}
	}

	if newStatus == StatusCompleted {
		if booking.Status == StatusCompleted {
			return nil, ErrAlreadyCompleted
		}
		completed, err := s.repo.Complete(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		metrics.RecordStatusTransition(StatusCompleted)
		s.notifyStatus(ctx, completed, StatusCompleted)
		return completed, nil
	}

	if newStatus == StatusCancelled {
		if err := s.repo.Cancel(ctx, bookingID); err != nil {
			return nil, err
		}
		metrics.RecordStatusTransition(StatusCancelled)
		booking.Status = StatusCancelled
		s.notifyCancellation(ctx, booking)
		return booking, nil
	}

	if !CanTransition(booking.Status, newStatus) {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.SetStatus(ctx, bookingID, booking.Status, newStatus); err != nil {
		return nil, err
	}

	metrics.RecordStatusTransition(newStatus)
	booking.Status = newStatus
	s.notifyStatus(ctx, booking, newStatus)
	return booking, nil
}

func (s *service) Cancel(ctx context.Context, actorID int, isAdmin bool, bookingID int) error {
	_, err := s.UpdateStatus(ctx, actorID, isAdmin, bookingID, StatusCancelled)
	return err
}

func (s *service) GetUserBookings(ctx context.Context, userID int) ([]Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) GetBookingsByDate(ctx context.Context, date time.Time) ([]BookingWithUser, error) {
	return s.repo.ListByDate(ctx, date)
}

func (s *service) notifyStatus(ctx context.Context, booking *Booking, status string) {
	owner, err := s.userRepo.FindByID(ctx, booking.UserID)
	if err != nil {
		return
	}
	details := fmt.Sprintf("%s at %02d:00", booking.Date.Format("Jan 2, 2006"), booking.Hour)
	if err := s.notifier.SendBookingStatusUpdate(ctx, owner.Email, owner.Name, details, status); err != nil {
		logger.Errorf("Failed to queue status update for %s: %v", owner.Email, err)
	}
}

func (s *service) notifyCancellation(ctx context.Context, booking *Booking) {
	owner, err := s.userRepo.FindByID(ctx, booking.UserID)
	if err != nil {
		return
	}
	details := fmt.Sprintf("%s at %02d:00", booking.Date.Format("Jan 2, 2006"), booking.Hour)
	if err := s.notifier.SendBookingCancellation(ctx, owner.Email, owner.Name, details); err != nil {
		logger.Errorf("Failed to queue cancellation notice for %s: %v", owner.Email, err)
	}
}
