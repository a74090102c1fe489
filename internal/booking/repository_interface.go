package booking

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	GetByIdempotencyKey(ctx context.Context, userID int, key string) (*Booking, error)
	SetStatus(ctx context.Context, id int, from, to string) error
	Complete(ctx context.Context, id int) (*Booking, error)
	Cancel(ctx context.Context, id int) error
	CancelActiveByDate(ctx context.Context, date time.Time, reason string) (int, error)
	ActiveSlotsByHour(ctx context.Context, date time.Time) (map[int][]int, error)
	ListByUser(ctx context.Context, userID int) ([]Booking, error)
	ListByDate(ctx context.Context, date time.Time) ([]BookingWithUser, error)
}
