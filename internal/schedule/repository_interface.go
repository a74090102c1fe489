package schedule

import (
	"context"
	"time"
)

type Repository interface {
	IsDateBlocked(ctx context.Context, date time.Time) (bool, error)
	BlockDate(ctx context.Context, date time.Time, reason string) (*BlockedDate, error)
	UnblockDate(ctx context.Context, date time.Time) error
	ListBlockedDates(ctx context.Context) ([]BlockedDate, error)

	CreateCustomSession(ctx context.Context, date time.Time, startHour, endHour, maxSlots int, reason string) (*CustomSession, error)
	DeleteCustomSession(ctx context.Context, id int) error
	ListCustomSessions(ctx context.Context) ([]CustomSession, error)
	GetCustomSessionsForDate(ctx context.Context, date time.Time) ([]CustomSession, error)
}
