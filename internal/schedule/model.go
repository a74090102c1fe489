package schedule

import (
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, use YYYY-MM-DD")

type BlockedDate struct {
	ID        int       `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CustomSession struct {
	ID        int       `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	StartHour int       `db:"start_hour" json:"start_hour"`
	EndHour   int       `db:"end_hour" json:"end_hour"`
	MaxSlots  int       `db:"max_slots" json:"max_slots"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HourAvailability describes one bookable hour of a day.
type HourAvailability struct {
	Hour                 int   `json:"hour"`
	Capacity             int   `json:"capacity"`
	BookedCount          int   `json:"booked_count"`
	Available            int   `json:"available"`
	AvailableSlotNumbers []int `json:"available_slot_numbers"`
}

type BlockDateRequest struct {
	Date   string `json:"date" binding:"required"`
	Reason string `json:"reason"`
}

type CreateCustomSessionRequest struct {
	Date      string `json:"date" binding:"required"`
	StartHour int    `json:"start_hour" binding:"min=0,max=23"`
	EndHour   int    `json:"end_hour" binding:"required,min=1,max=24"`
	MaxSlots  int    `json:"max_slots" binding:"required,min=1"`
	Reason    string `json:"reason"`
}

// ParseDate parses a YYYY-MM-DD string into a day-start time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// NormalizeDate zeroes the time-of-day component.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
