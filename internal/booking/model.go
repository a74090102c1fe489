package booking

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// transitions is the booking state machine. completed, cancelled and
// no_show are terminal.
var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID             int       `db:"id" json:"id"`
	UserID         int       `db:"user_id" json:"user_id"`
	LearnerID      *int      `db:"learner_id" json:"learner_id,omitempty"`
	StudentName    string    `db:"student_name" json:"student_name"`
	Date           time.Time `db:"date" json:"date"`
	Hour           int       `db:"hour" json:"hour"`
	SlotNumber     int       `db:"slot_number" json:"slot_number"`
	Package        string    `db:"package" json:"package"`
	SessionType    string    `db:"session_type" json:"session_type"`
	Status         string    `db:"status" json:"status"`
	IdempotencyKey *string   `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type BookingWithUser struct {
	Booking
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
}

type CreateBookingRequest struct {
	Date           string `json:"date" binding:"required"`
	Hour           int    `json:"hour" binding:"min=0,max=23"`
	SlotNumber     *int   `json:"slot_number,omitempty"`
	LearnerID      *int   `json:"learner_id,omitempty"`
	StudentName    string `json:"student_name"`
	Package        string `json:"package" binding:"required"`
	SessionType    string `json:"session_type" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
