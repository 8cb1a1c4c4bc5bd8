package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionType of a booking request.
type SessionType string

// SessionType constants define the supported session formats.
const (
	SessionTypeOneOnOne SessionType = "ONE_ON_ONE"
	SessionTypeGroup    SessionType = "GROUP"
	SessionTypeTrial    SessionType = "TRIAL"
)

// BookingStatus is the lifecycle state of a booking request.
type BookingStatus string

// BookingStatus constants.
const (
	BookingStatusRequested BookingStatus = "REQUESTED"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusDeclined  BookingStatus = "DECLINED"
	BookingStatusExpired   BookingStatus = "EXPIRED"
)

// Booking is a student's competitive-bidding request for an instructor slot.
// The offer price is the student's bid; the instructor accepts or declines.
type Booking struct {
	ID     uuid.UUID `json:"id" db:"id"`
	SlotID string    `json:"slot_id" db:"slot_id"`

	SessionType SessionType `json:"session_type" db:"session_type"`
	OfferPrice  float64     `json:"offer_price" db:"offer_price"`
	Topic       string      `json:"topic" db:"topic"`

	SpecialRequirements *string `json:"special_requirements,omitempty" db:"special_requirements"`

	// student info
	StudentName  string  `json:"student_name" db:"student_name"`
	StudentEmail string  `json:"student_email" db:"student_email"`
	StudentLevel *string `json:"student_level,omitempty" db:"student_level"`

	Status BookingStatus `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
