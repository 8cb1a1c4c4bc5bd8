package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillora/instructor-os/internal/models"
)

// ============================================================================
// Common Types
// ============================================================================

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error" description:"Error message"`
	Details string `json:"details,omitempty" description:"Additional error details"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status" example:"ok" description:"Health status"`
	Version string `json:"version" example:"dev" description:"Application version"`
}

// ============================================================================
// Application Types
// ============================================================================

// ApplicationResponse is the full wizard snapshot returned to the client.
type ApplicationResponse struct {
	UserID                 string                        `json:"user_id" description:"Applicant user ID"`
	PersonalInfo           models.PersonalInfo           `json:"personal_info"`
	ProfessionalBackground models.ProfessionalBackground `json:"professional_background"`
	TeachingInformation    models.TeachingInformation    `json:"teaching_information"`
	Documents              models.DocumentSet            `json:"documents"`
	Consents               models.Consents               `json:"consents"`
	Steps                  []models.StepState            `json:"steps" description:"Per-step validation state"`
	CurrentStepIndex       int                           `json:"current_step_index"`
	OverallProgress        int                           `json:"overall_progress" description:"Average completion across steps, 0-100"`
	CanSubmit              bool                          `json:"can_submit" description:"Whether the submission gate passes"`
	VerificationID         *string                       `json:"verification_id,omitempty"`
	Status                 models.ApplicationStatus      `json:"status" description:"DRAFT, SUBMITTED, UNDER_REVIEW, APPROVED, REJECTED, REQUIRES_MORE_INFO"`
	Version                int                           `json:"version" description:"Logical state version"`
	StorageWarning         string                        `json:"storage_warning,omitempty" description:"Set when local state is close to the size limit"`
	UpdatedAt              time.Time                     `json:"updated_at"`
}

// StatusResponse is the lightweight status view.
type StatusResponse struct {
	Status          models.ApplicationStatus `json:"status"`
	VerificationID  *string                  `json:"verification_id,omitempty"`
	OverallProgress int                      `json:"overall_progress"`
	CanSubmit       bool                     `json:"can_submit"`
	StorageWarning  string                   `json:"storage_warning,omitempty"`
}

// ConsentRequest records one consent flag.
type ConsentRequest struct {
	Name    string `json:"name" validate:"required" description:"Consent name, e.g. terms_of_service"`
	Granted bool   `json:"granted" description:"Whether the consent is granted"`
}

// AvailabilityRequest flips one weekday's availability.
type AvailabilityRequest struct {
	Day       string `json:"day" validate:"required" description:"Weekday name, lowercase"`
	Available bool   `json:"available"`
}

// TeachingProfileRequest updates the free-text teaching fields.
type TeachingProfileRequest struct {
	Motivation       string   `json:"motivation" description:"Why the applicant wants to teach (min 100 chars to validate)"`
	Philosophy       string   `json:"philosophy" description:"Teaching philosophy"`
	TargetAudiences  []string `json:"target_audiences"`
	PreferredFormats []string `json:"preferred_formats"`
}

// NavigateRequest moves the wizard position.
type NavigateRequest struct {
	Action string `json:"action" validate:"required,oneof=next previous goto" description:"Navigation action"`
	Index  int    `json:"index" description:"Target step index for goto (clamped)"`
}

// NavigateResponse reports the position after navigation.
type NavigateResponse struct {
	CurrentStepIndex int           `json:"current_step_index"`
	CurrentStep      models.StepID `json:"current_step"`
}

// EntryCreatedResponse returns the generated id of a new collection entry.
type EntryCreatedResponse struct {
	ID string `json:"id" description:"Generated entry ID"`
}

// SubmitResponse reports the submission outcome.
type SubmitResponse struct {
	Submitted bool                     `json:"submitted"`
	Status    models.ApplicationStatus `json:"status"`
	// Steps carries validation errors when the gate failed.
	Steps []models.StepState `json:"steps,omitempty"`
}

// SaveResponse acknowledges a draft save.
type SaveResponse struct {
	Version        int     `json:"version"`
	VerificationID *string `json:"verification_id,omitempty"`
}

// ============================================================================
// Document Types
// ============================================================================

// DocumentUploadRequest carries one file as base64.
type DocumentUploadRequest struct {
	Filename      string `json:"filename" validate:"required" description:"Original file name"`
	MimeType      string `json:"mime_type" validate:"required" description:"Declared MIME type"`
	ContentBase64 string `json:"content_base64" validate:"required" description:"File content, base64-encoded"`
}

// DocumentsResponse lists all slots with their records.
type DocumentsResponse struct {
	Documents models.DocumentSet `json:"documents"`
}

// ============================================================================
// Booking Types
// ============================================================================

// BookingCreateRequest is a student's bidding request for a slot.
type BookingCreateRequest struct {
	SlotID              string  `json:"slot_id" validate:"required" description:"Instructor availability slot"`
	SessionType         string  `json:"session_type" validate:"required,oneof=ONE_ON_ONE GROUP TRIAL" description:"Session format"`
	OfferPrice          float64 `json:"offer_price" validate:"required,gt=0" description:"Student's price bid"`
	Topic               string  `json:"topic" validate:"required" description:"What the session is about"`
	SpecialRequirements *string `json:"special_requirements,omitempty"`
	StudentName         string  `json:"student_name" validate:"required"`
	StudentEmail        string  `json:"student_email" validate:"required,email"`
	StudentLevel        *string `json:"student_level,omitempty"`
}

// BookingResponse acknowledges a created booking.
type BookingResponse struct {
	ID      uuid.UUID            `json:"id"`
	Status  models.BookingStatus `json:"status"`
	Success bool                 `json:"success"`
}
