package models

import (
	"time"
)

// ApplicationStatus represents the server-tracked lifecycle of a verification application.
type ApplicationStatus string

// ApplicationStatus constants define the possible states of an application.
const (
	ApplicationStatusDraft            ApplicationStatus = "DRAFT"
	ApplicationStatusSubmitted        ApplicationStatus = "SUBMITTED"
	ApplicationStatusUnderReview      ApplicationStatus = "UNDER_REVIEW"
	ApplicationStatusApproved         ApplicationStatus = "APPROVED"
	ApplicationStatusRejected         ApplicationStatus = "REJECTED"
	ApplicationStatusRequiresMoreInfo ApplicationStatus = "REQUIRES_MORE_INFO"
)

// Locked reports whether the application is in a state that forbids local edits.
// REQUIRES_MORE_INFO explicitly unlocks the application for resubmission.
func (s ApplicationStatus) Locked() bool {
	switch s {
	case ApplicationStatusUnderReview, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	default:
		return false
	}
}

// StepID identifies one page of the verification wizard.
type StepID string

// Wizard step identifiers, in presentation order.
const (
	StepPersonalInformation    StepID = "personal-information"
	StepProfessionalBackground StepID = "professional-background"
	StepTeachingInformation    StepID = "teaching-information"
	StepDocuments              StepID = "documents"
	StepReview                 StepID = "review"
)

// StepOrder is the canonical ordering of wizard steps.
var StepOrder = []StepID{
	StepPersonalInformation,
	StepProfessionalBackground,
	StepTeachingInformation,
	StepDocuments,
	StepReview,
}

// StepState holds the validation snapshot for a single wizard step.
type StepState struct {
	ID                   StepID   `json:"id"`
	IsValid              bool     `json:"is_valid"`
	CompletionPercentage int      `json:"completion_percentage"`
	Errors               []string `json:"errors"`
	Warnings             []string `json:"warnings"`
}

// LanguageProficiency levels for spoken languages.
type LanguageProficiency string

const (
	ProficiencyBasic          LanguageProficiency = "basic"
	ProficiencyConversational LanguageProficiency = "conversational"
	ProficiencyFluent         LanguageProficiency = "fluent"
	ProficiencyNative         LanguageProficiency = "native"
)

// SpokenLanguage is one language the applicant speaks.
type SpokenLanguage struct {
	Language    string              `json:"language"`
	Proficiency LanguageProficiency `json:"proficiency"`
	CanTeach    bool                `json:"can_teach"`
}

// Address holds the applicant's postal address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// EmergencyContact is the person to notify in an emergency.
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// PersonalInfo is the first wizard step's field set.
type PersonalInfo struct {
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	DateOfBirth      string           `json:"date_of_birth"` // YYYY-MM-DD
	Nationality      string           `json:"nationality"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Address          Address          `json:"address"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
	SpokenLanguages  []SpokenLanguage `json:"spoken_languages"`
}

// Employment describes the applicant's current position.
type Employment struct {
	Employer string `json:"employer"`
	Title    string `json:"title"`
	Since    string `json:"since,omitempty"`
}

// EducationEntry is one education record.
type EducationEntry struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	StartYear   int    `json:"start_year"`
	EndYear     int    `json:"end_year"`
	Verified    bool   `json:"verified"`
}

// ExperienceEntry is one work-experience record.
type ExperienceEntry struct {
	ID           string   `json:"id"`
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date,omitempty"`
	Current      bool     `json:"current"`
	Description  string   `json:"description"`
	Achievements []string `json:"achievements,omitempty"`
	Verified     bool     `json:"verified"`
}

// ReferenceEntry is one professional reference.
type ReferenceEntry struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Contact             string `json:"contact"`
	Relationship        string `json:"relationship"`
	PermissionToContact bool   `json:"permission_to_contact"`
	Verified            bool   `json:"verified"`
}

// ProfessionalBackground is the second wizard step's field set.
type ProfessionalBackground struct {
	CurrentEmployment Employment        `json:"current_employment"`
	Education         []EducationEntry  `json:"education"`
	Experience        []ExperienceEntry `json:"experience"`
	References        []ReferenceEntry  `json:"references"`
}

// SubjectLevel is the teaching level for a subject.
type SubjectLevel string

const (
	LevelBeginner     SubjectLevel = "beginner"
	LevelIntermediate SubjectLevel = "intermediate"
	LevelAdvanced     SubjectLevel = "advanced"
	LevelAllLevels    SubjectLevel = "all-levels"
)

// SubjectToTeach is one subject the applicant wants to teach.
type SubjectToTeach struct {
	Subject         string       `json:"subject"`
	Category        string       `json:"category"`
	Level           SubjectLevel `json:"level"`
	YearsExperience int          `json:"years_experience"`
	Confidence      int          `json:"confidence"` // 1-5
}

// TeachingExperienceEntry is one prior teaching engagement.
type TeachingExperienceEntry struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Role        string `json:"role"`
	Subject     string `json:"subject"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// TeachingInformation is the third wizard step's field set.
type TeachingInformation struct {
	Subjects           []SubjectToTeach          `json:"subjects"`
	Motivation         string                    `json:"motivation"`
	Philosophy         string                    `json:"philosophy"`
	TargetAudiences    []string                  `json:"target_audiences"`
	PreferredFormats   []string                  `json:"preferred_formats"`
	WeeklyAvailability map[string]bool           `json:"weekly_availability"` // weekday name -> available
	TeachingExperience []TeachingExperienceEntry `json:"teaching_experience"`
}

// Consents holds the user-agreement flags. Each is recorded explicitly;
// only the first three gate submission.
type Consents struct {
	TermsOfService    bool       `json:"terms_of_service"`
	PrivacyPolicy     bool       `json:"privacy_policy"`
	BackgroundCheck   bool       `json:"background_check"`
	DataProcessing    bool       `json:"data_processing"`
	ContentGuidelines bool       `json:"content_guidelines"`
	CodeOfConduct     bool       `json:"code_of_conduct"`
	AgreedAt          *time.Time `json:"agreed_at,omitempty"`
}

// PrimaryGranted reports whether the three submission-gating consents are set.
func (c Consents) PrimaryGranted() bool {
	return c.TermsOfService && c.PrivacyPolicy && c.BackgroundCheck
}

// ApplicationState is the root aggregate for one user's verification application.
// It is mutated exclusively through the store's named update actions.
type ApplicationState struct {
	UserID string `json:"user_id"`

	PersonalInfo           PersonalInfo           `json:"personal_info"`
	ProfessionalBackground ProfessionalBackground `json:"professional_background"`
	TeachingInformation    TeachingInformation    `json:"teaching_information"`
	Documents              DocumentSet            `json:"documents"`
	Consents               Consents               `json:"consents"`

	Steps            []StepState `json:"steps"`
	CurrentStepIndex int         `json:"current_step_index"`

	// VerificationID is assigned by the remote backend once it accepts the first save.
	VerificationID *string           `json:"verification_id,omitempty"`
	Status         ApplicationStatus `json:"status"`

	// Version is a monotonic logical version bumped on every local mutation.
	// Stale remote responses are detected against it, not against arrival order.
	Version int `json:"version"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewApplicationState returns an empty, defaulted application for a user.
func NewApplicationState(userID string) *ApplicationState {
	steps := make([]StepState, 0, len(StepOrder))
	for _, id := range StepOrder {
		steps = append(steps, StepState{ID: id, Errors: []string{}, Warnings: []string{}})
	}

	return &ApplicationState{
		UserID: userID,
		TeachingInformation: TeachingInformation{
			WeeklyAvailability: defaultAvailability(),
		},
		Documents:        NewDocumentSet(),
		Steps:            steps,
		CurrentStepIndex: 0,
		Status:           ApplicationStatusDraft,
		UpdatedAt:        time.Now().UTC(),
	}
}

// Weekdays in availability order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func defaultAvailability() map[string]bool {
	m := make(map[string]bool, len(Weekdays))
	for _, d := range Weekdays {
		m[d] = false
	}
	return m
}

// EnsureSteps rebuilds the step list in canonical order, keeping states
// already present. Snapshots from other serializations may omit steps
// entirely or carry a partial list.
func (a *ApplicationState) EnsureSteps() {
	byID := make(map[StepID]StepState, len(a.Steps))
	for _, s := range a.Steps {
		byID[s.ID] = s
	}
	steps := make([]StepState, 0, len(StepOrder))
	for _, id := range StepOrder {
		st, ok := byID[id]
		if !ok {
			st = StepState{ID: id, Errors: []string{}, Warnings: []string{}}
		}
		steps = append(steps, st)
	}
	a.Steps = steps
}

// StepIndex returns the index of a step id in StepOrder, or -1.
func StepIndex(id StepID) int {
	for i, s := range StepOrder {
		if s == id {
			return i
		}
	}
	return -1
}

// Step returns a pointer to the StepState with the given id, or nil.
func (a *ApplicationState) Step(id StepID) *StepState {
	for i := range a.Steps {
		if a.Steps[i].ID == id {
			return &a.Steps[i]
		}
	}
	return nil
}

// OverallProgress averages completion across all steps.
func (a *ApplicationState) OverallProgress() int {
	if len(a.Steps) == 0 {
		return 0
	}
	total := 0
	for _, s := range a.Steps {
		total += s.CompletionPercentage
	}
	return total / len(a.Steps)
}

// AllStepsValid reports whether every step currently passes validation.
func (a *ApplicationState) AllStepsValid() bool {
	for _, s := range a.Steps {
		if !s.IsValid {
			return false
		}
	}
	return len(a.Steps) > 0
}
