package wizard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skillora/instructor-os/internal/models"
)

// MinMotivationLength is the minimum motivation-text length in characters.
const MinMotivationLength = 100

// MinReferences is the minimum number of professional references.
const MinReferences = 2

// Result is the outcome of validating one step's field set.
type Result struct {
	IsValid              bool
	CompletionPercentage int
	Errors               []string
	Warnings             []string
}

// emailRe is a loose shape check; real address verification belongs to the
// remote backend.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate runs the validator for a single step against the full application
// state and returns a fresh result. Results are always full-replace: callers
// overwrite the step's stored errors and warnings, never append.
func Validate(step models.StepID, state *models.ApplicationState) Result {
	switch step {
	case models.StepPersonalInformation:
		return validatePersonalInformation(&state.PersonalInfo)
	case models.StepProfessionalBackground:
		return validateProfessionalBackground(&state.ProfessionalBackground)
	case models.StepTeachingInformation:
		return validateTeachingInformation(&state.TeachingInformation)
	case models.StepDocuments:
		return validateDocuments(state.Documents)
	case models.StepReview:
		return validateReview(state.Consents)
	default:
		return Result{Errors: []string{fmt.Sprintf("unknown step: %s", step)}, Warnings: []string{}}
	}
}

// Apply writes a result into the step's state. Errors and warnings are
// replaced wholesale so stale messages never survive a revalidation.
func Apply(state *models.ApplicationState, step models.StepID, res Result) {
	ss := state.Step(step)
	if ss == nil {
		return
	}
	ss.IsValid = res.IsValid
	ss.CompletionPercentage = res.CompletionPercentage
	ss.Errors = res.Errors
	ss.Warnings = res.Warnings
}

// ValidateAll revalidates every step in order.
func ValidateAll(state *models.ApplicationState) {
	for _, id := range models.StepOrder {
		Apply(state, id, Validate(id, state))
	}
}

// checklist accumulates required-field checks. Completion percentage is a
// deterministic function of satisfied checks over total checks.
type checklist struct {
	filled   int
	total    int
	errors   []string
	warnings []string
}

func (c *checklist) require(ok bool, msg string) {
	c.total++
	if ok {
		c.filled++
		return
	}
	c.errors = append(c.errors, msg)
}

// fail records an error for a condition that counts against a check that is
// otherwise tracked separately (e.g. a failed verification on a present file).
func (c *checklist) fail(msg string) {
	c.errors = append(c.errors, msg)
}

func (c *checklist) advise(ok bool, msg string) {
	if !ok {
		c.warnings = append(c.warnings, msg)
	}
}

func (c *checklist) result() Result {
	pct := 0
	if c.total > 0 {
		pct = c.filled * 100 / c.total
	}
	if c.errors == nil {
		c.errors = []string{}
	}
	if c.warnings == nil {
		c.warnings = []string{}
	}
	return Result{
		IsValid:              len(c.errors) == 0,
		CompletionPercentage: pct,
		Errors:               c.errors,
		Warnings:             c.warnings,
	}
}

func validatePersonalInformation(p *models.PersonalInfo) Result {
	var c checklist

	c.require(strings.TrimSpace(p.FirstName) != "", "first name is required")
	c.require(strings.TrimSpace(p.LastName) != "", "last name is required")
	c.require(emailRe.MatchString(p.Email), "a valid email address is required")
	c.require(strings.TrimSpace(p.Phone) != "", "phone number is required")
	c.require(strings.TrimSpace(p.DateOfBirth) != "", "date of birth is required")

	// state/province stays optional, not every country has one
	c.require(strings.TrimSpace(p.Address.Street) != "", "street address is required")
	c.require(strings.TrimSpace(p.Address.City) != "", "city is required")
	c.require(strings.TrimSpace(p.Address.PostalCode) != "", "postal code is required")
	c.require(strings.TrimSpace(p.Address.Country) != "", "country is required")

	c.require(strings.TrimSpace(p.EmergencyContact.Name) != "", "emergency contact name is required")
	c.require(strings.TrimSpace(p.EmergencyContact.Relationship) != "", "emergency contact relationship is required")
	c.require(strings.TrimSpace(p.EmergencyContact.Phone) != "", "emergency contact phone is required")

	return c.result()
}

func validateProfessionalBackground(b *models.ProfessionalBackground) Result {
	var c checklist

	c.require(len(b.Education) >= 1, "at least one education entry is required")
	c.require(len(b.Experience) >= 1, "at least one work experience entry is required")
	c.require(len(b.References) >= MinReferences,
		fmt.Sprintf("at least %d professional references are required", MinReferences))

	return c.result()
}

func validateTeachingInformation(t *models.TeachingInformation) Result {
	var c checklist

	c.require(len(t.Subjects) >= 1, "at least one subject to teach is required")
	c.require(len(t.Motivation) >= MinMotivationLength,
		fmt.Sprintf("motivation must be at least %d characters", MinMotivationLength))
	c.require(strings.TrimSpace(t.Philosophy) != "", "teaching philosophy is required")
	c.require(len(t.TargetAudiences) >= 1, "at least one target audience is required")

	return c.result()
}

func validateDocuments(docs models.DocumentSet) Result {
	var c checklist

	identity := docs.First(models.SlotIdentityDocument)
	c.require(identity != nil, "identity document is required")
	if identity != nil && identity.Status == models.DocStatusFailed {
		// present but unusable is a distinct error from missing
		c.fail("identity document failed verification, upload it again")
	}

	photo := docs.First(models.SlotProfilePhoto)
	c.require(photo != nil, "profile photo is required")
	if photo != nil && photo.Status == models.DocStatusFailed {
		c.fail("profile photo failed verification, upload it again")
	}

	c.require(len(docs[models.SlotEducationCertificates]) >= 1,
		"at least one education certificate is required")

	c.advise(len(docs[models.SlotProfessionalCertifications]) > 0,
		"professional certifications strengthen your application")
	c.advise(len(docs[models.SlotEmploymentVerification]) > 0,
		"employment verification documents strengthen your application")
	c.advise(docs.First(models.SlotResume) != nil,
		"uploading a resume is recommended")

	return c.result()
}

func validateReview(consents models.Consents) Result {
	var c checklist

	c.require(consents.TermsOfService, "terms of service must be accepted")
	c.require(consents.PrivacyPolicy, "privacy policy must be accepted")
	c.require(consents.BackgroundCheck, "background check consent is required")

	return c.result()
}
