package wizard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillora/instructor-os/internal/models"
)

func filledPersonalInfo() models.PersonalInfo {
	return models.PersonalInfo{
		FirstName:   "Ada",
		LastName:    "Okafor",
		DateOfBirth: "1990-04-12",
		Email:       "ada@example.com",
		Phone:       "+2348012345678",
		Address: models.Address{
			Street:     "12 Marina Rd",
			City:       "Lagos",
			PostalCode: "101241",
			Country:    "NG",
		},
		EmergencyContact: models.EmergencyContact{
			Name:         "Chidi Okafor",
			Relationship: "brother",
			Phone:        "+2348098765432",
		},
	}
}

func TestValidatePersonalInformation_Complete(t *testing.T) {
	state := models.NewApplicationState("user-1")
	state.PersonalInfo = filledPersonalInfo()

	res := Validate(models.StepPersonalInformation, state)

	assert.True(t, res.IsValid)
	assert.Equal(t, 100, res.CompletionPercentage)
	assert.Empty(t, res.Errors)
}

func TestValidatePersonalInformation_StateProvinceOptional(t *testing.T) {
	state := models.NewApplicationState("user-1")
	state.PersonalInfo = filledPersonalInfo()
	state.PersonalInfo.Address.State = ""

	res := Validate(models.StepPersonalInformation, state)

	assert.True(t, res.IsValid)
	assert.Equal(t, 100, res.CompletionPercentage)
}

func TestValidatePersonalInformation_FieldTruthTable(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*models.PersonalInfo)
		expectErr string
	}{
		{"missing first name", func(p *models.PersonalInfo) { p.FirstName = "" }, "first name is required"},
		{"missing last name", func(p *models.PersonalInfo) { p.LastName = "" }, "last name is required"},
		{"malformed email", func(p *models.PersonalInfo) { p.Email = "not-an-email" }, "valid email"},
		{"missing phone", func(p *models.PersonalInfo) { p.Phone = "" }, "phone number is required"},
		{"missing dob", func(p *models.PersonalInfo) { p.DateOfBirth = "" }, "date of birth is required"},
		{"missing street", func(p *models.PersonalInfo) { p.Address.Street = "" }, "street address is required"},
		{"missing city", func(p *models.PersonalInfo) { p.Address.City = "" }, "city is required"},
		{"missing postal code", func(p *models.PersonalInfo) { p.Address.PostalCode = "" }, "postal code is required"},
		{"missing country", func(p *models.PersonalInfo) { p.Address.Country = "" }, "country is required"},
		{"missing emergency name", func(p *models.PersonalInfo) { p.EmergencyContact.Name = "" }, "emergency contact name"},
		{"missing emergency relationship", func(p *models.PersonalInfo) { p.EmergencyContact.Relationship = "" }, "emergency contact relationship"},
		{"missing emergency phone", func(p *models.PersonalInfo) { p.EmergencyContact.Phone = "" }, "emergency contact phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.NewApplicationState("user-1")
			state.PersonalInfo = filledPersonalInfo()
			tt.mutate(&state.PersonalInfo)

			res := Validate(models.StepPersonalInformation, state)

			assert.False(t, res.IsValid)
			require.Len(t, res.Errors, 1)
			assert.Contains(t, res.Errors[0], tt.expectErr)
			assert.Less(t, res.CompletionPercentage, 100)
		})
	}
}

func TestValidateProfessionalBackground_NamedCategoryErrors(t *testing.T) {
	state := models.NewApplicationState("user-1")

	res := Validate(models.StepProfessionalBackground, state)

	require.False(t, res.IsValid)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "education")
	assert.Contains(t, res.Errors[1], "experience")
	assert.Contains(t, res.Errors[2], "references")
}

func TestValidateProfessionalBackground_TwoReferencesRequired(t *testing.T) {
	state := models.NewApplicationState("user-1")
	state.ProfessionalBackground.Education = []models.EducationEntry{{ID: "e1", Institution: "UNILAG"}}
	state.ProfessionalBackground.Experience = []models.ExperienceEntry{{ID: "x1", Company: "Acme"}}
	state.ProfessionalBackground.References = []models.ReferenceEntry{{ID: "r1", Name: "A"}}

	res := Validate(models.StepProfessionalBackground, state)
	require.False(t, res.IsValid)
	assert.Contains(t, res.Errors[0], "2 professional references")

	state.ProfessionalBackground.References = append(state.ProfessionalBackground.References,
		models.ReferenceEntry{ID: "r2", Name: "B"})

	res = Validate(models.StepProfessionalBackground, state)
	assert.True(t, res.IsValid)
	assert.Equal(t, 100, res.CompletionPercentage)
}

func TestValidateTeachingInformation_MotivationBoundary(t *testing.T) {
	base := func() *models.ApplicationState {
		state := models.NewApplicationState("user-1")
		state.TeachingInformation.Subjects = []models.SubjectToTeach{
			{Subject: "Go", Category: "programming", Level: models.LevelIntermediate, Confidence: 4},
		}
		state.TeachingInformation.Philosophy = "Learning by doing."
		state.TeachingInformation.TargetAudiences = []string{"professionals"}
		return state
	}

	// 99 characters fails the boundary
	state := base()
	state.TeachingInformation.Motivation = strings.Repeat("a", 99)
	res := Validate(models.StepTeachingInformation, state)
	require.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "at least 100 characters")

	// exactly 100 characters passes
	state = base()
	state.TeachingInformation.Motivation = strings.Repeat("a", 100)
	res = Validate(models.StepTeachingInformation, state)
	assert.True(t, res.IsValid)
	assert.Equal(t, 100, res.CompletionPercentage)
}

func TestValidateTeachingInformation_EachConditionOwnError(t *testing.T) {
	state := models.NewApplicationState("user-1")

	res := Validate(models.StepTeachingInformation, state)

	require.False(t, res.IsValid)
	assert.Len(t, res.Errors, 4)
}

func addDoc(state *models.ApplicationState, slot models.DocumentSlot, id string, status models.VerificationStatus) {
	state.Documents[slot] = append(state.Documents[slot], models.DocumentRecord{
		ID: id, Name: id + ".pdf", Status: status,
	})
}

func TestValidateDocuments_RequiredSlots(t *testing.T) {
	state := models.NewApplicationState("user-1")

	res := Validate(models.StepDocuments, state)

	require.False(t, res.IsValid)
	assert.Len(t, res.Errors, 3)
	// optional slots downgrade to warnings, never errors
	assert.Len(t, res.Warnings, 3)
}

func TestValidateDocuments_FailedIdentityIsHardError(t *testing.T) {
	state := models.NewApplicationState("user-1")
	addDoc(state, models.SlotIdentityDocument, "doc-1", models.DocStatusFailed)
	addDoc(state, models.SlotProfilePhoto, "doc-2", models.DocStatusVerified)
	addDoc(state, models.SlotEducationCertificates, "doc-3", models.DocStatusPending)

	res := Validate(models.StepDocuments, state)

	require.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	// distinct from the "is required" message for a missing document
	assert.Contains(t, res.Errors[0], "failed verification")
}

func TestValidateDocuments_Complete(t *testing.T) {
	state := models.NewApplicationState("user-1")
	addDoc(state, models.SlotIdentityDocument, "doc-1", models.DocStatusVerified)
	addDoc(state, models.SlotProfilePhoto, "doc-2", models.DocStatusPending)
	addDoc(state, models.SlotEducationCertificates, "doc-3", models.DocStatusPending)

	res := Validate(models.StepDocuments, state)

	assert.True(t, res.IsValid)
	assert.Equal(t, 100, res.CompletionPercentage)
}

func TestValidateReview_PrimaryConsentsOnly(t *testing.T) {
	state := models.NewApplicationState("user-1")
	state.Consents.TermsOfService = true
	state.Consents.PrivacyPolicy = true

	res := Validate(models.StepReview, state)
	require.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "background check")

	state.Consents.BackgroundCheck = true
	res = Validate(models.StepReview, state)
	assert.True(t, res.IsValid)

	// the remaining four consents are independent and do not gate the step
	assert.False(t, state.Consents.DataProcessing)
	assert.False(t, state.Consents.CodeOfConduct)
}

func TestApply_ReplacesErrorsWholesale(t *testing.T) {
	state := models.NewApplicationState("user-1")
	ss := state.Step(models.StepPersonalInformation)
	ss.Errors = []string{"stale error"}
	ss.Warnings = []string{"stale warning"}

	state.PersonalInfo = filledPersonalInfo()
	Apply(state, models.StepPersonalInformation, Validate(models.StepPersonalInformation, state))

	assert.True(t, ss.IsValid)
	assert.Empty(t, ss.Errors)
	assert.Empty(t, ss.Warnings)
	assert.Equal(t, 100, ss.CompletionPercentage)
}
