package store

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillora/instructor-os/internal/documents"
	"github.com/skillora/instructor-os/internal/localstore"
	"github.com/skillora/instructor-os/internal/models"
	"github.com/skillora/instructor-os/internal/remote"
)

// mockRemote counts calls and serves canned responses.
type mockRemote struct {
	mu sync.Mutex

	loadState  *models.ApplicationState
	loadErr    error
	saveResult *remote.SaveResult
	saveErr    error
	status     models.ApplicationStatus
	statusErr  error

	// saveGate, when set, blocks SaveDraft until released. Used to force
	// out-of-order acknowledgements.
	saveGate chan struct{}

	loadCalls   int
	saveCalls   int
	submitCalls int
	statusCalls int
}

func (m *mockRemote) Load(ctx context.Context, userID, token string) (*models.ApplicationState, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()
	return m.loadState, m.loadErr
}

func (m *mockRemote) SaveDraft(ctx context.Context, userID, token string, state *models.ApplicationState) (*remote.SaveResult, error) {
	m.mu.Lock()
	m.saveCalls++
	gate := m.saveGate
	m.saveGate = nil
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
	m.mu.Lock()
	res, err := m.saveResult, m.saveErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return &remote.SaveResult{VerificationID: "ver-1", Version: state.Version, Status: models.ApplicationStatusDraft}, nil
}

func (m *mockRemote) Submit(ctx context.Context, userID, token string, state *models.ApplicationState) (*remote.SaveResult, error) {
	m.mu.Lock()
	m.submitCalls++
	m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return &remote.SaveResult{VerificationID: "ver-1", Version: state.Version, Status: models.ApplicationStatusSubmitted}, nil
}

func (m *mockRemote) Status(ctx context.Context, userID, token string) (models.ApplicationStatus, error) {
	m.mu.Lock()
	m.statusCalls++
	m.mu.Unlock()
	return m.status, m.statusErr
}

func (m *mockRemote) calls() (load, save, submit, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls, m.saveCalls, m.submitCalls, m.statusCalls
}

type mockPublisher struct {
	mu        sync.Mutex
	submitted []ApplicationSubmittedEvent
	uploaded  []DocumentUploadedEvent
}

func (m *mockPublisher) PublishApplicationSubmitted(ctx context.Context, e ApplicationSubmittedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, e)
	return nil
}

func (m *mockPublisher) PublishDocumentUploaded(ctx context.Context, e DocumentUploadedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploaded = append(m.uploaded, e)
	return nil
}

func newTestStore(t *testing.T, rc remote.Client) (*Store, *localstore.Store, *mockPublisher) {
	t.Helper()
	local := localstore.New(t.TempDir())
	pub := &mockPublisher{}
	deps := Deps{
		Local:  local,
		Remote: rc,
		Slots:  documents.MustSlotConfig(),
		Blobs: func(userID string) documents.BlobStore {
			return documents.NewMemoryBlobStore()
		},
		Events: pub,
	}
	return New("user-1", "token-1", deps), local, pub
}

func validPersonalInfo() models.PersonalInfo {
	return models.PersonalInfo{
		FirstName:   "Amira",
		LastName:    "Hassan",
		DateOfBirth: "1990-04-12",
		Nationality: "Egyptian",
		Email:       "amira@example.com",
		Phone:       "+20100000000",
		Address: models.Address{
			Street:     "12 Nile St",
			City:       "Cairo",
			PostalCode: "11511",
			Country:    "EG",
		},
		EmergencyContact: models.EmergencyContact{
			Name:         "Omar Hassan",
			Relationship: "brother",
			Phone:        "+20100000001",
		},
	}
}

// fillValidApplication drives the store through its named actions until every
// step passes validation.
func fillValidApplication(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.UpdatePersonalInfo(validPersonalInfo()))

	_, err := s.AddEducation(models.EducationEntry{Institution: "Cairo University", Degree: "BSc", Field: "Mathematics", StartYear: 2008, EndYear: 2012})
	require.NoError(t, err)
	_, err = s.AddExperience(models.ExperienceEntry{Company: "Acme", Role: "Analyst", StartDate: "2013-01-01", Current: true, Description: "Data work"})
	require.NoError(t, err)
	_, err = s.AddReference(models.ReferenceEntry{Name: "R One", Contact: "r1@example.com", Relationship: "manager", PermissionToContact: true})
	require.NoError(t, err)
	_, err = s.AddReference(models.ReferenceEntry{Name: "R Two", Contact: "r2@example.com", Relationship: "peer", PermissionToContact: true})
	require.NoError(t, err)

	require.NoError(t, s.AddSubject(models.SubjectToTeach{Subject: "Algebra", Category: "Mathematics", Level: models.LevelAllLevels, YearsExperience: 5, Confidence: 4}))
	motivation := strings.Repeat("I want to teach because it matters. ", 5)
	require.NoError(t, s.UpdateTeachingProfile(motivation, "Practice over theory.", []string{"adults"}, []string{"online"}))

	_, err = s.UploadDocument(ctx, models.SlotIdentityDocument, "id.jpg", "image/jpeg", []byte("jpegdata"))
	require.NoError(t, err)
	_, err = s.UploadDocument(ctx, models.SlotProfilePhoto, "me.png", "image/png", []byte("pngdata"))
	require.NoError(t, err)
	_, err = s.UploadDocument(ctx, models.SlotEducationCertificates, "bsc.pdf", "application/pdf", []byte("pdfdata"))
	require.NoError(t, err)

	require.NoError(t, s.SetConsent(ConsentTermsOfService, true))
	require.NoError(t, s.SetConsent(ConsentPrivacyPolicy, true))
	require.NoError(t, s.SetConsent(ConsentBackgroundCheck, true))
}

func TestUpdatePersonalInfoRevalidatesAndPersists(t *testing.T) {
	s, local, _ := newTestStore(t, &mockRemote{})

	before := s.Snapshot().Version
	require.NoError(t, s.UpdatePersonalInfo(validPersonalInfo()))

	snap := s.Snapshot()
	step := snap.Step(models.StepPersonalInformation)
	require.NotNil(t, step)
	assert.True(t, step.IsValid)
	assert.Equal(t, 100, step.CompletionPercentage)
	assert.Empty(t, step.Errors)
	assert.Equal(t, before+1, snap.Version)

	var persisted models.ApplicationState
	found, err := local.Load(localstore.ApplicationKey("user-1"), &persisted)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Amira", persisted.PersonalInfo.FirstName)
}

func TestPartialPersonalInfoReportsMissingFields(t *testing.T) {
	s, _, _ := newTestStore(t, &mockRemote{})

	p := validPersonalInfo()
	p.Email = "not-an-email"
	p.EmergencyContact = models.EmergencyContact{}
	require.NoError(t, s.UpdatePersonalInfo(p))

	step := s.Snapshot().Step(models.StepPersonalInformation)
	require.NotNil(t, step)
	assert.False(t, step.IsValid)
	assert.Equal(t, 8*100/12, step.CompletionPercentage)
	assert.Contains(t, step.Errors, "a valid email address is required")
}

func TestEducationTriad(t *testing.T) {
	s, _, _ := newTestStore(t, &mockRemote{})

	id, err := s.AddEducation(models.EducationEntry{Institution: "MIT", Degree: "MSc", Field: "CS"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.UpdateEducation(id, models.EducationEntry{Institution: "MIT", Degree: "PhD", Field: "CS"}))
	snap := s.Snapshot()
	require.Len(t, snap.ProfessionalBackground.Education, 1)
	assert.Equal(t, "PhD", snap.ProfessionalBackground.Education[0].Degree)
	assert.Equal(t, id, snap.ProfessionalBackground.Education[0].ID)

	assert.ErrorIs(t, s.UpdateEducation("missing", models.EducationEntry{}), ErrEntryNotFound)
	require.NoError(t, s.RemoveEducation(id))
	assert.Empty(t, s.Snapshot().ProfessionalBackground.Education)
	assert.ErrorIs(t, s.RemoveEducation(id), ErrEntryNotFound)
}

func TestConsentsAreIndependent(t *testing.T) {
	s, _, _ := newTestStore(t, &mockRemote{})

	require.NoError(t, s.SetConsent(ConsentTermsOfService, true))
	snap := s.Snapshot()
	assert.True(t, snap.Consents.TermsOfService)
	assert.False(t, snap.Consents.PrivacyPolicy)
	assert.False(t, snap.Consents.BackgroundCheck)
	assert.Nil(t, snap.Consents.AgreedAt)

	require.NoError(t, s.SetConsent(ConsentPrivacyPolicy, true))
	require.NoError(t, s.SetConsent(ConsentBackgroundCheck, true))
	snap = s.Snapshot()
	assert.True(t, snap.Consents.PrimaryGranted())
	require.NotNil(t, snap.Consents.AgreedAt)

	require.NoError(t, s.SetConsent(ConsentBackgroundCheck, false))
	snap = s.Snapshot()
	assert.Nil(t, snap.Consents.AgreedAt)

	assert.ErrorIs(t, s.SetConsent("marketing_emails", true), ErrUnknownConsent)
}

func TestSetAvailability(t *testing.T) {
	s, _, _ := newTestStore(t, &mockRemote{})

	require.NoError(t, s.SetAvailability("monday", true))
	assert.True(t, s.Snapshot().TeachingInformation.WeeklyAvailability["monday"])
	assert.ErrorIs(t, s.SetAvailability("someday", true), ErrUnknownWeekday)
}

func TestSubmitGateFailsWithoutNetworkCalls(t *testing.T) {
	rc := &mockRemote{}
	s, _, pub := newTestStore(t, rc)

	ok, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	_, save, submit, _ := rc.calls()
	assert.Zero(t, save)
	assert.Zero(t, submit)
	assert.Empty(t, pub.submitted)

	// the gate failure leaves the reasons on the step states
	snap := s.Snapshot()
	assert.False(t, snap.AllStepsValid())
	assert.NotEmpty(t, snap.Step(models.StepPersonalInformation).Errors)
}

func TestSubmitSuccess(t *testing.T) {
	rc := &mockRemote{}
	s, _, pub := newTestStore(t, rc)
	fillValidApplication(t, s)
	require.True(t, s.CanSubmit())

	ok, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	snap := s.Snapshot()
	assert.Equal(t, models.ApplicationStatusSubmitted, snap.Status)
	require.NotNil(t, snap.VerificationID)
	assert.Equal(t, "ver-1", *snap.VerificationID)

	_, _, submit, _ := rc.calls()
	assert.Equal(t, 1, submit)
	require.Len(t, pub.submitted, 1)
	assert.Equal(t, "user-1", pub.submitted[0].UserID)
	assert.Equal(t, "ver-1", pub.submitted[0].VerificationID)
}

func TestLockedApplicationRefusesEdits(t *testing.T) {
	rc := &mockRemote{status: models.ApplicationStatusUnderReview}
	s, _, _ := newTestStore(t, rc)
	fillValidApplication(t, s)

	require.NoError(t, s.LoadApplication(context.Background()))
	require.NoError(t, s.RefreshStatus(context.Background()))
	require.Equal(t, models.ApplicationStatusUnderReview, s.Snapshot().Status)

	assert.ErrorIs(t, s.UpdatePersonalInfo(validPersonalInfo()), ErrApplicationLocked)
	_, err := s.UploadDocument(context.Background(), models.SlotResume, "cv.pdf", "application/pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrApplicationLocked)
	_, submitErr := s.Submit(context.Background())
	assert.ErrorIs(t, submitErr, ErrApplicationLocked)

	// navigation stays available for viewing
	assert.Equal(t, 3, s.GoToStep(3))

	// verification verdicts still land
	recs := s.DocumentRecords(models.SlotIdentityDocument)
	require.Len(t, recs, 1)
	require.NoError(t, s.SetDocumentStatus(models.SlotIdentityDocument, recs[0].ID, models.DocStatusVerified))
}

func TestStaleSaveAckIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	rc := &mockRemote{
		saveGate:   gate,
		saveResult: &remote.SaveResult{Status: models.ApplicationStatusRequiresMoreInfo},
	}
	s, _, _ := newTestStore(t, rc)
	require.NoError(t, s.UpdatePersonalInfo(validPersonalInfo()))

	// first save blocks inside the mock
	done := make(chan error, 1)
	go func() { done <- s.SaveDraft(context.Background()) }()

	// wait until the blocked call is in flight
	require.Eventually(t, func() bool {
		_, save, _, _ := rc.calls()
		return save == 1
	}, time.Second, 5*time.Millisecond)

	// a newer mutation and save complete while the first is stuck
	require.NoError(t, s.SetAvailability("friday", true))
	rc.mu.Lock()
	rc.saveResult = &remote.SaveResult{Status: models.ApplicationStatusDraft}
	rc.mu.Unlock()
	require.NoError(t, s.SaveDraft(context.Background()))
	require.Equal(t, models.ApplicationStatusDraft, s.Snapshot().Status)

	// release the stale response; its REQUIRES_MORE_INFO status must not win
	rc.mu.Lock()
	rc.saveResult = &remote.SaveResult{Status: models.ApplicationStatusRequiresMoreInfo}
	rc.mu.Unlock()
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, models.ApplicationStatusDraft, s.Snapshot().Status)
}

func TestLoadApplicationPrefersHigherVersion(t *testing.T) {
	server := models.NewApplicationState("user-1")
	server.PersonalInfo.FirstName = "FromServer"
	server.Version = 10

	rc := &mockRemote{loadState: server, status: models.ApplicationStatusDraft}
	s, local, _ := newTestStore(t, rc)

	// seed a lower-version local snapshot
	localState := models.NewApplicationState("user-1")
	localState.PersonalInfo.FirstName = "FromLocal"
	localState.Version = 3
	require.NoError(t, local.Save(localstore.ApplicationKey("user-1"), localState))

	require.NoError(t, s.LoadApplication(context.Background()))
	assert.Equal(t, "FromServer", s.Snapshot().PersonalInfo.FirstName)

	// second load is a status refresh, not another merge
	require.NoError(t, s.LoadApplication(context.Background()))
	load, _, _, status := rc.calls()
	assert.Equal(t, 1, load)
	assert.Equal(t, 1, status)
}

func TestLoadApplicationKeepsNewerLocalEdits(t *testing.T) {
	server := models.NewApplicationState("user-1")
	server.PersonalInfo.FirstName = "FromServer"
	server.Version = 2
	verID := "ver-9"
	server.VerificationID = &verID

	rc := &mockRemote{loadState: server}
	s, local, _ := newTestStore(t, rc)

	localState := models.NewApplicationState("user-1")
	localState.PersonalInfo.FirstName = "FromLocal"
	localState.Version = 7
	require.NoError(t, local.Save(localstore.ApplicationKey("user-1"), localState))

	require.NoError(t, s.LoadApplication(context.Background()))
	snap := s.Snapshot()
	assert.Equal(t, "FromLocal", snap.PersonalInfo.FirstName)
	require.NotNil(t, snap.VerificationID)
	assert.Equal(t, "ver-9", *snap.VerificationID)
}

func TestLoadApplicationRepairsStepLessSnapshot(t *testing.T) {
	// some backends serialize only the fields they own and drop steps
	server := &models.ApplicationState{
		UserID:  "user-1",
		Version: 5,
		Status:  models.ApplicationStatusDraft,
	}

	rc := &mockRemote{loadState: server}
	s, _, _ := newTestStore(t, rc)

	require.NoError(t, s.LoadApplication(context.Background()))

	snap := s.Snapshot()
	require.Len(t, snap.Steps, len(models.StepOrder))
	for i, id := range models.StepOrder {
		assert.Equal(t, id, snap.Steps[i].ID)
	}

	idx, stepID := s.CurrentStep()
	assert.Equal(t, 0, idx)
	assert.Equal(t, models.StepPersonalInformation, stepID)
	assert.Equal(t, 1, s.NextStep())
}

func TestLoadApplicationWorksOffline(t *testing.T) {
	rc := &mockRemote{loadErr: remote.ErrBackendUnavailable}
	s, local, _ := newTestStore(t, rc)

	localState := models.NewApplicationState("user-1")
	localState.PersonalInfo.FirstName = "Cached"
	localState.Version = 4
	require.NoError(t, local.Save(localstore.ApplicationKey("user-1"), localState))

	require.NoError(t, s.LoadApplication(context.Background()))
	assert.Equal(t, "Cached", s.Snapshot().PersonalInfo.FirstName)
}

func TestStorageWarnDoesNotEvict(t *testing.T) {
	s, _, _ := newTestStore(t, &mockRemote{})
	s.warnKB = 1
	s.criticalKB = 1000

	_, err := s.UploadDocument(context.Background(), models.SlotIdentityDocument, "id.jpg", "image/jpeg", []byte("jpegdata"))
	require.NoError(t, err)
	recs := s.DocumentRecords(models.SlotIdentityDocument)
	require.Len(t, recs, 1)
	require.NoError(t, s.UpdateDocumentThumbnail(models.SlotIdentityDocument, recs[0].ID, "data:image/jpeg;base64,"+strings.Repeat("A", 2048)))

	action := s.CheckStorage()
	assert.Equal(t, StorageWarn, action)
	assert.NotEmpty(t, s.StorageError())

	recs = s.DocumentRecords(models.SlotIdentityDocument)
	assert.True(t, strings.HasPrefix(recs[0].ThumbnailURL, "data:"))
}

func TestStorageCriticalEvictsInlinePreviews(t *testing.T) {
	s, _, _ := newTestStore(t, &mockRemote{})
	s.warnKB = 1
	s.criticalKB = 2

	_, err := s.UploadDocument(context.Background(), models.SlotIdentityDocument, "id.jpg", "image/jpeg", []byte("jpegdata"))
	require.NoError(t, err)
	recs := s.DocumentRecords(models.SlotIdentityDocument)
	require.Len(t, recs, 1)
	require.NoError(t, s.UpdateDocumentThumbnail(models.SlotIdentityDocument, recs[0].ID, "data:image/jpeg;base64,"+strings.Repeat("A", 8192)))

	action := s.CheckStorage()
	assert.Equal(t, StorageCritical, action)

	recs = s.DocumentRecords(models.SlotIdentityDocument)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].ThumbnailURL)
	// the stored file reference survives eviction
	assert.NotEmpty(t, recs[0].URL)
}

func TestAutosaveDebounce(t *testing.T) {
	now := time.Now()
	p := AutosavePolicy{MinInterval: 2 * time.Second}

	assert.False(t, p.ShouldSave(now, now, false))
	assert.False(t, p.ShouldSave(now.Add(time.Second), now, true))
	assert.True(t, p.ShouldSave(now.Add(2*time.Second), now, true))
	assert.True(t, AutosavePolicy{}.ShouldSave(now, now, true))
}

func TestManagerNotifiesOnStoragePressure(t *testing.T) {
	type notice struct{ userID, message string }
	var notices []notice

	local := localstore.New(t.TempDir())
	m := NewManager(Deps{
		Local:      local,
		Remote:     &mockRemote{},
		Slots:      documents.MustSlotConfig(),
		WarnKB:     1,
		CriticalKB: 1000,
		NotifyStorage: func(userID, message string) {
			notices = append(notices, notice{userID, message})
		},
	}, 0)

	s := m.Get("user-1", "token-1")
	_, err := s.UploadDocument(context.Background(), models.SlotIdentityDocument, "id.jpg", "image/jpeg", []byte("jpegdata"))
	require.NoError(t, err)
	recs := s.DocumentRecords(models.SlotIdentityDocument)
	require.Len(t, recs, 1)
	require.NoError(t, s.UpdateDocumentThumbnail(models.SlotIdentityDocument, recs[0].ID, "data:image/jpeg;base64,"+strings.Repeat("A", 2048)))

	m.checkAll()

	require.Len(t, notices, 1)
	assert.Equal(t, "user-1", notices[0].userID)
	assert.Equal(t, s.StorageError(), notices[0].message)
	assert.Contains(t, notices[0].message, "getting large")
}

func TestManagerReturnsSameStorePerUser(t *testing.T) {
	local := localstore.New(t.TempDir())
	m := NewManager(Deps{Local: local, Remote: &mockRemote{}, Slots: documents.MustSlotConfig()}, 0)

	a := m.Get("user-1", "t1")
	b := m.Get("user-1", "t2")
	assert.Same(t, a, b)

	c := m.Get("user-2", "t3")
	assert.NotSame(t, a, c)

	got, ok := m.Lookup("user-1")
	require.True(t, ok)
	assert.Same(t, a, got)
	_, ok = m.Lookup("user-3")
	assert.False(t, ok)
}
