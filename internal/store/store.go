// Package store holds the persisted application state for each user and is
// the only writer of that state. Every mutation is a named action that
// revalidates the touched step, bumps the logical version, and flushes a
// local snapshot according to the autosave policy.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/skillora/instructor-os/internal/documents"
	"github.com/skillora/instructor-os/internal/localstore"
	"github.com/skillora/instructor-os/internal/logger"
	"github.com/skillora/instructor-os/internal/models"
	"github.com/skillora/instructor-os/internal/remote"
	"github.com/skillora/instructor-os/internal/wizard"

	"github.com/google/uuid"
)

var (
	ErrApplicationLocked = errors.New("application is under review and cannot be edited")
	ErrSubmitInProgress  = errors.New("a submission is already in progress")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrUnknownConsent    = errors.New("unknown consent")
	ErrUnknownWeekday    = errors.New("unknown weekday")
)

// Deps are the collaborators a Store needs. The Manager passes the same Deps
// to every per-user store it creates.
type Deps struct {
	Local  *localstore.Store
	Remote remote.Client
	Slots  map[models.DocumentSlot]documents.SlotConfig
	// Blobs builds the per-user blob store documents are written to.
	Blobs func(userID string) documents.BlobStore
	Thumb documents.Generator
	// Events is optional; a nil publisher drops events.
	Events EventPublisher
	// NotifyStorage is optional; the manager calls it when a user's snapshot
	// crosses a storage threshold, so the client can be warned live.
	NotifyStorage func(userID, message string)

	Autosave   AutosavePolicy
	WarnKB     int
	CriticalKB int

	Log *logger.Logger
}

// Store owns the application state of a single user.
type Store struct {
	mu sync.Mutex

	userID string
	token  string

	state    *models.ApplicationState
	ctrl     *wizard.Controller
	registry *documents.Registry

	local  *localstore.Store
	remote remote.Client
	slots  map[models.DocumentSlot]documents.SlotConfig
	blobs  documents.BlobStore
	thumb  documents.Generator
	events EventPublisher

	autosave      AutosavePolicy
	lastLocalSave time.Time
	dirty         bool

	warnKB     int
	criticalKB int
	storageErr string

	loaded          bool
	isSubmitting    bool
	lastAckedVersion int

	log *logger.Logger
}

// New creates a store with a fresh empty application for the user. Call
// LoadApplication to pull the local snapshot and the server copy in.
func New(userID, token string, deps Deps) *Store {
	log := deps.Log
	if log == nil {
		log = logger.Get()
	}

	warnKB := deps.WarnKB
	if warnKB <= 0 {
		warnKB = DefaultStorageWarnKB
	}
	criticalKB := deps.CriticalKB
	if criticalKB <= 0 {
		criticalKB = DefaultStorageCriticalKB
	}

	var blobs documents.BlobStore
	if deps.Blobs != nil {
		blobs = deps.Blobs(userID)
	} else {
		blobs = documents.NewMemoryBlobStore()
	}

	s := &Store{
		userID:     userID,
		token:      token,
		local:      deps.Local,
		remote:     deps.Remote,
		slots:      deps.Slots,
		blobs:      blobs,
		thumb:      deps.Thumb,
		events:     deps.Events,
		autosave:   deps.Autosave,
		warnKB:     warnKB,
		criticalKB: criticalKB,
		log:        log,
	}
	s.bindState(models.NewApplicationState(userID))
	return s
}

// bindState swaps the aggregate and rebuilds the controller and document
// registry around it. Callers must hold mu (or be the constructor).
func (s *Store) bindState(state *models.ApplicationState) {
	if state.Documents == nil {
		state.Documents = models.NewDocumentSet()
	}
	state.EnsureSteps()
	s.state = state
	s.ctrl = wizard.NewController(state)
	s.registry = documents.NewRegistry(s.slots, state.Documents, s.blobs, s.thumb)
}

// SetToken updates the bearer token used for remote calls.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Snapshot returns a deep copy of the current application state.
func (s *Store) Snapshot() *models.ApplicationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

func cloneState(state *models.ApplicationState) *models.ApplicationState {
	b, err := json.Marshal(state)
	if err != nil {
		return models.NewApplicationState(state.UserID)
	}
	var out models.ApplicationState
	if err := json.Unmarshal(b, &out); err != nil {
		return models.NewApplicationState(state.UserID)
	}
	return &out
}

// mutate runs a named action against the aggregate, then revalidates the
// touched step, bumps the version and flushes per the autosave policy.
func (s *Store) mutate(step models.StepID, fn func(*models.ApplicationState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status.Locked() {
		return ErrApplicationLocked
	}
	if err := fn(s.state); err != nil {
		return err
	}
	s.afterMutationLocked(step)
	return nil
}

func (s *Store) afterMutationLocked(step models.StepID) {
	if step != "" {
		wizard.Apply(s.state, step, wizard.Validate(step, s.state))
		// the review step summarizes the others, so keep it current
		if step != models.StepReview {
			wizard.Apply(s.state, models.StepReview, wizard.Validate(models.StepReview, s.state))
		}
	}
	s.state.Version++
	s.state.UpdatedAt = time.Now().UTC()
	s.dirty = true

	if s.autosave.ShouldSave(time.Now(), s.lastLocalSave, s.dirty) {
		s.persistLocalLocked()
	}
}

// persistLocalLocked writes the snapshot to the local store. Failures are
// logged, not returned: the local snapshot is a cache, the server copy is
// the source of truth.
func (s *Store) persistLocalLocked() {
	if s.local == nil {
		return
	}
	if err := s.local.Save(localstore.ApplicationKey(s.userID), s.state); err != nil {
		s.log.Error().Err(err).Str("user_id", s.userID).Msg("Failed to persist application snapshot")
		return
	}
	s.lastLocalSave = time.Now()
	s.dirty = false
}

// Flush forces a local snapshot write regardless of the autosave debounce.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocalLocked()
}

// ---- personal information ----

// UpdatePersonalInfo replaces the personal information step's fields.
func (s *Store) UpdatePersonalInfo(p models.PersonalInfo) error {
	return s.mutate(models.StepPersonalInformation, func(state *models.ApplicationState) error {
		state.PersonalInfo = p
		return nil
	})
}

// ---- professional background ----

// UpdateEmployment replaces the current employment record.
func (s *Store) UpdateEmployment(e models.Employment) error {
	return s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		state.ProfessionalBackground.CurrentEmployment = e
		return nil
	})
}

// AddEducation appends an education entry and returns its generated id.
func (s *Store) AddEducation(e models.EducationEntry) (string, error) {
	e.ID = uuid.New().String()
	e.Verified = false
	err := s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		state.ProfessionalBackground.Education = append(state.ProfessionalBackground.Education, e)
		return nil
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// UpdateEducation replaces the entry with the given id.
func (s *Store) UpdateEducation(id string, e models.EducationEntry) error {
	return s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		for i := range state.ProfessionalBackground.Education {
			if state.ProfessionalBackground.Education[i].ID == id {
				e.ID = id
				e.Verified = state.ProfessionalBackground.Education[i].Verified
				state.ProfessionalBackground.Education[i] = e
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// RemoveEducation deletes the entry with the given id.
func (s *Store) RemoveEducation(id string) error {
	return s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		entries := state.ProfessionalBackground.Education
		for i := range entries {
			if entries[i].ID == id {
				state.ProfessionalBackground.Education = append(entries[:i:i], entries[i+1:]...)
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// AddExperience appends a work-experience entry and returns its generated id.
func (s *Store) AddExperience(e models.ExperienceEntry) (string, error) {
	e.ID = uuid.New().String()
	e.Verified = false
	err := s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		state.ProfessionalBackground.Experience = append(state.ProfessionalBackground.Experience, e)
		return nil
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// UpdateExperience replaces the entry with the given id.
func (s *Store) UpdateExperience(id string, e models.ExperienceEntry) error {
	return s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		for i := range state.ProfessionalBackground.Experience {
			if state.ProfessionalBackground.Experience[i].ID == id {
				e.ID = id
				e.Verified = state.ProfessionalBackground.Experience[i].Verified
				state.ProfessionalBackground.Experience[i] = e
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// RemoveExperience deletes the entry with the given id.
func (s *Store) RemoveExperience(id string) error {
	return s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		entries := state.ProfessionalBackground.Experience
		for i := range entries {
			if entries[i].ID == id {
				state.ProfessionalBackground.Experience = append(entries[:i:i], entries[i+1:]...)
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// AddReference appends a professional reference and returns its generated id.
func (s *Store) AddReference(r models.ReferenceEntry) (string, error) {
	r.ID = uuid.New().String()
	r.Verified = false
	err := s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		state.ProfessionalBackground.References = append(state.ProfessionalBackground.References, r)
		return nil
	})
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

// UpdateReference replaces the reference with the given id.
func (s *Store) UpdateReference(id string, r models.ReferenceEntry) error {
	return s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		for i := range state.ProfessionalBackground.References {
			if state.ProfessionalBackground.References[i].ID == id {
				r.ID = id
				r.Verified = state.ProfessionalBackground.References[i].Verified
				state.ProfessionalBackground.References[i] = r
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// RemoveReference deletes the reference with the given id.
func (s *Store) RemoveReference(id string) error {
	return s.mutate(models.StepProfessionalBackground, func(state *models.ApplicationState) error {
		entries := state.ProfessionalBackground.References
		for i := range entries {
			if entries[i].ID == id {
				state.ProfessionalBackground.References = append(entries[:i:i], entries[i+1:]...)
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// ---- teaching information ----

// UpdateTeachingProfile replaces the free-text and preference fields of the
// teaching step. Subjects, availability and teaching experience have their
// own actions.
func (s *Store) UpdateTeachingProfile(motivation, philosophy string, audiences, formats []string) error {
	return s.mutate(models.StepTeachingInformation, func(state *models.ApplicationState) error {
		state.TeachingInformation.Motivation = motivation
		state.TeachingInformation.Philosophy = philosophy
		state.TeachingInformation.TargetAudiences = audiences
		state.TeachingInformation.PreferredFormats = formats
		return nil
	})
}

// AddSubject appends a subject to teach.
func (s *Store) AddSubject(sub models.SubjectToTeach) error {
	return s.mutate(models.StepTeachingInformation, func(state *models.ApplicationState) error {
		state.TeachingInformation.Subjects = append(state.TeachingInformation.Subjects, sub)
		return nil
	})
}

// RemoveSubject deletes the first subject with the given name.
func (s *Store) RemoveSubject(subject string) error {
	return s.mutate(models.StepTeachingInformation, func(state *models.ApplicationState) error {
		subjects := state.TeachingInformation.Subjects
		for i := range subjects {
			if subjects[i].Subject == subject {
				state.TeachingInformation.Subjects = append(subjects[:i:i], subjects[i+1:]...)
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// AddTeachingExperience appends a teaching engagement and returns its id.
func (s *Store) AddTeachingExperience(e models.TeachingExperienceEntry) (string, error) {
	e.ID = uuid.New().String()
	err := s.mutate(models.StepTeachingInformation, func(state *models.ApplicationState) error {
		state.TeachingInformation.TeachingExperience = append(state.TeachingInformation.TeachingExperience, e)
		return nil
	})
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// UpdateTeachingExperience replaces the engagement with the given id.
func (s *Store) UpdateTeachingExperience(id string, e models.TeachingExperienceEntry) error {
	return s.mutate(models.StepTeachingInformation, func(state *models.ApplicationState) error {
		for i := range state.TeachingInformation.TeachingExperience {
			if state.TeachingInformation.TeachingExperience[i].ID == id {
				e.ID = id
				state.TeachingInformation.TeachingExperience[i] = e
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// RemoveTeachingExperience deletes the engagement with the given id.
func (s *Store) RemoveTeachingExperience(id string) error {
	return s.mutate(models.StepTeachingInformation, func(state *models.ApplicationState) error {
		entries := state.TeachingInformation.TeachingExperience
		for i := range entries {
			if entries[i].ID == id {
				state.TeachingInformation.TeachingExperience = append(entries[:i:i], entries[i+1:]...)
				return nil
			}
		}
		return ErrEntryNotFound
	})
}

// SetAvailability flips one weekday's availability flag.
func (s *Store) SetAvailability(day string, available bool) error {
	return s.mutate(models.StepTeachingInformation, func(state *models.ApplicationState) error {
		if _, ok := state.TeachingInformation.WeeklyAvailability[day]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownWeekday, day)
		}
		state.TeachingInformation.WeeklyAvailability[day] = available
		return nil
	})
}

// ---- consents ----

// Consent names accepted by SetConsent.
const (
	ConsentTermsOfService    = "terms_of_service"
	ConsentPrivacyPolicy     = "privacy_policy"
	ConsentBackgroundCheck   = "background_check"
	ConsentDataProcessing    = "data_processing"
	ConsentContentGuidelines = "content_guidelines"
	ConsentCodeOfConduct     = "code_of_conduct"
)

// SetConsent records a single consent flag. Flags are independent; granting
// one never implies another. AgreedAt is stamped the moment all three
// submission-gating consents are granted.
func (s *Store) SetConsent(name string, granted bool) error {
	return s.mutate(models.StepReview, func(state *models.ApplicationState) error {
		c := &state.Consents
		switch name {
		case ConsentTermsOfService:
			c.TermsOfService = granted
		case ConsentPrivacyPolicy:
			c.PrivacyPolicy = granted
		case ConsentBackgroundCheck:
			c.BackgroundCheck = granted
		case ConsentDataProcessing:
			c.DataProcessing = granted
		case ConsentContentGuidelines:
			c.ContentGuidelines = granted
		case ConsentCodeOfConduct:
			c.CodeOfConduct = granted
		default:
			return fmt.Errorf("%w: %s", ErrUnknownConsent, name)
		}
		if c.PrimaryGranted() {
			if c.AgreedAt == nil {
				now := time.Now().UTC()
				c.AgreedAt = &now
			}
		} else {
			c.AgreedAt = nil
		}
		return nil
	})
}

// ---- navigation ----

// CurrentStep returns the wizard position.
func (s *Store) CurrentStep() (int, models.StepID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Current(), s.ctrl.CurrentStep()
}

// GoToStep jumps to a step index, clamped to the valid range. Navigation is
// free in both directions and stays available on locked applications.
func (s *Store) GoToStep(index int) int {
	return s.navigate(func() int { return s.ctrl.GoTo(index) })
}

// NextStep advances one step.
func (s *Store) NextStep() int {
	return s.navigate(func() int { return s.ctrl.Next() })
}

// PreviousStep goes back one step.
func (s *Store) PreviousStep() int {
	return s.navigate(func() int { return s.ctrl.Previous() })
}

func (s *Store) navigate(move func() int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := move()
	s.state.UpdatedAt = time.Now().UTC()
	s.dirty = true
	if s.autosave.ShouldSave(time.Now(), s.lastLocalSave, s.dirty) {
		s.persistLocalLocked()
	}
	return idx
}

// CanSubmit reports whether the application passes the submission gate.
func (s *Store) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.CanSubmit()
}

// ---- documents ----

// UploadDocument validates and stores a file in a slot, then revalidates the
// documents step.
func (s *Store) UploadDocument(ctx context.Context, slot models.DocumentSlot, filename, mime string, content []byte) (models.DocumentRecord, error) {
	s.mu.Lock()
	if s.state.Status.Locked() {
		s.mu.Unlock()
		return models.DocumentRecord{}, ErrApplicationLocked
	}
	rec, err := s.registry.Upload(slot, filename, mime, content)
	if err != nil {
		s.mu.Unlock()
		return models.DocumentRecord{}, err
	}
	s.afterMutationLocked(models.StepDocuments)
	s.mu.Unlock()

	if s.events != nil {
		event := DocumentUploadedEvent{
			UserID:     s.userID,
			Slot:       string(slot),
			DocumentID: rec.ID,
			Name:       rec.Name,
			MimeType:   rec.MimeType,
			SizeBytes:  rec.SizeBytes,
			UploadedAt: rec.UploadedAt,
		}
		if err := s.events.PublishDocumentUploaded(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("document_id", rec.ID).Msg("Failed to publish document upload event")
		}
	}
	return rec, nil
}

// RemoveDocument deletes a document from a slot.
func (s *Store) RemoveDocument(slot models.DocumentSlot, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status.Locked() {
		return ErrApplicationLocked
	}
	if err := s.registry.Remove(slot, id); err != nil {
		return err
	}
	s.afterMutationLocked(models.StepDocuments)
	return nil
}

// SetDocumentStatus records a verification verdict for a document. It is
// called by the verification feed, so it works on locked applications too.
func (s *Store) SetDocumentStatus(slot models.DocumentSlot, id string, status models.VerificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.SetStatus(slot, id, status); err != nil {
		return err
	}
	s.afterMutationLocked(models.StepDocuments)
	return nil
}

// UpdateDocumentThumbnail attaches a generated thumbnail to a document.
func (s *Store) UpdateDocumentThumbnail(slot models.DocumentSlot, id, thumbnailURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.registry.UpdateThumbnail(slot, id, thumbnailURL); err != nil {
		return err
	}
	s.afterMutationLocked("")
	return nil
}

// DocumentRecords returns the records in a slot.
func (s *Store) DocumentRecords(slot models.DocumentSlot) []models.DocumentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Records(slot)
}

// SlotConfig exposes the slot configuration for upload pre-checks.
func (s *Store) SlotConfig(slot models.DocumentSlot) (documents.SlotConfig, bool) {
	return s.registry.Config(slot)
}

// ---- persistence ----

// LoadApplication hydrates the store. The local snapshot loads first; the
// server copy is merged in once, on first load, by comparing logical
// versions. Later calls only refresh the server-side status so in-progress
// local edits are never overwritten.
func (s *Store) LoadApplication(ctx context.Context) error {
	s.mu.Lock()
	alreadyLoaded := s.loaded
	s.mu.Unlock()

	if alreadyLoaded {
		return s.RefreshStatus(ctx)
	}

	local := s.loadLocalSnapshot()

	var server *models.ApplicationState
	if s.remote != nil {
		st, err := s.remote.Load(ctx, s.userID, s.token)
		if err != nil {
			if errors.Is(err, remote.ErrUnauthenticated) {
				return err
			}
			// offline is fine, the local snapshot still works
			s.log.Warn().Err(err).Str("user_id", s.userID).Msg("Could not load server application, continuing with local snapshot")
		} else {
			server = st
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case local == nil && server == nil:
		// fresh start, keep the empty state from New
	case server == nil:
		s.bindState(local)
	case local == nil:
		s.bindState(server)
	case server.Version > local.Version:
		s.bindState(server)
	default:
		s.bindState(local)
		if local.VerificationID == nil && server.VerificationID != nil {
			s.state.VerificationID = server.VerificationID
		}
		if server.Status != "" {
			s.state.Status = server.Status
		}
	}

	wizard.ValidateAll(s.state)
	s.loaded = true
	s.lastAckedVersion = s.state.Version
	s.persistLocalLocked()
	return nil
}

func (s *Store) loadLocalSnapshot() *models.ApplicationState {
	if s.local == nil {
		return nil
	}
	var snap models.ApplicationState
	found, err := s.local.Load(localstore.ApplicationKey(s.userID), &snap)
	if err != nil || !found {
		return nil
	}
	return &snap
}

// RefreshStatus pulls the server-side application status. Only the status
// field is touched; local field edits stay intact.
func (s *Store) RefreshStatus(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	status, err := s.remote.Status(ctx, s.userID, s.token)
	if err != nil {
		return fmt.Errorf("refresh application status: %w", err)
	}
	if status == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if status != s.state.Status {
		s.log.Info().Str("user_id", s.userID).
			Str("from", string(s.state.Status)).Str("to", string(status)).
			Msg("Application status changed")
		s.state.Status = status
		s.persistLocalLocked()
	}
	return nil
}

// SaveDraft pushes the current state to the backend. On a stale
// acknowledgement (a response for an older version arriving after a newer
// one was already applied) the result is discarded.
func (s *Store) SaveDraft(ctx context.Context) error {
	s.mu.Lock()
	snap := cloneState(s.state)
	version := snap.Version
	s.mu.Unlock()

	res, err := s.remote.SaveDraft(ctx, s.userID, s.token, snap)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if version < s.lastAckedVersion {
		s.log.Debug().Int("version", version).Int("acked", s.lastAckedVersion).
			Msg("Discarding stale save acknowledgement")
		return nil
	}
	s.lastAckedVersion = version
	s.applySaveResultLocked(res)
	s.persistLocalLocked()
	return nil
}

func (s *Store) applySaveResultLocked(res *remote.SaveResult) {
	if res == nil {
		return
	}
	if s.state.VerificationID == nil && res.VerificationID != "" {
		id := res.VerificationID
		s.state.VerificationID = &id
	}
	if res.Status != "" {
		s.state.Status = res.Status
	}
}

// Submit revalidates every step and, when the submission gate passes, sends
// the application for review. It returns false without any network call when
// the gate fails; the step errors on the snapshot say why.
func (s *Store) Submit(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.isSubmitting {
		s.mu.Unlock()
		return false, ErrSubmitInProgress
	}
	if s.state.Status.Locked() {
		s.mu.Unlock()
		return false, ErrApplicationLocked
	}

	wizard.ValidateAll(s.state)
	if !s.ctrl.CanSubmit() {
		s.persistLocalLocked()
		s.mu.Unlock()
		return false, nil
	}

	s.isSubmitting = true
	snap := cloneState(s.state)
	version := snap.Version
	s.mu.Unlock()

	res, err := s.remote.Submit(ctx, s.userID, s.token, snap)

	s.mu.Lock()
	s.isSubmitting = false
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("submit application: %w", err)
	}

	if version >= s.lastAckedVersion {
		s.lastAckedVersion = version
	}
	s.state.Status = models.ApplicationStatusSubmitted
	s.applySaveResultLocked(res)
	s.persistLocalLocked()
	verificationID := ""
	if s.state.VerificationID != nil {
		verificationID = *s.state.VerificationID
	}
	s.mu.Unlock()

	if s.events != nil {
		event := ApplicationSubmittedEvent{
			UserID:         s.userID,
			VerificationID: verificationID,
			Version:        version,
			SubmittedAt:    time.Now().UTC(),
		}
		if err := s.events.PublishApplicationSubmitted(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("user_id", s.userID).Msg("Failed to publish submission event")
		}
	}
	return true, nil
}
