// Package api provides HTTP handlers for the REST API.
package api

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/go-fuego/fuego"
	"github.com/google/uuid"

	"github.com/skillora/instructor-os/internal/assistant"
	"github.com/skillora/instructor-os/internal/documents"
	"github.com/skillora/instructor-os/internal/logger"
	"github.com/skillora/instructor-os/internal/models"
	"github.com/skillora/instructor-os/internal/remote"
	"github.com/skillora/instructor-os/internal/store"
	"github.com/skillora/instructor-os/internal/web"
)

type fuegoContext interface {
	Context() context.Context
	Header(key string) string
}

// credentials pulls the caller identity from the request. Every application
// route requires both; the sign-in call-to-action rides on the 401 detail.
func credentials(c fuegoContext) (userID, token string, err error) {
	userID = c.Header("X-User-ID")
	auth := c.Header("Authorization")
	token = strings.TrimPrefix(auth, "Bearer ")
	if userID == "" || token == "" || token == auth {
		return "", "", fuego.UnauthorizedError{Detail: remote.ErrUnauthenticated.Error()}
	}
	return userID, token, nil
}

// userStore resolves the caller's store.
func (s *Server) userStore(c fuegoContext) (*store.Store, error) {
	userID, token, err := credentials(c)
	if err != nil {
		return nil, err
	}
	return s.deps.Stores.Get(userID, token), nil
}

// mapStoreErr converts store/document errors into HTTP error shapes.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrApplicationLocked):
		return fuego.ConflictError{Detail: err.Error()}
	case errors.Is(err, store.ErrSubmitInProgress):
		return fuego.ConflictError{Detail: err.Error()}
	case errors.Is(err, store.ErrEntryNotFound):
		return fuego.NotFoundError{Detail: err.Error()}
	case errors.Is(err, store.ErrUnknownConsent),
		errors.Is(err, store.ErrUnknownWeekday),
		errors.Is(err, documents.ErrUnknownSlot),
		errors.Is(err, documents.ErrEmptyFile),
		errors.Is(err, documents.ErrFileTooLarge),
		errors.Is(err, documents.ErrUnsupportedType),
		errors.Is(err, documents.ErrUnknownMimeType):
		return fuego.BadRequestError{Detail: err.Error()}
	case errors.Is(err, documents.ErrDocumentNotFound):
		return fuego.NotFoundError{Detail: err.Error()}
	case errors.Is(err, remote.ErrUnauthenticated):
		return fuego.UnauthorizedError{Detail: err.Error()}
	case errors.Is(err, remote.ErrBackendUnavailable):
		return fuego.HTTPError{Status: 502, Detail: err.Error()}
	default:
		return fuego.InternalServerError{Detail: err.Error()}
	}
}

func (s *Server) applicationResponse(st *store.Store) ApplicationResponse {
	snap := st.Snapshot()
	return ApplicationResponse{
		UserID:                 snap.UserID,
		PersonalInfo:           snap.PersonalInfo,
		ProfessionalBackground: snap.ProfessionalBackground,
		TeachingInformation:    snap.TeachingInformation,
		Documents:              snap.Documents,
		Consents:               snap.Consents,
		Steps:                  snap.Steps,
		CurrentStepIndex:       snap.CurrentStepIndex,
		OverallProgress:        snap.OverallProgress(),
		CanSubmit:              st.CanSubmit(),
		VerificationID:         snap.VerificationID,
		Status:                 snap.Status,
		Version:                snap.Version,
		StorageWarning:         st.StorageError(),
		UpdatedAt:              snap.UpdatedAt,
	}
}

// ============================================================================
// Health
// ============================================================================

func (s *Server) healthCheck(c fuego.ContextNoBody) (HealthResponse, error) {
	return HealthResponse{
		Status:  "ok",
		Version: "dev",
	}, nil
}

// ============================================================================
// Application Handlers
// ============================================================================

func (s *Server) getApplication(c fuego.ContextNoBody) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	if err := st.LoadApplication(c.Context()); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) getApplicationStatus(c fuego.ContextNoBody) (StatusResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return StatusResponse{}, err
	}

	if err := st.RefreshStatus(c.Context()); err != nil {
		// status refresh is best-effort; the cached view still answers
		snap := st.Snapshot()
		return StatusResponse{
			Status:          snap.Status,
			VerificationID:  snap.VerificationID,
			OverallProgress: snap.OverallProgress(),
			CanSubmit:       st.CanSubmit(),
			StorageWarning:  st.StorageError(),
		}, nil
	}

	snap := st.Snapshot()
	return StatusResponse{
		Status:          snap.Status,
		VerificationID:  snap.VerificationID,
		OverallProgress: snap.OverallProgress(),
		CanSubmit:       st.CanSubmit(),
		StorageWarning:  st.StorageError(),
	}, nil
}

func (s *Server) updatePersonalInfo(c fuego.ContextWithBody[models.PersonalInfo]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.UpdatePersonalInfo(body); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) updateEmployment(c fuego.ContextWithBody[models.Employment]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.UpdateEmployment(body); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) updateTeachingProfile(c fuego.ContextWithBody[TeachingProfileRequest]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.UpdateTeachingProfile(body.Motivation, body.Philosophy, body.TargetAudiences, body.PreferredFormats); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) setAvailability(c fuego.ContextWithBody[AvailabilityRequest]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.SetAvailability(body.Day, body.Available); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) setConsent(c fuego.ContextWithBody[ConsentRequest]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.SetConsent(body.Name, body.Granted); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

// ---- education ----

func (s *Server) addEducation(c fuego.ContextWithBody[models.EducationEntry]) (EntryCreatedResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return EntryCreatedResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return EntryCreatedResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	id, err := st.AddEducation(body)
	if err != nil {
		return EntryCreatedResponse{}, mapStoreErr(err)
	}

	return EntryCreatedResponse{ID: id}, nil
}

func (s *Server) updateEducation(c fuego.ContextWithBody[models.EducationEntry]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.UpdateEducation(c.PathParam("id"), body); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) removeEducation(c fuego.ContextNoBody) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	if err := st.RemoveEducation(c.PathParam("id")); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

// ---- experience ----

func (s *Server) addExperience(c fuego.ContextWithBody[models.ExperienceEntry]) (EntryCreatedResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return EntryCreatedResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return EntryCreatedResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	id, err := st.AddExperience(body)
	if err != nil {
		return EntryCreatedResponse{}, mapStoreErr(err)
	}

	return EntryCreatedResponse{ID: id}, nil
}

func (s *Server) updateExperience(c fuego.ContextWithBody[models.ExperienceEntry]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.UpdateExperience(c.PathParam("id"), body); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) removeExperience(c fuego.ContextNoBody) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	if err := st.RemoveExperience(c.PathParam("id")); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

// ---- references ----

func (s *Server) addReference(c fuego.ContextWithBody[models.ReferenceEntry]) (EntryCreatedResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return EntryCreatedResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return EntryCreatedResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	id, err := st.AddReference(body)
	if err != nil {
		return EntryCreatedResponse{}, mapStoreErr(err)
	}

	return EntryCreatedResponse{ID: id}, nil
}

func (s *Server) updateReference(c fuego.ContextWithBody[models.ReferenceEntry]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.UpdateReference(c.PathParam("id"), body); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) removeReference(c fuego.ContextNoBody) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	if err := st.RemoveReference(c.PathParam("id")); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

// ---- subjects and teaching experience ----

func (s *Server) addSubject(c fuego.ContextWithBody[models.SubjectToTeach]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.AddSubject(body); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) removeSubject(c fuego.ContextNoBody) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	if err := st.RemoveSubject(c.PathParam("subject")); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) addTeachingExperience(c fuego.ContextWithBody[models.TeachingExperienceEntry]) (EntryCreatedResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return EntryCreatedResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return EntryCreatedResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	id, err := st.AddTeachingExperience(body)
	if err != nil {
		return EntryCreatedResponse{}, mapStoreErr(err)
	}

	return EntryCreatedResponse{ID: id}, nil
}

func (s *Server) updateTeachingExperience(c fuego.ContextWithBody[models.TeachingExperienceEntry]) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return ApplicationResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	if err := st.UpdateTeachingExperience(c.PathParam("id"), body); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

func (s *Server) removeTeachingExperience(c fuego.ContextNoBody) (ApplicationResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return ApplicationResponse{}, err
	}

	if err := st.RemoveTeachingExperience(c.PathParam("id")); err != nil {
		return ApplicationResponse{}, mapStoreErr(err)
	}

	return s.applicationResponse(st), nil
}

// ---- navigation, save, submit ----

func (s *Server) navigate(c fuego.ContextWithBody[NavigateRequest]) (NavigateResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return NavigateResponse{}, err
	}

	body, err := c.Body()
	if err != nil {
		return NavigateResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	switch body.Action {
	case "next":
		st.NextStep()
	case "previous":
		st.PreviousStep()
	case "goto":
		st.GoToStep(body.Index)
	default:
		return NavigateResponse{}, fuego.BadRequestError{Detail: "Invalid navigation action"}
	}

	idx, step := st.CurrentStep()
	return NavigateResponse{CurrentStepIndex: idx, CurrentStep: step}, nil
}

func (s *Server) saveDraft(c fuego.ContextNoBody) (SaveResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return SaveResponse{}, err
	}

	if err := st.SaveDraft(c.Context()); err != nil {
		return SaveResponse{}, mapStoreErr(err)
	}

	snap := st.Snapshot()
	return SaveResponse{
		Version:        snap.Version,
		VerificationID: snap.VerificationID,
	}, nil
}

func (s *Server) submit(c fuego.ContextNoBody) (SubmitResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return SubmitResponse{}, err
	}

	ok, err := st.Submit(c.Context())
	if err != nil {
		return SubmitResponse{}, mapStoreErr(err)
	}

	snap := st.Snapshot()
	if !ok {
		// the gate failed; hand back the per-step errors
		return SubmitResponse{
			Submitted: false,
			Status:    snap.Status,
			Steps:     snap.Steps,
		}, nil
	}

	if s.deps.Submissions != nil {
		if _, err := s.deps.Submissions.Record(c.Context(), snap); err != nil {
			// the submission went through; losing the archive row is not fatal
			logger.Get().Warn().Err(err).Str("user_id", snap.UserID).Msg("Failed to archive submission")
		}
	}

	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast(web.ApplicationStatusEvent(snap.UserID, string(snap.Status)))
	}

	return SubmitResponse{Submitted: true, Status: snap.Status}, nil
}

// ============================================================================
// Document Handlers
// ============================================================================

func (s *Server) listDocuments(c fuego.ContextNoBody) (DocumentsResponse, error) {
	st, err := s.userStore(c)
	if err != nil {
		return DocumentsResponse{}, err
	}

	docs := models.NewDocumentSet()
	for _, slot := range models.SlotOrder {
		if recs := st.DocumentRecords(slot); len(recs) > 0 {
			docs[slot] = recs
		}
	}

	return DocumentsResponse{Documents: docs}, nil
}

func (s *Server) uploadDocument(c fuego.ContextWithBody[DocumentUploadRequest]) (models.DocumentRecord, error) {
	st, err := s.userStore(c)
	if err != nil {
		return models.DocumentRecord{}, err
	}

	body, err := c.Body()
	if err != nil {
		return models.DocumentRecord{}, fuego.BadRequestError{Detail: err.Error()}
	}

	content, err := base64.StdEncoding.DecodeString(body.ContentBase64)
	if err != nil {
		return models.DocumentRecord{}, fuego.BadRequestError{Detail: "content_base64 is not valid base64"}
	}

	slot := models.DocumentSlot(c.PathParam("slot"))
	rec, err := st.UploadDocument(c.Context(), slot, body.Filename, body.MimeType, content)
	if err != nil {
		return models.DocumentRecord{}, mapStoreErr(err)
	}

	return rec, nil
}

func (s *Server) removeDocument(c fuego.ContextNoBody) (any, error) {
	st, err := s.userStore(c)
	if err != nil {
		return nil, err
	}

	slot := models.DocumentSlot(c.PathParam("slot"))
	if err := st.RemoveDocument(slot, c.PathParam("id")); err != nil {
		return nil, mapStoreErr(err)
	}

	return map[string]string{"status": "removed"}, nil
}

// ============================================================================
// Booking Handlers
// ============================================================================

func (s *Server) createBooking(c fuego.ContextWithBody[BookingCreateRequest]) (BookingResponse, error) {
	body, err := c.Body()
	if err != nil {
		return BookingResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	validTypes := map[string]bool{
		"ONE_ON_ONE": true, "GROUP": true, "TRIAL": true,
	}
	if !validTypes[body.SessionType] {
		return BookingResponse{}, fuego.BadRequestError{Detail: "Invalid session type"}
	}
	if body.OfferPrice <= 0 {
		return BookingResponse{}, fuego.BadRequestError{Detail: "Offer price must be positive"}
	}

	booking := &models.Booking{
		SlotID:              body.SlotID,
		SessionType:         models.SessionType(body.SessionType),
		OfferPrice:          body.OfferPrice,
		Topic:               body.Topic,
		SpecialRequirements: body.SpecialRequirements,
		StudentName:         body.StudentName,
		StudentEmail:        body.StudentEmail,
		StudentLevel:        body.StudentLevel,
		Status:              models.BookingStatusRequested,
	}

	if err := s.deps.Bookings.Create(c.Context(), booking); err != nil {
		return BookingResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return BookingResponse{
		ID:      booking.ID,
		Status:  booking.Status,
		Success: true,
	}, nil
}

func (s *Server) getBooking(c fuego.ContextNoBody) (models.Booking, error) {
	id, err := uuid.Parse(c.PathParam("id"))
	if err != nil {
		return models.Booking{}, fuego.BadRequestError{Detail: "Invalid booking ID"}
	}

	booking, err := s.deps.Bookings.GetByID(c.Context(), id)
	if err != nil {
		return models.Booking{}, fuego.InternalServerError{Detail: err.Error()}
	}
	if booking == nil {
		return models.Booking{}, fuego.NotFoundError{Detail: "Booking not found"}
	}

	return *booking, nil
}

// ============================================================================
// Assistant Handlers
// ============================================================================

func (s *Server) suggest(c fuego.ContextWithBody[assistant.SuggestRequest]) (assistant.Suggestion, error) {
	userID, _, err := credentials(c)
	if err != nil {
		return assistant.Suggestion{}, err
	}

	if s.deps.Assistant == nil {
		return assistant.Suggestion{}, fuego.InternalServerError{Detail: "Assistant is not configured"}
	}

	body, err := c.Body()
	if err != nil {
		return assistant.Suggestion{}, fuego.BadRequestError{Detail: err.Error()}
	}

	sug, err := s.deps.Assistant.Suggest(c.Context(), userID, body)
	if err != nil {
		if errors.Is(err, assistant.ErrUnknownField) {
			return assistant.Suggestion{}, fuego.BadRequestError{Detail: err.Error()}
		}
		return assistant.Suggestion{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return *sug, nil
}

func (s *Server) assistantSession(c fuego.ContextNoBody) (assistant.Session, error) {
	userID, _, err := credentials(c)
	if err != nil {
		return assistant.Session{}, err
	}

	if s.deps.Assistant == nil {
		return assistant.Session{}, fuego.InternalServerError{Detail: "Assistant is not configured"}
	}

	session, err := s.deps.Assistant.Session(userID)
	if err != nil {
		return assistant.Session{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return *session, nil
}
