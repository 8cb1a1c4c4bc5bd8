package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/skillora/instructor-os/internal/assistant"
	"github.com/skillora/instructor-os/internal/documents"
	"github.com/skillora/instructor-os/internal/localstore"
	"github.com/skillora/instructor-os/internal/models"
	"github.com/skillora/instructor-os/internal/remote"
	"github.com/skillora/instructor-os/internal/repository"
	"github.com/skillora/instructor-os/internal/store"
)

// Mock implementations for testing

type stubRemote struct{}

func (stubRemote) Load(ctx context.Context, userID, token string) (*models.ApplicationState, error) {
	return nil, nil
}

func (stubRemote) SaveDraft(ctx context.Context, userID, token string, state *models.ApplicationState) (*remote.SaveResult, error) {
	return &remote.SaveResult{VerificationID: "ver-1", Version: state.Version, Status: models.ApplicationStatusDraft}, nil
}

func (stubRemote) Submit(ctx context.Context, userID, token string, state *models.ApplicationState) (*remote.SaveResult, error) {
	return &remote.SaveResult{VerificationID: "ver-1", Version: state.Version, Status: models.ApplicationStatusSubmitted}, nil
}

func (stubRemote) Status(ctx context.Context, userID, token string) (models.ApplicationStatus, error) {
	return models.ApplicationStatusDraft, nil
}

type mockBookingsRepo struct {
	created  []*models.Booking
	bookings map[uuid.UUID]*models.Booking
}

func (m *mockBookingsRepo) Create(ctx context.Context, b *models.Booking) error {
	b.ID = uuid.New()
	m.created = append(m.created, b)
	return nil
}

func (m *mockBookingsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return m.bookings[id], nil
}

type mockSubmissionsArchive struct {
	recorded int
}

func (m *mockSubmissionsArchive) Record(ctx context.Context, state *models.ApplicationState) (*repository.Submission, error) {
	m.recorded++
	return &repository.Submission{UserID: state.UserID, Version: state.Version}, nil
}

type mockAssistantService struct {
	suggestion *assistant.Suggestion
	err        error
}

func (m *mockAssistantService) Suggest(ctx context.Context, userID string, req assistant.SuggestRequest) (*assistant.Suggestion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.suggestion, nil
}

func (m *mockAssistantService) Session(userID string) (*assistant.Session, error) {
	return &assistant.Session{UserID: userID}, nil
}

type mockBroadcaster struct {
	messages [][]byte
}

func (m *mockBroadcaster) Broadcast(data []byte) {
	m.messages = append(m.messages, data)
}

func newTestServer(t *testing.T) (*Server, *mockBookingsRepo, *mockSubmissionsArchive) {
	t.Helper()

	manager := store.NewManager(store.Deps{
		Local:  localstore.New(t.TempDir()),
		Remote: stubRemote{},
		Slots:  documents.MustSlotConfig(),
		Blobs: func(userID string) documents.BlobStore {
			return documents.NewMemoryBlobStore()
		},
	}, 0)

	bookings := &mockBookingsRepo{bookings: map[uuid.UUID]*models.Booking{}}
	archive := &mockSubmissionsArchive{}

	cfg := &Config{
		Port:        3100,
		Title:       "Test API",
		Description: "Test",
		Version:     "1.0.0",
	}

	deps := &Dependencies{
		Stores:      manager,
		Bookings:    bookings,
		Submissions: archive,
		Assistant: &mockAssistantService{
			suggestion: &assistant.Suggestion{Field: assistant.FieldMotivation, Text: "I teach because it matters."},
		},
		Hub: &mockBroadcaster{},
	}

	return NewServer(cfg, deps), bookings, archive
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("X-User-ID", "user-1")
		req.Header.Set("Authorization", "Bearer token-1")
	}

	w := httptest.NewRecorder()
	srv.fuego.Mux.ServeHTTP(w, req)
	return w
}

func TestNewServer(t *testing.T) {
	srv, _, _ := newTestServer(t)
	if srv == nil {
		t.Fatal("expected server to be created")
	}
	if srv.fuego == nil {
		t.Fatal("expected fuego server to be initialized")
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/health", nil, false)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp.Status)
	}
}

func TestApplicationRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/application/", nil, false)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdatePersonalInfoEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	info := models.PersonalInfo{
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

	w := doJSON(t, srv, http.MethodPatch, "/api/v1/application/personal", info, true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ApplicationResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.PersonalInfo.FirstName != "Amira" {
		t.Errorf("expected first name 'Amira', got '%s'", resp.PersonalInfo.FirstName)
	}
	if resp.Version != 1 {
		t.Errorf("expected version 1, got %d", resp.Version)
	}
	if len(resp.Steps) == 0 || !resp.Steps[0].IsValid {
		t.Errorf("expected the personal-information step to be valid: %+v", resp.Steps)
	}
}

func TestNavigateEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/application/navigate", NavigateRequest{Action: "next"}, true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp NavigateResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.CurrentStepIndex != 1 {
		t.Errorf("expected step index 1, got %d", resp.CurrentStepIndex)
	}
}

func TestSubmitEndpointReturnsStepErrors(t *testing.T) {
	srv, _, archive := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/application/submit", nil, true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SubmitResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Submitted {
		t.Error("expected submission to be rejected on an empty application")
	}
	if len(resp.Steps) == 0 {
		t.Error("expected per-step validation errors in the response")
	}
	if archive.recorded != 0 {
		t.Errorf("expected no archived submissions, got %d", archive.recorded)
	}
}

func TestUploadDocumentEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := DocumentUploadRequest{
		Filename:      "photo.png",
		MimeType:      "image/png",
		ContentBase64: base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfakepixels")),
	}

	w := doJSON(t, srv, http.MethodPost, "/api/v1/documents/profile_photo", body, true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var rec models.DocumentRecord
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected a generated document id")
	}
	if rec.Kind != models.KindImage {
		t.Errorf("expected kind 'image', got '%s'", rec.Kind)
	}
}

func TestUploadDocumentRejectsUnknownSlot(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := DocumentUploadRequest{
		Filename:      "photo.png",
		MimeType:      "image/png",
		ContentBase64: base64.StdEncoding.EncodeToString([]byte("x")),
	}

	w := doJSON(t, srv, http.MethodPost, "/api/v1/documents/selfie", body, true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBookingEndpoint(t *testing.T) {
	srv, bookings, _ := newTestServer(t)

	body := BookingCreateRequest{
		SlotID:       "slot-42",
		SessionType:  "ONE_ON_ONE",
		OfferPrice:   35.50,
		Topic:        "Go concurrency patterns",
		StudentName:  "Lena",
		StudentEmail: "lena@example.com",
	}

	w := doJSON(t, srv, http.MethodPost, "/api/v1/bookings", body, false)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp BookingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.Success {
		t.Error("expected success to be true")
	}
	if resp.Status != models.BookingStatusRequested {
		t.Errorf("expected status REQUESTED, got '%s'", resp.Status)
	}
	if len(bookings.created) != 1 {
		t.Fatalf("expected 1 created booking, got %d", len(bookings.created))
	}
	if bookings.created[0].SessionType != models.SessionTypeOneOnOne {
		t.Errorf("unexpected session type '%s'", bookings.created[0].SessionType)
	}
}

func TestCreateBookingRejectsBadSessionType(t *testing.T) {
	srv, bookings, _ := newTestServer(t)

	body := BookingCreateRequest{
		SlotID:       "slot-42",
		SessionType:  "WEEKLY",
		OfferPrice:   20,
		Topic:        "Algebra",
		StudentName:  "Lena",
		StudentEmail: "lena@example.com",
	}

	w := doJSON(t, srv, http.MethodPost, "/api/v1/bookings", body, false)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d: %s", w.Code, w.Body.String())
	}
	if len(bookings.created) != 0 {
		t.Errorf("expected no created bookings, got %d", len(bookings.created))
	}
}

func TestGetBookingNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/bookings/"+uuid.NewString(), nil, false)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAssistantSuggestEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := assistant.SuggestRequest{
		Field:   assistant.FieldMotivation,
		Context: []string{"8 years as a data engineer"},
	}

	w := doJSON(t, srv, http.MethodPost, "/api/v1/assistant/suggest", body, true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp assistant.Suggestion
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Text == "" {
		t.Error("expected a non-empty suggestion")
	}
}

func TestAssistantSuggestRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	body := assistant.SuggestRequest{Field: assistant.FieldMotivation}

	w := doJSON(t, srv, http.MethodPost, "/api/v1/assistant/suggest", body, false)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
}
