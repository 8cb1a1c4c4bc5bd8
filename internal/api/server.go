package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// Server represents the Fuego API server.
type Server struct {
	fuego *fuego.Server
	deps  *Dependencies
	port  int
}

// Dependencies contains all service dependencies.
type Dependencies struct {
	Stores      StoreManager
	Bookings    BookingsRepository
	Submissions SubmissionsArchive
	Assistant   AssistantService
	Hub         HubBroadcaster
}

// Config holds API server configuration.
type Config struct {
	Port        int
	Title       string
	Description string
	Version     string
}

// NewServer creates a new Fuego API server.
func NewServer(cfg *Config, deps *Dependencies) *Server {
	s := fuego.NewServer(
		fuego.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		fuego.WithEngineOptions(
			fuego.WithOpenAPIConfig(fuego.OpenAPIConfig{
				PrettyFormatJSON: true,
				JSONFilePath:     "openapi.json",
				SwaggerURL:       "/docs",
				SpecURL:          "/openapi.json",
				UIHandler: func(specURL string) http.Handler {
					return ScalarHandler(specURL, cfg.Title, cfg.Description)
				},
			}),
		),
	)

	// Set OpenAPI info
	s.OpenAPI.Description().Info.Title = cfg.Title
	s.OpenAPI.Description().Info.Description = cfg.Description
	s.OpenAPI.Description().Info.Version = cfg.Version

	// Add Chi middleware (Fuego is net/http compatible)
	fuego.Use(s, middleware.RequestID)
	fuego.Use(s, middleware.RealIP)
	fuego.Use(s, middleware.Logger)
	fuego.Use(s, middleware.Recoverer)
	fuego.Use(s, cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
	}))

	srv := &Server{
		fuego: s,
		deps:  deps,
		port:  cfg.Port,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) registerRoutes() {
	// Health check
	fuego.Get(s.fuego, "/health", s.healthCheck,
		option.Summary("Health Check"),
		option.Description("Returns the health status of the API"),
		option.Tags("System"),
	)

	// Application API
	appGroup := fuego.Group(s.fuego, "/api/v1/application",
		option.Tags("Application"),
	)

	fuego.Get(appGroup, "/", s.getApplication,
		option.Summary("Get Application"),
		option.Description("Loads the caller's application: local snapshot first, server copy merged on first load"),
	)

	fuego.Get(appGroup, "/status", s.getApplicationStatus,
		option.Summary("Get Application Status"),
		option.Description("Returns the lightweight status view: server status, progress, submission gate"),
	)

	fuego.Patch(appGroup, "/personal", s.updatePersonalInfo,
		option.Summary("Update Personal Information"),
		option.Description("Replaces the personal-information step fields and revalidates the step"),
	)

	fuego.Patch(appGroup, "/employment", s.updateEmployment,
		option.Summary("Update Current Employment"),
	)

	fuego.Patch(appGroup, "/teaching", s.updateTeachingProfile,
		option.Summary("Update Teaching Profile"),
		option.Description("Updates motivation, philosophy, audiences and formats"),
	)

	fuego.Patch(appGroup, "/availability", s.setAvailability,
		option.Summary("Set Weekly Availability"),
	)

	fuego.Patch(appGroup, "/consents", s.setConsent,
		option.Summary("Set Consent"),
		option.Description("Records one consent flag; flags are independent, never cascaded"),
	)

	// Repeatable collections
	fuego.Post(appGroup, "/education", s.addEducation,
		option.Summary("Add Education Entry"),
	)
	fuego.Patch(appGroup, "/education/{id}", s.updateEducation,
		option.Summary("Update Education Entry"),
	)
	fuego.Delete(appGroup, "/education/{id}", s.removeEducation,
		option.Summary("Remove Education Entry"),
	)

	fuego.Post(appGroup, "/experience", s.addExperience,
		option.Summary("Add Work Experience"),
	)
	fuego.Patch(appGroup, "/experience/{id}", s.updateExperience,
		option.Summary("Update Work Experience"),
	)
	fuego.Delete(appGroup, "/experience/{id}", s.removeExperience,
		option.Summary("Remove Work Experience"),
	)

	fuego.Post(appGroup, "/references", s.addReference,
		option.Summary("Add Professional Reference"),
	)
	fuego.Patch(appGroup, "/references/{id}", s.updateReference,
		option.Summary("Update Professional Reference"),
	)
	fuego.Delete(appGroup, "/references/{id}", s.removeReference,
		option.Summary("Remove Professional Reference"),
	)

	fuego.Post(appGroup, "/subjects", s.addSubject,
		option.Summary("Add Subject To Teach"),
	)
	fuego.Delete(appGroup, "/subjects/{subject}", s.removeSubject,
		option.Summary("Remove Subject To Teach"),
	)

	fuego.Post(appGroup, "/teaching-experience", s.addTeachingExperience,
		option.Summary("Add Teaching Experience"),
	)
	fuego.Patch(appGroup, "/teaching-experience/{id}", s.updateTeachingExperience,
		option.Summary("Update Teaching Experience"),
	)
	fuego.Delete(appGroup, "/teaching-experience/{id}", s.removeTeachingExperience,
		option.Summary("Remove Teaching Experience"),
	)

	fuego.Post(appGroup, "/navigate", s.navigate,
		option.Summary("Navigate Wizard"),
		option.Description("Moves between steps; out-of-range targets are clamped, never rejected"),
	)

	fuego.Post(appGroup, "/save", s.saveDraft,
		option.Summary("Save Draft"),
		option.Description("Pushes the current state to the verification backend"),
	)

	fuego.Post(appGroup, "/submit", s.submit,
		option.Summary("Submit Application"),
		option.Description("Revalidates everything and submits when the gate passes; returns step errors otherwise"),
	)

	// Documents API
	docsGroup := fuego.Group(s.fuego, "/api/v1/documents",
		option.Tags("Documents"),
	)

	fuego.Get(docsGroup, "/", s.listDocuments,
		option.Summary("List Documents"),
		option.Description("Returns every slot with its uploaded records"),
	)

	fuego.Post(docsGroup, "/{slot}", s.uploadDocument,
		option.Summary("Upload Document"),
		option.Description("Validates size and MIME type against the slot config; singular slots replace, list slots append"),
	)

	fuego.Delete(docsGroup, "/{slot}/{id}", s.removeDocument,
		option.Summary("Remove Document"),
	)

	// Bookings API
	fuego.Post(s.fuego, "/api/v1/bookings", s.createBooking,
		option.Summary("Create Booking Request"),
		option.Description("Records a student's competitive-bidding request for an instructor slot"),
		option.Tags("Bookings"),
	)

	fuego.Get(s.fuego, "/api/v1/bookings/{id}", s.getBooking,
		option.Summary("Get Booking Request"),
		option.Tags("Bookings"),
	)

	// Assistant API
	assistantGroup := fuego.Group(s.fuego, "/api/v1/assistant",
		option.Tags("Assistant"),
	)

	fuego.Post(assistantGroup, "/suggest", s.suggest,
		option.Summary("Generate Writing Suggestion"),
		option.Description("Drafts motivation/philosophy/experience text with the configured LLM"),
	)

	fuego.Get(assistantGroup, "/session", s.assistantSession,
		option.Summary("Get Assistant Session"),
		option.Description("Returns the caller's suggestion history"),
	)
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.fuego.Run()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	// Fuego uses net/http server internally
	return nil
}

// Mux returns the underlying ServeMux for mounting additional routes.
func (s *Server) Mux() *http.ServeMux {
	return s.fuego.Mux
}
