package api

import (
	"baldsphere-backend/internal/brain"
	"baldsphere-backend/internal/core"
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/storage"
	"baldsphere-backend/pkg/api"
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Matcher interface {
	Match(ctx context.Context, input string) (brain.MatchResult, error)
	Health(ctx context.Context) brain.Health
	Catalog() *brain.Catalog
}

type BackendService struct {
	core         *core.Service
	matcher      Matcher
	availability storage.Availability
}

func NewBackendService(svc *core.Service, matcher Matcher, availability storage.Availability) *BackendService {
	return &BackendService{core: svc, matcher: matcher, availability: availability}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) {
		return api.HealthResponse{Status: "ok"}, nil
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", RestHandler(s.SignUp))
		r.Post("/login", RestHandler(s.Login))
	})

	r.Route("/brain", func(r chi.Router) {
		r.Post("/semantic-match", RestHandler(s.SemanticMatch))
		r.Get("/semantic-match", RestHandler(s.SemanticMatchHealth))
		r.Get("/catalog", RestHandler(s.GetCatalog))
		r.Post("/activity", RestHandler(s.RecordActivity))
		r.Get("/activity", ListHandler(s.ListActivity))
		r.Get("/stats", RestHandler(s.GetStats))
	})

	r.Route("/database", func(r chi.Router) {
		r.Get("/status", RestHandler(s.DatabaseStatus))
		r.Get("/users", ListHandler(s.ListUsers))
		r.Post("/add-user", RestHandler(s.AddUser))
		r.Get("/chat_sessions", ListHandler(s.ListChatSessions))
		r.Get("/chat_messages", ListHandler(s.ListChatMessages))
		r.Post("/chat_messages", RestHandler(s.RecordChatMessages))
		r.Post("/add-chat-interaction", RestHandler(s.AddChatInteraction))
		r.Get("/brain_activities", ListHandler(s.ListBrainActivities))
		r.Get("/brain_region_stats", ListHandler(s.ListRegionStats))
		r.Get("/user_preferences", ListHandler(s.ListUserPreferences))
		r.Get("/contact_messages", ListHandler(s.ListContactMessages))
		r.Patch("/contact_messages", RestHandler(s.MarkContactMessage))
	})

	r.Route("/contact", func(r chi.Router) {
		r.Post("/", RestHandler(s.SubmitContact))
		r.Get("/", ListHandler(s.ListContact))
	})
}

func toUser(u database.User, withCreated bool) *api.User {
	user := &api.User{Id: u.Id, Name: u.Name, Email: u.Email}
	if withCreated {
		created := u.CreatedAt
		user.CreatedAt = &created
	}
	return user
}

func (s *BackendService) DatabaseStatus(r *http.Request) (any, error) {
	status := s.core.Status(r.Context())
	return api.DatabaseStatusResponse{
		Local:         s.availability.Local,
		Supabase:      s.availability.Supabase,
		Mode:          string(s.availability.Mode),
		Backend:       string(status.Backend),
		Connected:     status.Connected,
		Error:         status.Error,
		SemanticMatch: s.matcher.Health(r.Context()).Enabled,
	}, nil
}
