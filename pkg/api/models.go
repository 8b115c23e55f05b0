package api

import (
	"time"

	"github.com/google/uuid"
)

// Response is the envelope every endpoint replies with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	User    *User  `json:"user,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

type User struct {
	Id        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SemanticMatchRequest struct {
	UserInput string `json:"userInput"`
}

type SemanticMatchResponse struct {
	Original     string   `json:"original"`
	Normalized   string   `json:"normalized"`
	BrainRegions []string `json:"brainRegions"`
	Confidence   string   `json:"confidence"`
	Reply        string   `json:"reply"`
}

type CatalogResponse struct {
	Keywords []string `json:"keywords"`
	Count    int      `json:"count"`
}

type ActivityRequest struct {
	SessionId    *uuid.UUID `json:"session_id"`
	MessageId    *uuid.UUID `json:"message_id"`
	BrainRegions []string   `json:"brain_regions"`
	ActivityType string     `json:"activity_type"`
	DurationMs   *int64     `json:"duration_ms"`
	ArrowCount   *int       `json:"arrow_count"`
}

type ActivityParams struct {
	SessionId string `schema:"session_id"`
	Limit     int    `schema:"limit"`
}

type StatsParams struct {
	UserId string `schema:"user_id"`
}

type AddUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type ChatInteractionRequest struct {
	UserEmail        string   `json:"userEmail"`
	UserName         string   `json:"userName"`
	UserMessage      string   `json:"userMessage"`
	AssistantMessage string   `json:"assistantMessage"`
	BrainRegions     []string `json:"brainRegions"`
	ActivityType     string   `json:"activityType"`
}

type LimitParams struct {
	Limit int `schema:"limit"`
}

type SessionParams struct {
	UserId string `schema:"user_id"`
	Limit  int    `schema:"limit"`
}

type MessageParams struct {
	SessionId string `schema:"sessionId"`
	UserEmail string `schema:"userEmail"`
	Limit     int    `schema:"limit"`
}

type ContactRequest struct {
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Subject string     `json:"subject"`
	Message string     `json:"message"`
	UserId  *uuid.UUID `json:"userId"`
}

type ContactResponse struct {
	Id        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactParams struct {
	Limit      int  `schema:"limit"`
	UnreadOnly bool `schema:"unreadOnly"`
	// Accepted for the public /contact listing.
	UnreadOnlySnake bool `schema:"unread_only"`
}

type MarkContactRequest struct {
	MessageId  *uuid.UUID `json:"messageId"`
	MarkAsRead *bool      `json:"markAsRead"`
}

type DatabaseStatusResponse struct {
	Local         bool   `json:"local"`
	Supabase      bool   `json:"supabase"`
	Mode          string `json:"mode"`
	Backend       string `json:"backend"`
	Connected     bool   `json:"connected"`
	Error         string `json:"error,omitempty"`
	SemanticMatch bool   `json:"semantic_match"`
}
