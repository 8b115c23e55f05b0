package storage

import (
	"baldsphere-backend/internal/database"
	"time"

	"github.com/google/uuid"
)

// Query is a logical operation that every Backend knows how to execute.
// Implementations are plain value types so callers never build SQL text.
type Query interface {
	QueryName() string
}

type FindUserByEmail struct {
	Email string
}

type FindUserByID struct {
	UserId uuid.UUID
}

type ListUsers struct {
	Limit int
}

// InsertUser fails with ErrAlreadyExists if the email is taken.
type InsertUser struct {
	User database.User
}

// UpsertUser inserts the user or, when the email exists, updates its name.
type UpsertUser struct {
	User database.User
}

// EnsureUser inserts the user unless the email exists, then returns the stored
// row. Concurrent calls for the same email resolve to a single user.
type EnsureUser struct {
	User database.User
}

type TouchLastLogin struct {
	UserId uuid.UUID
	At     time.Time
}

type InsertUserPreferences struct {
	Preferences database.UserPreferences
}

type FindUserPreferences struct {
	UserId uuid.UUID
}

type ListUserPreferences struct {
	Limit int
}

type InsertChatSession struct {
	Session database.ChatSession
}

// ListChatSessions returns a user's active sessions, most recently updated
// first. Without a user it lists every session by creation time.
type ListChatSessions struct {
	UserId uuid.NullUUID
	Limit  int
}

// AppendChatMessage stores the message and bumps the owning session's
// updated_at in one atomic step.
type AppendChatMessage struct {
	Message database.ChatMessage
}

// ListChatMessages filters by session (oldest first), by owner email (newest
// first) or returns the newest messages overall.
type ListChatMessages struct {
	SessionId uuid.NullUUID
	UserEmail string
	Limit     int
}

// RecordBrainActivity stores the activity and increments the owner's
// per-region stats in one atomic step.
type RecordBrainActivity struct {
	Activity database.BrainActivity
}

type ListBrainActivities struct {
	SessionId uuid.NullUUID
	Limit     int
}

type ListRegionStats struct {
	UserId uuid.NullUUID
	Limit  int
}

type InsertContactMessage struct {
	Message database.ContactMessage
}

type ListContactMessages struct {
	UnreadOnly bool
	Limit      int
}

type MarkContactMessageRead struct {
	MessageId uuid.UUID
	Read      bool
	At        time.Time
}

// RawSQL is free-form SQL with positional ($1, $2, ...) parameters. Only the
// direct SQL backend runs it.
type RawSQL struct {
	Text   string
	Params []any
}

func (FindUserByEmail) QueryName() string        { return "find_user_by_email" }
func (FindUserByID) QueryName() string           { return "find_user_by_id" }
func (ListUsers) QueryName() string              { return "list_users" }
func (InsertUser) QueryName() string             { return "insert_user" }
func (UpsertUser) QueryName() string             { return "upsert_user" }
func (EnsureUser) QueryName() string             { return "ensure_user" }
func (TouchLastLogin) QueryName() string         { return "touch_last_login" }
func (InsertUserPreferences) QueryName() string  { return "insert_user_preferences" }
func (FindUserPreferences) QueryName() string    { return "find_user_preferences" }
func (ListUserPreferences) QueryName() string    { return "list_user_preferences" }
func (InsertChatSession) QueryName() string      { return "insert_chat_session" }
func (ListChatSessions) QueryName() string       { return "list_chat_sessions" }
func (AppendChatMessage) QueryName() string      { return "append_chat_message" }
func (ListChatMessages) QueryName() string       { return "list_chat_messages" }
func (RecordBrainActivity) QueryName() string    { return "record_brain_activity" }
func (ListBrainActivities) QueryName() string    { return "list_brain_activities" }
func (ListRegionStats) QueryName() string        { return "list_region_stats" }
func (InsertContactMessage) QueryName() string   { return "insert_contact_message" }
func (ListContactMessages) QueryName() string    { return "list_contact_messages" }
func (MarkContactMessageRead) QueryName() string { return "mark_contact_message_read" }
func (RawSQL) QueryName() string                 { return "raw_sql" }

const defaultLimit = 100

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
