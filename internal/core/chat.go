package core

import (
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/storage"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func (s *Service) CreateChatSession(ctx context.Context, userId uuid.UUID, title string) (database.ChatSession, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultSessionTitle
	}

	now := s.now()
	session, err := storage.One[database.ChatSession](ctx, s.backend, storage.InsertChatSession{Session: database.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}})
	if err != nil {
		return database.ChatSession{}, fmt.Errorf("error creating chat session: %w", err)
	}
	return session, nil
}

// ListChatSessions returns the user's active sessions, most recently updated
// first.
func (s *Service) ListChatSessions(ctx context.Context, userId uuid.NullUUID, limit int) ([]database.ChatSession, error) {
	sessions, err := storage.All[database.ChatSession](ctx, s.backend, storage.ListChatSessions{UserId: userId, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("error listing chat sessions: %w", err)
	}
	return sessions, nil
}

// CreateChatMessage stores the message and bumps the session's updated_at as
// one atomic write.
func (s *Service) CreateChatMessage(ctx context.Context, sessionId uuid.UUID, role, content string, regions []string) (database.ChatMessage, error) {
	if err := ValidateRole(role); err != nil {
		return database.ChatMessage{}, err
	}
	if err := ValidateRegions(regions); err != nil {
		return database.ChatMessage{}, err
	}
	encoded, err := regionsJSON(regions)
	if err != nil {
		return database.ChatMessage{}, err
	}

	msg, err := storage.One[database.ChatMessage](ctx, s.backend, storage.AppendChatMessage{Message: database.ChatMessage{
		Id:           uuid.New(),
		SessionId:    sessionId,
		Role:         role,
		Content:      content,
		BrainRegions: encoded,
		CreatedAt:    s.now(),
	}})
	if err != nil {
		return database.ChatMessage{}, fmt.Errorf("error creating %s message: %w", role, err)
	}
	return msg, nil
}

type MessageFilter struct {
	SessionId uuid.NullUUID
	UserEmail string
	Limit     int
}

func (s *Service) ListChatMessages(ctx context.Context, filter MessageFilter) ([]database.ChatMessage, error) {
	msgs, err := storage.All[database.ChatMessage](ctx, s.backend, storage.ListChatMessages{
		SessionId: filter.SessionId,
		UserEmail: filter.UserEmail,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing chat messages: %w", err)
	}
	return msgs, nil
}

type ChatInteraction struct {
	UserEmail        string
	UserName         string
	UserMessage      string
	AssistantMessage string
	BrainRegions     []string
	ActivityType     string
}

type ChatInteractionResult struct {
	User             database.User          `json:"user"`
	Session          database.ChatSession   `json:"session"`
	UserMessage      database.ChatMessage   `json:"userMessage"`
	AssistantMessage database.ChatMessage   `json:"assistantMessage"`
	BrainActivity    database.BrainActivity `json:"brainActivity"`
}

// CreateChatInteraction records one user/assistant exchange: it resolves the
// user, reuses their most recent active session (or opens one), appends both
// messages and records the activity. Each step commits on its own; a failure
// part way leaves the earlier steps in place and is returned as one error.
func (s *Service) CreateChatInteraction(ctx context.Context, in ChatInteraction) (ChatInteractionResult, error) {
	if err := requireFields("Missing required fields: userEmail, userName, userMessage, assistantMessage",
		in.UserEmail, in.UserName, in.UserMessage, in.AssistantMessage); err != nil {
		return ChatInteractionResult{}, err
	}
	if err := ValidateEmail(in.UserEmail); err != nil {
		return ChatInteractionResult{}, err
	}
	if err := ValidateRegions(in.BrainRegions); err != nil {
		return ChatInteractionResult{}, err
	}
	if in.ActivityType == "" {
		in.ActivityType = DefaultActivityType
	}

	var result ChatInteractionResult
	var err error

	result.User, err = s.GetOrCreateUser(ctx, in.UserEmail, in.UserName)
	if err != nil {
		return result, err
	}

	sessions, err := s.ListChatSessions(ctx, uuid.NullUUID{UUID: result.User.Id, Valid: true}, 1)
	if err != nil {
		return result, err
	}
	if len(sessions) > 0 {
		result.Session = sessions[0]
	} else if result.Session, err = s.CreateChatSession(ctx, result.User.Id, ""); err != nil {
		return result, err
	}

	result.UserMessage, err = s.CreateChatMessage(ctx, result.Session.Id, database.RoleUser, in.UserMessage, nil)
	if err != nil {
		return result, err
	}

	result.AssistantMessage, err = s.CreateChatMessage(ctx, result.Session.Id, database.RoleAssistant, in.AssistantMessage, in.BrainRegions)
	if err != nil {
		return result, err
	}

	result.BrainActivity, err = s.RecordBrainActivity(ctx, ActivityInput{
		SessionId:    result.Session.Id,
		MessageId:    uuid.NullUUID{UUID: result.AssistantMessage.Id, Valid: true},
		BrainRegions: in.BrainRegions,
		ActivityType: in.ActivityType,
		ArrowCount:   len(in.BrainRegions),
	})
	if err != nil {
		return result, err
	}

	return result, nil
}
