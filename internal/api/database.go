package api

import (
	"baldsphere-backend/internal/core"
	"baldsphere-backend/internal/storage"
	"baldsphere-backend/pkg/api"
	"errors"
	"net/http"
)

func (s *BackendService) ListUsers(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.LimitParams](r)
	if err != nil {
		return nil, err
	}

	users, err := s.core.ListUsers(r.Context(), params.Limit)
	if err != nil {
		return nil, Failed("Failed to fetch users", err)
	}
	return found(users, "users"), nil
}

func (s *BackendService) AddUser(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AddUserRequest](r)
	if err != nil {
		return nil, err
	}

	user, err := s.core.CreateUser(r.Context(), req.Email, req.Name)
	if err != nil {
		return nil, Failed("Failed to add user", err)
	}

	return Reply{Status: http.StatusCreated, Data: user, User: toUser(user, true), Message: "User saved"}, nil
}

func (s *BackendService) ListChatSessions(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.SessionParams](r)
	if err != nil {
		return nil, err
	}
	userId, err := ParseUUIDParam("user_id", params.UserId)
	if err != nil {
		return nil, err
	}

	sessions, err := s.core.ListChatSessions(r.Context(), userId, params.Limit)
	if err != nil {
		return nil, Failed("Failed to fetch chat sessions", err)
	}
	return found(sessions, "chat sessions"), nil
}

func (s *BackendService) ListChatMessages(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.MessageParams](r)
	if err != nil {
		return nil, err
	}
	sessionId, err := ParseUUIDParam("sessionId", params.SessionId)
	if err != nil {
		return nil, err
	}

	msgs, err := s.core.ListChatMessages(r.Context(), core.MessageFilter{
		SessionId: sessionId,
		UserEmail: params.UserEmail,
		Limit:     params.Limit,
	})
	if err != nil {
		return nil, Failed("Failed to fetch chat messages", err)
	}
	return found(msgs, "chat messages"), nil
}

func interactionOf(req api.ChatInteractionRequest) core.ChatInteraction {
	return core.ChatInteraction{
		UserEmail:        req.UserEmail,
		UserName:         req.UserName,
		UserMessage:      req.UserMessage,
		AssistantMessage: req.AssistantMessage,
		BrainRegions:     req.BrainRegions,
		ActivityType:     req.ActivityType,
	}
}

// RecordChatMessages stores an exchange sent by the chat page. Regions may be
// omitted for replies that did not highlight anything.
func (s *BackendService) RecordChatMessages(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ChatInteractionRequest](r)
	if err != nil {
		return nil, err
	}
	if req.BrainRegions == nil {
		req.BrainRegions = []string{}
	}

	result, err := s.core.CreateChatInteraction(r.Context(), interactionOf(req))
	if err != nil {
		return nil, Failed("Failed to save chat messages", err)
	}
	return Reply{Status: http.StatusCreated, Data: result, Message: "Chat messages saved"}, nil
}

func (s *BackendService) AddChatInteraction(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ChatInteractionRequest](r)
	if err != nil {
		return nil, err
	}
	if len(req.BrainRegions) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "brainRegions must be a non-empty array")
	}

	result, err := s.core.CreateChatInteraction(r.Context(), interactionOf(req))
	if err != nil {
		return nil, Failed("Failed to add chat interaction", err)
	}
	return Reply{Status: http.StatusCreated, Data: result, Message: "Chat interaction added successfully"}, nil
}

func (s *BackendService) ListBrainActivities(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ActivityParams](r)
	if err != nil {
		return nil, err
	}
	sessionId, err := ParseUUIDParam("session_id", params.SessionId)
	if err != nil {
		return nil, err
	}

	activities, err := s.core.ListBrainActivities(r.Context(), sessionId, params.Limit)
	if err != nil {
		return nil, Failed("Failed to fetch brain activities", err)
	}
	return found(activities, "brain activities"), nil
}

func (s *BackendService) ListRegionStats(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.LimitParams](r)
	if err != nil {
		return nil, err
	}

	stats, err := s.core.ListRegionStats(r.Context(), params.Limit)
	if err != nil {
		return nil, Failed("Failed to fetch brain region stats", err)
	}
	return found(stats, "brain region stats"), nil
}

func (s *BackendService) ListUserPreferences(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.LimitParams](r)
	if err != nil {
		return nil, err
	}

	prefs, err := s.core.ListUserPreferences(r.Context(), params.Limit)
	if err != nil {
		return nil, Failed("Failed to fetch user preferences", err)
	}
	return found(prefs, "user preferences"), nil
}

func (s *BackendService) ListContactMessages(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ContactParams](r)
	if err != nil {
		return nil, err
	}

	msgs, err := s.core.ListContactMessages(r.Context(), params.Limit, params.UnreadOnly || params.UnreadOnlySnake)
	if err != nil {
		return nil, Failed("Failed to fetch contact messages", err)
	}
	return found(msgs, "contact messages"), nil
}

func (s *BackendService) MarkContactMessage(r *http.Request) (any, error) {
	req, err := ParseRequest[api.MarkContactRequest](r)
	if err != nil {
		return nil, err
	}
	if req.MessageId == nil {
		return nil, CodedErrorf(http.StatusBadRequest, "Message ID is required")
	}
	if req.MarkAsRead == nil {
		return nil, CodedErrorf(http.StatusBadRequest, "Invalid operation")
	}

	msg, err := s.core.MarkContactMessageRead(r.Context(), *req.MessageId, *req.MarkAsRead)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "Contact message not found")
		}
		return nil, Failed("Failed to update contact message", err)
	}

	message := "Message marked as unread"
	if msg.IsRead {
		message = "Message marked as read"
	}
	return Reply{Data: msg, Message: message}, nil
}
