package core

import (
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/messaging"
	"baldsphere-backend/internal/storage"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
	UserId  uuid.NullUUID
}

// CreateContactMessage stores the message and, when a publisher is set,
// queues a notification. A failed publish is logged and does not fail the
// request.
func (s *Service) CreateContactMessage(ctx context.Context, in ContactInput) (database.ContactMessage, error) {
	if err := requireFields("Name, email, and message are required", in.Name, in.Email, in.Message); err != nil {
		return database.ContactMessage{}, err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return database.ContactMessage{}, err
	}
	if strings.TrimSpace(in.Subject) == "" {
		in.Subject = DefaultContactSubject
	}

	now := s.now()
	msg, err := storage.One[database.ContactMessage](ctx, s.backend, storage.InsertContactMessage{Message: database.ContactMessage{
		Id:        uuid.New(),
		UserId:    in.UserId,
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}})
	if err != nil {
		return database.ContactMessage{}, fmt.Errorf("error creating contact message: %w", err)
	}

	if s.publisher != nil {
		payload := messaging.ContactMessagePayload{
			MessageId: msg.Id,
			UserId:    msg.UserId,
			Name:      msg.Name,
			Email:     msg.Email,
			Subject:   msg.Subject,
			Message:   msg.Message,
			CreatedAt: msg.CreatedAt,
		}
		if err := s.publisher.PublishContactMessage(ctx, payload); err != nil {
			slog.Error("failed to publish contact notification", "message_id", msg.Id, "error", err)
		}
	}

	return msg, nil
}

func (s *Service) ListContactMessages(ctx context.Context, limit int, unreadOnly bool) ([]database.ContactMessage, error) {
	msgs, err := storage.All[database.ContactMessage](ctx, s.backend, storage.ListContactMessages{UnreadOnly: unreadOnly, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("error listing contact messages: %w", err)
	}
	return msgs, nil
}

func (s *Service) MarkContactMessageRead(ctx context.Context, id uuid.UUID, read bool) (database.ContactMessage, error) {
	if id == uuid.Nil {
		return database.ContactMessage{}, validationErrorf("Message ID is required")
	}

	msg, err := storage.One[database.ContactMessage](ctx, s.backend, storage.MarkContactMessageRead{MessageId: id, Read: read, At: s.now()})
	if err != nil {
		return database.ContactMessage{}, fmt.Errorf("error updating contact message: %w", err)
	}
	return msg, nil
}
