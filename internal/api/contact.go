package api

import (
	"baldsphere-backend/internal/core"
	"baldsphere-backend/pkg/api"
	"net/http"

	"github.com/google/uuid"
)

func (s *BackendService) SubmitContact(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ContactRequest](r)
	if err != nil {
		return nil, err
	}

	in := core.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if req.UserId != nil {
		in.UserId = uuid.NullUUID{UUID: *req.UserId, Valid: true}
	}

	msg, err := s.core.CreateContactMessage(r.Context(), in)
	if err != nil {
		return nil, Failed("Failed to send message", err)
	}

	return Reply{
		Status:  http.StatusCreated,
		Data:    api.ContactResponse{Id: msg.Id, CreatedAt: msg.CreatedAt},
		Message: "Thank you for your message! We'll get back to you soon.",
	}, nil
}

func (s *BackendService) ListContact(r *http.Request) (any, error) {
	return s.ListContactMessages(r)
}
