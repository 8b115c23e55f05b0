package api

import (
	"baldsphere-backend/pkg/api"
	"net/http"
)

func (s *BackendService) SignUp(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SignupRequest](r)
	if err != nil {
		return nil, err
	}

	user, err := s.core.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return nil, Failed("Failed to create account", err)
	}

	return Reply{
		Status:  http.StatusCreated,
		User:    toUser(user, true),
		Message: "Account created successfully",
	}, nil
}

func (s *BackendService) Login(r *http.Request) (any, error) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	user, err := s.core.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return nil, Failed("Login failed", err)
	}

	return Reply{User: toUser(user, false), Message: "Login successful"}, nil
}
