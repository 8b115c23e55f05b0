package core

import (
	"baldsphere-backend/internal/messaging"
	"baldsphere-backend/internal/storage"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const (
	DefaultSessionTitle   = "New Brain Chat"
	DefaultActivityType   = "brain_query"
	DefaultContactSubject = "General Inquiry"
)

// Service composes backend queries into account and chat operations. The
// backend is chosen once by the caller; publisher may be nil.
type Service struct {
	backend   storage.Backend
	publisher messaging.Publisher
	now       func() time.Time
}

func NewService(backend storage.Backend, publisher messaging.Publisher) *Service {
	return &Service{
		backend:   backend,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type BackendStatus struct {
	Backend   storage.Mode `json:"backend"`
	Connected bool         `json:"connected"`
	Error     string       `json:"error,omitempty"`
}

func (s *Service) Status(ctx context.Context) BackendStatus {
	status := BackendStatus{Backend: s.backend.Mode(), Connected: true}
	if err := s.backend.Ping(ctx); err != nil {
		status.Connected = false
		status.Error = err.Error()
	}
	return status
}

func regionsJSON(regions []string) (datatypes.JSON, error) {
	if regions == nil {
		regions = []string{}
	}
	data, err := json.Marshal(regions)
	if err != nil {
		return nil, fmt.Errorf("error encoding brain regions: %w", err)
	}
	return datatypes.JSON(data), nil
}
