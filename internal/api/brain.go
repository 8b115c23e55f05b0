package api

import (
	"baldsphere-backend/internal/brain"
	"baldsphere-backend/internal/core"
	"baldsphere-backend/pkg/api"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func (s *BackendService) SemanticMatch(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SemanticMatchRequest](r)
	if err != nil || strings.TrimSpace(req.UserInput) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "Missing or invalid userInput")
	}

	if brain.IsHelpRequest(req.UserInput) {
		return api.SemanticMatchResponse{
			Original:     req.UserInput,
			BrainRegions: []string{},
			Confidence:   string(brain.ConfidenceNone),
			Reply:        brain.HelpText,
		}, nil
	}

	result, err := s.matcher.Match(r.Context(), req.UserInput)
	if err != nil {
		return nil, Failed("Semantic matching failed", err)
	}
	if !result.Matched() {
		return nil, CodedErrorf(http.StatusNotFound, "No suitable match found")
	}

	return api.SemanticMatchResponse{
		Original:     req.UserInput,
		Normalized:   result.Normalized,
		BrainRegions: result.BrainRegions,
		Confidence:   string(result.Confidence),
		Reply:        brain.AssistantReply(req.UserInput, result),
	}, nil
}

// SemanticMatchHealth reports whether the LLM behind semantic matching is
// reachable. Without an LLM configured the keyword matcher serves alone and
// the endpoint still succeeds.
func (s *BackendService) SemanticMatchHealth(r *http.Request) (any, error) {
	health := s.matcher.Health(r.Context())
	if health.Enabled && !health.Available {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "Ollama service is not available")
	}
	return health, nil
}

func (s *BackendService) GetCatalog(r *http.Request) (any, error) {
	keywords := s.matcher.Catalog().Keywords()
	return api.CatalogResponse{Keywords: keywords, Count: len(keywords)}, nil
}

func (s *BackendService) RecordActivity(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ActivityRequest](r)
	if err != nil {
		return nil, err
	}
	if req.SessionId == nil || len(req.BrainRegions) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "Missing required fields: session_id, brain_regions")
	}

	in := core.ActivityInput{
		SessionId:    *req.SessionId,
		BrainRegions: req.BrainRegions,
		ActivityType: req.ActivityType,
		DurationMs:   req.DurationMs,
		ArrowCount:   len(req.BrainRegions),
	}
	if req.MessageId != nil {
		in.MessageId = uuid.NullUUID{UUID: *req.MessageId, Valid: true}
	}
	if req.ArrowCount != nil {
		in.ArrowCount = *req.ArrowCount
	}

	activity, err := s.core.RecordBrainActivity(r.Context(), in)
	if err != nil {
		return nil, Failed("Failed to record brain activity", err)
	}

	return Reply{Status: http.StatusCreated, Data: activity, Message: "Brain activity recorded"}, nil
}

func (s *BackendService) ListActivity(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ActivityParams](r)
	if err != nil {
		return nil, err
	}
	sessionId, err := ParseUUIDParam("session_id", params.SessionId)
	if err != nil {
		return nil, err
	}
	if !sessionId.Valid {
		return nil, CodedErrorf(http.StatusBadRequest, "session_id is required")
	}

	activities, err := s.core.ListBrainActivities(r.Context(), sessionId, params.Limit)
	if err != nil {
		return nil, Failed("Failed to fetch brain activities", err)
	}
	return found(activities, "brain activities"), nil
}

func (s *BackendService) GetStats(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.StatsParams](r)
	if err != nil {
		return nil, err
	}
	userId, err := ParseUUIDParam("user_id", params.UserId)
	if err != nil {
		return nil, err
	}
	if !userId.Valid {
		return nil, CodedErrorf(http.StatusBadRequest, "user_id is required")
	}

	stats, err := s.core.GetBrainStats(r.Context(), userId.UUID)
	if err != nil {
		return nil, Failed("Failed to fetch brain stats", err)
	}
	return stats, nil
}
