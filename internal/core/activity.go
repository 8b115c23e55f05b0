package core

import (
	"baldsphere-backend/internal/database"
	"baldsphere-backend/internal/storage"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

type ActivityInput struct {
	SessionId    uuid.UUID
	MessageId    uuid.NullUUID
	BrainRegions []string
	ActivityType string
	DurationMs   *int64
	ArrowCount   int
}

// RecordBrainActivity stores the activity and increments the session owner's
// per-region stats in one atomic write.
func (s *Service) RecordBrainActivity(ctx context.Context, in ActivityInput) (database.BrainActivity, error) {
	if err := ValidateRegions(in.BrainRegions); err != nil {
		return database.BrainActivity{}, err
	}
	if in.DurationMs != nil && *in.DurationMs < 0 {
		return database.BrainActivity{}, validationErrorf("duration_ms must not be negative")
	}
	if in.ArrowCount < 0 {
		return database.BrainActivity{}, validationErrorf("arrow_count must not be negative")
	}
	if in.ActivityType == "" {
		in.ActivityType = DefaultActivityType
	}

	encoded, err := regionsJSON(in.BrainRegions)
	if err != nil {
		return database.BrainActivity{}, err
	}

	activity, err := storage.One[database.BrainActivity](ctx, s.backend, storage.RecordBrainActivity{Activity: database.BrainActivity{
		Id:           uuid.New(),
		SessionId:    in.SessionId,
		MessageId:    in.MessageId,
		BrainRegions: encoded,
		ActivityType: in.ActivityType,
		DurationMs:   in.DurationMs,
		ArrowCount:   in.ArrowCount,
		CreatedAt:    s.now(),
	}})
	if err != nil {
		return database.BrainActivity{}, fmt.Errorf("error recording brain activity: %w", err)
	}
	return activity, nil
}

func (s *Service) ListBrainActivities(ctx context.Context, sessionId uuid.NullUUID, limit int) ([]database.BrainActivity, error) {
	activities, err := storage.All[database.BrainActivity](ctx, s.backend, storage.ListBrainActivities{SessionId: sessionId, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("error listing brain activities: %w", err)
	}
	return activities, nil
}

const NoActiveRegion = "None"

type BrainStats struct {
	TotalActivations int64                       `json:"total_activations"`
	MostActiveRegion string                      `json:"most_active_region"`
	TotalChatTimeMs  int64                       `json:"total_chat_time_ms"`
	RegionStats      []database.BrainRegionStats `json:"region_stats"`
}

// GetBrainStats summarizes a user's region stats. Ties for the most active
// region go to the alphabetically first region name.
func (s *Service) GetBrainStats(ctx context.Context, userId uuid.UUID) (BrainStats, error) {
	rows, err := storage.All[database.BrainRegionStats](ctx, s.backend, storage.ListRegionStats{
		UserId: uuid.NullUUID{UUID: userId, Valid: true},
		Limit:  len(database.Regions),
	})
	if err != nil {
		return BrainStats{}, fmt.Errorf("error getting brain stats: %w", err)
	}

	slices.SortStableFunc(rows, compareRegionStats)

	stats := BrainStats{MostActiveRegion: NoActiveRegion, RegionStats: rows}
	for _, row := range rows {
		stats.TotalActivations += row.ActivationCount
		stats.TotalChatTimeMs += row.TotalDurationMs
	}
	if len(rows) > 0 {
		stats.MostActiveRegion = rows[0].RegionName
	}
	return stats, nil
}

func compareRegionStats(a, b database.BrainRegionStats) int {
	if a.ActivationCount != b.ActivationCount {
		if a.ActivationCount > b.ActivationCount {
			return -1
		}
		return 1
	}
	return strings.Compare(a.RegionName, b.RegionName)
}

func (s *Service) ListRegionStats(ctx context.Context, limit int) ([]database.BrainRegionStats, error) {
	rows, err := storage.All[database.BrainRegionStats](ctx, s.backend, storage.ListRegionStats{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("error listing brain region stats: %w", err)
	}
	return rows, nil
}
