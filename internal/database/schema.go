package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      string = "user"
	RoleAssistant string = "assistant"
)

const (
	RegionFrontal   string = "Frontal"
	RegionParietal  string = "Parietal"
	RegionTemporal  string = "Temporal"
	RegionOccipital string = "Occipital"
)

// Regions is the closed set of lobes tracked by the app, in display order.
var Regions = []string{RegionFrontal, RegionParietal, RegionTemporal, RegionOccipital}

func IsRegion(name string) bool {
	for _, r := range Regions {
		if r == name {
			return true
		}
	}
	return false
}

type User struct {
	Id           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	PasswordHash string     `gorm:"column:password_hash" json:"password_hash,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login"`

	Sessions []ChatSession `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE" json:"-"`
}

type UserPreferences struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User           *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE" json:"-"`
	ArrowSize      float64   `gorm:"not null;default:1" json:"arrow_size"`
	BrainModel     string    `gorm:"size:50;not null;default:'default'" json:"brain_model"`
	ShowDebugInfo  bool      `gorm:"not null;default:false" json:"show_debug_info"`
	AutoHideArrows bool      `gorm:"not null;default:true" json:"auto_hide_arrows"`
	PreferredTheme string    `gorm:"size:20;not null;default:'dark'" json:"preferred_theme"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

type ChatSession struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`

	Messages []ChatMessage `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE" json:"-"`
}

type ChatMessage struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionId    uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Role         string         `gorm:"size:20;not null" json:"role"`
	Content      string         `gorm:"not null" json:"content"`
	BrainRegions datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"brain_regions"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`

	// Filled only by queries that join the owning session.
	UserId *uuid.UUID `gorm:"->;-:migration" json:"user_id,omitempty"`
	Title  *string    `gorm:"->;-:migration" json:"title,omitempty"`
}

type BrainActivity struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionId    uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Session      *ChatSession   `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE" json:"-"`
	MessageId    uuid.NullUUID  `gorm:"type:uuid;index" json:"message_id"`
	Message      *ChatMessage   `gorm:"foreignKey:MessageId;constraint:OnDelete:SET NULL" json:"-"`
	BrainRegions datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"brain_regions"`
	ActivityType string         `gorm:"size:50;not null" json:"activity_type"`
	DurationMs   *int64         `json:"duration_ms"`
	ArrowCount   int            `gorm:"not null;default:0" json:"arrow_count"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

type BrainRegionStats struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserId          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_region_stats_user_region" json:"user_id"`
	User            *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE" json:"-"`
	RegionName      string    `gorm:"size:20;not null;uniqueIndex:idx_region_stats_user_region" json:"region_name"`
	ActivationCount int64     `gorm:"not null;default:0" json:"activation_count"`
	TotalDurationMs int64     `gorm:"not null;default:0" json:"total_duration_ms"`
	LastActivated   time.Time `json:"last_activated"`
	CreatedAt       time.Time `json:"created_at"`
}

func (BrainRegionStats) TableName() string {
	return "brain_region_stats"
}

type ContactMessage struct {
	Id        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserId    uuid.NullUUID `gorm:"type:uuid;index" json:"user_id"`
	User      *User         `gorm:"foreignKey:UserId;constraint:OnDelete:SET NULL" json:"-"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	Email     string        `gorm:"size:255;not null" json:"email"`
	Subject   string        `gorm:"size:255;not null" json:"subject"`
	Message   string        `gorm:"not null" json:"message"`
	IsRead    bool          `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Filled by the listing query that left-joins users.
	UserName *string `gorm:"->;-:migration" json:"user_name,omitempty"`
}
