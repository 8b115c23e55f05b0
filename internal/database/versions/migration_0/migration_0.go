package migration_0

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"size:255;not null;uniqueIndex"`
	Name         string    `gorm:"size:255;not null"`
	PasswordHash string
	IsActive     bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time

	Sessions []ChatSession `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
}

type ChatSession struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"size:255;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`

	Messages []ChatMessage `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
}

type ChatMessage struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SessionId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Role         string         `gorm:"size:20;not null"`
	Content      string         `gorm:"not null"`
	BrainRegions datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt    time.Time      `gorm:"index"`
}

type BrainActivity struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SessionId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Session      *ChatSession   `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
	MessageId    uuid.NullUUID  `gorm:"type:uuid;index"`
	Message      *ChatMessage   `gorm:"foreignKey:MessageId;constraint:OnDelete:SET NULL"`
	BrainRegions datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	ActivityType string         `gorm:"size:50;not null"`
	DurationMs   *int64
	ArrowCount   int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"index"`
}

type BrainRegionStats struct {
	Id              uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_region_stats_user_region"`
	User            *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	RegionName      string    `gorm:"size:20;not null;uniqueIndex:idx_region_stats_user_region"`
	ActivationCount int64     `gorm:"not null;default:0"`
	TotalDurationMs int64     `gorm:"not null;default:0"`
	LastActivated   time.Time
	CreatedAt       time.Time
}

func (BrainRegionStats) TableName() string {
	return "brain_region_stats"
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &ChatSession{}, &ChatMessage{}, &BrainActivity{}, &BrainRegionStats{})
}
