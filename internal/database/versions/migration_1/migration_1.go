package migration_1

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`
}

type ContactMessage struct {
	Id        uuid.UUID     `gorm:"type:uuid;primaryKey"`
	UserId    uuid.NullUUID `gorm:"type:uuid;index"`
	User      *User         `gorm:"foreignKey:UserId;constraint:OnDelete:SET NULL"`
	Name      string        `gorm:"size:255;not null"`
	Email     string        `gorm:"size:255;not null"`
	Subject   string        `gorm:"size:255;not null"`
	Message   string        `gorm:"not null"`
	IsRead    bool          `gorm:"not null;default:false;index"`
	CreatedAt time.Time     `gorm:"index"`
	UpdatedAt time.Time
}

type UserPreferences struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	User           *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	ArrowSize      float64   `gorm:"not null;default:1"`
	BrainModel     string    `gorm:"size:50;not null;default:'default'"`
	ShowDebugInfo  bool      `gorm:"not null;default:false"`
	AutoHideArrows bool      `gorm:"not null;default:true"`
	PreferredTheme string    `gorm:"size:20;not null;default:'dark'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&ContactMessage{}); err != nil {
		return fmt.Errorf("error creating contact_messages table: %w", err)
	}
	if err := db.AutoMigrate(&UserPreferences{}); err != nil {
		return fmt.Errorf("error creating user_preferences table: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&UserPreferences{}); err != nil {
		return fmt.Errorf("error dropping user_preferences table: %w", err)
	}
	if err := db.Migrator().DropTable(&ContactMessage{}); err != nil {
		return fmt.Errorf("error dropping contact_messages table: %w", err)
	}
	return nil
}
