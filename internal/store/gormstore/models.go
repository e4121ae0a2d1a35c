package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session represents the sessions table: the server-side analog of the
// browser's persisted credential.
type Session struct {
	SessionID  string    `gorm:"primaryKey"`
	Token      string    `gorm:"not null"`
	UserID     string    `gorm:"not null;index:idx_sessions_user"`
	UserEmail  string    `gorm:""`
	CreatedAt  time.Time `gorm:"not null"`
	LastSeenAt time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "sessions" }

// UserPreference mirrors the user_preferences table. The settings blob
// is opaque JSON; concurrent writers race and the last one wins.
type UserPreference struct {
	UserID    string         `gorm:"primaryKey"`
	Settings  datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (UserPreference) TableName() string { return "user_preferences" }

// IdempotencyRecord mirrors the idempotency_records table: one row per
// distinct money-moving submission, keyed by its payload fingerprint so
// a resubmission reuses the original key.
type IdempotencyRecord struct {
	RecordID       string    `gorm:"type:uuid;primaryKey"`
	Scope          string    `gorm:"not null;index:uniq_idem_scope_fingerprint,unique,priority:1"`
	Fingerprint    string    `gorm:"not null;index:uniq_idem_scope_fingerprint,unique,priority:2"`
	IdempotencyKey string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (IdempotencyRecord) TableName() string { return "idempotency_records" }

func (record *IdempotencyRecord) BeforeCreate(tx *gorm.DB) error {
	if record.RecordID == "" {
		record.RecordID = uuid.NewString()
	}
	return nil
}
