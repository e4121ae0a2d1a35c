package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spewpay/walletdash/internal/session"
	"github.com/spewpay/walletdash/pkg/walletview"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19

	errorOperationStore    = "store"
	errorSubjectSession    = "session"
	errorSubjectPreference = "preference"
	errorSubjectJournal    = "journal"
	errorCodeSave          = "save"
	errorCodeGet           = "get"
	errorCodeDelete        = "delete"
	errorCodeEncode        = "encode"
	errorCodeDecode        = "decode"
	errorCodeCreate        = "create"
)

// Store implements session.Store and the idempotency journal using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Session{}, &UserPreference{}, &IdempotencyRecord{})
}

// SaveSession upserts a session record, last writer wins.
func (store *Store) SaveSession(ctx context.Context, record session.Record) error {
	model := Session{
		SessionID:  record.SessionID,
		Token:      record.Token,
		UserID:     record.UserID,
		UserEmail:  record.UserEmail,
		CreatedAt:  record.CreatedAt,
		LastSeenAt: record.LastSeenAt,
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
	if err != nil {
		return wrapStoreError(errorSubjectSession, errorCodeSave, err)
	}
	return nil
}

// GetSession loads one session record.
func (store *Store) GetSession(ctx context.Context, sessionID string) (session.Record, error) {
	var model Session
	err := store.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Record{}, wrapStoreError(errorSubjectSession, errorCodeGet, session.ErrNotFound)
		}
		return session.Record{}, wrapStoreError(errorSubjectSession, errorCodeGet, err)
	}
	return session.Record{
		SessionID:  model.SessionID,
		Token:      model.Token,
		UserID:     model.UserID,
		UserEmail:  model.UserEmail,
		CreatedAt:  model.CreatedAt,
		LastSeenAt: model.LastSeenAt,
	}, nil
}

// DeleteSession drops one session.
func (store *Store) DeleteSession(ctx context.Context, sessionID string) error {
	err := store.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&Session{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectSession, errorCodeDelete, err)
	}
	return nil
}

// DeleteSessionsForUser drops every session a user holds.
func (store *Store) DeleteSessionsForUser(ctx context.Context, userID string) error {
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&Session{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectSession, errorCodeDelete, err)
	}
	return nil
}

// SavePreferences upserts a user's preference blob, last writer wins.
func (store *Store) SavePreferences(ctx context.Context, userID string, preferences session.Preferences) error {
	encoded, err := json.Marshal(preferences)
	if err != nil {
		return wrapStoreError(errorSubjectPreference, errorCodeEncode, err)
	}
	model := UserPreference{
		UserID:    userID,
		Settings:  encoded,
		UpdatedAt: time.Now().UTC(),
	}
	err = store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
	if err != nil {
		return wrapStoreError(errorSubjectPreference, errorCodeSave, err)
	}
	return nil
}

// GetPreferences loads a user's preference blob.
func (store *Store) GetPreferences(ctx context.Context, userID string) (session.Preferences, error) {
	var model UserPreference
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Preferences{}, wrapStoreError(errorSubjectPreference, errorCodeGet, session.ErrNotFound)
		}
		return session.Preferences{}, wrapStoreError(errorSubjectPreference, errorCodeGet, err)
	}
	var preferences session.Preferences
	if err := json.Unmarshal(model.Settings, &preferences); err != nil {
		return session.Preferences{}, wrapStoreError(errorSubjectPreference, errorCodeDecode, err)
	}
	return preferences, nil
}

// IdempotencyKeyFor returns the journaled key for a money-moving
// submission, minting one only for a fingerprint never seen before. A
// resubmission of the identical payload always gets the original key
// back, including when two submissions race on the unique index.
func (store *Store) IdempotencyKeyFor(ctx context.Context, scope string, fingerprint string, mint func() string) (walletview.IdempotencyKey, error) {
	existing, err := store.lookupJournalKey(ctx, scope, fingerprint)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return walletview.IdempotencyKey{}, wrapStoreError(errorSubjectJournal, errorCodeGet, err)
	}

	model := IdempotencyRecord{
		Scope:          scope,
		Fingerprint:    fingerprint,
		IdempotencyKey: mint(),
		CreatedAt:      time.Now().UTC(),
	}
	createErr := store.db.WithContext(ctx).Create(&model).Error
	if createErr == nil {
		return walletview.NewIdempotencyKey(model.IdempotencyKey)
	}
	if isUniqueViolation(createErr) {
		// Lost the race; the concurrent writer's key is authoritative.
		winner, lookupErr := store.lookupJournalKey(ctx, scope, fingerprint)
		if lookupErr != nil {
			return walletview.IdempotencyKey{}, wrapStoreError(errorSubjectJournal, errorCodeGet, lookupErr)
		}
		return winner, nil
	}
	return walletview.IdempotencyKey{}, wrapStoreError(errorSubjectJournal, errorCodeCreate, createErr)
}

func (store *Store) lookupJournalKey(ctx context.Context, scope string, fingerprint string) (walletview.IdempotencyKey, error) {
	var model IdempotencyRecord
	err := store.db.WithContext(ctx).
		Where("scope = ? AND fingerprint = ?", scope, fingerprint).
		Take(&model).Error
	if err != nil {
		return walletview.IdempotencyKey{}, err
	}
	return walletview.NewIdempotencyKey(model.IdempotencyKey)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}

func wrapStoreError(subject string, code string, err error) error {
	return walletview.WrapError(errorOperationStore, subject, code, err)
}
