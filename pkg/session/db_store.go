package session

import (
	"context"
	"errors"
	"time"

	"catalog-service/internal/model"

	"gorm.io/gorm"
)

// DBStore keeps sessions in the relational store
type DBStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDBStore returns a Store backed by the sessions table
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

func (s *DBStore) Create(ctx context.Context, sess *model.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *DBStore) Lookup(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !sess.Active(s.now()) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *DBStore) Revoke(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", s.now()).Error
}

// PurgeExpired deletes sessions that can no longer authenticate
func (s *DBStore) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", s.now()).
		Delete(&model.Session{})
	return result.RowsAffected, result.Error
}
