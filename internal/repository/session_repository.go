package repository

import (
	"context"
	"errors"
	"time"

	"github.com/propfolio/propfolio/internal/domain"
	"github.com/propfolio/propfolio/internal/observability"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(s *domain.Session) error
	FindByTokenHash(hash string) (*domain.Session, error)
	FindByIDForUser(userID, sessionID uint) (*domain.Session, error)
	ListActiveByUserID(userID uint) ([]domain.Session, error)
	RevokeByIDForUser(userID, sessionID uint) (bool, error)
	ExtendByTokenHash(hash string, until time.Time) (bool, error)
	CleanupExpired() (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.Session) error {
	err := r.db.Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByTokenHash(hash string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("token_hash = ?", hash).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_token_hash", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_token_hash", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_token_hash", "success")
	return &s, nil
}

func (r *GormSessionRepository) FindByIDForUser(userID, sessionID uint) (*domain.Session, error) {
	var s domain.Session
	err := r.db.Where("user_id = ? AND id = ?", userID, sessionID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id_for_user", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id_for_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "find_by_id_for_user", "success")
	return &s, nil
}

// ListActiveByUserID returns the user's live sessions ordered by expiry
// descending, i.e. most-recently-expiring first.
func (r *GormSessionRepository) ListActiveByUserID(userID uint) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("expires_at DESC").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "list_active_by_user_id", "error")
		return sessions, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "list_active_by_user_id", "success")
	return sessions, err
}

// RevokeByIDForUser invalidates the session immediately by collapsing
// its expiry to now. Revoking an already dead session is a no-op.
func (r *GormSessionRepository) RevokeByIDForUser(userID, sessionID uint) (bool, error) {
	if _, err := r.FindByIDForUser(userID, sessionID); err != nil {
		return false, err
	}
	now := time.Now().UTC()
	res := r.db.Model(&domain.Session{}).
		Where("user_id = ? AND id = ? AND expires_at > ?", userID, sessionID, now).
		Update("expires_at", now)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_id_for_user", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "revoke_by_id_for_user", "success")
	return res.RowsAffected > 0, nil
}

// ExtendByTokenHash pushes a live session's expiry forward. A session
// whose expiry has already passed (including a revoked one) stays dead:
// the guard on expires_at means activity can never resurrect it.
func (r *GormSessionRepository) ExtendByTokenHash(hash string, until time.Time) (bool, error) {
	res := r.db.Model(&domain.Session{}).
		Where("token_hash = ? AND expires_at > ?", hash, time.Now()).
		Update("expires_at", until)
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "extend_by_token_hash", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "extend_by_token_hash", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormSessionRepository) CleanupExpired() (int64, error) {
	res := r.db.Where("expires_at < ?", time.Now()).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "cleanup_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "cleanup_expired", "success")
	return res.RowsAffected, nil
}
