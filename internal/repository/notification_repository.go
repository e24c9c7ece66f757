package repository

import (
	"context"

	"github.com/propfolio/propfolio/internal/domain"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListForUser(ctx context.Context, userID uint) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id uint) error
}

type GormNotificationRepository struct {
	*Store[domain.Notification]
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{Store: NewStore[domain.Notification](db, "notification", "user_id")}
}

func (r *GormNotificationRepository) ListForUser(ctx context.Context, userID uint) ([]domain.Notification, error) {
	return r.Store.ListForOwner(ctx, userID, nil, "created_at DESC, id DESC")
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, userID, id uint) error {
	return r.Store.UpdateForOwner(ctx, userID, id, map[string]any{"read": true})
}
