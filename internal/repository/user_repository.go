package repository

import (
	"context"
	"errors"

	"github.com/propfolio/propfolio/internal/domain"
	"github.com/propfolio/propfolio/internal/observability"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(user *domain.User) error
	FindByID(id uint) (*domain.User, error)
	FindByEmail(email string) (*domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(user *domain.User) error {
	if err := r.db.Create(user).Error; err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create", "success")
	return nil
}

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_email", "success")
	return &u, nil
}
