package repository

import (
	"context"
	"errors"

	"github.com/propfolio/propfolio/internal/observability"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Store is a generic owner-scoped CRUD repository over a GORM model.
// Every read and write is keyed by the owning principal's id so a
// caller can never reach another account's rows. Entity-specific
// repositories are thin instantiations of this type.
type Store[T any] struct {
	db          *gorm.DB
	entity      string
	ownerColumn string
}

func NewStore[T any](db *gorm.DB, entity, ownerColumn string) *Store[T] {
	if ownerColumn == "" {
		ownerColumn = "owner_id"
	}
	return &Store[T]{db: db, entity: entity, ownerColumn: ownerColumn}
}

func (s *Store[T]) record(ctx context.Context, op, outcome string) {
	observability.RecordRepositoryOperation(ctx, s.entity, op, outcome)
}

func (s *Store[T]) Create(ctx context.Context, row *T) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.record(ctx, "create", "error")
		return err
	}
	s.record(ctx, "create", "success")
	return nil
}

func (s *Store[T]) FindForOwner(ctx context.Context, ownerID, id uint) (*T, error) {
	var row T
	err := s.db.WithContext(ctx).
		Where(s.ownerColumn+" = ? AND id = ?", ownerID, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.record(ctx, "find", "not_found")
			return nil, ErrNotFound
		}
		s.record(ctx, "find", "error")
		return nil, err
	}
	s.record(ctx, "find", "success")
	return &row, nil
}

func (s *Store[T]) ExistsForOwner(ctx context.Context, ownerID, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(new(T)).
		Where(s.ownerColumn+" = ? AND id = ?", ownerID, id).
		Count(&count).Error
	if err != nil {
		s.record(ctx, "exists", "error")
		return false, err
	}
	s.record(ctx, "exists", "success")
	return count > 0, nil
}

// ListForOwner returns the owner's rows matching the equality filters,
// newest first unless a different order is given.
func (s *Store[T]) ListForOwner(ctx context.Context, ownerID uint, filters map[string]any, order string) ([]T, error) {
	if order == "" {
		order = "created_at DESC"
	}
	q := s.db.WithContext(ctx).Where(s.ownerColumn+" = ?", ownerID)
	for column, value := range filters {
		q = q.Where(column+" = ?", value)
	}
	var rows []T
	if err := q.Order(order).Find(&rows).Error; err != nil {
		s.record(ctx, "list", "error")
		return nil, err
	}
	s.record(ctx, "list", "success")
	return rows, nil
}

func (s *Store[T]) UpdateForOwner(ctx context.Context, ownerID, id uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(new(T)).
		Where(s.ownerColumn+" = ? AND id = ?", ownerID, id).
		Updates(fields)
	if res.Error != nil {
		s.record(ctx, "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		s.record(ctx, "update", "not_found")
		return ErrNotFound
	}
	s.record(ctx, "update", "success")
	return nil
}

func (s *Store[T]) DeleteForOwner(ctx context.Context, ownerID, id uint) error {
	res := s.db.WithContext(ctx).
		Where(s.ownerColumn+" = ? AND id = ?", ownerID, id).
		Delete(new(T))
	if res.Error != nil {
		s.record(ctx, "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		s.record(ctx, "delete", "not_found")
		return ErrNotFound
	}
	s.record(ctx, "delete", "success")
	return nil
}
