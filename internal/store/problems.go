package store

import (
	"context"
	"fmt"

	"algotracker/internal/model"

	"gorm.io/gorm"
)

// ProblemFilter narrows List results. Zero values match everything.
type ProblemFilter struct {
	Difficulty string
	Status     string
	Favourite  *bool
}

// Problems persists problem records.
type Problems struct {
	db *gorm.DB
}

// NewProblems creates a problem store.
func NewProblems(db *gorm.DB) *Problems {
	return &Problems{db: db}
}

// Create inserts a problem.
func (s *Problems) Create(ctx context.Context, p *model.Problem) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create problem: %w", err)
	}
	return nil
}

// List returns non-deleted problems, newest first.
func (s *Problems) List(ctx context.Context, f ProblemFilter) ([]model.Problem, error) {
	q := s.db.WithContext(ctx).Where("is_deleted = ?", false)
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", f.Difficulty)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Favourite != nil {
		q = q.Where("favourite = ?", *f.Favourite)
	}

	var problems []model.Problem
	if err := q.Order("created_at desc").Find(&problems).Error; err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	return problems, nil
}

// Get returns a non-deleted problem.
func (s *Problems) Get(ctx context.Context, id string) (*model.Problem, error) {
	var p model.Problem
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&p).Error
	if err != nil {
		if mapped := mapError(err); mapped == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get problem: %w", err)
	}
	return &p, nil
}

// Update applies the given column changes to a non-deleted problem.
func (s *Problems) Update(ctx context.Context, id string, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&model.Problem{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(changes)
	if res.Error != nil {
		return fmt.Errorf("update problem: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete flags a problem as deleted.
func (s *Problems) SoftDelete(ctx context.Context, id, deletedBy string) error {
	res := s.db.WithContext(ctx).
		Model(&model.Problem{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"updated_by": deletedBy,
		})
	if res.Error != nil {
		return fmt.Errorf("soft delete problem: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
