package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTemplateNotFound is returned when a template lookup misses.
var ErrTemplateNotFound = errors.New("template not found")

// Repository defines the interface for template data access.
type Repository interface {
	ListForRole(ctx context.Context, role string) ([]*Template, error)
	Get(ctx context.Context, id uuid.UUID) (*Template, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new template repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListForRole(ctx context.Context, role string) ([]*Template, error) {
	var templates []*Template
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if role != "" {
		query = query.Where("role_tags = '{}' OR ? = ANY(role_tags)", role)
	}
	err := query.
		Order("usage_count DESC, name ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	var t Template
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &t, nil
}

func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Template{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("increment template usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
