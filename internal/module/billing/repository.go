package billing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository defines the interface for plan catalog access.
type Repository interface {
	ListActivePlans(ctx context.Context) ([]*Plan, error)
	GetPlan(ctx context.Context, id string) (*Plan, error)
	GetPlanByStripePrice(ctx context.Context, priceID string) (*Plan, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new billing repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActivePlans(ctx context.Context) ([]*Plan, error) {
	var plans []*Plan
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order ASC").
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	return plans, nil
}

func (r *repository) GetPlan(ctx context.Context, id string) (*Plan, error) {
	var plan Plan
	err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return &plan, nil
}

func (r *repository) GetPlanByStripePrice(ctx context.Context, priceID string) (*Plan, error) {
	var plan Plan
	err := r.db.WithContext(ctx).
		Where("stripe_price_id = ?", priceID).
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan by stripe price: %w", err)
	}
	return &plan, nil
}
