package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/db/models"
	pkgerrors "github.com/rendasua/settlement-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository reads orders for settlement.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindByID returns the order hydrated with its business and assigned agent.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Business").
		Preload("AssignedAgent").
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
