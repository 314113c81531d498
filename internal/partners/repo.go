package partners

import (
	"context"

	"github.com/rendasua/settlement-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads revenue-share partner records.
type Repository interface {
	ListActive(ctx context.Context) ([]models.Partner, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a partner repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListActive(ctx context.Context) ([]models.Partner, error) {
	var rows []models.Partner
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
