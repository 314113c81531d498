package appconfig

import (
	"context"

	"github.com/rendasua/settlement-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads application configuration rows.
type Repository interface {
	ListByKeys(ctx context.Context, keys []string) ([]models.ApplicationConfiguration, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a configuration repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByKeys(ctx context.Context, keys []string) ([]models.ApplicationConfiguration, error) {
	var rows []models.ApplicationConfiguration
	if err := r.db.WithContext(ctx).
		Where("config_key IN ?", keys).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
