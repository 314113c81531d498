package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationConfiguration is a named numeric setting. Commission rates are
// read from this table at distribution time.
type ApplicationConfiguration struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConfigKey   string          `gorm:"column:config_key;not null;uniqueIndex"`
	NumberValue decimal.Decimal `gorm:"column:number_value;type:numeric(12,4);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
