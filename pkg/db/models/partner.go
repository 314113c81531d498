package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Partner is a revenue-share stakeholder. Each active partner takes an
// independent percentage cut of delivery fees and of the platform's item
// commission; cuts are additive off the same base, never off each other.
type Partner struct {
	ID                         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                     uuid.UUID       `gorm:"column:user_id;type:uuid;not null"`
	CompanyName                string          `gorm:"column:company_name;not null"`
	BaseDeliveryFeeCommission  decimal.Decimal `gorm:"column:base_delivery_fee_commission;type:numeric(5,2);not null;default:0"`
	PerKmDeliveryFeeCommission decimal.Decimal `gorm:"column:per_km_delivery_fee_commission;type:numeric(5,2);not null;default:0"`
	ItemCommission             decimal.Decimal `gorm:"column:item_commission;type:numeric(5,2);not null;default:0"`
	IsActive                   bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt                  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
