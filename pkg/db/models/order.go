package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order carries the fee amounts the commission distribution splits. The
// settlement service reads orders; the order state machine lives elsewhere.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string            `gorm:"column:order_number;not null;uniqueIndex"`
	Status           enums.OrderStatus `gorm:"column:status;type:order_status_enum;not null"`
	Currency         enums.Currency    `gorm:"column:currency;type:varchar(3);not null"`
	Subtotal         decimal.Decimal   `gorm:"column:subtotal;type:numeric(14,2);not null;default:0"`
	BaseDeliveryFee  decimal.Decimal   `gorm:"column:base_delivery_fee;type:numeric(14,2);not null;default:0"`
	PerKmDeliveryFee decimal.Decimal   `gorm:"column:per_km_delivery_fee;type:numeric(14,2);not null;default:0"`
	BusinessID       uuid.UUID         `gorm:"column:business_id;type:uuid;not null"`
	AssignedAgentID  *uuid.UUID        `gorm:"column:assigned_agent_id;type:uuid"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Business      *Business `gorm:"foreignKey:BusinessID"`
	AssignedAgent *Agent    `gorm:"foreignKey:AssignedAgentID"`
}
