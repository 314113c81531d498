package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CommissionPayout is the immutable audit row written once per executed
// payout, linked 1:1 to the account transaction it describes.
type CommissionPayout struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	RecipientUserID      uuid.UUID            `gorm:"column:recipient_user_id;type:uuid;not null"`
	RecipientType        enums.RecipientType  `gorm:"column:recipient_type;type:recipient_type_enum;not null"`
	CommissionType       enums.CommissionType `gorm:"column:commission_type;type:commission_type_enum;not null"`
	Amount               decimal.Decimal      `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency             enums.Currency       `gorm:"column:currency;type:varchar(3);not null"`
	CommissionPercentage *decimal.Decimal     `gorm:"column:commission_percentage;type:numeric(5,2)"`
	AccountTransactionID uuid.UUID            `gorm:"column:account_transaction_id;type:uuid;not null;uniqueIndex"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
}
