package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// AccountTransaction is an append-only movement on an account. ReferenceID
// carries the external entity that caused the movement (the order id for
// commission deposits).
type AccountTransaction struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID   uuid.UUID             `gorm:"column:account_id;type:uuid;not null;index"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	Type        enums.TransactionType `gorm:"column:type;type:account_transaction_type_enum;not null"`
	Memo        string                `gorm:"column:memo"`
	ReferenceID *uuid.UUID            `gorm:"column:reference_id;type:uuid;index"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
