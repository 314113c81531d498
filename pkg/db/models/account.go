package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Account is a per-user, per-currency balance. Payouts land here as deposit
// transactions.
type Account struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_accounts_user_currency"`
	Currency         enums.Currency  `gorm:"column:currency;type:varchar(3);not null;uniqueIndex:idx_accounts_user_currency"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(14,2);not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
