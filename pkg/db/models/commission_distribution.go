package models

import (
	"time"

	"github.com/google/uuid"
)

// CommissionDistribution marks an order as settled. The unique order_id
// constraint is what makes Distribute idempotent: a second run for the same
// order fails the insert instead of paying everyone twice.
type CommissionDistribution struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
