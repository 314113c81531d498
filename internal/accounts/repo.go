package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/db/models"
	"github.com/rendasua/settlement-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository manages persistence for accounts and their transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserAndCurrency(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*models.Account, error)
	CreateTransaction(ctx context.Context, txn *models.AccountTransaction) error
	AddToBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an accounts repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByUserAndCurrency returns nil without error when the recipient holds no
// account in the requested currency.
func (r *repository) FindByUserAndCurrency(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.AccountTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) AddToBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("available_balance", gorm.Expr("available_balance + ?", amount)).Error
}
