package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/db/models"
	"github.com/rendasua/settlement-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service defines the ledger operations payout execution relies on.
type Service interface {
	WithTx(tx *gorm.DB) Service
	GetAccount(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*models.Account, error)
	RegisterTransaction(ctx context.Context, input RegisterTransactionInput) (*models.AccountTransaction, error)
}

// RegisterTransactionInput captures one account movement.
type RegisterTransactionInput struct {
	AccountID   uuid.UUID
	Amount      decimal.Decimal
	Type        enums.TransactionType
	Memo        string
	ReferenceID *uuid.UUID
}

type service struct {
	repo Repository
}

// NewService wires an accounts service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) GetAccount(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*models.Account, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("invalid currency %q", currency)
	}
	return s.repo.FindByUserAndCurrency(ctx, userID, currency)
}

// RegisterTransaction appends the movement and applies it to the account
// balance. Deposits add, withdrawals subtract.
func (s *service) RegisterTransaction(ctx context.Context, input RegisterTransactionInput) (*models.AccountTransaction, error) {
	if input.AccountID == uuid.Nil {
		return nil, fmt.Errorf("account id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid transaction type %q", input.Type)
	}
	if input.Amount.IsZero() {
		return nil, fmt.Errorf("transaction amount must be non-zero")
	}

	txn := &models.AccountTransaction{
		AccountID:   input.AccountID,
		Amount:      input.Amount,
		Type:        input.Type,
		Memo:        input.Memo,
		ReferenceID: input.ReferenceID,
	}

	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	delta := input.Amount
	if input.Type == enums.TransactionTypeWithdrawal {
		delta = delta.Neg()
	}
	if err := s.repo.AddToBalance(ctx, input.AccountID, delta); err != nil {
		return nil, err
	}

	return txn, nil
}
