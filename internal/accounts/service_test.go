package accounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/db/models"
	"github.com/rendasua/settlement-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubRepo struct {
	account *models.Account

	created  []models.AccountTransaction
	balances map[uuid.UUID]decimal.Decimal
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByUserAndCurrency(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*models.Account, error) {
	return s.account, nil
}

func (s *stubRepo) CreateTransaction(ctx context.Context, txn *models.AccountTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.created = append(s.created, *txn)
	return nil
}

func (s *stubRepo) AddToBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	if s.balances == nil {
		s.balances = map[uuid.UUID]decimal.Decimal{}
	}
	s.balances[accountID] = s.balances[accountID].Add(amount)
	return nil
}

func TestRegisterTransactionDeposits(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	service, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	accountID := uuid.New()
	orderID := uuid.New()
	txn, err := service.RegisterTransaction(context.Background(), RegisterTransactionInput{
		AccountID:   accountID,
		Amount:      decimal.NewFromInt(250),
		Type:        enums.TransactionTypeDeposit,
		Memo:        "Commission payment for order RS-1 (item_sale)",
		ReferenceID: &orderID,
	})
	if err != nil {
		t.Fatalf("RegisterTransaction: %v", err)
	}

	if txn.ID == uuid.Nil {
		t.Fatalf("transaction id not assigned")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one transaction row, got %d", len(repo.created))
	}
	if !repo.balances[accountID].Equal(decimal.NewFromInt(250)) {
		t.Fatalf("deposit should add to the balance, got %s", repo.balances[accountID])
	}
}

func TestRegisterTransactionWithdrawalsSubtract(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	service, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	accountID := uuid.New()
	if _, err := service.RegisterTransaction(context.Background(), RegisterTransactionInput{
		AccountID: accountID,
		Amount:    decimal.NewFromInt(100),
		Type:      enums.TransactionTypeWithdrawal,
	}); err != nil {
		t.Fatalf("RegisterTransaction: %v", err)
	}

	if !repo.balances[accountID].Equal(decimal.NewFromInt(-100)) {
		t.Fatalf("withdrawal should subtract from the balance, got %s", repo.balances[accountID])
	}
}

func TestRegisterTransactionValidation(t *testing.T) {
	t.Parallel()

	service, err := NewService(&stubRepo{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cases := []struct {
		name  string
		input RegisterTransactionInput
	}{
		{"missing account", RegisterTransactionInput{Amount: decimal.NewFromInt(1), Type: enums.TransactionTypeDeposit}},
		{"invalid type", RegisterTransactionInput{AccountID: uuid.New(), Amount: decimal.NewFromInt(1), Type: "bogus"}},
		{"zero amount", RegisterTransactionInput{AccountID: uuid.New(), Type: enums.TransactionTypeDeposit}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.RegisterTransaction(context.Background(), tc.input); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestGetAccountValidation(t *testing.T) {
	t.Parallel()

	service, err := NewService(&stubRepo{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if _, err := service.GetAccount(context.Background(), uuid.Nil, enums.CurrencyXAF); err == nil {
		t.Fatalf("expected error for nil user id")
	}
	if _, err := service.GetAccount(context.Background(), uuid.New(), "ZZZ"); err == nil {
		t.Fatalf("expected error for invalid currency")
	}
}
