package commission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/internal/accounts"
	"github.com/rendasua/settlement-backend/internal/appconfig"
	"github.com/rendasua/settlement-backend/pkg/db/models"
	"github.com/rendasua/settlement-backend/pkg/enums"
	pkgerrors "github.com/rendasua/settlement-backend/pkg/errors"
	"github.com/rendasua/settlement-backend/pkg/logger"
	"github.com/rendasua/settlement-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type stubCommissionRepo struct {
	alreadyDistributed bool
	createPayoutErr    error

	distributions []models.CommissionDistribution
	payouts       []models.CommissionPayout
}

func (s *stubCommissionRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCommissionRepo) CreateDistribution(ctx context.Context, d *models.CommissionDistribution) error {
	if s.alreadyDistributed {
		return ErrAlreadyDistributed
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	s.distributions = append(s.distributions, *d)
	return nil
}

func (s *stubCommissionRepo) FindDistributionByOrder(ctx context.Context, orderID uuid.UUID) (*models.CommissionDistribution, error) {
	for i := range s.distributions {
		if s.distributions[i].OrderID == orderID {
			return &s.distributions[i], nil
		}
	}
	if s.alreadyDistributed {
		return &models.CommissionDistribution{ID: uuid.New(), OrderID: orderID}, nil
	}
	return nil, nil
}

func (s *stubCommissionRepo) CreatePayout(ctx context.Context, p *models.CommissionPayout) error {
	if s.createPayoutErr != nil {
		return s.createPayoutErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.payouts = append(s.payouts, *p)
	return nil
}

func (s *stubCommissionRepo) ListPayoutsByOrder(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.CommissionPayout, string, error) {
	return s.payouts, "", nil
}

type stubOrdersRepo struct {
	order *models.Order
	err   error
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

type fakeLedger struct {
	accounts map[uuid.UUID]*models.Account
	txns     []accounts.RegisterTransactionInput
}

func (f *fakeLedger) WithTx(tx *gorm.DB) accounts.Service { return f }

func (f *fakeLedger) GetAccount(ctx context.Context, userID uuid.UUID, currency enums.Currency) (*models.Account, error) {
	account, ok := f.accounts[userID]
	if !ok || account.Currency != currency {
		return nil, nil
	}
	return account, nil
}

func (f *fakeLedger) RegisterTransaction(ctx context.Context, input accounts.RegisterTransactionInput) (*models.AccountTransaction, error) {
	f.txns = append(f.txns, input)
	return &models.AccountTransaction{
		ID:          uuid.New(),
		AccountID:   input.AccountID,
		Amount:      input.Amount,
		Type:        input.Type,
		Memo:        input.Memo,
		ReferenceID: input.ReferenceID,
	}, nil
}

type stubPartnersRepo struct {
	partners []models.Partner
}

func (s *stubPartnersRepo) ListActive(ctx context.Context) ([]models.Partner, error) {
	return s.partners, nil
}

type stubRates struct {
	rates appconfig.CommissionRates
	err   error
}

func (s *stubRates) LoadCommissionRates(ctx context.Context) (appconfig.CommissionRates, error) {
	return s.rates, s.err
}

type stubUsersRepo struct {
	user *models.User
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.user, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubLocker struct {
	denied   bool
	err      error
	releases int
}

func (s *stubLocker) AcquireLock(ctx context.Context, scope, id string, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return !s.denied, nil
}

func (s *stubLocker) ReleaseLock(ctx context.Context, scope, id string) error {
	s.releases++
	return nil
}

type fixture struct {
	repo     *stubCommissionRepo
	orders   *stubOrdersRepo
	ledger   *fakeLedger
	locker   *stubLocker
	users    *stubUsersRepo
	platform *models.User
	partner  models.Partner
	order    *models.Order
	service  Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	platform := &models.User{ID: uuid.New(), Email: "hq@rendasua.com"}
	partner := testPartner("10", "10", "50")
	agent := &models.Agent{ID: uuid.New(), UserID: uuid.New(), IsVerified: false}
	business := &models.Business{ID: uuid.New(), UserID: uuid.New(), Name: "Bakery"}

	order := &models.Order{
		ID:               uuid.New(),
		OrderNumber:      "RS-1001",
		Status:           enums.OrderStatusComplete,
		Currency:         enums.CurrencyXAF,
		Subtotal:         dec("1000"),
		BaseDeliveryFee:  dec("100"),
		PerKmDeliveryFee: dec("50"),
		BusinessID:       business.ID,
		AssignedAgentID:  &agent.ID,
		Business:         business,
		AssignedAgent:    agent,
	}

	ledger := &fakeLedger{accounts: map[uuid.UUID]*models.Account{
		agent.UserID:    {ID: uuid.New(), UserID: agent.UserID, Currency: enums.CurrencyXAF},
		partner.UserID:  {ID: uuid.New(), UserID: partner.UserID, Currency: enums.CurrencyXAF},
		platform.ID:     {ID: uuid.New(), UserID: platform.ID, Currency: enums.CurrencyXAF},
		business.UserID: {ID: uuid.New(), UserID: business.UserID, Currency: enums.CurrencyXAF},
	}}

	f := &fixture{
		repo:     &stubCommissionRepo{},
		orders:   &stubOrdersRepo{order: order},
		ledger:   ledger,
		locker:   &stubLocker{},
		users:    &stubUsersRepo{user: platform},
		platform: platform,
		partner:  partner,
		order:    order,
	}

	service, err := NewService(ServiceParams{
		Repo:     f.repo,
		Orders:   f.orders,
		Accounts: f.ledger,
		Partners: &stubPartnersRepo{partners: []models.Partner{partner}},
		AppConfig: &stubRates{rates: appconfig.CommissionRates{
			ItemCommissionPercentage:               dec("5"),
			UnverifiedAgentBaseDeliveryCommission:  dec("50"),
			VerifiedAgentBaseDeliveryCommission:    dec("0"),
			UnverifiedAgentPerKmDeliveryCommission: dec("80"),
			VerifiedAgentPerKmDeliveryCommission:   dec("20"),
		}},
		Users:  f.users,
		Tx:     stubTxRunner{},
		Locker: f.locker,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),

		PlatformAccountEmail: "hq@rendasua.com",
		LockTTL:              time.Minute,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.service = service
	return f
}

func TestDistributeHappyPath(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	result, err := f.service.Distribute(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	// base 100: agent 50, partner 10, platform 40
	// per-km 50: agent 40, partner 5, platform 5
	// item cut 50: partner 25, platform 25
	// subtotal 1000: business 950, platform 50
	if got := len(result.Executed); got != 10 {
		t.Fatalf("expected 10 executed payouts, got %d", got)
	}
	if got := len(result.Skipped); got != 0 {
		t.Fatalf("expected no skipped payouts, got %d", got)
	}
	if len(f.repo.distributions) != 1 {
		t.Fatalf("expected one distribution row, got %d", len(f.repo.distributions))
	}
	if f.locker.releases != 1 {
		t.Fatalf("expected lock released once, got %d", f.locker.releases)
	}

	total := decimal.Zero
	for _, txn := range f.ledger.txns {
		if txn.Type != enums.TransactionTypeDeposit {
			t.Fatalf("expected deposit, got %s", txn.Type)
		}
		if txn.ReferenceID == nil || *txn.ReferenceID != f.order.ID {
			t.Fatalf("transaction missing order reference")
		}
		total = total.Add(txn.Amount)
	}
	// Fees plus subtotal plus the platform's full subtotal cut.
	if want := dec("1200"); !total.Equal(want) {
		t.Fatalf("expected %s distributed, got %s", want, total)
	}

	var platformSubtotal *ExecutedPayout
	for i := range result.Executed {
		executed := result.Executed[i]
		if executed.RecipientType == enums.RecipientTypeRendaSua && executed.CommissionType == enums.CommissionTypeOrderSubtotal {
			platformSubtotal = &result.Executed[i]
		}
	}
	if platformSubtotal == nil {
		t.Fatalf("platform order subtotal payout missing")
	}
	if !platformSubtotal.Amount.Equal(dec("50")) {
		t.Fatalf("expected the full subtotal cut of 50, got %s", platformSubtotal.Amount)
	}

	found := false
	for _, txn := range f.ledger.txns {
		if txn.Memo == fmt.Sprintf("Commission payment for order %s (%s)", f.order.OrderNumber, enums.CommissionTypeBaseDeliveryFee) {
			found = true
		}
		if !strings.HasPrefix(txn.Memo, "Commission payment for order RS-1001") {
			t.Fatalf("unexpected memo %q", txn.Memo)
		}
	}
	if !found {
		t.Fatalf("base delivery fee memo not found")
	}
}

func TestDistributeAlreadyDistributed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.alreadyDistributed = true

	_, err := f.service.Distribute(context.Background(), f.order.ID)
	if !errors.Is(err, ErrAlreadyDistributed) {
		t.Fatalf("expected ErrAlreadyDistributed, got %v", err)
	}
	if len(f.ledger.txns) != 0 {
		t.Fatalf("no money should move on a repeat distribution")
	}
}

func TestDistributeLockHeld(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.locker.denied = true

	_, err := f.service.Distribute(context.Background(), f.order.ID)
	if !errors.Is(err, ErrDistributionInProgress) {
		t.Fatalf("expected ErrDistributionInProgress, got %v", err)
	}
	if len(f.repo.distributions) != 0 {
		t.Fatalf("no distribution row should exist while locked out")
	}
}

func TestDistributeRejectsUnsettledOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.order.Status = enums.OrderStatusDelivered

	_, err := f.service.Distribute(context.Background(), f.order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDistributeSkipsRecipientsWithoutAccount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	delete(f.ledger.accounts, f.partner.UserID)

	result, err := f.service.Distribute(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	// The partner earns on base, per-km and item splits.
	if got := len(result.Skipped); got != 3 {
		t.Fatalf("expected 3 skipped payouts, got %d", got)
	}
	for _, skipped := range result.Skipped {
		if skipped.RecipientType != enums.RecipientTypePartner {
			t.Fatalf("unexpected skipped recipient %s", skipped.RecipientType)
		}
		if skipped.Reason != "no_account" {
			t.Fatalf("unexpected skip reason %q", skipped.Reason)
		}
	}
	if got := len(result.Executed); got != 7 {
		t.Fatalf("expected 7 executed payouts, got %d", got)
	}
}

func TestDistributeSkipsZeroAmounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.order.AssignedAgent.IsVerified = true

	result, err := f.service.Distribute(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	// Verified base rate is zero, so the base fee agent payout disappears.
	for _, executed := range result.Executed {
		if executed.Amount.IsZero() || executed.Amount.IsNegative() {
			t.Fatalf("non-positive payout executed: %s", executed.Amount)
		}
		if executed.RecipientType == enums.RecipientTypeAgent && executed.CommissionType == enums.CommissionTypeBaseDeliveryFee {
			t.Fatalf("agent base delivery payout should be zero and skipped")
		}
	}
}

func TestDistributeWithoutAgentStillPaysPartnersAndPlatform(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.order.AssignedAgentID = nil
	f.order.AssignedAgent = nil

	result, err := f.service.Distribute(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	for _, executed := range result.Executed {
		if executed.RecipientType == enums.RecipientTypeAgent {
			t.Fatalf("agent payout executed without an agent")
		}
	}

	// base 100: partner 10, platform 40; per-km 50: partner 5, platform 5.
	// The agent shares (50 and 40, computed at the unverified rates) stay
	// unpaid, so only 50 of the base fee and 10 of the per-km fee post.
	paidByType := map[enums.CommissionType]decimal.Decimal{}
	for _, executed := range result.Executed {
		paidByType[executed.CommissionType] = paidByType[executed.CommissionType].Add(executed.Amount)
	}
	if got := paidByType[enums.CommissionTypeBaseDeliveryFee]; !got.Equal(dec("50")) {
		t.Fatalf("expected 50 of the base fee paid, got %s", got)
	}
	if got := paidByType[enums.CommissionTypePerKmDeliveryFee]; !got.Equal(dec("10")) {
		t.Fatalf("expected 10 of the per-km fee paid, got %s", got)
	}
	// 2 per fee split + item partner/platform + business + platform cut.
	if got := len(result.Executed); got != 8 {
		t.Fatalf("expected 8 executed payouts, got %d", got)
	}
}

func TestDistributeFailsWithoutPlatformUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users.user = nil

	_, err := f.service.Distribute(context.Background(), f.order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for a missing platform user, got %v", err)
	}
	if len(f.ledger.txns) != 0 {
		t.Fatalf("no money should move without the platform user")
	}
	if f.locker.releases != 1 {
		t.Fatalf("lock must be released, got %d releases", f.locker.releases)
	}
}

func TestDistributePropagatesPayoutFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.repo.createPayoutErr = errors.New("insert failed")

	_, err := f.service.Distribute(context.Background(), f.order.ID)
	if err == nil {
		t.Fatalf("expected payout failure to abort the distribution")
	}
	if f.locker.releases != 1 {
		t.Fatalf("lock must be released on failure")
	}
}

func TestPreviewReportsDistributedFlag(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	preview, err := f.service.Preview(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if preview.Distributed {
		t.Fatalf("order not yet distributed")
	}
	if !preview.Breakdown.Item.BusinessAmount.Equal(dec("950")) {
		t.Fatalf("unexpected business amount %s", preview.Breakdown.Item.BusinessAmount)
	}

	if _, err := f.service.Distribute(context.Background(), f.order.ID); err != nil {
		t.Fatalf("Distribute: %v", err)
	}

	preview, err = f.service.Preview(context.Background(), f.order.ID)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !preview.Distributed {
		t.Fatalf("preview should report the order as distributed")
	}
}
