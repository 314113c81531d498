package commission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/internal/accounts"
	"github.com/rendasua/settlement-backend/internal/appconfig"
	"github.com/rendasua/settlement-backend/internal/orders"
	"github.com/rendasua/settlement-backend/internal/partners"
	"github.com/rendasua/settlement-backend/internal/users"
	"github.com/rendasua/settlement-backend/pkg/db"
	"github.com/rendasua/settlement-backend/pkg/db/models"
	"github.com/rendasua/settlement-backend/pkg/enums"
	pkgerrors "github.com/rendasua/settlement-backend/pkg/errors"
	"github.com/rendasua/settlement-backend/pkg/logger"
	"github.com/rendasua/settlement-backend/pkg/metrics"
	"github.com/rendasua/settlement-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const lockScope = "commission-distribution"

// ErrDistributionInProgress reports that another caller currently holds the
// per-order distribution lock.
var ErrDistributionInProgress = pkgerrors.New(pkgerrors.CodeLocked, "commission distribution already in progress for this order")

// Locker is the mutex surface Distribute takes around one order.
type Locker interface {
	AcquireLock(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, scope, id string) error
}

// Service runs commission distributions and serves their audit trail.
type Service interface {
	Distribute(ctx context.Context, orderID uuid.UUID) (*DistributionResult, error)
	Preview(ctx context.Context, orderID uuid.UUID) (*PreviewResult, error)
	ListPayouts(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.CommissionPayout, string, error)
}

// ExecutedPayout describes one credited recipient in a distribution.
type ExecutedPayout struct {
	PayoutID        uuid.UUID            `json:"payout_id"`
	TransactionID   uuid.UUID            `json:"transaction_id"`
	RecipientUserID uuid.UUID            `json:"recipient_user_id"`
	RecipientType   enums.RecipientType  `json:"recipient_type"`
	CommissionType  enums.CommissionType `json:"commission_type"`
	Amount          decimal.Decimal      `json:"amount"`
}

// SkippedPayout describes a positive amount that could not be credited.
type SkippedPayout struct {
	RecipientUserID uuid.UUID            `json:"recipient_user_id"`
	RecipientType   enums.RecipientType  `json:"recipient_type"`
	CommissionType  enums.CommissionType `json:"commission_type"`
	Amount          decimal.Decimal      `json:"amount"`
	Reason          string               `json:"reason"`
}

// DistributionResult is the committed outcome of one Distribute call.
type DistributionResult struct {
	DistributionID uuid.UUID        `json:"distribution_id"`
	OrderID        uuid.UUID        `json:"order_id"`
	OrderNumber    string           `json:"order_number"`
	Currency       enums.Currency   `json:"currency"`
	Breakdown      Breakdown        `json:"breakdown"`
	Executed       []ExecutedPayout `json:"executed"`
	Skipped        []SkippedPayout  `json:"skipped"`
}

// PreviewResult is the dry-run view of a distribution.
type PreviewResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Distributed bool      `json:"distributed"`
	Breakdown   Breakdown `json:"breakdown"`
}

// ServiceParams wires the distribution service.
type ServiceParams struct {
	Repo      Repository
	Orders    orders.Repository
	Accounts  accounts.Service
	Partners  partners.Repository
	AppConfig appconfig.Service
	Users     users.Repository
	Tx        db.TxRunner
	Locker    Locker
	Logger    *logger.Logger
	Metrics   *metrics.PayoutMetrics

	PlatformAccountEmail            string
	LockTTL                         time.Duration
	WarnOnNegativePlatformRemainder bool
}

type service struct {
	repo      Repository
	orders    orders.Repository
	accounts  accounts.Service
	partners  partners.Repository
	appConfig appconfig.Service
	users     users.Repository
	tx        db.TxRunner
	locker    Locker
	logg      *logger.Logger
	metrics   *metrics.PayoutMetrics

	platformEmail  string
	lockTTL        time.Duration
	warnOnNegative bool
}

// NewService validates dependencies and returns a distribution service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("commission repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Accounts == nil:
		return nil, fmt.Errorf("accounts service required")
	case params.Partners == nil:
		return nil, fmt.Errorf("partners repository required")
	case params.AppConfig == nil:
		return nil, fmt.Errorf("application configuration service required")
	case params.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Locker == nil:
		return nil, fmt.Errorf("locker required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.PlatformAccountEmail == "":
		return nil, fmt.Errorf("platform account email required")
	}
	if params.LockTTL <= 0 {
		params.LockTTL = 2 * time.Minute
	}
	return &service{
		repo:           params.Repo,
		orders:         params.Orders,
		accounts:       params.Accounts,
		partners:       params.Partners,
		appConfig:      params.AppConfig,
		users:          params.Users,
		tx:             params.Tx,
		locker:         params.Locker,
		logg:           params.Logger,
		metrics:        params.Metrics,
		platformEmail:  params.PlatformAccountEmail,
		lockTTL:        params.LockTTL,
		warnOnNegative: params.WarnOnNegativePlatformRemainder,
	}, nil
}

// Distribute settles one order's commissions. The whole distribution commits
// or rolls back as a unit; a repeat call returns ErrAlreadyDistributed.
func (s *service) Distribute(ctx context.Context, orderID uuid.UUID) (*DistributionResult, error) {
	started := time.Now()
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	acquired, err := s.locker.AcquireLock(ctx, lockScope, orderID.String(), s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquiring distribution lock")
	}
	if !acquired {
		s.metrics.ObserveDistribution("locked", time.Since(started))
		return nil, ErrDistributionInProgress
	}
	defer func() {
		if err := s.locker.ReleaseLock(ctx, lockScope, orderID.String()); err != nil {
			s.logg.Error(ctx, "releasing distribution lock", err)
		}
	}()

	result, err := s.distributeLocked(ctx, orderID)
	switch {
	case err == nil:
		s.metrics.ObserveDistribution("success", time.Since(started))
	case errors.Is(err, ErrAlreadyDistributed):
		s.metrics.ObserveDistribution("already_distributed", time.Since(started))
	default:
		s.metrics.ObserveDistribution("error", time.Since(started))
		s.metrics.IncFailure()
	}
	return result, err
}

func (s *service) distributeLocked(ctx context.Context, orderID uuid.UUID) (*DistributionResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsSettleable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %s is %s, only complete orders can be settled", order.OrderNumber, order.Status))
	}
	if order.Business == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order has no business attached")
	}

	rates, err := s.appConfig.LoadCommissionRates(ctx)
	if err != nil {
		return nil, err
	}
	activePartners, err := s.partners.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	platformUser, err := s.users.FindByEmail(ctx, s.platformEmail)
	if err != nil {
		return nil, err
	}
	if platformUser == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "platform operator user not found")
	}

	breakdown := Calculate(CalculationInput{
		Subtotal:         order.Subtotal,
		BaseDeliveryFee:  order.BaseDeliveryFee,
		PerKmDeliveryFee: order.PerKmDeliveryFee,
		Currency:         order.Currency,
		HasAgent:         order.AssignedAgent != nil,
		AgentVerified:    order.AssignedAgent != nil && order.AssignedAgent.IsVerified,
		Rates:            rates,
		Partners:         activePartners,
	})
	if !breakdown.HasAgent {
		s.logg.Warn(ctx, "order has no assigned agent, agent delivery fee shares will go unpaid")
	}

	candidates := s.buildCandidates(order, breakdown, platformUser)

	result := &DistributionResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Currency:    order.Currency,
		Breakdown:   breakdown,
		Executed:    []ExecutedPayout{},
		Skipped:     []SkippedPayout{},
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledger := s.accounts.WithTx(tx)

		distribution := &models.CommissionDistribution{OrderID: order.ID}
		if err := repo.CreateDistribution(ctx, distribution); err != nil {
			return err
		}
		result.DistributionID = distribution.ID

		for _, candidate := range candidates {
			if err := s.payOne(ctx, repo, ledger, order, candidate, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"distribution_id": result.DistributionID,
		"executed":        len(result.Executed),
		"skipped":         len(result.Skipped),
	}), "commission distribution committed")
	return result, nil
}

// payoutCandidate is one planned credit before account lookup.
type payoutCandidate struct {
	userID         uuid.UUID
	recipientType  enums.RecipientType
	commissionType enums.CommissionType
	amount         decimal.Decimal
	rate           *decimal.Decimal
}

func (s *service) buildCandidates(order *models.Order, breakdown Breakdown, platformUser *models.User) []payoutCandidate {
	var candidates []payoutCandidate

	addFeeSplit := func(split FeeSplit, commissionType enums.CommissionType) {
		// The agent share is computed for every order but paid only when an
		// agent actually carried it.
		if order.AssignedAgent != nil {
			candidates = append(candidates, payoutCandidate{
				userID:         order.AssignedAgent.UserID,
				recipientType:  enums.RecipientTypeAgent,
				commissionType: commissionType,
				amount:         split.AgentAmount,
				rate:           ratePtr(split.AgentRate),
			})
		}
		for _, share := range split.PartnerShares {
			candidates = append(candidates, payoutCandidate{
				userID:         share.UserID,
				recipientType:  enums.RecipientTypePartner,
				commissionType: commissionType,
				amount:         share.Amount,
				rate:           ratePtr(share.Rate),
			})
		}
		candidates = append(candidates, payoutCandidate{
			userID:         platformUser.ID,
			recipientType:  enums.RecipientTypeRendaSua,
			commissionType: commissionType,
			amount:         split.PlatformAmount,
		})
	}

	addFeeSplit(breakdown.BaseDelivery, enums.CommissionTypeBaseDeliveryFee)
	addFeeSplit(breakdown.PerKmDelivery, enums.CommissionTypePerKmDeliveryFee)

	for _, share := range breakdown.Item.PartnerShares {
		candidates = append(candidates, payoutCandidate{
			userID:         share.UserID,
			recipientType:  enums.RecipientTypePartner,
			commissionType: enums.CommissionTypeItemSale,
			amount:         share.Amount,
			rate:           ratePtr(share.Rate),
		})
	}
	candidates = append(candidates, payoutCandidate{
		userID:         platformUser.ID,
		recipientType:  enums.RecipientTypeRendaSua,
		commissionType: enums.CommissionTypeItemSale,
		amount:         breakdown.Item.PlatformAmount,
		rate:           ratePtr(breakdown.Item.PlatformRate),
	})

	candidates = append(candidates, payoutCandidate{
		userID:         order.Business.UserID,
		recipientType:  enums.RecipientTypeBusiness,
		commissionType: enums.CommissionTypeOrderSubtotal,
		amount:         breakdown.Item.BusinessAmount,
	})

	// The platform banks its full subtotal cut here; the item_sale payout
	// above settles only what remains of that cut after the partner shares.
	candidates = append(candidates, payoutCandidate{
		userID:         platformUser.ID,
		recipientType:  enums.RecipientTypeRendaSua,
		commissionType: enums.CommissionTypeOrderSubtotal,
		amount:         breakdown.Item.PlatformCut,
		rate:           ratePtr(breakdown.Item.PlatformRate),
	})

	return candidates
}

// payOne credits a single candidate inside the distribution transaction.
// Non-positive amounts are never paid. A recipient without an account in the
// order currency is skipped with a warning instead of failing the whole run.
func (s *service) payOne(ctx context.Context, repo Repository, ledger accounts.Service, order *models.Order, candidate payoutCandidate, result *DistributionResult) error {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"recipient_type":  candidate.recipientType,
		"commission_type": candidate.commissionType,
		"amount":          candidate.amount,
	})

	if !candidate.amount.IsPositive() {
		if candidate.amount.IsNegative() && s.warnOnNegative {
			s.logg.Warn(ctx, "negative platform remainder, partner rates overcommit this split")
		}
		return nil
	}

	account, err := ledger.GetAccount(ctx, candidate.userID, order.Currency)
	if err != nil {
		return err
	}
	if account == nil {
		s.logg.Warn(ctx, "recipient has no account in order currency, skipping payout")
		s.metrics.IncSkipped(string(candidate.recipientType))
		result.Skipped = append(result.Skipped, SkippedPayout{
			RecipientUserID: candidate.userID,
			RecipientType:   candidate.recipientType,
			CommissionType:  candidate.commissionType,
			Amount:          candidate.amount,
			Reason:          "no_account",
		})
		return nil
	}

	orderID := order.ID
	txn, err := ledger.RegisterTransaction(ctx, accounts.RegisterTransactionInput{
		AccountID:   account.ID,
		Amount:      candidate.amount,
		Type:        enums.TransactionTypeDeposit,
		Memo:        fmt.Sprintf("Commission payment for order %s (%s)", order.OrderNumber, candidate.commissionType),
		ReferenceID: &orderID,
	})
	if err != nil {
		return err
	}

	payout := &models.CommissionPayout{
		OrderID:              order.ID,
		RecipientUserID:      candidate.userID,
		RecipientType:        candidate.recipientType,
		CommissionType:       candidate.commissionType,
		Amount:               candidate.amount,
		Currency:             order.Currency,
		CommissionPercentage: candidate.rate,
		AccountTransactionID: txn.ID,
	}
	if err := repo.CreatePayout(ctx, payout); err != nil {
		return err
	}

	s.metrics.IncPayout(string(candidate.recipientType), string(candidate.commissionType), string(order.Currency), candidate.amount)
	result.Executed = append(result.Executed, ExecutedPayout{
		PayoutID:        payout.ID,
		TransactionID:   txn.ID,
		RecipientUserID: candidate.userID,
		RecipientType:   candidate.recipientType,
		CommissionType:  candidate.commissionType,
		Amount:          candidate.amount,
	})
	return nil
}

// Preview computes the breakdown without writing anything or taking the lock.
func (s *service) Preview(ctx context.Context, orderID uuid.UUID) (*PreviewResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	rates, err := s.appConfig.LoadCommissionRates(ctx)
	if err != nil {
		return nil, err
	}
	activePartners, err := s.partners.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindDistributionByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	breakdown := Calculate(CalculationInput{
		Subtotal:         order.Subtotal,
		BaseDeliveryFee:  order.BaseDeliveryFee,
		PerKmDeliveryFee: order.PerKmDeliveryFee,
		Currency:         order.Currency,
		HasAgent:         order.AssignedAgent != nil,
		AgentVerified:    order.AssignedAgent != nil && order.AssignedAgent.IsVerified,
		Rates:            rates,
		Partners:         activePartners,
	})

	return &PreviewResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Distributed: existing != nil,
		Breakdown:   breakdown,
	}, nil
}

// ListPayouts returns the audit rows for an order, paged oldest first.
func (s *service) ListPayouts(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.CommissionPayout, string, error) {
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, "", err
	}
	return s.repo.ListPayoutsByOrder(ctx, orderID, params)
}

func ratePtr(rate decimal.Decimal) *decimal.Decimal {
	return &rate
}
