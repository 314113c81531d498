package commission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/pkg/db/models"
	pkgerrors "github.com/rendasua/settlement-backend/pkg/errors"
	"github.com/rendasua/settlement-backend/pkg/pagination"
	"gorm.io/gorm"
)

// ErrAlreadyDistributed reports that commissions for the order were settled by
// an earlier run.
var ErrAlreadyDistributed = pkgerrors.New(pkgerrors.CodeConflict, "commissions already distributed for this order")

// Repository persists distribution markers and payout audit rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateDistribution(ctx context.Context, distribution *models.CommissionDistribution) error
	FindDistributionByOrder(ctx context.Context, orderID uuid.UUID) (*models.CommissionDistribution, error)
	CreatePayout(ctx context.Context, payout *models.CommissionPayout) error
	ListPayoutsByOrder(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.CommissionPayout, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a commission repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateDistribution inserts the settlement marker for an order. The unique
// order_id constraint turns a repeat insert into ErrAlreadyDistributed.
func (r *repository) CreateDistribution(ctx context.Context, distribution *models.CommissionDistribution) error {
	err := r.db.WithContext(ctx).Create(distribution).Error
	if pkgerrors.IsUniqueViolation(err) {
		return ErrAlreadyDistributed
	}
	return err
}

func (r *repository) FindDistributionByOrder(ctx context.Context, orderID uuid.UUID) (*models.CommissionDistribution, error) {
	var distribution models.CommissionDistribution
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&distribution).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &distribution, nil
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.CommissionPayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

// ListPayoutsByOrder pages through an order's payout rows oldest first.
func (r *repository) ListPayoutsByOrder(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.CommissionPayout, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.CommissionPayout
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		}.Encode()
	}
	return rows, nextCursor, nil
}
