package appconfig

import (
	"context"
	"fmt"

	"github.com/rendasua/settlement-backend/pkg/config"
	"github.com/shopspring/decimal"
)

// Configuration keys for the commission rate table.
const (
	KeyItemCommissionPercentage       = "rendasua_item_commission_percentage"
	KeyUnverifiedAgentBaseCommission  = "unverified_agent_base_delivery_commission"
	KeyVerifiedAgentBaseCommission    = "verified_agent_base_delivery_commission"
	KeyUnverifiedAgentPerKmCommission = "unverified_agent_per_km_delivery_commission"
	KeyVerifiedAgentPerKmCommission   = "verified_agent_per_km_delivery_commission"
)

var commissionKeys = []string{
	KeyItemCommissionPercentage,
	KeyUnverifiedAgentBaseCommission,
	KeyVerifiedAgentBaseCommission,
	KeyUnverifiedAgentPerKmCommission,
	KeyVerifiedAgentPerKmCommission,
}

// CommissionRates is the rate snapshot one distribution runs against. Every
// split in that distribution reads from the same snapshot, so the item
// commission and subtotal splits can never disagree on the platform rate.
type CommissionRates struct {
	ItemCommissionPercentage               decimal.Decimal
	UnverifiedAgentBaseDeliveryCommission  decimal.Decimal
	VerifiedAgentBaseDeliveryCommission    decimal.Decimal
	UnverifiedAgentPerKmDeliveryCommission decimal.Decimal
	VerifiedAgentPerKmDeliveryCommission   decimal.Decimal
}

// Service loads commission rate snapshots.
type Service interface {
	LoadCommissionRates(ctx context.Context) (CommissionRates, error)
}

type service struct {
	repo     Repository
	defaults map[string]decimal.Decimal
}

// NewService wires a configuration reader with the fallback rates from the
// environment.
func NewService(repo Repository, cfg config.CommissionConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("configuration repository required")
	}
	return &service{
		repo: repo,
		defaults: map[string]decimal.Decimal{
			KeyItemCommissionPercentage:       decimal.NewFromFloat(cfg.DefaultItemCommissionPercent),
			KeyUnverifiedAgentBaseCommission:  decimal.NewFromFloat(cfg.DefaultUnverifiedBasePercent),
			KeyVerifiedAgentBaseCommission:    decimal.NewFromFloat(cfg.DefaultVerifiedBasePercent),
			KeyUnverifiedAgentPerKmCommission: decimal.NewFromFloat(cfg.DefaultUnverifiedPerKmPercent),
			KeyVerifiedAgentPerKmCommission:   decimal.NewFromFloat(cfg.DefaultVerifiedPerKmPercent),
		},
	}, nil
}

func (s *service) LoadCommissionRates(ctx context.Context) (CommissionRates, error) {
	rows, err := s.repo.ListByKeys(ctx, commissionKeys)
	if err != nil {
		return CommissionRates{}, fmt.Errorf("loading commission configuration: %w", err)
	}

	values := make(map[string]decimal.Decimal, len(commissionKeys))
	for key, fallback := range s.defaults {
		values[key] = fallback
	}
	for _, row := range rows {
		values[row.ConfigKey] = row.NumberValue
	}

	for key, value := range values {
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return CommissionRates{}, fmt.Errorf("commission rate %s out of range [0,100]: %s", key, value)
		}
	}

	return CommissionRates{
		ItemCommissionPercentage:               values[KeyItemCommissionPercentage],
		UnverifiedAgentBaseDeliveryCommission:  values[KeyUnverifiedAgentBaseCommission],
		VerifiedAgentBaseDeliveryCommission:    values[KeyVerifiedAgentBaseCommission],
		UnverifiedAgentPerKmDeliveryCommission: values[KeyUnverifiedAgentPerKmCommission],
		VerifiedAgentPerKmDeliveryCommission:   values[KeyVerifiedAgentPerKmCommission],
	}, nil
}
