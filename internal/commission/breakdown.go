package commission

import (
	"github.com/google/uuid"
	"github.com/rendasua/settlement-backend/internal/appconfig"
	"github.com/rendasua/settlement-backend/pkg/db/models"
	"github.com/rendasua/settlement-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PartnerShare is one partner's cut of a split.
type PartnerShare struct {
	PartnerID   uuid.UUID       `json:"partner_id"`
	UserID      uuid.UUID       `json:"user_id"`
	CompanyName string          `json:"company_name"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// FeeSplit divides a delivery fee between the agent, the active partners and
// the platform. Agent and partner cuts are independent percentages of the
// same fee; the platform keeps whatever is left.
type FeeSplit struct {
	Fee            decimal.Decimal `json:"fee"`
	AgentRate      decimal.Decimal `json:"agent_rate"`
	AgentAmount    decimal.Decimal `json:"agent_amount"`
	PartnerShares  []PartnerShare  `json:"partner_shares"`
	PlatformAmount decimal.Decimal `json:"platform_amount"`
}

// ItemSplit divides the order subtotal. The platform takes its commission cut
// off the subtotal and the business receives the rest. Partner percentages
// here apply to the platform's cut, not to the subtotal.
type ItemSplit struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	PlatformRate   decimal.Decimal `json:"platform_rate"`
	PlatformCut    decimal.Decimal `json:"platform_cut"`
	BusinessAmount decimal.Decimal `json:"business_amount"`
	PartnerShares  []PartnerShare  `json:"partner_shares"`
	PlatformAmount decimal.Decimal `json:"platform_amount"`
}

// Breakdown is the full money plan for one order, computed before any row is
// written so the same numbers serve preview and execution.
type Breakdown struct {
	Currency      enums.Currency `json:"currency"`
	HasAgent      bool           `json:"has_agent"`
	AgentVerified bool           `json:"agent_verified"`
	BaseDelivery  FeeSplit       `json:"base_delivery"`
	PerKmDelivery FeeSplit       `json:"per_km_delivery"`
	Item          ItemSplit      `json:"item"`
}

// CalculationInput carries everything Calculate needs. It holds plain values
// so the calculator stays free of database types beyond the partner rows.
type CalculationInput struct {
	Subtotal         decimal.Decimal
	BaseDeliveryFee  decimal.Decimal
	PerKmDeliveryFee decimal.Decimal
	Currency         enums.Currency
	HasAgent         bool
	AgentVerified    bool
	Rates            appconfig.CommissionRates
	Partners         []models.Partner
}

// Calculate computes the breakdown for one order against a single rate
// snapshot. It performs no I/O and never mutates its input.
func Calculate(input CalculationInput) Breakdown {
	baseRate := input.Rates.UnverifiedAgentBaseDeliveryCommission
	perKmRate := input.Rates.UnverifiedAgentPerKmDeliveryCommission
	if input.AgentVerified {
		baseRate = input.Rates.VerifiedAgentBaseDeliveryCommission
		perKmRate = input.Rates.VerifiedAgentPerKmDeliveryCommission
	}

	return Breakdown{
		Currency:      input.Currency,
		HasAgent:      input.HasAgent,
		AgentVerified: input.AgentVerified,
		BaseDelivery: splitFee(input.BaseDeliveryFee, baseRate, input.Partners, func(p models.Partner) decimal.Decimal {
			return p.BaseDeliveryFeeCommission
		}),
		PerKmDelivery: splitFee(input.PerKmDeliveryFee, perKmRate, input.Partners, func(p models.Partner) decimal.Decimal {
			return p.PerKmDeliveryFeeCommission
		}),
		Item: splitItem(input.Subtotal, input.Rates.ItemCommissionPercentage, input.Partners),
	}
}

func splitFee(fee, agentRate decimal.Decimal, partners []models.Partner, rateOf func(models.Partner) decimal.Decimal) FeeSplit {
	agentAmount := percentage(fee, agentRate)

	shares := make([]PartnerShare, 0, len(partners))
	partnerTotal := decimal.Zero
	for _, p := range partners {
		rate := rateOf(p)
		amount := percentage(fee, rate)
		partnerTotal = partnerTotal.Add(amount)
		shares = append(shares, PartnerShare{
			PartnerID:   p.ID,
			UserID:      p.UserID,
			CompanyName: p.CompanyName,
			Rate:        rate,
			Amount:      amount,
		})
	}

	return FeeSplit{
		Fee:            fee,
		AgentRate:      agentRate,
		AgentAmount:    agentAmount,
		PartnerShares:  shares,
		PlatformAmount: fee.Sub(agentAmount).Sub(partnerTotal),
	}
}

func splitItem(subtotal, platformRate decimal.Decimal, partners []models.Partner) ItemSplit {
	platformCut := percentage(subtotal, platformRate)

	shares := make([]PartnerShare, 0, len(partners))
	partnerTotal := decimal.Zero
	for _, p := range partners {
		amount := percentage(platformCut, p.ItemCommission)
		partnerTotal = partnerTotal.Add(amount)
		shares = append(shares, PartnerShare{
			PartnerID:   p.ID,
			UserID:      p.UserID,
			CompanyName: p.CompanyName,
			Rate:        p.ItemCommission,
			Amount:      amount,
		})
	}

	return ItemSplit{
		Subtotal:       subtotal,
		PlatformRate:   platformRate,
		PlatformCut:    platformCut,
		BusinessAmount: subtotal.Sub(platformCut),
		PartnerShares:  shares,
		PlatformAmount: platformCut.Sub(partnerTotal),
	}
}

// percentage rounds to cents so every executed payout is representable in the
// ledger. Remainders absorb the rounding, keeping each split's sum exact.
func percentage(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}
