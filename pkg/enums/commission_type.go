package enums

import "fmt"

// CommissionType identifies which fee component a payout settles. Maps to the
// commission_type_enum enum in Postgres.
type CommissionType string

const (
	CommissionTypeBaseDeliveryFee  CommissionType = "base_delivery_fee"
	CommissionTypePerKmDeliveryFee CommissionType = "per_km_delivery_fee"
	CommissionTypeItemSale         CommissionType = "item_sale"
	CommissionTypeOrderSubtotal    CommissionType = "order_subtotal"
)

var validCommissionTypes = []CommissionType{
	CommissionTypeBaseDeliveryFee,
	CommissionTypePerKmDeliveryFee,
	CommissionTypeItemSale,
	CommissionTypeOrderSubtotal,
}

// IsValid reports whether the value matches the canonical commission enum.
func (t CommissionType) IsValid() bool {
	for _, candidate := range validCommissionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCommissionType converts raw input into CommissionType.
func ParseCommissionType(value string) (CommissionType, error) {
	for _, candidate := range validCommissionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission type %q", value)
}
