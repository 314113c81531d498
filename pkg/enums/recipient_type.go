package enums

import "fmt"

// RecipientType maps to the recipient_type_enum enum in Postgres.
type RecipientType string

const (
	RecipientTypeAgent    RecipientType = "agent"
	RecipientTypePartner  RecipientType = "partner"
	RecipientTypeRendaSua RecipientType = "rendasua"
	RecipientTypeBusiness RecipientType = "business"
)

var validRecipientTypes = []RecipientType{
	RecipientTypeAgent,
	RecipientTypePartner,
	RecipientTypeRendaSua,
	RecipientTypeBusiness,
}

// IsValid reports whether the value matches the canonical recipient enum.
func (t RecipientType) IsValid() bool {
	for _, candidate := range validRecipientTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseRecipientType converts raw input into RecipientType.
func ParseRecipientType(value string) (RecipientType, error) {
	for _, candidate := range validRecipientTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recipient type %q", value)
}
