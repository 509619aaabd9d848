package domain

import "fmt"

// ManufacturerTier selects tiered pricing for manufacturer memberships.
type ManufacturerTier string

const (
	ManufacturerTierBronze ManufacturerTier = "bronze"
	ManufacturerTierSilver ManufacturerTier = "silver"
	ManufacturerTierGold   ManufacturerTier = "gold"
)

func ParseManufacturerTier(s string) (ManufacturerTier, error) {
	switch t := ManufacturerTier(s); t {
	case ManufacturerTierBronze, ManufacturerTierSilver, ManufacturerTierGold:
		return t, nil
	default:
		return "", fmt.Errorf("unknown manufacturer tier %q", s)
	}
}

// MembershipType is a catalog entry describing a purchasable membership.
type MembershipType struct {
	ID       MembershipTypeID
	Name     string
	Category Category
	Tier     *ManufacturerTier

	// PriceCents is the list price in the smallest currency unit.
	PriceCents int64
	Currency   string

	// IsUpgradeOnly marks an add-on purchase rather than a standalone membership.
	IsUpgradeOnly bool
	IncludesTeam  bool
	IsActive      bool

	DisplayOrder int
}
