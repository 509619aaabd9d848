package domain

import (
	"fmt"
	"time"
)

type Category string

const (
	CategoryCompetitor   Category = "competitor"
	CategoryRetail       Category = "retail"
	CategoryManufacturer Category = "manufacturer"
	CategoryTeam         Category = "team"
)

// ParseCategory returns an error for anything outside the closed category set.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryCompetitor, CategoryRetail, CategoryManufacturer, CategoryTeam:
		return c, nil
	default:
		return "", fmt.Errorf("unknown membership category %q", s)
	}
}

// DisplayName is the human label used by the console ("Retailer" for retail).
func (c Category) DisplayName() string {
	switch c {
	case CategoryCompetitor:
		return "Competitor"
	case CategoryRetail:
		return "Retailer"
	case CategoryManufacturer:
		return "Manufacturer"
	case CategoryTeam:
		return "Team"
	default:
		return string(c)
	}
}

// RequiresVehicle reports whether memberships in this category must carry vehicle details.
func (c Category) RequiresVehicle() bool {
	switch c {
	case CategoryCompetitor, CategoryTeam:
		return true
	case CategoryRetail, CategoryManufacturer:
		return false
	default:
		return false
	}
}

// RequiresBusiness reports whether memberships in this category must carry a business name.
func (c Category) RequiresBusiness() bool {
	switch c {
	case CategoryRetail, CategoryManufacturer:
		return true
	case CategoryCompetitor, CategoryTeam:
		return false
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch p := PaymentStatus(s); p {
	case PaymentStatusPaid, PaymentStatusPending:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payment status %q", s)
	}
}

// AccountType classifies a membership in the master/secondary hierarchy.
// The zero value is a legacy record created before the hierarchy existed.
type AccountType string

const (
	AccountTypeLegacy      AccountType = ""
	AccountTypeMaster      AccountType = "master"
	AccountTypeIndependent AccountType = "independent"
	AccountTypeSecondary   AccountType = "secondary"
)

func ParseAccountType(s string) (AccountType, error) {
	switch a := AccountType(s); a {
	case AccountTypeLegacy, AccountTypeMaster, AccountTypeIndependent, AccountTypeSecondary:
		return a, nil
	default:
		return "", fmt.Errorf("unknown account type %q", s)
	}
}

// CanBeMaster reports whether records of this account type may have secondaries attached.
func (a AccountType) CanBeMaster() bool {
	switch a {
	case AccountTypeLegacy, AccountTypeMaster, AccountTypeIndependent:
		return true
	case AccountTypeSecondary:
		return false
	default:
		return false
	}
}

type AutoRenewStatus string

const (
	AutoRenewOn     AutoRenewStatus = "on"
	AutoRenewLegacy AutoRenewStatus = "legacy"
	AutoRenewOff    AutoRenewStatus = "off"
)

// Vehicle is optional competitor metadata. All fields are optional.
type Vehicle struct {
	Make         *string
	Model        *string
	Color        *string
	LicensePlate *string
}

// Complete reports whether all four vehicle fields are non-empty.
func (v *Vehicle) Complete() bool {
	if v == nil {
		return false
	}
	for _, p := range []*string{v.Make, v.Model, v.Color, v.LicensePlate} {
		if p == nil || *p == "" {
			return false
		}
	}
	return true
}

// Membership is one purchased or assigned membership record.
type Membership struct {
	ID     MembershipID
	UserID UserID
	MecaID *int

	MembershipTypeID   MembershipTypeID
	MembershipTypeName string
	Category           Category
	CompetitorName     string

	HasTeamAddon  bool
	PaymentStatus PaymentStatus

	AccountType        AccountType
	MasterMembershipID *MembershipID
	HasOwnLogin        bool
	IsUpgradeOnly      bool

	// RelationshipToMaster is set on secondaries only.
	RelationshipToMaster *string

	Vehicle *Vehicle

	TeamName         *string
	BusinessName     *string
	ManufacturerTier *ManufacturerTier

	StripeSubscriptionID  *string
	HadLegacySubscription bool

	CreatedAt time.Time
	EndDate   *time.Time
}

// IsSecondary reports whether the record is linked to a master.
func (m Membership) IsSecondary() bool {
	return m.AccountType == AccountTypeSecondary
}

// CheckHierarchy enforces the account-type invariants of a single record.
func (m Membership) CheckHierarchy() error {
	if m.IsSecondary() && m.MasterMembershipID == nil {
		return fmt.Errorf("secondary membership %s has no master membership id", m.ID)
	}
	if !m.IsSecondary() && m.MasterMembershipID != nil {
		return fmt.Errorf("%s membership %s must not reference a master", m.AccountType, m.ID)
	}
	return nil
}

// AutoRenewStatus derives the renewal badge from the subscription fields.
func (m Membership) AutoRenewStatus() AutoRenewStatus {
	if m.StripeSubscriptionID != nil && *m.StripeSubscriptionID != "" {
		return AutoRenewOn
	}
	if m.HadLegacySubscription {
		return AutoRenewLegacy
	}
	return AutoRenewOff
}

// Clone returns a copy that shares no pointers with m.
func (m Membership) Clone() Membership {
	out := m
	out.MecaID = clonePtr(m.MecaID)
	out.MasterMembershipID = clonePtr(m.MasterMembershipID)
	out.RelationshipToMaster = clonePtr(m.RelationshipToMaster)
	if m.Vehicle != nil {
		v := Vehicle{
			Make:         clonePtr(m.Vehicle.Make),
			Model:        clonePtr(m.Vehicle.Model),
			Color:        clonePtr(m.Vehicle.Color),
			LicensePlate: clonePtr(m.Vehicle.LicensePlate),
		}
		out.Vehicle = &v
	}
	out.TeamName = clonePtr(m.TeamName)
	out.BusinessName = clonePtr(m.BusinessName)
	out.ManufacturerTier = clonePtr(m.ManufacturerTier)
	out.StripeSubscriptionID = clonePtr(m.StripeSubscriptionID)
	out.EndDate = clonePtr(m.EndDate)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
