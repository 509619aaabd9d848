package membershipstore

import (
	"context"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// AdminCreateInput is the operator-entered membership for an existing user.
type AdminCreateInput struct {
	UserID           domain.UserID           `validate:"required"`
	MembershipTypeID domain.MembershipTypeID `validate:"required"`
	PaymentMethod    domain.PaymentMethod    `validate:"required,oneof=cash check credit_card_invoice complimentary"`

	CompetitorName *string
	Vehicle        *domain.Vehicle

	HasTeamAddon    bool
	TeamName        *string
	TeamDescription *string

	BusinessName     *string
	BusinessWebsite  *string `validate:"omitempty,url"`
	ManufacturerTier *domain.ManufacturerTier

	Billing *domain.Billing

	CheckNumber         *string `validate:"required_if=PaymentMethod check"`
	ComplimentaryReason *string `validate:"required_if=PaymentMethod complimentary"`
	Notes               *string

	// CreateInvoice asks the store to raise an invoice and receipt alongside the membership.
	CreateInvoice bool
}

// AdminCreateResult is what the store reports back after an admin create.
type AdminCreateResult struct {
	Membership domain.Membership
	InvoiceID  *string
	Message    string
}

// CreateSecondaryInput links a new secondary membership to a master.
type CreateSecondaryInput struct {
	MembershipTypeID domain.MembershipTypeID `validate:"required"`
	CompetitorName   string                  `validate:"required"`
	Relationship     string                  `validate:"required"`

	// CreateLogin gives the secondary its own login using Email.
	CreateLogin bool
	Email       *string `validate:"omitempty,email"`

	Vehicle         *domain.Vehicle
	TeamName        *string
	TeamDescription *string
}

// Repository provides access to persisted memberships.
//
// Result ordering expectations:
// - ListAll returns paid and pending records ordered by CreatedAt descending, then ID.
type Repository interface {
	ListAll(ctx context.Context) ([]domain.Membership, error)

	// GetActiveForUser returns the user's current membership, or ErrNotFound.
	GetActiveForUser(ctx context.Context, userID domain.UserID) (domain.Membership, error)

	AdminCreate(ctx context.Context, in AdminCreateInput) (AdminCreateResult, error)
	CreateSecondary(ctx context.Context, masterID domain.MembershipID, in CreateSecondaryInput) (domain.Membership, error)
}
