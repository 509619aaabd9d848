package profilestore

import (
	"context"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// CreateWithPasswordInput creates a login-capable profile.
type CreateWithPasswordInput struct {
	Email     string      `validate:"required,email"`
	Password  string      `validate:"required,min=8,max=72"`
	FirstName string      `validate:"required"`
	LastName  string      `validate:"required"`
	Phone     *string     `validate:"omitempty"`
	Role      domain.Role `validate:"required,oneof=user admin event_director judge"`
	// MecaID carries a number migrated from the previous system.
	MecaID *int `validate:"omitempty,min=100000,max=999999"`

	ForcePasswordChange bool
	// SendEmail asks the store to mail credentials; it is ignored when no mail service is configured.
	SendEmail bool
}

// Repository provides access to persisted profiles.
//
// Result ordering expectations:
// - ListMembers returns profiles ordered by CreatedAt descending (newest first), then ID.
// - Search returns matches ordered by last name, first name, then ID.
type Repository interface {
	ListMembers(ctx context.Context) ([]domain.Profile, error)
	GetByID(ctx context.Context, id domain.UserID) (domain.Profile, error)

	// Search matches a case-insensitive, tokenized query against name and email.
	// limit <= 0 means unbounded.
	Search(ctx context.Context, query string, limit int) ([]domain.Profile, error)

	CreateWithPassword(ctx context.Context, in CreateWithPasswordInput) (domain.Profile, error)
}
