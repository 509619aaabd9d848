package membershiptypes

import (
	"context"
	"errors"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// ErrNotFound indicates the requested membership type does not exist.
var ErrNotFound = errors.New("membership type not found")

// Catalog lists the membership types an operator can assign.
//
// ListActive returns active types ordered by DisplayOrder, then Name.
type Catalog interface {
	ListActive(ctx context.Context) ([]domain.MembershipType, error)
	GetByID(ctx context.Context, id domain.MembershipTypeID) (domain.MembershipType, error)
}
