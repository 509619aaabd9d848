package memberships

import (
	"fmt"
	"time"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// Status is the membership state shown in the console, derived from payment and end date.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusPending Status = "pending"
	StatusNone    Status = "none"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusExpired, StatusPending, StatusNone:
		return st, nil
	default:
		return "", fmt.Errorf("unknown membership status %q", s)
	}
}

// DerivedStatus reports pending before expiry: an unpaid record is pending even past its end date.
func DerivedStatus(v *MembershipView, now time.Time) Status {
	if v == nil {
		return StatusNone
	}
	if v.PaymentStatus == domain.PaymentStatusPending {
		return StatusPending
	}
	if v.EndDate != nil && v.EndDate.Before(now) {
		return StatusExpired
	}
	if v.PaymentStatus == domain.PaymentStatusPaid {
		return StatusActive
	}
	return StatusNone
}

// TypeLabel is the membership type column text, e.g. "Competitor + Team".
func TypeLabel(v *MembershipView) string {
	if v == nil {
		return "None"
	}
	label := v.Category.DisplayName()
	if v.Category == domain.CategoryCompetitor && v.HasTeamAddon {
		return label + " + Team"
	}
	return label
}
