package memberships

import (
	"time"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recordOpt func(*domain.Membership)

func record(id, user string, opts ...recordOpt) domain.Membership {
	m := domain.Membership{
		ID:                 domain.MembershipID(id),
		UserID:             domain.UserID(user),
		MembershipTypeID:   "competitor",
		MembershipTypeName: "Competitor",
		Category:           domain.CategoryCompetitor,
		CompetitorName:     "Competitor " + id,
		PaymentStatus:      domain.PaymentStatusPaid,
		AccountType:        domain.AccountTypeIndependent,
		CreatedAt:          baseTime,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func pending() recordOpt {
	return func(m *domain.Membership) { m.PaymentStatus = domain.PaymentStatusPending }
}

func master() recordOpt {
	return func(m *domain.Membership) { m.AccountType = domain.AccountTypeMaster }
}

func legacy() recordOpt {
	return func(m *domain.Membership) { m.AccountType = domain.AccountTypeLegacy }
}

func secondaryOf(masterID string) recordOpt {
	return func(m *domain.Membership) {
		m.AccountType = domain.AccountTypeSecondary
		if masterID != "" {
			id := domain.MembershipID(masterID)
			m.MasterMembershipID = &id
		}
	}
}

func upgradeOnly(name string) recordOpt {
	return func(m *domain.Membership) {
		m.IsUpgradeOnly = true
		m.MembershipTypeName = name
	}
}

func teamAddon() recordOpt {
	return func(m *domain.Membership) { m.HasTeamAddon = true }
}

func createdAt(offset time.Duration) recordOpt {
	return func(m *domain.Membership) { m.CreatedAt = baseTime.Add(offset) }
}

func category(c domain.Category) recordOpt {
	return func(m *domain.Membership) { m.Category = c }
}

func endsAt(t time.Time) recordOpt {
	return func(m *domain.Membership) { m.EndDate = &t }
}

func profile(id, first, last string) domain.Profile {
	return domain.Profile{
		ID:        domain.UserID(id),
		FirstName: first,
		LastName:  last,
		Email:     first + "." + last + "@example.com",
		Role:      domain.RoleUser,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}
