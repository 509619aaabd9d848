package memberships

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

const (
	unpaidPenalty    = 1
	secondaryPenalty = 10
	upgradePenalty   = 5
)

// Resolution is the single membership record chosen to represent a user.
type Resolution struct {
	Record domain.Membership
	Score  int

	// HasTeamAddon is true when any of the user's records carries the add-on,
	// not only the winning one.
	HasTeamAddon bool
	AutoRenew    domain.AutoRenewStatus
}

// Score ranks a record for display; lower is preferred.
func Score(m domain.Membership) int {
	s := 0
	if m.PaymentStatus != domain.PaymentStatusPaid {
		s += unpaidPenalty
	}
	if m.IsSecondary() {
		s += secondaryPenalty
	}
	if m.IsUpgradeOnly {
		s += upgradePenalty
	}
	return s
}

// Resolve picks, per user, the record with the lowest Score.
//
// Ties keep the record that appears first in records. Upgrade-only records are
// only candidates when the user has nothing else.
func Resolve(records []domain.Membership) map[domain.UserID]Resolution {
	byUser, order := groupByUser(records)
	out := make(map[domain.UserID]Resolution, len(order))
	for _, uid := range order {
		all := byUser[uid]
		candidates := candidatesFor(all)

		best := candidates[0]
		bestScore := Score(best)
		for _, c := range candidates[1:] {
			if s := Score(c); s < bestScore {
				best, bestScore = c, s
			}
		}

		out[uid] = Resolution{
			Record:       best,
			Score:        bestScore,
			HasTeamAddon: hasTeamAddon(best, all),
			AutoRenew:    best.AutoRenewStatus(),
		}
	}
	return out
}

// candidatesFor drops upgrade-only records when the user owns a base membership.
// The returned slice is never empty for a non-empty input.
func candidatesFor(all []domain.Membership) []domain.Membership {
	base := make([]domain.Membership, 0, len(all))
	for _, m := range all {
		if !m.IsUpgradeOnly {
			base = append(base, m)
		}
	}
	if len(base) == 0 {
		return all
	}
	return base
}

func groupByUser(records []domain.Membership) (map[domain.UserID][]domain.Membership, []domain.UserID) {
	byUser := make(map[domain.UserID][]domain.Membership)
	order := make([]domain.UserID, 0)
	for _, m := range records {
		if _, seen := byUser[m.UserID]; !seen {
			order = append(order, m.UserID)
		}
		byUser[m.UserID] = append(byUser[m.UserID], m)
	}
	return byUser, order
}

func hasTeamAddon(winner domain.Membership, all []domain.Membership) bool {
	if winner.HasTeamAddon {
		return true
	}
	for _, m := range all {
		if m.HasTeamAddon {
			return true
		}
	}
	// Team upgrades sold as competitor add-ons predate the has_team_addon flag;
	// the type name is the only signal they carry.
	return winner.IsUpgradeOnly &&
		winner.Category == domain.CategoryCompetitor &&
		strings.Contains(cases.Fold().String(winner.MembershipTypeName), "team")
}
