package memberships

import (
	"time"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// MembershipView is the per-user display model derived from the resolved record.
// It is rebuilt on every load and never persisted.
type MembershipView struct {
	ID              domain.MembershipID
	MecaID          *int
	Category        domain.Category
	TypeName        string
	HasTeamAddon    bool
	PaymentStatus   domain.PaymentStatus
	AccountType     domain.AccountType
	EndDate         *time.Time
	AutoRenewStatus domain.AutoRenewStatus
	Secondaries     []SecondaryInfo
}

// MemberView is one row of the member console.
type MemberView struct {
	Profile    domain.Profile
	Membership *MembershipView

	// MasterProfileName is set for secondary profiles whose master profile was loaded.
	MasterProfileName string
}

// Roster is the full output of one build pass.
type Roster struct {
	Members []MemberView
	// Orphans holds every secondary not nested under some member row.
	Orphans []SecondaryInfo

	TotalMemberships int
}

// Build merges profiles with their resolved memberships.
//
// Output order follows profiles. Build does not modify its inputs and returns
// identical output for identical input.
func Build(profiles []domain.Profile, records []domain.Membership) Roster {
	resolved := Resolve(records)
	attached := Attach(records)

	names := make(map[domain.UserID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.FullName()
	}

	winners := make(map[domain.MembershipID]struct{}, len(resolved))
	for _, r := range resolved {
		if r.Record.AccountType.CanBeMaster() {
			winners[r.Record.ID] = struct{}{}
		}
	}

	members := make([]MemberView, 0, len(profiles))
	for _, p := range profiles {
		mv := MemberView{Profile: p}
		if r, ok := resolved[p.ID]; ok {
			mv.Membership = membershipView(r, attached)
		}
		if p.MasterProfileID != nil {
			mv.MasterProfileName = names[*p.MasterProfileID]
		}
		members = append(members, mv)
	}

	return Roster{
		Members:          members,
		Orphans:          withLosingMasters(attached, winners),
		TotalMemberships: len(records),
	}
}

// withLosingMasters adds to the orphan list every secondary attached to a
// master that is not its owner's resolved record, such as a user's second
// master membership. Those secondaries would otherwise show under no row.
func withLosingMasters(a Attachment, winners map[domain.MembershipID]struct{}) []SecondaryInfo {
	out := append([]SecondaryInfo{}, a.Orphans...)
	moved := false
	for masterID, ss := range a.ByMaster {
		if _, ok := winners[masterID]; ok {
			continue
		}
		out = append(out, ss...)
		moved = true
	}
	if moved {
		sortSecondaries(out)
	}
	return out
}

func membershipView(r Resolution, a Attachment) *MembershipView {
	m := r.Record
	v := &MembershipView{
		ID:              m.ID,
		MecaID:          cloneIntPtr(m.MecaID),
		Category:        m.Category,
		TypeName:        m.MembershipTypeName,
		HasTeamAddon:    r.HasTeamAddon,
		PaymentStatus:   m.PaymentStatus,
		AccountType:     m.AccountType,
		EndDate:         cloneTimePtr(m.EndDate),
		AutoRenewStatus: r.AutoRenew,
		Secondaries:     []SecondaryInfo{},
	}
	if m.AccountType.CanBeMaster() {
		v.Secondaries = a.SecondariesOf(m.ID)
	}
	return v
}
