package memberships

import (
	"sort"
	"time"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// SecondaryInfo is the nested display shape of a secondary membership.
type SecondaryInfo struct {
	ID                 domain.MembershipID
	UserID             domain.UserID
	CompetitorName     string
	MecaID             *int
	Category           domain.Category
	HasTeamAddon       bool
	PaymentStatus      domain.PaymentStatus
	EndDate            *time.Time
	CreatedAt          time.Time
	MasterMembershipID *domain.MembershipID
	HasOwnLogin        bool
}

// Attachment is the reconstructed master→secondary tree.
//
// Every secondary record lands in exactly one place: under a surviving master
// in ByMaster, or in Orphans.
type Attachment struct {
	ByMaster map[domain.MembershipID][]SecondaryInfo
	Orphans  []SecondaryInfo
}

// SecondariesOf returns a copy of the secondaries attached to masterID, never nil.
func (a Attachment) SecondariesOf(masterID domain.MembershipID) []SecondaryInfo {
	src := a.ByMaster[masterID]
	out := make([]SecondaryInfo, len(src))
	copy(out, src)
	return out
}

// Attach groups secondary records under their masters.
//
// A master survives when it is not itself a secondary and was not dropped as
// an upgrade-only record of a user who owns a base membership. A secondary
// whose master does not survive (or that names no master at all) is an orphan.
// The result does not depend on the order of records.
func Attach(records []domain.Membership) Attachment {
	survivors := survivingMasters(records)

	out := Attachment{
		ByMaster: make(map[domain.MembershipID][]SecondaryInfo),
		Orphans:  []SecondaryInfo{},
	}
	for _, m := range records {
		if !m.IsSecondary() {
			continue
		}
		info := secondaryInfo(m)
		if m.MasterMembershipID == nil {
			out.Orphans = append(out.Orphans, info)
			continue
		}
		if _, ok := survivors[*m.MasterMembershipID]; !ok {
			out.Orphans = append(out.Orphans, info)
			continue
		}
		out.ByMaster[*m.MasterMembershipID] = append(out.ByMaster[*m.MasterMembershipID], info)
	}

	for id := range out.ByMaster {
		sortSecondaries(out.ByMaster[id])
	}
	sortSecondaries(out.Orphans)
	return out
}

func survivingMasters(records []domain.Membership) map[domain.MembershipID]struct{} {
	byUser, _ := groupByUser(records)
	out := make(map[domain.MembershipID]struct{})
	for _, all := range byUser {
		for _, m := range candidatesFor(all) {
			if m.AccountType.CanBeMaster() {
				out[m.ID] = struct{}{}
			}
		}
	}
	return out
}

func secondaryInfo(m domain.Membership) SecondaryInfo {
	name := m.CompetitorName
	if name == "" {
		name = "Unknown"
	}
	return SecondaryInfo{
		ID:                 m.ID,
		UserID:             m.UserID,
		CompetitorName:     name,
		MecaID:             cloneIntPtr(m.MecaID),
		Category:           m.Category,
		HasTeamAddon:       m.HasTeamAddon,
		PaymentStatus:      m.PaymentStatus,
		EndDate:            cloneTimePtr(m.EndDate),
		CreatedAt:          m.CreatedAt,
		MasterMembershipID: cloneMembershipIDPtr(m.MasterMembershipID),
		HasOwnLogin:        m.HasOwnLogin,
	}
}

// sortSecondaries orders newest first, then by ID for a stable tie-break.
func sortSecondaries(ss []SecondaryInfo) {
	sort.Slice(ss, func(i, j int) bool {
		if !ss[i].CreatedAt.Equal(ss[j].CreatedAt) {
			return ss[i].CreatedAt.After(ss[j].CreatedAt)
		}
		return ss[i].ID < ss[j].ID
	})
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMembershipIDPtr(p *domain.MembershipID) *domain.MembershipID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
