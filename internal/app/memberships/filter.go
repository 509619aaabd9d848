package memberships

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

type TypeFilter string

const (
	TypeFilterAll            TypeFilter = "all"
	TypeFilterNone           TypeFilter = "none"
	TypeFilterCompetitorTeam TypeFilter = "competitor_team"
)

type SortBy string

const (
	SortByName      SortBy = "name"
	SortByMecaID    SortBy = "meca_id"
	SortByCreatedAt SortBy = "created_at"
)

// Query narrows and orders the member list.
type Query struct {
	Search string
	Role   *domain.Role
	// Type is TypeFilterAll, TypeFilterNone, TypeFilterCompetitorTeam or a category name.
	Type   TypeFilter
	Status *Status
	SortBy SortBy

	IncludeSecondaryProfiles bool
}

// RawQuery carries unparsed filter values, e.g. from URL query parameters.
// Empty strings and "all" mean no filter.
type RawQuery struct {
	Search string
	Role   string
	Type   string
	Status string
	SortBy string

	IncludeSecondaryProfiles bool
}

func ParseQuery(in RawQuery) (Query, error) {
	q := Query{
		Search:                   strings.TrimSpace(in.Search),
		Type:                     TypeFilterAll,
		SortBy:                   SortByName,
		IncludeSecondaryProfiles: in.IncludeSecondaryProfiles,
	}
	details := map[string]any{}

	if r := strings.TrimSpace(in.Role); r != "" && r != "all" {
		role := domain.Role(r)
		switch role {
		case domain.RoleUser, domain.RoleAdmin, domain.RoleEventDirector, domain.RoleJudge:
			q.Role = &role
		default:
			details["role"] = "unknown role"
		}
	}

	switch t := strings.TrimSpace(in.Type); t {
	case "", string(TypeFilterAll):
	case string(TypeFilterNone), string(TypeFilterCompetitorTeam):
		q.Type = TypeFilter(t)
	default:
		if _, err := domain.ParseCategory(t); err != nil {
			details["type"] = err.Error()
		} else {
			q.Type = TypeFilter(t)
		}
	}

	if s := strings.TrimSpace(in.Status); s != "" && s != "all" {
		st, err := ParseStatus(s)
		if err != nil {
			details["status"] = err.Error()
		} else {
			q.Status = &st
		}
	}

	switch s := SortBy(strings.TrimSpace(in.SortBy)); s {
	case "":
	case SortByName, SortByMecaID, SortByCreatedAt:
		q.SortBy = s
	default:
		details["sortBy"] = "must be one of name, meca_id, created_at"
	}

	if len(details) > 0 {
		return Query{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid member query",
			Details: details,
		}
	}
	return q, nil
}

// Apply filters and sorts members. The input slice is not modified.
func Apply(members []MemberView, q Query, now time.Time) []MemberView {
	fold := cases.Fold()
	term := fold.String(q.Search)

	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		if !q.IncludeSecondaryProfiles && m.Profile.IsSecondaryAccount {
			continue
		}
		if term != "" && !matchesSearch(m.Profile, term, fold) {
			continue
		}
		if q.Role != nil && m.Profile.Role != *q.Role {
			continue
		}
		if !matchesType(m.Membership, q.Type) {
			continue
		}
		if q.Status != nil && DerivedStatus(m.Membership, now) != *q.Status {
			continue
		}
		out = append(out, m)
	}

	sortMembers(out, q.SortBy, fold)
	return out
}

func matchesSearch(p domain.Profile, term string, fold cases.Caser) bool {
	if strings.Contains(fold.String(p.FirstName), term) ||
		strings.Contains(fold.String(p.LastName), term) ||
		strings.Contains(fold.String(p.Email), term) {
		return true
	}
	return p.MecaID != nil && strings.Contains(strconv.Itoa(*p.MecaID), term)
}

func matchesType(v *MembershipView, f TypeFilter) bool {
	switch f {
	case TypeFilterAll, "":
		return true
	case TypeFilterNone:
		return v == nil
	case TypeFilterCompetitorTeam:
		return v != nil && v.Category == domain.CategoryCompetitor && v.HasTeamAddon
	default:
		return v != nil && string(v.Category) == string(f)
	}
}

func sortMembers(ms []MemberView, by SortBy, fold cases.Caser) {
	switch by {
	case SortByMecaID:
		sort.SliceStable(ms, func(i, j int) bool {
			return mecaOrZero(ms[i].Profile.MecaID) < mecaOrZero(ms[j].Profile.MecaID)
		})
	case SortByCreatedAt:
		sort.SliceStable(ms, func(i, j int) bool {
			return ms[i].Profile.CreatedAt.After(ms[j].Profile.CreatedAt)
		})
	default:
		sort.SliceStable(ms, func(i, j int) bool {
			return fold.String(ms[i].Profile.FirstName) < fold.String(ms[j].Profile.FirstName)
		})
	}
}

func mecaOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
