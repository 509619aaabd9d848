package memberships

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

func rosterFixture() []MemberView {
	mecaA, mecaB := 700002, 700001
	past := baseTime.Add(-time.Hour)

	alice := profile("U1", "alice", "Anders")
	alice.MecaID = &mecaA
	alice.CreatedAt = baseTime.Add(time.Hour)

	bob := profile("U2", "Bob", "Brown")
	bob.MecaID = &mecaB
	bob.Role = domain.RoleAdmin

	carol := profile("U3", "Carol", "Cole")
	carol.IsSecondaryAccount = true
	carol.CreatedAt = baseTime.Add(2 * time.Hour)

	dave := profile("U4", "Dave", "Dunn")
	dave.CreatedAt = baseTime.Add(-time.Hour)

	return []MemberView{
		{Profile: alice, Membership: &MembershipView{Category: domain.CategoryCompetitor, HasTeamAddon: true, PaymentStatus: domain.PaymentStatusPaid}},
		{Profile: bob, Membership: &MembershipView{Category: domain.CategoryRetail, PaymentStatus: domain.PaymentStatusPaid, EndDate: &past}},
		{Profile: carol, Membership: &MembershipView{Category: domain.CategoryCompetitor, PaymentStatus: domain.PaymentStatusPending, AccountType: domain.AccountTypeSecondary}},
		{Profile: dave},
	}
}

func ids(ms []MemberView) []domain.UserID {
	out := make([]domain.UserID, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Profile.ID)
	}
	return out
}

func mustQuery(t *testing.T, raw RawQuery) Query {
	t.Helper()
	q, err := ParseQuery(raw)
	require.NoError(t, err)
	return q
}

func TestApply_DefaultsHideSecondaryProfilesAndSortByFirstName(t *testing.T) {
	t.Parallel()

	got := Apply(rosterFixture(), mustQuery(t, RawQuery{}), baseTime)
	require.Equal(t, []domain.UserID{"U1", "U2", "U4"}, ids(got))
}

func TestApply_IncludeSecondaryProfiles(t *testing.T) {
	t.Parallel()

	got := Apply(rosterFixture(), mustQuery(t, RawQuery{IncludeSecondaryProfiles: true}), baseTime)
	require.Equal(t, []domain.UserID{"U1", "U2", "U3", "U4"}, ids(got))
}

func TestApply_Search(t *testing.T) {
	t.Parallel()

	members := rosterFixture()
	require.Equal(t, []domain.UserID{"U1"}, ids(Apply(members, mustQuery(t, RawQuery{Search: "ANDERS"}), baseTime)))
	require.Equal(t, []domain.UserID{"U2"}, ids(Apply(members, mustQuery(t, RawQuery{Search: "700001"}), baseTime)))
	require.Equal(t, []domain.UserID{"U4"}, ids(Apply(members, mustQuery(t, RawQuery{Search: "dave.dunn@"}), baseTime)))
}

func TestApply_Filters(t *testing.T) {
	t.Parallel()

	members := rosterFixture()
	cases := []struct {
		name string
		raw  RawQuery
		want []domain.UserID
	}{
		{"role", RawQuery{Role: "admin"}, []domain.UserID{"U2"}},
		{"role all", RawQuery{Role: "all"}, []domain.UserID{"U1", "U2", "U4"}},
		{"type none", RawQuery{Type: "none"}, []domain.UserID{"U4"}},
		{"type competitor team", RawQuery{Type: "competitor_team"}, []domain.UserID{"U1"}},
		{"type retail", RawQuery{Type: "retail"}, []domain.UserID{"U2"}},
		{"status active", RawQuery{Status: "active"}, []domain.UserID{"U1"}},
		{"status expired", RawQuery{Status: "expired"}, []domain.UserID{"U2"}},
		{"status none", RawQuery{Status: "none"}, []domain.UserID{"U4"}},
		{"status pending with secondaries", RawQuery{Status: "pending", IncludeSecondaryProfiles: true}, []domain.UserID{"U3"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ids(Apply(members, mustQuery(t, tc.raw), baseTime)))
		})
	}
}

func TestApply_Sorts(t *testing.T) {
	t.Parallel()

	members := rosterFixture()
	byMeca := Apply(members, mustQuery(t, RawQuery{SortBy: "meca_id"}), baseTime)
	require.Equal(t, []domain.UserID{"U4", "U2", "U1"}, ids(byMeca))

	byCreated := Apply(members, mustQuery(t, RawQuery{SortBy: "created_at"}), baseTime)
	require.Equal(t, []domain.UserID{"U1", "U2", "U4"}, ids(byCreated))
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	members := rosterFixture()
	before := ids(members)
	_ = Apply(members, mustQuery(t, RawQuery{SortBy: "meca_id", IncludeSecondaryProfiles: true}), baseTime)
	require.Equal(t, before, ids(members))
}

func TestParseQuery_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseQuery(RawQuery{Role: "owner", Type: "vip", Status: "lapsed", SortBy: "age"})
	require.Error(t, err)

	var ae *Error
	require.True(t, errors.As(err, &ae))
	require.Equal(t, 422, ae.Status)
	require.Equal(t, "VALIDATION_ERROR", ae.Code)
	require.Contains(t, ae.Details, "role")
	require.Contains(t, ae.Details, "type")
	require.Contains(t, ae.Details, "status")
	require.Contains(t, ae.Details, "sortBy")
}

func TestParseQuery_Defaults(t *testing.T) {
	t.Parallel()

	q := mustQuery(t, RawQuery{Search: "  bob  ", Type: "all", Status: "all"})
	require.Equal(t, "bob", q.Search)
	require.Equal(t, TypeFilterAll, q.Type)
	require.Nil(t, q.Status)
	require.Nil(t, q.Role)
	require.Equal(t, SortByName, q.SortBy)
}
