package memberships

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	memclock "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/clock"
	memmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershipstore"
	memtypes "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershiptypes"
	memprofilestore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/profilestore"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/logging"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

type fixture struct {
	svc         *Service
	profiles    *memprofilestore.Repo
	memberships *memmembershipstore.Repo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := memclock.NewManualClock(baseTime)
	profiles := memprofilestore.NewRepo(clk).WithHashCost(bcrypt.MinCost)
	ms := memmembershipstore.NewRepo(clk, memtypes.NewDefaultCatalog(), profiles, memmembershipstore.Options{})
	return fixture{
		svc:         NewService(profiles, ms, clk),
		profiles:    profiles,
		memberships: ms,
	}
}

func (f fixture) seed(t *testing.T, ps []domain.Profile, ms []domain.Membership) {
	t.Helper()
	ctx := context.Background()
	for _, p := range ps {
		require.NoError(t, f.profiles.Insert(ctx, p))
	}
	for _, m := range ms {
		require.NoError(t, f.memberships.Insert(ctx, m))
	}
}

func TestService_RosterLogsOrphans(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t,
		[]domain.Profile{profile("U1", "Alice", "Anders"), profile("U2", "Bob", "Brown")},
		[]domain.Membership{
			record("M1", "U1", master()),
			record("S1", "U2", secondaryOf("GONE")),
		},
	)

	logger, hook := logtest.NewNullLogger()
	ctx := logging.WithLogger(context.Background(), logrus.NewEntry(logger))

	r, err := f.svc.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, r.Members, 2)
	require.Len(t, r.Orphans, 1)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.WarnLevel, entry.Level)
	require.Equal(t, "S1", entry.Data["membership_id"])
	require.Equal(t, "GONE", entry.Data["master_membership_id"])
}

func TestService_ListMembersAppliesQuery(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t,
		[]domain.Profile{profile("U1", "Alice", "Anders"), profile("U2", "Bob", "Brown")},
		[]domain.Membership{record("M1", "U1", master())},
	)

	got, err := f.svc.ListMembers(context.Background(), Query{Type: TypeFilterNone, SortBy: SortByName})
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{"U2"}, ids(got))
}

func TestService_OrphanReport(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seed(t, nil, []domain.Membership{
		record("M1", "U1", master()),
		record("S1", "U2", secondaryOf("M1")),
		record("S2", "U3", secondaryOf("M9")),
	})

	orphans, err := f.svc.OrphanReport(context.Background())
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	require.Equal(t, domain.MembershipID("S2"), orphans[0].ID)
}

type failingProfiles struct {
	profilestore.Repository
}

func (failingProfiles) ListMembers(context.Context) ([]domain.Profile, error) {
	return nil, errors.New("db down")
}

func TestService_RosterPropagatesLoadErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewService(&failingProfiles{}, f.memberships, memclock.NewManualClock(baseTime))

	_, err := svc.Roster(context.Background())
	require.ErrorContains(t, err, "list profiles: db down")
}
