package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	memclock "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/clock"
	memmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershipstore"
	memtypes "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershiptypes"
	memprofilestore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/profilestore"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

const strongPassword = "Str0ng!Passw0rd#2024"

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type stores struct {
	profiles    *memprofilestore.Repo
	memberships *memmembershipstore.Repo
	types       *memtypes.Catalog
}

func newStores(t *testing.T, opts memmembershipstore.Options) stores {
	t.Helper()
	clk := memclock.NewManualClock(testNow)
	profiles := memprofilestore.NewRepo(clk).WithHashCost(bcrypt.MinCost)
	types := memtypes.NewDefaultCatalog()
	return stores{
		profiles:    profiles,
		memberships: memmembershipstore.NewRepo(clk, types, profiles, opts),
		types:       types,
	}
}

func (s stores) membershipType(t *testing.T, id domain.MembershipTypeID) domain.MembershipType {
	t.Helper()
	mt, err := s.types.GetByID(context.Background(), id)
	require.NoError(t, err)
	return mt
}

// seedMaster creates a profile with a paid membership that can take secondaries.
func (s stores) seedMaster(t *testing.T, first, last, email string) MasterCandidate {
	t.Helper()
	ctx := context.Background()
	p, err := s.profiles.CreateWithPassword(ctx, profileInput(first, last, email))
	require.NoError(t, err)
	res, err := s.memberships.AdminCreate(ctx, cashMembership(p.ID))
	require.NoError(t, err)
	return MasterCandidate{Membership: res.Membership, Profile: p}
}

func competitorType() domain.MembershipType {
	return domain.MembershipType{
		ID:       "competitor",
		Name:     "Competitor",
		Category: domain.CategoryCompetitor,
		IsActive: true,
	}
}

// membershipForm is a complete, valid non-secondary competitor form.
func membershipForm() FormData {
	f := NewFormData()
	mt := competitorType()
	f.UserType = UserTypeMembership
	f.Email = "alice@example.com"
	f.FirstName = "Alice"
	f.LastName = "Smith"
	f.Password = strongPassword
	f.ConfirmPassword = strongPassword
	f.MembershipType = &mt
	f.VehicleMake = "Ford"
	f.VehicleModel = "F-150"
	f.VehicleColor = "Blue"
	f.VehicleLicensePlate = "ABC123"
	return f
}

func staffForm(role domain.StaffRole) FormData {
	f := NewFormData()
	f.UserType = UserTypeStaff
	f.Email = "judy@example.com"
	f.FirstName = "Judy"
	f.LastName = "Judge"
	f.Password = strongPassword
	f.ConfirmPassword = strongPassword
	f.StaffRole = &role
	return f
}

func profileInput(first, last, email string) profilestore.CreateWithPasswordInput {
	return profilestore.CreateWithPasswordInput{
		Email:     email,
		Password:  strongPassword,
		FirstName: first,
		LastName:  last,
		Role:      domain.RoleUser,
	}
}

func cashMembership(userID domain.UserID) membershipstore.AdminCreateInput {
	return membershipstore.AdminCreateInput{
		UserID:           userID,
		MembershipTypeID: "competitor",
		PaymentMethod:    domain.PaymentMethodCash,
	}
}
