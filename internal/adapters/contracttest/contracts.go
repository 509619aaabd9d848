package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/clock"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	clockport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/clock"
	idempotencyport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/idempotency"
	membershipstoreport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	membershiptypesport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershiptypes"
	profilestoreport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

type CleanupFunc = func()

type ProfileStoreFactory func(t *testing.T, clk clockport.Clock) (profilestoreport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

// Stores bundles the collaborators a membership store is wired to.
type Stores struct {
	Profiles    profilestoreport.Repository
	Memberships membershipstoreport.Repository
	Types       membershiptypesport.Catalog
}

type MembershipStoresFactory func(t *testing.T, clk clockport.Clock) (Stores, CleanupFunc)

const contractPassword = "Str0ng!Passw0rd#2024"

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      "k-1",
		Operator: domain.OperatorID("op-1"),
		Method:   "POST",
		Route:    "/wizard/submit",
		BodyHash: "",
	}
	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// Fingerprints differing only by operator are distinct.
	other := fp
	other.Operator = "op-2"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("expected miss for other operator, got ok=%v err=%v", ok, err)
	}
}

func RunProfileStore(t *testing.T, newRepo ProfileStoreFactory) {
	t.Helper()
	ctx := context.Background()

	clk := memclock.NewManualClock(time.Unix(1000, 0))
	repo, cleanup := newRepo(t, clk)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	mecaID := 700123
	alice, err := repo.CreateWithPassword(ctx, profilestoreport.CreateWithPasswordInput{
		Email:     "  Alice.Johnson@Example.com ",
		Password:  contractPassword,
		FirstName: "Alice",
		LastName:  "Johnson",
		Role:      domain.RoleUser,
		MecaID:    &mecaID,
	})
	if err != nil {
		t.Fatalf("CreateWithPassword alice: %v", err)
	}
	if alice.ID == "" || alice.Email != "alice.johnson@example.com" {
		t.Fatalf("unexpected alice: %#v", alice)
	}
	if alice.MecaID == nil || *alice.MecaID != mecaID {
		t.Fatalf("mecaId not stored: %#v", alice.MecaID)
	}

	clk.Advance(time.Minute)
	bob, err := repo.CreateWithPassword(ctx, profilestoreport.CreateWithPasswordInput{
		Email:     "bob@example.com",
		Password:  contractPassword,
		FirstName: "Bob",
		LastName:  "Adams",
		Role:      domain.RoleJudge,
	})
	if err != nil {
		t.Fatalf("CreateWithPassword bob: %v", err)
	}

	got, err := repo.GetByID(ctx, bob.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != domain.RoleJudge || got.FullName() != "Bob Adams" {
		t.Fatalf("unexpected profile: %#v", got)
	}
	if _, err := repo.GetByID(ctx, domain.UserID("00000000-0000-0000-0000-000000000000")); !errors.Is(err, profilestoreport.ErrNotFound) {
		t.Fatalf("GetByID missing err=%v, want %v", err, profilestoreport.ErrNotFound)
	}

	// Email uniqueness is case-insensitive.
	if _, err := repo.CreateWithPassword(ctx, profilestoreport.CreateWithPasswordInput{
		Email:     "ALICE.johnson@example.com",
		Password:  contractPassword,
		FirstName: "Alice",
		LastName:  "Again",
		Role:      domain.RoleUser,
	}); !errors.Is(err, profilestoreport.ErrEmailTaken) {
		t.Fatalf("duplicate email err=%v, want %v", err, profilestoreport.ErrEmailTaken)
	}

	// MECA ID uniqueness.
	if _, err := repo.CreateWithPassword(ctx, profilestoreport.CreateWithPasswordInput{
		Email:     "carol@example.com",
		Password:  contractPassword,
		FirstName: "Carol",
		LastName:  "King",
		Role:      domain.RoleUser,
		MecaID:    &mecaID,
	}); !errors.Is(err, profilestoreport.ErrAlreadyExists) {
		t.Fatalf("duplicate mecaId err=%v, want %v", err, profilestoreport.ErrAlreadyExists)
	}

	// Invalid input never reaches storage.
	if _, err := repo.CreateWithPassword(ctx, profilestoreport.CreateWithPasswordInput{
		Email:     "not-an-email",
		Password:  contractPassword,
		FirstName: "X",
		LastName:  "Y",
		Role:      domain.RoleUser,
	}); err == nil {
		t.Fatalf("expected validation error")
	}

	// Newest first.
	ps, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(ps) != 2 || ps[0].ID != bob.ID || ps[1].ID != alice.ID {
		t.Fatalf("unexpected ordering: %#v", ps)
	}

	// Search token match (AND across tokens), case-insensitive, limit.
	res, err := repo.Search(ctx, "ALI john", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].ID != alice.ID {
		t.Fatalf("unexpected search result: %#v", res)
	}
	res, err = repo.Search(ctx, "example.com", 1)
	if err != nil {
		t.Fatalf("Search limit: %v", err)
	}
	if len(res) != 1 || res[0].ID != bob.ID {
		t.Fatalf("expected Adams first under limit, got %#v", res)
	}
	res, err = repo.Search(ctx, "   ", 10)
	if err != nil || len(res) != 0 {
		t.Fatalf("blank search: res=%#v err=%v", res, err)
	}
}

func RunMembershipStore(t *testing.T, newStores MembershipStoresFactory) {
	t.Helper()
	ctx := context.Background()

	clk := memclock.NewManualClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	st, cleanup := newStores(t, clk)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	types, err := st.Types.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	var competitor domain.MembershipType
	for _, mt := range types {
		if mt.IsUpgradeOnly {
			t.Fatalf("ListActive returned upgrade-only type %q", mt.ID)
		}
		if mt.Category == domain.CategoryCompetitor && !mt.IncludesTeam && competitor.ID == "" {
			competitor = mt
		}
	}
	if competitor.ID == "" {
		t.Fatalf("no competitor type in catalog: %#v", types)
	}

	newOwner := func(email, first, last string) domain.Profile {
		t.Helper()
		p, err := st.Profiles.CreateWithPassword(ctx, profilestoreport.CreateWithPasswordInput{
			Email:     email,
			Password:  contractPassword,
			FirstName: first,
			LastName:  last,
			Role:      domain.RoleUser,
		})
		if err != nil {
			t.Fatalf("seed profile %s: %v", email, err)
		}
		return p
	}
	str := func(s string) *string { return &s }

	owner := newOwner("owner@example.com", "Olive", "Owner")
	paid, err := st.Memberships.AdminCreate(ctx, membershipstoreport.AdminCreateInput{
		UserID:           owner.ID,
		MembershipTypeID: competitor.ID,
		PaymentMethod:    domain.PaymentMethodCash,
		Vehicle: &domain.Vehicle{
			Make: str("Honda"), Model: str("Civic"), Color: str("Red"), LicensePlate: str("ABC123"),
		},
		CreateInvoice: true,
	})
	if err != nil {
		t.Fatalf("AdminCreate cash: %v", err)
	}
	master := paid.Membership
	if master.PaymentStatus != domain.PaymentStatusPaid || master.MecaID == nil {
		t.Fatalf("cash membership should be paid with a MECA ID: %#v", master)
	}
	if master.AccountType != domain.AccountTypeIndependent || master.Category != domain.CategoryCompetitor {
		t.Fatalf("unexpected master: %#v", master)
	}
	if master.CompetitorName != "Olive Owner" {
		t.Fatalf("competitor name should default to owner name, got %q", master.CompetitorName)
	}
	if paid.InvoiceID == nil {
		t.Fatalf("expected invoice id")
	}

	clk.Advance(time.Minute)
	pendingOwner := newOwner("pending@example.com", "Pat", "Pending")
	pending, err := st.Memberships.AdminCreate(ctx, membershipstoreport.AdminCreateInput{
		UserID:           pendingOwner.ID,
		MembershipTypeID: competitor.ID,
		PaymentMethod:    domain.PaymentMethodCreditCardInvoice,
	})
	if err != nil {
		t.Fatalf("AdminCreate invoice: %v", err)
	}
	if pending.Membership.PaymentStatus != domain.PaymentStatusPending || pending.Membership.MecaID != nil {
		t.Fatalf("invoice membership should be pending without MECA ID: %#v", pending.Membership)
	}

	if _, err := st.Memberships.AdminCreate(ctx, membershipstoreport.AdminCreateInput{
		UserID:           owner.ID,
		MembershipTypeID: "does-not-exist",
		PaymentMethod:    domain.PaymentMethodCash,
	}); !errors.Is(err, membershipstoreport.ErrTypeNotFound) {
		t.Fatalf("unknown type err=%v, want %v", err, membershipstoreport.ErrTypeNotFound)
	}
	if _, err := st.Memberships.AdminCreate(ctx, membershipstoreport.AdminCreateInput{
		UserID:           owner.ID,
		MembershipTypeID: competitor.ID,
		PaymentMethod:    domain.PaymentMethodCheck,
	}); err == nil {
		t.Fatalf("expected check number to be required")
	}

	active, err := st.Memberships.GetActiveForUser(ctx, owner.ID)
	if err != nil || active.ID != master.ID {
		t.Fatalf("GetActiveForUser owner: got=%#v err=%v", active, err)
	}
	if _, err := st.Memberships.GetActiveForUser(ctx, pendingOwner.ID); !errors.Is(err, membershipstoreport.ErrNotFound) {
		t.Fatalf("GetActiveForUser pending err=%v, want %v", err, membershipstoreport.ErrNotFound)
	}

	// Secondary rules.
	secIn := membershipstoreport.CreateSecondaryInput{
		MembershipTypeID: competitor.ID,
		CompetitorName:   "Sam Second",
		Relationship:     "friend",
	}
	if _, err := st.Memberships.CreateSecondary(ctx, pending.Membership.ID, secIn); !errors.Is(err, membershipstoreport.ErrMasterUnpaid) {
		t.Fatalf("unpaid master err=%v, want %v", err, membershipstoreport.ErrMasterUnpaid)
	}
	withLogin := secIn
	withLogin.CreateLogin = true
	if _, err := st.Memberships.CreateSecondary(ctx, master.ID, withLogin); !errors.Is(err, membershipstoreport.ErrLoginEmailRequired) {
		t.Fatalf("login without email err=%v, want %v", err, membershipstoreport.ErrLoginEmailRequired)
	}
	withLogin.Email = str("OWNER@example.com")
	if _, err := st.Memberships.CreateSecondary(ctx, master.ID, withLogin); !errors.Is(err, membershipstoreport.ErrEmailTaken) {
		t.Fatalf("taken email err=%v, want %v", err, membershipstoreport.ErrEmailTaken)
	}
	if _, err := st.Memberships.CreateSecondary(ctx, domain.MembershipID("00000000-0000-0000-0000-000000000000"), secIn); !errors.Is(err, membershipstoreport.ErrNotFound) {
		t.Fatalf("missing master err=%v, want %v", err, membershipstoreport.ErrNotFound)
	}

	clk.Advance(time.Minute)
	sec, err := st.Memberships.CreateSecondary(ctx, master.ID, secIn)
	if err != nil {
		t.Fatalf("CreateSecondary: %v", err)
	}
	if sec.AccountType != domain.AccountTypeSecondary || sec.MasterMembershipID == nil || *sec.MasterMembershipID != master.ID {
		t.Fatalf("unexpected secondary: %#v", sec)
	}
	if sec.PaymentStatus != domain.PaymentStatusPending || sec.HasOwnLogin || sec.CompetitorName != "Sam Second" {
		t.Fatalf("unexpected secondary state: %#v", sec)
	}
	if sec.EndDate == nil || master.EndDate == nil || !sec.EndDate.Equal(*master.EndDate) {
		t.Fatalf("secondary should end with its master: sec=%v master=%v", sec.EndDate, master.EndDate)
	}

	secProfile, err := st.Profiles.GetByID(ctx, sec.UserID)
	if err != nil {
		t.Fatalf("secondary profile: %v", err)
	}
	if !secProfile.IsSecondaryAccount || secProfile.MasterProfileID == nil || *secProfile.MasterProfileID != owner.ID {
		t.Fatalf("unexpected secondary profile: %#v", secProfile)
	}

	if _, err := st.Memberships.CreateSecondary(ctx, sec.ID, secIn); !errors.Is(err, membershipstoreport.ErrMasterNotEligible) {
		t.Fatalf("secondary as master err=%v, want %v", err, membershipstoreport.ErrMasterNotEligible)
	}

	// Newest first; the master was promoted when it got its first secondary.
	all, err := st.Memberships.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 || all[0].ID != sec.ID || all[1].ID != pending.Membership.ID || all[2].ID != master.ID {
		t.Fatalf("unexpected ordering: %#v", all)
	}
	if all[2].AccountType != domain.AccountTypeMaster {
		t.Fatalf("master not promoted: %q", all[2].AccountType)
	}
}
