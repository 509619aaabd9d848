package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	memmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/mailer"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
)

type mailErr struct{}

func (mailErr) Configured(context.Context) (bool, error) {
	return false, errors.New("status endpoint unreachable")
}

type failingAdminCreate struct {
	membershipstore.Repository
}

func (failingAdminCreate) AdminCreate(context.Context, membershipstore.AdminCreateInput) (membershipstore.AdminCreateResult, error) {
	return membershipstore.AdminCreateResult{}, errors.New("payment gateway offline")
}

func requireAppError(t *testing.T, err error, status int, code string) *Error {
	t.Helper()
	var ae *Error
	require.True(t, errors.As(err, &ae), "err=%v (%T)", err, err)
	require.Equal(t, status, ae.Status)
	require.Equal(t, code, ae.Code)
	return ae
}

func TestSubmit_StandardMembershipWithoutEmailService(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(false), DefaultPolicy())

	out, err := sub.Submit(context.Background(), membershipForm())
	require.NoError(t, err)
	require.Equal(t, PathStandard, out.Path)
	require.False(t, out.MembershipFailed)
	require.Equal(t, "alice@example.com", out.User.Email)
	require.NotNil(t, out.Membership)
	require.Equal(t, domain.PaymentStatusPaid, out.Membership.PaymentStatus)
	require.Equal(t, out.User.ID, out.Membership.UserID)
	require.NotNil(t, out.AdminResult)
	require.NotNil(t, out.AdminResult.InvoiceID)
	require.Equal(t,
		"User Alice Smith created successfully! Competitor membership assigned. Password: "+strongPassword,
		out.Message)

	ok, err := st.profiles.CheckPassword(context.Background(), out.User.ID, strongPassword)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSubmit_InvoiceWithEmailService(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(true), DefaultPolicy())

	f := membershipForm()
	f.PaymentMethod = domain.PaymentMethodCreditCardInvoice
	f.MecaID = "700321"

	out, err := sub.Submit(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, out.Membership.PaymentStatus)
	require.Nil(t, out.Membership.MecaID)
	require.Equal(t, 700321, *out.User.MecaID)
	require.Equal(t,
		"User Alice Smith created successfully! Competitor membership assigned."+
			" Invoice created - membership is PENDING until paid."+
			" An email with login credentials has been sent.",
		out.Message)
}

func TestSubmit_EmailConfiguredButNotSent(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(true), DefaultPolicy())

	f := staffForm(domain.StaffRoleJudge)
	f.SendEmail = false
	f.AddMembership = true

	out, err := sub.Submit(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, domain.RoleJudge, out.User.Role)
	require.Nil(t, out.Membership)
	require.Equal(t,
		"User Judy Judge created successfully! You can now add a membership from their profile page.",
		out.Message)
}

func TestSubmit_MailerErrorCountsAsUnconfigured(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	sub := NewSubmitter(st.profiles, st.memberships, mailErr{}, DefaultPolicy())

	out, err := sub.Submit(context.Background(), staffForm(domain.StaffRoleAdmin))
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, out.User.Role)
	require.Contains(t, out.Message, " Password: "+strongPassword)
}

func TestSubmit_MembershipFailureIsPartialSuccess(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	sub := NewSubmitter(st.profiles, failingAdminCreate{st.memberships}, mailer.NewStatic(true), DefaultPolicy())

	out, err := sub.Submit(context.Background(), membershipForm())
	require.NoError(t, err)
	require.True(t, out.MembershipFailed)
	require.Equal(t, "payment gateway offline", out.MembershipError)
	require.Nil(t, out.Membership)
	require.Equal(t,
		"User Alice Smith created successfully! Warning: User created but membership failed: payment gateway offline"+
			" An email with login credentials has been sent.",
		out.Message)

	// The user is kept.
	_, err = st.profiles.GetByID(context.Background(), out.User.ID)
	require.NoError(t, err)
}

func TestSubmit_InvalidFormIsRejectedBeforeAnyWrite(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(false), DefaultPolicy())

	f := membershipForm()
	f.PaymentMethod = domain.PaymentMethodCheck

	_, err := sub.Submit(context.Background(), f)
	ae := requireAppError(t, err, 422, "VALIDATION_ERROR")
	require.Equal(t, "Check number is required for check payments", ae.Message)
	require.Equal(t, string(StepPayment), ae.Details["step"])

	ps, err := st.profiles.ListMembers(context.Background())
	require.NoError(t, err)
	require.Empty(t, ps)
}

func TestSubmit_DuplicateEmail(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	st.seedMaster(t, "Other", "Alice", "alice@example.com")
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(false), DefaultPolicy())

	_, err := sub.Submit(context.Background(), membershipForm())
	requireAppError(t, err, 409, "EMAIL_TAKEN")
}

func secondaryForm(master MasterCandidate) FormData {
	f := membershipForm()
	f.Email = "sam@example.com"
	f.FirstName = "Sam"
	f.LastName = "Second"
	f.IsSecondaryMembership = true
	f.Master = &master
	return f
}

func TestSubmit_SecondaryWithoutLogin(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	master := st.seedMaster(t, "Alice", "Anders", "alice@example.com")
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(false), DefaultPolicy())

	out, err := sub.Submit(context.Background(), secondaryForm(master))
	require.NoError(t, err)
	require.Equal(t, PathSecondary, out.Path)
	require.Equal(t, master.Profile.ID, out.User.ID)
	require.NotNil(t, out.Membership)
	require.Equal(t, domain.AccountTypeSecondary, out.Membership.AccountType)
	require.Equal(t, domain.PaymentStatusPending, out.Membership.PaymentStatus)
	require.Equal(t, master.Membership.ID, *out.Membership.MasterMembershipID)
	require.Equal(t, "friend", *out.Membership.RelationshipToMaster)
	require.False(t, out.Membership.HasOwnLogin)
	require.Equal(t,
		fmt.Sprintf("Secondary membership created for Sam Second! Linked to master account #%d."+
			" No separate login - master manages this membership."+
			` Payment is pending - use "Mark Paid" when payment is received.`, *master.Membership.MecaID),
		out.Message)
}

func TestSubmit_SecondaryWithLogin(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	master := st.seedMaster(t, "Alice", "Anders", "alice@example.com")
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(true), DefaultPolicy())

	f := secondaryForm(master)
	f.Email = "Sam@Example.com"
	f.GiveSecondaryLogin = true
	f.CompetitorName = "Sammy Second"

	out, err := sub.Submit(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, "sam@example.com", out.User.Email)
	require.True(t, out.User.IsSecondaryAccount)
	require.Equal(t, master.Profile.ID, *out.User.MasterProfileID)
	require.Equal(t, "Sammy Second", out.Membership.CompetitorName)
	require.True(t, out.Membership.HasOwnLogin)
	require.Contains(t, out.Message, "Secondary membership created for Sammy Second!")
	require.Contains(t, out.Message, " A login account was created for the secondary.")
}

func TestSubmit_SecondaryLimit(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{MaxSecondaries: 1})
	master := st.seedMaster(t, "Alice", "Anders", "alice@example.com")
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(false), DefaultPolicy())

	_, err := sub.Submit(context.Background(), secondaryForm(master))
	require.NoError(t, err)

	_, err = sub.Submit(context.Background(), secondaryForm(master))
	requireAppError(t, err, 409, "SECONDARY_LIMIT_REACHED")
}

func TestSubmit_UnpaidMaster(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	ctx := context.Background()
	p, err := st.profiles.CreateWithPassword(ctx, profileInput("Ivy", "Invoice", "ivy@example.com"))
	require.NoError(t, err)
	in := cashMembership(p.ID)
	in.PaymentMethod = domain.PaymentMethodCreditCardInvoice
	res, err := st.memberships.AdminCreate(ctx, in)
	require.NoError(t, err)

	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(false), DefaultPolicy())
	_, err = sub.Submit(ctx, secondaryForm(MasterCandidate{Membership: res.Membership, Profile: p}))
	requireAppError(t, err, 409, "MASTER_UNPAID")
}

func TestSubmit_MissingMaster(t *testing.T) {
	t.Parallel()

	st := newStores(t, memmembershipstore.Options{})
	sub := NewSubmitter(st.profiles, st.memberships, mailer.NewStatic(false), DefaultPolicy())

	gone := MasterCandidate{Membership: domain.Membership{ID: "gone"}}
	_, err := sub.Submit(context.Background(), secondaryForm(gone))
	requireAppError(t, err, 404, "MASTER_NOT_FOUND")
}
