package wizard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

func TestSession_WalkStandardMembership(t *testing.T) {
	t.Parallel()

	s := NewSession()
	require.Equal(t, StepUserType, s.Step)

	_, err := s.Advance(DefaultPolicy())
	var v *ValidationError
	require.True(t, errors.As(err, &v))
	require.Equal(t, "Please select a user type", v.Message)

	dispatch := func(ev Event) {
		t.Helper()
		var err error
		s, err = s.Dispatch(ev)
		require.NoError(t, err)
	}
	advance := func(want Step) {
		t.Helper()
		var err error
		s, err = s.Advance(DefaultPolicy())
		require.NoError(t, err)
		require.Equal(t, want, s.Step)
	}

	dispatch(ChooseUserType{UserType: UserTypeMembership})
	advance(StepBasicInfo)
	dispatch(SetBasicInfo{Email: "alice@example.com", FirstName: "Alice", LastName: "Smith", Phone: "555-0100"})
	advance(StepPassword)
	dispatch(ChoosePasswordOption{Option: PasswordOptionGenerate, Generated: strongPassword})
	advance(StepMembershipType)
	dispatch(SelectMembershipType{Type: competitorType()})
	advance(StepSecondaryOption)
	advance(StepMembershipDetails)
	dispatch(SetCompetitor{Make: "Ford", Model: "F-150", Color: "Blue", LicensePlate: "ABC123"})
	advance(StepBilling)

	require.Equal(t, domain.Billing{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.com",
		Phone:     "555-0100",
		Country:   "US",
	}, s.Form.Billing)

	advance(StepPayment)
	advance(StepReview)

	_, err = s.Advance(DefaultPolicy())
	require.True(t, errors.Is(err, ErrNoNextStep))
}

func TestSession_AdvanceFailureLeavesSessionUnchanged(t *testing.T) {
	t.Parallel()

	s := Session{Step: StepBasicInfo, Form: membershipForm()}
	s.Form.Email = "bad"

	got, err := s.Advance(DefaultPolicy())
	require.Error(t, err)
	require.Equal(t, s, got)
}

func TestSession_BillingPrefillKeepsExistingBilling(t *testing.T) {
	t.Parallel()

	s := Session{Step: StepMembershipDetails, Form: membershipForm()}
	s.Form.Billing = domain.Billing{Email: "accounts@example.com"}

	s, err := s.Advance(DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, StepBilling, s.Step)
	require.Equal(t, "accounts@example.com", s.Form.Billing.Email)
	require.Empty(t, s.Form.Billing.FirstName)
}

func TestSession_BackNeverValidates(t *testing.T) {
	t.Parallel()

	s := Session{Step: StepMembershipDetails, Form: membershipForm()}
	s.Form.Email = ""
	s.Form.MembershipType = nil

	s, err := s.Back()
	require.NoError(t, err)
	require.Equal(t, StepSecondaryOption, s.Step)

	s = Session{Step: StepUserType, Form: membershipForm()}
	_, err = s.Back()
	require.True(t, errors.Is(err, ErrNoPrevStep))

	_, err = NewSession().Back()
	require.True(t, errors.Is(err, ErrNoPrevStep))
}

func TestSession_SecondaryGoesFromDetailsToReview(t *testing.T) {
	t.Parallel()

	s := Session{Step: StepMembershipDetails, Form: membershipForm()}
	s.Form.IsSecondaryMembership = true
	s.Form.Master = &MasterCandidate{}

	s, err := s.Advance(DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, StepReview, s.Step)
	require.Empty(t, s.Form.Billing.Email)
}

func TestSession_StaffFlow(t *testing.T) {
	t.Parallel()

	s := Session{Step: StepPassword, Form: staffForm(domain.StaffRoleAdmin)}
	s, err := s.Advance(DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, StepRole, s.Step)

	s.Form.StaffRole = nil
	_, err = s.Advance(DefaultPolicy())
	var v *ValidationError
	require.True(t, errors.As(err, &v))
	require.Equal(t, StepRole, v.Step)
}

func TestSession_StepDroppedFromSequenceFallsBack(t *testing.T) {
	t.Parallel()

	s := Session{Step: StepBilling, Form: membershipForm()}
	s, err := s.Dispatch(SetSecondary{IsSecondary: true})
	require.NoError(t, err)
	require.Equal(t, StepMembershipDetails, s.Step)

	// Sessions built directly on a dropped step still recover.
	stuck := Session{Step: StepPayment, Form: membershipForm()}
	stuck.Form.IsSecondaryMembership = true

	back, err := stuck.Back()
	require.NoError(t, err)
	require.Equal(t, StepMembershipDetails, back.Step)

	stuck.Form.Master = &MasterCandidate{}
	next, err := stuck.Advance(DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, StepReview, next.Step)

	staff := Session{Step: StepMembershipType, Form: staffForm(domain.StaffRoleAdmin)}
	back, err = staff.Back()
	require.NoError(t, err)
	require.Equal(t, StepRole, back.Step)
}
