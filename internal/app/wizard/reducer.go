package wizard

import (
	"fmt"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// Event is one operator action on the form. Handlers only ever do
// form = Apply(form, event).
type Event interface {
	apply(f FormData) FormData
}

type ChooseUserType struct{ UserType UserType }

func (e ChooseUserType) apply(f FormData) FormData {
	f.UserType = e.UserType
	if e.UserType != UserTypeStaff {
		f.StaffRole = nil
		f.AddMembership = false
	}
	return f
}

type SetBasicInfo struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	MecaID    string
}

func (e SetBasicInfo) apply(f FormData) FormData {
	f.Email = e.Email
	f.FirstName = e.FirstName
	f.LastName = e.LastName
	f.Phone = e.Phone
	f.MecaID = e.MecaID
	return f
}

// ChoosePasswordOption switches between generated and manual entry. Generated
// is only used when the form has no password yet.
type ChoosePasswordOption struct {
	Option    PasswordOption
	Generated string
}

func (e ChoosePasswordOption) apply(f FormData) FormData {
	f.PasswordOption = e.Option
	if e.Option == PasswordOptionGenerate && f.Password == "" && e.Generated != "" {
		f.Password = e.Generated
		f.ConfirmPassword = e.Generated
	}
	return f
}

// UseGeneratedPassword replaces the current password unconditionally.
type UseGeneratedPassword struct{ Password string }

func (e UseGeneratedPassword) apply(f FormData) FormData {
	f.Password = e.Password
	f.ConfirmPassword = e.Password
	return f
}

type SetPassword struct {
	Password        string
	ConfirmPassword string
}

func (e SetPassword) apply(f FormData) FormData {
	f.Password = e.Password
	f.ConfirmPassword = e.ConfirmPassword
	return f
}

type SetCredentialOptions struct {
	ForcePasswordChange bool
	SendEmail           bool
}

func (e SetCredentialOptions) apply(f FormData) FormData {
	f.ForcePasswordChange = e.ForcePasswordChange
	f.SendEmail = e.SendEmail
	return f
}

type ChooseStaffRole struct {
	Role          domain.StaffRole
	AddMembership bool
}

func (e ChooseStaffRole) apply(f FormData) FormData {
	r := e.Role
	f.StaffRole = &r
	f.AddMembership = e.AddMembership
	return f
}

// SelectMembershipType picks a type and clears every category-specific field.
type SelectMembershipType struct{ Type domain.MembershipType }

func (e SelectMembershipType) apply(f FormData) FormData {
	t := e.Type
	f.MembershipType = &t
	f.CompetitorName = ""
	f.VehicleMake = ""
	f.VehicleModel = ""
	f.VehicleColor = ""
	f.VehicleLicensePlate = ""
	f.BusinessName = ""
	f.BusinessWebsite = ""
	f.ManufacturerTier = nil
	f.HasTeamAddon = false
	f.TeamName = ""
	f.TeamDescription = ""
	return f
}

type SetSecondary struct {
	IsSecondary bool
	GiveLogin   bool
}

func (e SetSecondary) apply(f FormData) FormData {
	f.IsSecondaryMembership = e.IsSecondary
	if !e.IsSecondary {
		f.Master = nil
		f.GiveSecondaryLogin = false
		return f
	}
	f.GiveSecondaryLogin = e.GiveLogin
	return f
}

// SelectMaster records the chosen master; a nil Candidate clears the selection.
type SelectMaster struct{ Candidate *MasterCandidate }

func (e SelectMaster) apply(f FormData) FormData {
	if e.Candidate == nil {
		f.Master = nil
		return f
	}
	c := *e.Candidate
	f.Master = &c
	return f
}

type SetCompetitor struct {
	CompetitorName string
	Make           string
	Model          string
	Color          string
	LicensePlate   string
}

func (e SetCompetitor) apply(f FormData) FormData {
	f.CompetitorName = e.CompetitorName
	f.VehicleMake = e.Make
	f.VehicleModel = e.Model
	f.VehicleColor = e.Color
	f.VehicleLicensePlate = e.LicensePlate
	return f
}

type SetTeam struct {
	HasTeamAddon bool
	Name         string
	Description  string
}

func (e SetTeam) apply(f FormData) FormData {
	f.HasTeamAddon = e.HasTeamAddon
	f.TeamName = e.Name
	f.TeamDescription = e.Description
	return f
}

type SetBusiness struct {
	Name    string
	Website string
	Tier    *domain.ManufacturerTier
}

func (e SetBusiness) apply(f FormData) FormData {
	f.BusinessName = e.Name
	f.BusinessWebsite = e.Website
	if e.Tier == nil {
		f.ManufacturerTier = nil
	} else {
		t := *e.Tier
		f.ManufacturerTier = &t
	}
	return f
}

type SetBilling struct{ Billing domain.Billing }

func (e SetBilling) apply(f FormData) FormData {
	f.Billing = e.Billing
	return f
}

type SetPayment struct {
	Method              domain.PaymentMethod
	CheckNumber         string
	ComplimentaryReason string
	Notes               string
}

func (e SetPayment) apply(f FormData) FormData {
	f.PaymentMethod = e.Method
	f.CheckNumber = e.CheckNumber
	f.ComplimentaryReason = e.ComplimentaryReason
	f.Notes = e.Notes
	return f
}

// Apply returns the form after ev. f itself is never modified.
func Apply(f FormData, ev Event) (FormData, error) {
	if ev == nil {
		return f, fmt.Errorf("nil wizard event")
	}
	return ev.apply(f), nil
}

// prefillBilling copies contact details into billing unless billing was already filled.
func prefillBilling(f FormData) FormData {
	if f.Billing.Email != "" {
		return f
	}
	f.Billing.FirstName = f.FirstName
	f.Billing.LastName = f.LastName
	f.Billing.Email = f.Email
	f.Billing.Phone = f.Phone
	return f
}
