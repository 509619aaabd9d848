package wizard

import (
	"fmt"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

// UserType is the first wizard choice. The zero value means nothing was chosen yet.
type UserType string

const (
	UserTypeUnset      UserType = ""
	UserTypeStaff      UserType = "staff"
	UserTypeMembership UserType = "membership"
)

func ParseUserType(s string) (UserType, error) {
	switch u := UserType(s); u {
	case UserTypeUnset, UserTypeStaff, UserTypeMembership:
		return u, nil
	default:
		return "", fmt.Errorf("unknown user type %q", s)
	}
}

type PasswordOption string

const (
	PasswordOptionGenerate PasswordOption = "generate"
	PasswordOptionManual   PasswordOption = "manual"
)

func ParsePasswordOption(s string) (PasswordOption, error) {
	switch p := PasswordOption(s); p {
	case PasswordOptionGenerate, PasswordOptionManual:
		return p, nil
	default:
		return "", fmt.Errorf("unknown password option %q", s)
	}
}

// MasterCandidate is a membership that a new secondary can be linked to, with its owner.
type MasterCandidate struct {
	Membership domain.Membership
	Profile    domain.Profile
}

// FormData is the complete state of one wizard session. Every branch of the
// flow reads from and writes to this one value; nothing else carries state.
type FormData struct {
	UserType UserType

	Email     string
	FirstName string
	LastName  string
	Phone     string
	// MecaID is an optional 6-digit number carried over from the previous system.
	MecaID string

	PasswordOption      PasswordOption
	Password            string
	ConfirmPassword     string
	ForcePasswordChange bool
	SendEmail           bool

	StaffRole *domain.StaffRole
	// AddMembership records that a staff user should get a membership later.
	AddMembership bool

	MembershipType *domain.MembershipType
	PaymentMethod  domain.PaymentMethod

	IsSecondaryMembership bool
	Master                *MasterCandidate
	GiveSecondaryLogin    bool

	CompetitorName      string
	VehicleMake         string
	VehicleModel        string
	VehicleColor        string
	VehicleLicensePlate string

	HasTeamAddon    bool
	TeamName        string
	TeamDescription string

	BusinessName     string
	BusinessWebsite  string
	ManufacturerTier *domain.ManufacturerTier

	Billing domain.Billing

	CheckNumber         string
	ComplimentaryReason string
	Notes               string
}

// NewFormData returns the state a freshly opened wizard starts with.
func NewFormData() FormData {
	return FormData{
		PasswordOption:      PasswordOptionGenerate,
		ForcePasswordChange: true,
		SendEmail:           true,
		PaymentMethod:       domain.PaymentMethodCash,
		Billing:             domain.Billing{Country: "US"},
	}
}

func (f FormData) fullName() string {
	return domain.FullName(f.FirstName, f.LastName)
}
