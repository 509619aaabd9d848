package wizard

import (
	"fmt"
	"regexp"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mecaIDPattern = regexp.MustCompile(`^\d{6}$`)
)

// Policy holds the tunable parts of validation.
type Policy struct {
	MinPasswordStrength int
}

func DefaultPolicy() Policy {
	return Policy{MinPasswordStrength: DefaultMinPasswordStrength}
}

// ValidationError is a user-fixable problem with one step. It is never fatal.
type ValidationError struct {
	Step    Step
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalid(step Step, msg string) error {
	return &ValidationError{Step: step, Message: msg}
}

// Validate checks the fields a step owns and returns the first violation, or nil.
func Validate(step Step, f FormData, p Policy) error {
	switch step {
	case StepUserType:
		if f.UserType == UserTypeUnset {
			return invalid(step, "Please select a user type")
		}
		return nil

	case StepBasicInfo:
		if f.Email == "" {
			return invalid(step, "Email is required")
		}
		if !emailPattern.MatchString(f.Email) {
			return invalid(step, "Please enter a valid email address")
		}
		if f.FirstName == "" {
			return invalid(step, "First name is required")
		}
		if f.LastName == "" {
			return invalid(step, "Last name is required")
		}
		if f.MecaID != "" && !mecaIDPattern.MatchString(f.MecaID) {
			return invalid(step, "MECA ID must be exactly 6 digits")
		}
		return nil

	case StepPassword:
		if f.Password == "" {
			return invalid(step, "Password is required")
		}
		if Strength(f.Password).Score < p.MinPasswordStrength {
			return invalid(step, fmt.Sprintf("Password must have a strength of at least %d", p.MinPasswordStrength))
		}
		if f.PasswordOption == PasswordOptionManual && f.Password != f.ConfirmPassword {
			return invalid(step, "Passwords do not match")
		}
		return nil

	case StepRole:
		if f.UserType == UserTypeStaff && f.StaffRole == nil {
			return invalid(step, "Please select a role")
		}
		return nil

	case StepMembershipType:
		if f.MembershipType == nil {
			return invalid(step, "Please select a membership type")
		}
		return nil

	case StepSecondaryOption:
		if !f.IsSecondaryMembership {
			return nil
		}
		if f.Master == nil {
			return invalid(step, "Please search and select a master account")
		}
		if f.GiveSecondaryLogin && f.Email == "" {
			return invalid(step, "Email is required when giving secondary their own login")
		}
		return nil

	case StepMembershipDetails:
		return validateMembershipDetails(f)

	case StepPayment:
		switch f.PaymentMethod {
		case domain.PaymentMethodCheck:
			if f.CheckNumber == "" {
				return invalid(step, "Check number is required for check payments")
			}
		case domain.PaymentMethodComplimentary:
			if f.ComplimentaryReason == "" {
				return invalid(step, "A reason is required for complimentary memberships")
			}
		case domain.PaymentMethodCash, domain.PaymentMethodCreditCardInvoice:
		default:
			return invalid(step, "Please select a payment method")
		}
		return nil

	case StepBilling, StepReview:
		return nil

	default:
		return fmt.Errorf("unknown wizard step %q", step)
	}
}

func validateMembershipDetails(f FormData) error {
	t := f.MembershipType
	if t == nil {
		return nil
	}
	step := StepMembershipDetails
	if t.Category.RequiresVehicle() {
		if f.VehicleMake == "" || f.VehicleModel == "" || f.VehicleColor == "" || f.VehicleLicensePlate == "" {
			return invalid(step, "Vehicle information is required for competitor memberships")
		}
	}
	if t.Category.RequiresBusiness() && f.BusinessName == "" {
		return invalid(step, "Business name is required")
	}
	if t.Category == domain.CategoryManufacturer && f.ManufacturerTier == nil {
		return invalid(step, "Please select a manufacturer tier")
	}
	if (t.Category == domain.CategoryTeam || t.IncludesTeam) && f.TeamName == "" {
		return invalid(step, "Team name is required for this membership type")
	}
	return nil
}

// ValidateAll runs every step of the form's sequence up to and including review.
// It is used before submission so a form that skipped transitions is still gated.
func ValidateAll(f FormData, p Policy) error {
	steps, err := Steps(f)
	if err != nil {
		return invalid(StepUserType, "Please select a user type")
	}
	for _, st := range steps {
		if err := Validate(st, f, p); err != nil {
			return err
		}
	}
	return nil
}
