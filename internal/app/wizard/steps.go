package wizard

import (
	"errors"
	"fmt"
)

type Step string

const (
	StepUserType          Step = "user-type"
	StepBasicInfo         Step = "basic-info"
	StepPassword          Step = "password"
	StepRole              Step = "role"
	StepMembershipType    Step = "membership-type"
	StepSecondaryOption   Step = "secondary-option"
	StepMembershipDetails Step = "membership-details"
	StepBilling           Step = "billing"
	StepPayment           Step = "payment"
	StepReview            Step = "review"
)

func ParseStep(s string) (Step, error) {
	switch st := Step(s); st {
	case StepUserType, StepBasicInfo, StepPassword, StepRole, StepMembershipType,
		StepSecondaryOption, StepMembershipDetails, StepBilling, StepPayment, StepReview:
		return st, nil
	default:
		return "", fmt.Errorf("unknown wizard step %q", s)
	}
}

// ErrUserTypeUnset is returned when a step list is requested before a user type was chosen.
var ErrUserTypeUnset = errors.New("user type must be chosen before steps can be computed")

// Steps returns the ordered step list for the current form. It is a pure function of f.
func Steps(f FormData) ([]Step, error) {
	switch f.UserType {
	case UserTypeStaff:
		return []Step{StepUserType, StepBasicInfo, StepPassword, StepRole, StepReview}, nil
	case UserTypeMembership:
		steps := []Step{StepUserType, StepBasicInfo, StepPassword, StepMembershipType, StepSecondaryOption}
		// A secondary is billed through its master, with or without its own login.
		if f.IsSecondaryMembership {
			return append(steps, StepMembershipDetails, StepReview), nil
		}
		return append(steps, StepMembershipDetails, StepBilling, StepPayment, StepReview), nil
	case UserTypeUnset:
		return nil, ErrUserTypeUnset
	default:
		return nil, fmt.Errorf("unknown user type %q", f.UserType)
	}
}

// Next returns the step after current, or false when current is terminal or not in steps.
func Next(steps []Step, current Step) (Step, bool) {
	i := indexOf(steps, current)
	if i < 0 || i+1 >= len(steps) {
		return "", false
	}
	return steps[i+1], true
}

// Prev returns the step before current, or false when current is initial or not in steps.
func Prev(steps []Step, current Step) (Step, bool) {
	i := indexOf(steps, current)
	if i <= 0 {
		return "", false
	}
	return steps[i-1], true
}

func indexOf(steps []Step, s Step) int {
	for i, st := range steps {
		if st == s {
			return i
		}
	}
	return -1
}
