package wizard

import "errors"

// ErrNoNextStep is returned by Advance on the terminal step.
var ErrNoNextStep = errors.New("already on the last wizard step")

// ErrNoPrevStep is returned by Back on the initial step.
var ErrNoPrevStep = errors.New("already on the first wizard step")

// Session is one wizard run: the current step and the form it edits.
// It is not safe for concurrent use; each operator gets their own.
type Session struct {
	Step Step
	Form FormData
}

func NewSession() Session {
	return Session{Step: StepUserType, Form: NewFormData()}
}

// Dispatch applies an operator event to the form without moving between steps.
func (s Session) Dispatch(ev Event) (Session, error) {
	f, err := Apply(s.Form, ev)
	if err != nil {
		return s, err
	}
	s.Form = f
	s.Step = s.rehome()
	return s, nil
}

// stepOrder is every step in the order any sequence visits them.
var stepOrder = []Step{
	StepUserType, StepBasicInfo, StepPassword, StepRole, StepMembershipType,
	StepSecondaryOption, StepMembershipDetails, StepBilling, StepPayment, StepReview,
}

// rehome returns the current step if the form's sequence still contains it,
// otherwise the nearest earlier step that it does contain.
func (s Session) rehome() Step {
	steps, err := Steps(s.Form)
	if err != nil {
		return StepUserType
	}
	if indexOf(steps, s.Step) >= 0 {
		return s.Step
	}
	for i := indexOf(stepOrder, s.Step) - 1; i >= 0; i-- {
		if indexOf(steps, stepOrder[i]) >= 0 {
			return stepOrder[i]
		}
	}
	return steps[0]
}

// Advance validates the current step and moves forward. On a validation
// failure the session stays on its step and a *ValidationError is returned.
// A step the sequence no longer contains is first moved back as in Back.
func (s Session) Advance(p Policy) (Session, error) {
	s.Step = s.rehome()
	if err := Validate(s.Step, s.Form, p); err != nil {
		return s, err
	}
	steps, err := Steps(s.Form)
	if err != nil {
		return s, err
	}
	next, ok := Next(steps, s.Step)
	if !ok {
		return s, ErrNoNextStep
	}
	s.Step = next
	if next == StepBilling {
		s.Form = prefillBilling(s.Form)
	}
	return s, nil
}

// Back moves to the previous step. It never validates. A step that the form's
// sequence no longer contains falls back to the nearest earlier one.
func (s Session) Back() (Session, error) {
	if home := s.rehome(); home != s.Step {
		s.Step = home
		return s, nil
	}
	steps, err := Steps(s.Form)
	if err != nil {
		return s, ErrNoPrevStep
	}
	prev, ok := Prev(steps, s.Step)
	if !ok {
		return s, ErrNoPrevStep
	}
	s.Step = prev
	return s, nil
}
