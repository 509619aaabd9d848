package wizard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/logging"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/validate"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/mailer"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

// Path is the branch a submission took.
type Path string

const (
	PathSecondary Path = "secondary"
	PathStandard  Path = "standard"
)

// relationshipFriend is recorded for every operator-created secondary.
const relationshipFriend = "friend"

// Outcome describes what a submission created and the message shown to the operator.
type Outcome struct {
	Path Path
	// User is the created profile. For a secondary without its own login it is
	// the master's profile.
	User        domain.Profile
	Membership  *domain.Membership
	AdminResult *membershipstore.AdminCreateResult
	Message     string

	// MembershipFailed is set when the user was created but the membership was not.
	MembershipFailed bool
	MembershipError  string
}

type Submitter struct {
	profiles    profilestore.Repository
	memberships membershipstore.Repository
	mail        mailer.Status
	policy      Policy
}

func NewSubmitter(profiles profilestore.Repository, memberships membershipstore.Repository, mail mailer.Status, policy Policy) *Submitter {
	return &Submitter{
		profiles:    profiles,
		memberships: memberships,
		mail:        mail,
		policy:      policy,
	}
}

// Submit re-validates the whole form and performs the create calls.
//
// A membership failure after the user was created is not rolled back: the
// outcome carries MembershipFailed and a warning in Message instead.
func (s *Submitter) Submit(ctx context.Context, f FormData) (Outcome, error) {
	path := PathStandard
	if isSecondarySubmission(f) {
		path = PathSecondary
	}

	if err := ValidateAll(f, s.policy); err != nil {
		var v *ValidationError
		if errors.As(err, &v) {
			recordSubmission(path, "invalid")
			return Outcome{}, validationFailed(v)
		}
		recordSubmission(path, "error")
		return Outcome{}, err
	}

	log := logging.FromContext(ctx).WithField("path", string(path))

	var (
		out Outcome
		err error
	)
	if path == PathSecondary {
		out, err = s.submitSecondary(ctx, f)
	} else {
		out, err = s.submitStandard(ctx, f, log)
	}
	switch {
	case err != nil:
		recordSubmission(path, "error")
		log.WithError(err).Info("wizard submission failed")
		return Outcome{}, err
	case out.MembershipFailed:
		recordSubmission(path, "partial")
	default:
		recordSubmission(path, "ok")
	}
	return out, nil
}

func isSecondarySubmission(f FormData) bool {
	return f.UserType == UserTypeMembership && f.IsSecondaryMembership && f.Master != nil && f.MembershipType != nil
}

func (s *Submitter) submitSecondary(ctx context.Context, f FormData) (Outcome, error) {
	competitorName := f.CompetitorName
	if competitorName == "" {
		competitorName = f.fullName()
	}

	in := membershipstore.CreateSecondaryInput{
		MembershipTypeID: f.MembershipType.ID,
		CompetitorName:   competitorName,
		Relationship:     relationshipFriend,
		CreateLogin:      f.GiveSecondaryLogin,
		Vehicle:          vehicleFrom(f),
		TeamName:         optString(f.TeamName),
		TeamDescription:  optString(f.TeamDescription),
	}
	if f.GiveSecondaryLogin {
		email := domain.NormalizeEmail(f.Email)
		in.Email = &email
	}

	created, err := s.memberships.CreateSecondary(ctx, f.Master.Membership.ID, in)
	if err != nil {
		return Outcome{}, mapStoreError(err)
	}

	user := f.Master.Profile
	if f.GiveSecondaryLogin {
		if p, err := s.profiles.GetByID(ctx, created.UserID); err == nil {
			user = p
		} else {
			logging.FromContext(ctx).WithError(err).WithField("user_id", string(created.UserID)).
				Warn("secondary login profile lookup failed")
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Secondary membership created for %s!", competitorName)
	fmt.Fprintf(&b, " Linked to master account #%s.", mecaIDString(f.Master.Membership.MecaID))
	if f.GiveSecondaryLogin {
		b.WriteString(" A login account was created for the secondary.")
	} else {
		b.WriteString(" No separate login - master manages this membership.")
	}
	b.WriteString(` Payment is pending - use "Mark Paid" when payment is received.`)

	return Outcome{
		Path:       PathSecondary,
		User:       user,
		Membership: &created,
		Message:    b.String(),
	}, nil
}

func (s *Submitter) submitStandard(ctx context.Context, f FormData, log *logrus.Entry) (Outcome, error) {
	emailConfigured := s.emailConfigured(ctx)

	role := domain.RoleUser
	if f.UserType == UserTypeStaff && f.StaffRole != nil {
		role = f.StaffRole.Role()
	}

	in := profilestore.CreateWithPasswordInput{
		Email:               domain.NormalizeEmail(f.Email),
		Password:            f.Password,
		FirstName:           strings.TrimSpace(f.FirstName),
		LastName:            strings.TrimSpace(f.LastName),
		Phone:               optString(strings.TrimSpace(f.Phone)),
		Role:                role,
		ForcePasswordChange: f.ForcePasswordChange,
		SendEmail:           f.SendEmail && emailConfigured,
	}
	if id := strings.TrimSpace(f.MecaID); id != "" {
		n, err := strconv.Atoi(id)
		if err != nil {
			return Outcome{}, validationFailed(&ValidationError{Step: StepBasicInfo, Message: "MECA ID must be exactly 6 digits"})
		}
		in.MecaID = &n
	}

	user, err := s.profiles.CreateWithPassword(ctx, in)
	if err != nil {
		return Outcome{}, mapStoreError(err)
	}
	log = log.WithField("user_id", string(user.ID))

	out := Outcome{Path: PathStandard, User: user}

	var b strings.Builder
	fmt.Fprintf(&b, "User %s %s created successfully!", user.FirstName, user.LastName)

	if f.UserType == UserTypeMembership && f.MembershipType != nil {
		res, err := s.memberships.AdminCreate(ctx, adminCreateInput(f, user.ID))
		if err != nil {
			out.MembershipFailed = true
			out.MembershipError = err.Error()
			log.WithError(err).Warn("user created but membership creation failed")
			fmt.Fprintf(&b, " Warning: User created but membership failed: %s", err.Error())
		} else {
			out.AdminResult = &res
			m := res.Membership
			out.Membership = &m
			fmt.Fprintf(&b, " %s membership assigned.", f.MembershipType.Name)
			if f.PaymentMethod == domain.PaymentMethodCreditCardInvoice {
				b.WriteString(" Invoice created - membership is PENDING until paid.")
			}
		}
	}

	if f.UserType == UserTypeStaff && f.AddMembership {
		b.WriteString(" You can now add a membership from their profile page.")
	}

	switch {
	case f.SendEmail && emailConfigured:
		b.WriteString(" An email with login credentials has been sent.")
	case !emailConfigured:
		fmt.Fprintf(&b, " Password: %s", f.Password)
	}

	out.Message = b.String()
	return out, nil
}

func (s *Submitter) emailConfigured(ctx context.Context) bool {
	if s.mail == nil {
		return false
	}
	ok, err := s.mail.Configured(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("email service status check failed")
		return false
	}
	return ok
}

func adminCreateInput(f FormData, userID domain.UserID) membershipstore.AdminCreateInput {
	in := membershipstore.AdminCreateInput{
		UserID:              userID,
		MembershipTypeID:    f.MembershipType.ID,
		PaymentMethod:       f.PaymentMethod,
		CompetitorName:      optString(f.CompetitorName),
		Vehicle:             vehicleFrom(f),
		HasTeamAddon:        f.HasTeamAddon,
		TeamName:            optString(f.TeamName),
		TeamDescription:     optString(f.TeamDescription),
		BusinessName:        optString(f.BusinessName),
		BusinessWebsite:     optString(f.BusinessWebsite),
		CheckNumber:         optString(f.CheckNumber),
		ComplimentaryReason: optString(f.ComplimentaryReason),
		Notes:               optString(f.Notes),
		CreateInvoice:       true,
	}
	if f.ManufacturerTier != nil {
		t := *f.ManufacturerTier
		in.ManufacturerTier = &t
	}
	if f.Billing != (domain.Billing{}) {
		b := f.Billing
		in.Billing = &b
	}
	return in
}

func vehicleFrom(f FormData) *domain.Vehicle {
	v := domain.Vehicle{
		Make:         optString(f.VehicleMake),
		Model:        optString(f.VehicleModel),
		Color:        optString(f.VehicleColor),
		LicensePlate: optString(f.VehicleLicensePlate),
	}
	if v.Make == nil && v.Model == nil && v.Color == nil && v.LicensePlate == nil {
		return nil
	}
	return &v
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mecaIDString(id *int) string {
	if id == nil {
		return ""
	}
	return strconv.Itoa(*id)
}

func mapStoreError(err error) error {
	var fe *validate.FieldsError
	if errors.As(err, &fe) {
		details := make(map[string]any, len(fe.Fields))
		for k, v := range fe.Fields {
			details[k] = v
		}
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid input", Details: details}
	}
	switch {
	case errors.Is(err, profilestore.ErrEmailTaken), errors.Is(err, membershipstore.ErrEmailTaken):
		return &Error{Status: 409, Code: "EMAIL_TAKEN", Message: "A user with this email already exists."}
	case errors.Is(err, profilestore.ErrAlreadyExists):
		return &Error{Status: 409, Code: "USER_ALREADY_EXISTS", Message: "A user with this ID or MECA ID already exists."}
	case errors.Is(err, membershipstore.ErrNotFound):
		return &Error{Status: 404, Code: "MASTER_NOT_FOUND", Message: "The selected master membership no longer exists."}
	case errors.Is(err, membershipstore.ErrMasterNotEligible):
		return &Error{Status: 409, Code: "MASTER_NOT_ELIGIBLE", Message: "The selected membership cannot have secondaries."}
	case errors.Is(err, membershipstore.ErrMasterUnpaid):
		return &Error{Status: 409, Code: "MASTER_UNPAID", Message: "The master membership must be paid before secondaries can be added."}
	case errors.Is(err, membershipstore.ErrSecondaryLimit):
		return &Error{Status: 409, Code: "SECONDARY_LIMIT_REACHED", Message: "The master membership already has the maximum number of secondaries."}
	case errors.Is(err, membershipstore.ErrLoginEmailRequired):
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "Email is required when giving secondary their own login", Details: map[string]any{"step": string(StepSecondaryOption)}}
	case errors.Is(err, membershipstore.ErrTypeNotFound):
		return &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "Please select a membership type", Details: map[string]any{"step": string(StepMembershipType)}}
	default:
		return err
	}
}
