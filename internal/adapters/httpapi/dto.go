package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/mecajames/NewMECAV2-sub005/internal/app/memberships"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/wizard"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
)

type Profile struct {
	ID                  string                    `json:"id"`
	FirstName           string                    `json:"firstName"`
	LastName            string                    `json:"lastName"`
	Email               openapi_types.Email       `json:"email"`
	Phone               nullable.Nullable[string] `json:"phone,omitempty"`
	MecaID              nullable.Nullable[int]    `json:"mecaId,omitempty"`
	Role                string                    `json:"role"`
	IsSecondaryAccount  bool                      `json:"isSecondaryAccount"`
	MasterProfileID     nullable.Nullable[string] `json:"masterProfileId,omitempty"`
	ForcePasswordChange bool                      `json:"forcePasswordChange"`
	CreatedAt           time.Time                 `json:"createdAt"`
}

type Secondary struct {
	ID                 string                                `json:"id"`
	UserID             string                                `json:"userId"`
	CompetitorName     string                                `json:"competitorName"`
	MecaID             nullable.Nullable[int]                `json:"mecaId,omitempty"`
	Category           string                                `json:"category"`
	HasTeamAddon       bool                                  `json:"hasTeamAddon"`
	PaymentStatus      string                                `json:"paymentStatus"`
	EndDate            nullable.Nullable[openapi_types.Date] `json:"endDate,omitempty"`
	CreatedAt          time.Time                             `json:"createdAt"`
	MasterMembershipID nullable.Nullable[string]             `json:"masterMembershipId,omitempty"`
	HasOwnLogin        bool                                  `json:"hasOwnLogin"`
}

// MembershipSummary is the resolved membership shown on a member row.
type MembershipSummary struct {
	ID              string                                `json:"id"`
	MecaID          nullable.Nullable[int]                `json:"mecaId,omitempty"`
	Category        string                                `json:"category"`
	TypeName        string                                `json:"typeName"`
	HasTeamAddon    bool                                  `json:"hasTeamAddon"`
	PaymentStatus   string                                `json:"paymentStatus"`
	AccountType     nullable.Nullable[string]             `json:"accountType,omitempty"`
	EndDate         nullable.Nullable[openapi_types.Date] `json:"endDate,omitempty"`
	AutoRenewStatus string                                `json:"autoRenewStatus"`
	Secondaries     []Secondary                           `json:"secondaries"`
}

type Member struct {
	Profile           Profile                   `json:"profile"`
	Membership        *MembershipSummary        `json:"membership"`
	Status            string                    `json:"status"`
	TypeLabel         string                    `json:"typeLabel"`
	MasterProfileName nullable.Nullable[string] `json:"masterProfileName,omitempty"`
}

type ListMembersResponse struct {
	Members []Member `json:"members"`
	Total   int      `json:"total"`
}

type ListOrphansResponse struct {
	Orphans []Secondary `json:"orphans"`
}

type MembershipType struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	Category      string                    `json:"category"`
	Tier          nullable.Nullable[string] `json:"tier,omitempty"`
	PriceCents    int64                     `json:"priceCents"`
	Currency      string                    `json:"currency"`
	IncludesTeam  bool                      `json:"includesTeam"`
	IsUpgradeOnly bool                      `json:"isUpgradeOnly"`
	DisplayOrder  int                       `json:"displayOrder"`
}

type ListMembershipTypesResponse struct {
	MembershipTypes []MembershipType `json:"membershipTypes"`
}

// Membership is a stored membership record as created by a submission.
type Membership struct {
	ID                 string                                `json:"id"`
	UserID             string                                `json:"userId"`
	MecaID             nullable.Nullable[int]                `json:"mecaId,omitempty"`
	MembershipTypeID   string                                `json:"membershipTypeId"`
	TypeName           string                                `json:"typeName"`
	Category           string                                `json:"category"`
	CompetitorName     string                                `json:"competitorName"`
	HasTeamAddon       bool                                  `json:"hasTeamAddon"`
	PaymentStatus      string                                `json:"paymentStatus"`
	AccountType        nullable.Nullable[string]             `json:"accountType,omitempty"`
	MasterMembershipID nullable.Nullable[string]             `json:"masterMembershipId,omitempty"`
	HasOwnLogin        bool                                  `json:"hasOwnLogin"`
	EndDate            nullable.Nullable[openapi_types.Date] `json:"endDate,omitempty"`
	CreatedAt          time.Time                             `json:"createdAt"`
}

type Billing struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// WizardForm is the wire shape of wizard.FormData. Enumerations are checked
// here; everything else is left to the step validation rules.
type WizardForm struct {
	UserType string `json:"userType" validate:"omitempty,oneof=staff membership"`

	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	MecaID    string `json:"mecaId"`

	PasswordOption      string `json:"passwordOption" validate:"omitempty,oneof=generate manual"`
	Password            string `json:"password"`
	ConfirmPassword     string `json:"confirmPassword"`
	ForcePasswordChange *bool  `json:"forcePasswordChange"`
	SendEmail           *bool  `json:"sendEmail"`

	StaffRole     *string `json:"staffRole" validate:"omitempty,oneof=admin event_director judge"`
	AddMembership bool    `json:"addMembership"`

	MembershipTypeID *string `json:"membershipTypeId"`
	PaymentMethod    string  `json:"paymentMethod" validate:"omitempty,oneof=cash check credit_card_invoice complimentary"`

	IsSecondaryMembership bool    `json:"isSecondaryMembership"`
	MasterMembershipID    *string `json:"masterMembershipId"`
	GiveSecondaryLogin    bool    `json:"giveSecondaryLogin"`

	CompetitorName      string `json:"competitorName"`
	VehicleMake         string `json:"vehicleMake"`
	VehicleModel        string `json:"vehicleModel"`
	VehicleColor        string `json:"vehicleColor"`
	VehicleLicensePlate string `json:"vehicleLicensePlate"`

	HasTeamAddon    bool   `json:"hasTeamAddon"`
	TeamName        string `json:"teamName"`
	TeamDescription string `json:"teamDescription"`

	BusinessName     string  `json:"businessName"`
	BusinessWebsite  string  `json:"businessWebsite"`
	ManufacturerTier *string `json:"manufacturerTier" validate:"omitempty,oneof=bronze silver gold"`

	Billing *Billing `json:"billing"`

	CheckNumber         string `json:"checkNumber"`
	ComplimentaryReason string `json:"complimentaryReason"`
	Notes               string `json:"notes"`
}

type WizardStepsRequest struct {
	Form WizardForm `json:"form"`
}

type WizardStepsResponse struct {
	Steps []string `json:"steps"`
}

type ValidateStepRequest struct {
	Step string     `json:"step" validate:"required"`
	Form WizardForm `json:"form"`
}

type ValidateStepResponse struct {
	Valid   bool                      `json:"valid"`
	Step    string                    `json:"step"`
	Message nullable.Nullable[string] `json:"message,omitempty"`
	Next    nullable.Nullable[string] `json:"next,omitempty"`
}

type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

type PasswordStrength struct {
	Score    int      `json:"score"`
	Label    string   `json:"label"`
	Feedback []string `json:"feedback"`
}

type GeneratePasswordResponse struct {
	Password string           `json:"password"`
	Strength PasswordStrength `json:"strength"`
}

type MasterCandidate struct {
	MembershipID string                 `json:"membershipId"`
	MecaID       nullable.Nullable[int] `json:"mecaId,omitempty"`
	TypeName     string                 `json:"typeName"`
	Category     string                 `json:"category"`
	Profile      Profile                `json:"profile"`
}

type MasterSearchResponse struct {
	Candidates []MasterCandidate `json:"candidates"`
	// Stale is set when a newer search from the same operator replaced this one.
	Stale bool `json:"stale"`
}

type SubmitRequest struct {
	Form WizardForm `json:"form"`
}

type SubmitResponse struct {
	Path             string                    `json:"path"`
	User             Profile                   `json:"user"`
	Membership       *Membership               `json:"membership,omitempty"`
	InvoiceID        nullable.Nullable[string] `json:"invoiceId,omitempty"`
	Message          string                    `json:"message"`
	MembershipFailed bool                      `json:"membershipFailed"`
	MembershipError  nullable.Nullable[string] `json:"membershipError,omitempty"`
}

func profileFromDomain(p domain.Profile) Profile {
	out := Profile{
		ID:                  string(p.ID),
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		Email:               openapi_types.Email(p.Email),
		Phone:               nullableString(p.Phone),
		MecaID:              nullableInt(p.MecaID),
		Role:                string(p.Role),
		IsSecondaryAccount:  p.IsSecondaryAccount,
		ForcePasswordChange: p.ForcePasswordChange,
		CreatedAt:           p.CreatedAt.UTC(),
	}
	if p.MasterProfileID != nil {
		out.MasterProfileID = nullable.NewNullableWithValue(string(*p.MasterProfileID))
	}
	return out
}

func secondaryFromApp(s memberships.SecondaryInfo) Secondary {
	out := Secondary{
		ID:             string(s.ID),
		UserID:         string(s.UserID),
		CompetitorName: s.CompetitorName,
		MecaID:         nullableInt(s.MecaID),
		Category:       string(s.Category),
		HasTeamAddon:   s.HasTeamAddon,
		PaymentStatus:  string(s.PaymentStatus),
		EndDate:        nullableDate(s.EndDate),
		CreatedAt:      s.CreatedAt.UTC(),
		HasOwnLogin:    s.HasOwnLogin,
	}
	if s.MasterMembershipID != nil {
		out.MasterMembershipID = nullable.NewNullableWithValue(string(*s.MasterMembershipID))
	}
	return out
}

func secondariesFromApp(ss []memberships.SecondaryInfo) []Secondary {
	out := make([]Secondary, 0, len(ss))
	for _, s := range ss {
		out = append(out, secondaryFromApp(s))
	}
	return out
}

func memberFromApp(m memberships.MemberView, now time.Time) Member {
	out := Member{
		Profile:   profileFromDomain(m.Profile),
		Status:    string(memberships.DerivedStatus(m.Membership, now)),
		TypeLabel: memberships.TypeLabel(m.Membership),
	}
	if m.MasterProfileName != "" {
		out.MasterProfileName = nullable.NewNullableWithValue(m.MasterProfileName)
	}
	if v := m.Membership; v != nil {
		out.Membership = &MembershipSummary{
			ID:              string(v.ID),
			MecaID:          nullableInt(v.MecaID),
			Category:        string(v.Category),
			TypeName:        v.TypeName,
			HasTeamAddon:    v.HasTeamAddon,
			PaymentStatus:   string(v.PaymentStatus),
			AccountType:     nullableAccountType(v.AccountType),
			EndDate:         nullableDate(v.EndDate),
			AutoRenewStatus: string(v.AutoRenewStatus),
			Secondaries:     secondariesFromApp(v.Secondaries),
		}
	}
	return out
}

func membershipTypeFromDomain(t domain.MembershipType) MembershipType {
	out := MembershipType{
		ID:            string(t.ID),
		Name:          t.Name,
		Category:      string(t.Category),
		PriceCents:    t.PriceCents,
		Currency:      t.Currency,
		IncludesTeam:  t.IncludesTeam,
		IsUpgradeOnly: t.IsUpgradeOnly,
		DisplayOrder:  t.DisplayOrder,
	}
	if t.Tier != nil {
		out.Tier = nullable.NewNullableWithValue(string(*t.Tier))
	}
	return out
}

func membershipFromDomain(m domain.Membership) *Membership {
	out := &Membership{
		ID:               string(m.ID),
		UserID:           string(m.UserID),
		MecaID:           nullableInt(m.MecaID),
		MembershipTypeID: string(m.MembershipTypeID),
		TypeName:         m.MembershipTypeName,
		Category:         string(m.Category),
		CompetitorName:   m.CompetitorName,
		HasTeamAddon:     m.HasTeamAddon,
		PaymentStatus:    string(m.PaymentStatus),
		AccountType:      nullableAccountType(m.AccountType),
		HasOwnLogin:      m.HasOwnLogin,
		EndDate:          nullableDate(m.EndDate),
		CreatedAt:        m.CreatedAt.UTC(),
	}
	if m.MasterMembershipID != nil {
		out.MasterMembershipID = nullable.NewNullableWithValue(string(*m.MasterMembershipID))
	}
	return out
}

func candidateFromApp(c wizard.MasterCandidate) MasterCandidate {
	return MasterCandidate{
		MembershipID: string(c.Membership.ID),
		MecaID:       nullableInt(c.Membership.MecaID),
		TypeName:     c.Membership.MembershipTypeName,
		Category:     string(c.Membership.Category),
		Profile:      profileFromDomain(c.Profile),
	}
}

func strengthFromApp(s wizard.StrengthResult) PasswordStrength {
	fb := s.Feedback
	if fb == nil {
		fb = []string{}
	}
	return PasswordStrength{Score: s.Score, Label: s.Label, Feedback: fb}
}

func submitResponseFromApp(o wizard.Outcome) SubmitResponse {
	out := SubmitResponse{
		Path:             string(o.Path),
		User:             profileFromDomain(o.User),
		Message:          o.Message,
		MembershipFailed: o.MembershipFailed,
	}
	if o.Membership != nil {
		out.Membership = membershipFromDomain(*o.Membership)
	}
	if o.AdminResult != nil {
		if out.Membership == nil {
			out.Membership = membershipFromDomain(o.AdminResult.Membership)
		}
		out.InvoiceID = nullableString(o.AdminResult.InvoiceID)
	}
	if o.MembershipError != "" {
		out.MembershipError = nullable.NewNullableWithValue(o.MembershipError)
	}
	return out
}

func billingToDomain(b Billing) domain.Billing {
	return domain.Billing{
		FirstName:  b.FirstName,
		LastName:   b.LastName,
		Email:      b.Email,
		Phone:      b.Phone,
		Address:    b.Address,
		City:       b.City,
		State:      b.State,
		PostalCode: b.PostalCode,
		Country:    b.Country,
	}
}

// Legacy records have no account type and are reported as null.
func nullableAccountType(t domain.AccountType) nullable.Nullable[string] {
	var out nullable.Nullable[string]
	if t != domain.AccountTypeLegacy {
		out.Set(string(t))
	}
	return out
}

func nullableString(p *string) nullable.Nullable[string] {
	var out nullable.Nullable[string]
	if p != nil {
		out.Set(*p)
	}
	return out
}

func nullableInt(p *int) nullable.Nullable[int] {
	var out nullable.Nullable[int]
	if p != nil {
		out.Set(*p)
	}
	return out
}

func nullableDate(p *time.Time) nullable.Nullable[openapi_types.Date] {
	var out nullable.Nullable[openapi_types.Date]
	if p != nil {
		out.Set(openapi_types.Date{Time: p.UTC()})
	}
	return out
}
