package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mecajames/NewMECAV2-sub005/internal/app/wizard"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershiptypes"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

func (s *Server) WizardSteps(w http.ResponseWriter, r *http.Request) {
	var req WizardStepsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	f, err := s.formFromDTO(r.Context(), req.Form)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	steps, err := wizard.Steps(f)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), map[string]any{"step": string(wizard.StepUserType)})
		return
	}
	resp := WizardStepsResponse{Steps: make([]string, 0, len(steps))}
	for _, st := range steps {
		resp.Steps = append(resp.Steps, string(st))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ValidateStep runs the gate for one step. A user-fixable problem is a 200
// with valid=false; only malformed requests are errors.
func (s *Server) ValidateStep(w http.ResponseWriter, r *http.Request) {
	var req ValidateStepRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	step, err := wizard.ParseStep(req.Step)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), map[string]any{"step": req.Step})
		return
	}
	f, err := s.formFromDTO(r.Context(), req.Form)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	resp := ValidateStepResponse{Step: string(step)}
	if err := wizard.Validate(step, f, s.policy); err != nil {
		var ve *wizard.ValidationError
		if !errors.As(err, &ve) {
			writeAppError(w, r, err)
			return
		}
		resp.Message.Set(ve.Message)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Valid = true
	if steps, err := wizard.Steps(f); err == nil {
		if next, ok := wizard.Next(steps, step); ok {
			resp.Next.Set(string(next))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req PasswordStrengthRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, strengthFromApp(wizard.Strength(req.Password)))
}

func (s *Server) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	pw, err := wizard.GeneratePassword(wizard.DefaultGeneratedPasswordLength, s.policy.MinPasswordStrength)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, GeneratePasswordResponse{
		Password: pw,
		Strength: strengthFromApp(wizard.Strength(pw)),
	})
}

type searchResult struct {
	candidates []wizard.MasterCandidate
	err        error
}

// SearchMasters answers one keystroke of the master search. The response
// waits for the debounce; if the same operator types again first, this
// request is answered with stale=true and no candidates.
func (s *Server) SearchMasters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	op, _ := OperatorFromContext(ctx)

	done := make(chan searchResult, 1)
	sup, ok := s.live.submit(ctx, op, r.URL.Query().Get("q"), func(cs []wizard.MasterCandidate, err error) {
		select {
		case done <- searchResult{candidates: cs, err: err}:
		default:
		}
	})
	if !ok {
		writeError(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", "server is shutting down", nil)
		return
	}

	res, stale, ok := awaitSearch(ctx, done, sup)
	switch {
	case !ok:
	case stale:
		writeJSON(w, http.StatusOK, MasterSearchResponse{Candidates: []MasterCandidate{}, Stale: true})
	case res.err != nil:
		writeAppError(w, r, res.err)
	default:
		resp := MasterSearchResponse{Candidates: make([]MasterCandidate, 0, len(res.candidates))}
		for _, c := range res.candidates {
			resp.Candidates = append(resp.Candidates, candidateFromApp(c))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// awaitSearch waits for a committed result or supersession. A result that was
// committed before the request was superseded still wins. ok is false when ctx
// ends first.
func awaitSearch(ctx context.Context, done <-chan searchResult, sup <-chan struct{}) (res searchResult, stale, ok bool) {
	select {
	case res = <-done:
		return res, false, true
	case <-sup:
		select {
		case res = <-done:
			return res, false, true
		default:
			return searchResult{}, true, true
		}
	case <-ctx.Done():
		return searchResult{}, false, false
	}
}

func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	bodyHash, err := hashSubmitBody(req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	s.idempotent(w, r, "/wizard/submit", bodyHash, func() (int, any, error) {
		f, err := s.formFromDTO(r.Context(), req.Form)
		if err != nil {
			return 0, nil, err
		}
		out, err := s.submitter.Submit(r.Context(), f)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, submitResponseFromApp(out), nil
	})
}

func hashSubmitBody(b SubmitRequest) (string, error) {
	canon := b
	canon.Form.Email = domain.NormalizeEmail(canon.Form.Email)
	canon.Form.FirstName = domain.NormalizeHumanName(canon.Form.FirstName)
	canon.Form.LastName = domain.NormalizeHumanName(canon.Form.LastName)
	raw, err := json.Marshal(canon)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// formFromDTO builds the wizard form, resolving the membership type and the
// selected master from the stores.
func (s *Server) formFromDTO(ctx context.Context, in WizardForm) (wizard.FormData, error) {
	f := wizard.NewFormData()

	ut, err := wizard.ParseUserType(in.UserType)
	if err != nil {
		return wizard.FormData{}, invalidField("userType", err)
	}
	f.UserType = ut

	f.Email = in.Email
	f.FirstName = in.FirstName
	f.LastName = in.LastName
	f.Phone = in.Phone
	f.MecaID = in.MecaID

	if in.PasswordOption != "" {
		opt, err := wizard.ParsePasswordOption(in.PasswordOption)
		if err != nil {
			return wizard.FormData{}, invalidField("passwordOption", err)
		}
		f.PasswordOption = opt
	}
	f.Password = in.Password
	f.ConfirmPassword = in.ConfirmPassword
	if in.ForcePasswordChange != nil {
		f.ForcePasswordChange = *in.ForcePasswordChange
	}
	if in.SendEmail != nil {
		f.SendEmail = *in.SendEmail
	}

	if in.StaffRole != nil {
		role, err := domain.ParseStaffRole(*in.StaffRole)
		if err != nil {
			return wizard.FormData{}, invalidField("staffRole", err)
		}
		f.StaffRole = &role
	}
	f.AddMembership = in.AddMembership

	if id := trimmed(in.MembershipTypeID); id != "" {
		mt, err := s.types.GetByID(ctx, domain.MembershipTypeID(id))
		if err != nil {
			if errors.Is(err, membershiptypes.ErrNotFound) {
				return wizard.FormData{}, &wizard.Error{
					Status:  http.StatusUnprocessableEntity,
					Code:    "VALIDATION_ERROR",
					Message: "unknown membership type",
					Details: map[string]any{"membershipTypeId": id},
				}
			}
			return wizard.FormData{}, fmt.Errorf("load membership type: %w", err)
		}
		f.MembershipType = &mt
	}
	if in.PaymentMethod != "" {
		pm, err := domain.ParsePaymentMethod(in.PaymentMethod)
		if err != nil {
			return wizard.FormData{}, invalidField("paymentMethod", err)
		}
		f.PaymentMethod = pm
	}

	f.IsSecondaryMembership = in.IsSecondaryMembership
	f.GiveSecondaryLogin = in.GiveSecondaryLogin
	if id := trimmed(in.MasterMembershipID); id != "" {
		c, err := s.findMaster(ctx, domain.MembershipID(id))
		if err != nil {
			return wizard.FormData{}, err
		}
		f.Master = &c
	}

	f.CompetitorName = in.CompetitorName
	f.VehicleMake = in.VehicleMake
	f.VehicleModel = in.VehicleModel
	f.VehicleColor = in.VehicleColor
	f.VehicleLicensePlate = in.VehicleLicensePlate

	f.HasTeamAddon = in.HasTeamAddon
	f.TeamName = in.TeamName
	f.TeamDescription = in.TeamDescription

	f.BusinessName = in.BusinessName
	f.BusinessWebsite = in.BusinessWebsite
	if in.ManufacturerTier != nil {
		tier, err := domain.ParseManufacturerTier(*in.ManufacturerTier)
		if err != nil {
			return wizard.FormData{}, invalidField("manufacturerTier", err)
		}
		f.ManufacturerTier = &tier
	}

	if in.Billing != nil {
		f.Billing = billingToDomain(*in.Billing)
		if f.Billing.Country == "" {
			f.Billing.Country = "US"
		}
	}

	f.CheckNumber = in.CheckNumber
	f.ComplimentaryReason = in.ComplimentaryReason
	f.Notes = in.Notes
	return f, nil
}

func (s *Server) findMaster(ctx context.Context, id domain.MembershipID) (wizard.MasterCandidate, error) {
	notFound := &wizard.Error{
		Status:  http.StatusNotFound,
		Code:    "MASTER_NOT_FOUND",
		Message: "The selected master membership no longer exists.",
		Details: map[string]any{"masterMembershipId": string(id)},
	}

	all, err := s.membershipStore.ListAll(ctx)
	if err != nil {
		return wizard.MasterCandidate{}, fmt.Errorf("list memberships: %w", err)
	}
	for _, m := range all {
		if m.ID != id {
			continue
		}
		p, err := s.profiles.GetByID(ctx, m.UserID)
		if err != nil {
			if errors.Is(err, profilestore.ErrNotFound) {
				return wizard.MasterCandidate{}, notFound
			}
			return wizard.MasterCandidate{}, fmt.Errorf("load master profile: %w", err)
		}
		return wizard.MasterCandidate{Membership: m, Profile: p}, nil
	}
	return wizard.MasterCandidate{}, notFound
}

func invalidField(field string, err error) error {
	return &wizard.Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    "VALIDATION_ERROR",
		Message: err.Error(),
		Details: map[string]any{field: err.Error()},
	}
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
