package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	memclock "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/clock"
	memidempotency "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/idempotency"
	memmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershipstore"
	memtypes "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershiptypes"
	memprofilestore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/profilestore"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/memberships"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/wizard"
	"github.com/mecajames/NewMECAV2-sub005/internal/domain"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/mailer"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	"github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

const (
	testOperator   = "ops@meca.test"
	strongPassword = "Str0ng!Passw0rd#2024"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type testAPI struct {
	handler     http.Handler
	server      *Server
	clk         *memclock.ManualClock
	profiles    *memprofilestore.Repo
	memberships *memmembershipstore.Repo
}

type testOptions struct {
	defaultOperator string
	searchDebounce  time.Duration
}

func newTestAPI(t *testing.T, opts testOptions) *testAPI {
	t.Helper()

	clk := memclock.NewManualClock(testNow)
	profiles := memprofilestore.NewRepo(clk).WithHashCost(bcrypt.MinCost)
	types := memtypes.NewDefaultCatalog()
	ms := memmembershipstore.NewRepo(clk, types, profiles, memmembershipstore.Options{})

	debounce := opts.searchDebounce
	if debounce <= 0 {
		debounce = 10 * time.Millisecond
	}
	policy := wizard.DefaultPolicy()
	srv := NewServer(Deps{
		Memberships:     memberships.NewService(profiles, ms, clk),
		Types:           types,
		Profiles:        profiles,
		MembershipStore: ms,
		Search:          wizard.NewMasterSearch(profiles, ms, 0),
		Submitter:       wizard.NewSubmitter(profiles, ms, mailer.NewStatic(false), policy),
		Policy:          policy,
		Idem:            memidempotency.NewStore(clk, 24*time.Hour),
		Clock:           clk,
		SearchDebounce:  debounce,
	})
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	h := NewRouter(srv, RouterOptions{
		Logger:          logger,
		DefaultOperator: opts.defaultOperator,
		MetricsPath:     "/metrics",
	})
	return &testAPI{handler: h, server: srv, clk: clk, profiles: profiles, memberships: ms}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(OperatorHeader, testOperator)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

// seedMaster creates a profile with a paid competitor membership.
func (a *testAPI) seedMaster(t *testing.T, first, last, email string) (domain.Profile, domain.Membership) {
	t.Helper()
	ctx := context.Background()
	p, err := a.profiles.CreateWithPassword(ctx, profilestore.CreateWithPasswordInput{
		Email:     email,
		Password:  strongPassword,
		FirstName: first,
		LastName:  last,
		Role:      domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("CreateWithPassword: %v", err)
	}
	res, err := a.memberships.AdminCreate(ctx, membershipstore.AdminCreateInput{
		UserID:           p.ID,
		MembershipTypeID: "competitor",
		PaymentMethod:    domain.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("AdminCreate: %v", err)
	}
	return p, res.Membership
}

func mustDecode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, rr.Body.String())
	}
	return out
}

func requireStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status=%d want=%d body=%s", rr.Code, want, rr.Body.String())
	}
}

func requireErrorCode(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) ErrorResponse {
	t.Helper()
	requireStatus(t, rr, wantStatus)
	er := mustDecode[ErrorResponse](t, rr)
	if er.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", er.Error.Code, wantCode, rr.Body.String())
	}
	return er
}

// competitorForm is a complete, valid competitor form.
func competitorForm() map[string]any {
	return map[string]any{
		"userType":            "membership",
		"email":               "carol@example.com",
		"firstName":           "Carol",
		"lastName":            "Jones",
		"password":            strongPassword,
		"confirmPassword":     strongPassword,
		"membershipTypeId":    "competitor",
		"vehicleMake":         "Ford",
		"vehicleModel":        "F-150",
		"vehicleColor":        "Blue",
		"vehicleLicensePlate": "ABC123",
		"paymentMethod":       "cash",
	}
}
