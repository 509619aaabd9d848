package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/crypto/bcrypt"

	"github.com/mecajames/NewMECAV2-sub005/internal/adapters/httpapi"
	memclock "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/clock"
	memidempotency "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/idempotency"
	memmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershipstore"
	memtypes "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/membershiptypes"
	memprofilestore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/memory/profilestore"
	pgidempotency "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/idempotency"
	pgmembershipstore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/membershipstore"
	pgtypes "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/membershiptypes"
	pgprofilestore "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/profilestore"
	postgres_testutil "github.com/mecajames/NewMECAV2-sub005/internal/adapters/postgres/testutil"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/memberships"
	"github.com/mecajames/NewMECAV2-sub005/internal/app/wizard"
	"github.com/mecajames/NewMECAV2-sub005/internal/platform/mailer"
	idempotencyport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/idempotency"
	membershipstoreport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershipstore"
	membershiptypesport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/membershiptypes"
	profilestoreport "github.com/mecajames/NewMECAV2-sub005/internal/ports/out/profilestore"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	var (
		profiles  profilestoreport.Repository
		members   membershipstoreport.Repository
		types     membershiptypesport.Catalog
		idemStore idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		profiles = pgprofilestore.NewRepo(pool, clk).WithHashCost(bcrypt.MinCost)
		members = pgmembershipstore.NewRepo(pool, clk, 0)
		types = pgtypes.NewCatalog(pool)
		idemStore = pgidempotency.NewStore(pool, clk, 24*time.Hour)
	case backendMemory:
		memProfiles := memprofilestore.NewRepo(clk).WithHashCost(bcrypt.MinCost)
		memTypes := memtypes.NewDefaultCatalog()
		profiles = memProfiles
		types = memTypes
		members = memmembershipstore.NewRepo(clk, memTypes, memProfiles, memmembershipstore.Options{})
		idemStore = memidempotency.NewStore(clk, 24*time.Hour)
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	policy := wizard.DefaultPolicy()
	api := httpapi.NewServer(httpapi.Deps{
		Memberships:     memberships.NewService(profiles, members, clk),
		Types:           types,
		Profiles:        profiles,
		MembershipStore: members,
		Search:          wizard.NewMasterSearch(profiles, members, 0),
		Submitter:       wizard.NewSubmitter(profiles, members, mailer.NewStatic(false), policy),
		Policy:          policy,
		Idem:            idemStore,
		Clock:           clk,
		SearchDebounce:  10 * time.Millisecond,
	})
	t.Cleanup(api.Close)

	// An empty default operator means requests MUST carry X-Operator, allowing
	// coverage of the unauthenticated path.
	logger, _ := test.NewNullLogger()
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{Logger: logger})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, operator string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if operator != "" {
		req.Header.Set(httpapi.OperatorHeader, operator)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}

func jsonReader(t *testing.T, body any) io.Reader {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}
