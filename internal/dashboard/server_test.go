package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeBackend simulates the remote wallet service with just enough
// surface for the gateway: identity checks, login, wallet reads, and
// deposit initialization with idempotency-key capture.
type fakeBackend struct {
	mu            sync.Mutex
	depositKeys   []string
	recipientHits int
	balanceStatus int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{balanceStatus: http.StatusOK}
}

func (backend *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(writer http.ResponseWriter, request *http.Request) {
		writeData(writer, map[string]any{
			"token": "bearer-token",
			"user": map[string]any{
				"id": "user-1", "firstName": "Ada", "lastName": "Obi", "email": "ada@example.com",
			},
		})
	})
	mux.HandleFunc("/users/user-1", func(writer http.ResponseWriter, request *http.Request) {
		writeData(writer, map[string]any{"id": "user-1", "email": "ada@example.com"})
	})
	mux.HandleFunc("/wallets/user/user-1", func(writer http.ResponseWriter, request *http.Request) {
		writeData(writer, map[string]any{
			"id": "wallet-1", "currency": "NGN",
			"cached_balance": map[string]any{"kobo": 500000},
		})
	})
	mux.HandleFunc("/wallets/wallet-1/balance", func(writer http.ResponseWriter, request *http.Request) {
		backend.mu.Lock()
		status := backend.balanceStatus
		backend.mu.Unlock()
		if status != http.StatusOK {
			writer.WriteHeader(status)
			_, _ = writer.Write([]byte(`{"message": "balance unavailable"}`))
			return
		}
		writeData(writer, map[string]any{"balance": 162500})
	})
	mux.HandleFunc("/wallets/wallet-1/transactions", func(writer http.ResponseWriter, request *http.Request) {
		writeData(writer, []map[string]any{
			{"id": "t-1", "type": "DEPOSIT", "amount": map[string]any{"kobo": 250000}, "status": "COMPLETED", "reference": "ref-alpha", "description": "Salary for February", "createdAt": "2026-02-01T10:00:00Z"},
			{"id": "t-2", "type": "WITHDRAWAL", "amount": 100000, "status": "PENDING", "reference": "ref-beta", "description": "Cash out to GTB", "createdAt": "2026-02-02T10:00:00Z"},
			{"id": "t-3", "type": "TRANSFER", "amount": "50000", "status": "FAILED", "reference": "gamma-note", "description": "Rent to landlord", "createdAt": "2026-02-03T10:00:00Z"},
		})
	})
	mux.HandleFunc("/payments/deposits/initialize", func(writer http.ResponseWriter, request *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(request.Body).Decode(&payload)
		key, _ := payload["idempotencyKey"].(string)
		backend.mu.Lock()
		backend.depositKeys = append(backend.depositKeys, key)
		backend.mu.Unlock()
		writeData(writer, map[string]any{
			"authorizationUrl": "https://pay.example.com/checkout",
			"accessCode":       "access-1",
			"reference":        "dep-ref-1",
		})
	})
	mux.HandleFunc("/transfers/recipients/", func(writer http.ResponseWriter, request *http.Request) {
		backend.mu.Lock()
		backend.recipientHits++
		backend.mu.Unlock()
		writeData(writer, map[string]any{"deleted": true})
	})
	return mux
}

func writeData(writer http.ResponseWriter, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(writer).Encode(map[string]any{"data": payload})
}

type serverFixture struct {
	router  http.Handler
	backend *fakeBackend
	cookie  *http.Cookie
}

func newServerFixture(t *testing.T, mutate ...func(*Config)) *serverFixture {
	t.Helper()

	backend := newFakeBackend()
	backendServer := httptest.NewServer(backend.handler())
	t.Cleanup(backendServer.Close)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	cfg := Config{
		APIBaseURL:        backendServer.URL,
		SessionSigningKey: "test-signing-key",
	}
	for _, apply := range mutate {
		apply(&cfg)
	}
	server, err := NewServer(cfg, db, zap.NewNop())
	if err != nil {
		t.Fatalf("server init: %v", err)
	}

	fixture := &serverFixture{router: server.Router(), backend: backend}
	fixture.login(t)
	return fixture
}

func (fixture *serverFixture) login(t *testing.T) {
	t.Helper()
	recorder := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"email": "ada@example.com", "password": "secret"}`)
	request := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	request.Header.Set("Content-Type", "application/json")
	fixture.router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", recorder.Code, recorder.Body.String())
	}
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Value != "" {
			fixture.cookie = cookie
			return
		}
	}
	t.Fatalf("login did not set a session cookie")
}

func (fixture *serverFixture) do(t *testing.T, method string, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = bytes.NewBufferString(body)
	}
	request := httptest.NewRequest(method, target, reader)
	request.Header.Set("Content-Type", "application/json")
	request.AddCookie(fixture.cookie)
	fixture.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return payload
}

func TestOverviewFormatsBalanceAndClassifiesTransactions(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	recorder := fixture.do(t, http.MethodGet, "/api/overview", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("overview failed: %d %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)

	if payload["displayBalance"] != "₦1,625.00" {
		t.Fatalf("expected dedicated balance endpoint to win, got %v", payload["displayBalance"])
	}
	transactions, _ := payload["recentTransactions"].([]any)
	if len(transactions) != 3 {
		t.Fatalf("expected 3 recent transactions, got %d", len(transactions))
	}
	deposit, _ := transactions[0].(map[string]any)
	if deposit["signedAmount"] != "+₦2,500.00" {
		t.Fatalf("deposit must render inbound, got %v", deposit["signedAmount"])
	}
	withdrawal, _ := transactions[1].(map[string]any)
	if withdrawal["signedAmount"] != "-₦1,000.00" {
		t.Fatalf("withdrawal must render outbound, got %v", withdrawal["signedAmount"])
	}
	badge, _ := withdrawal["badge"].(map[string]any)
	if badge["label"] != "Pending" || badge["animated"] != true {
		t.Fatalf("pending badge mismatch: %v", badge)
	}
}

func TestOverviewFallsBackToCachedBalance(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)
	fixture.backend.mu.Lock()
	fixture.backend.balanceStatus = http.StatusInternalServerError
	fixture.backend.mu.Unlock()

	recorder := fixture.do(t, http.MethodGet, "/api/overview", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("overview must survive a broken balance branch: %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["displayBalance"] != "₦5,000.00" {
		t.Fatalf("expected cached wallet balance fallback, got %v", payload["displayBalance"])
	}
	degraded, _ := payload["degraded"].([]any)
	if len(degraded) != 1 || degraded[0] != "balance" {
		t.Fatalf("expected degraded balance branch, got %v", degraded)
	}
}

func TestDepositResubmissionReusesJournaledKey(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	for range 2 {
		recorder := fixture.do(t, http.MethodPost, "/api/deposits", `{"amount": "1500.00", "submissionId": "sub-1"}`)
		if recorder.Code != http.StatusOK {
			t.Fatalf("deposit failed: %d %s", recorder.Code, recorder.Body.String())
		}
	}
	recorder := fixture.do(t, http.MethodPost, "/api/deposits", `{"amount": "1500.00", "submissionId": "sub-2"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("deposit failed: %d %s", recorder.Code, recorder.Body.String())
	}

	fixture.backend.mu.Lock()
	keys := append([]string(nil), fixture.backend.depositKeys...)
	fixture.backend.mu.Unlock()
	if len(keys) != 3 {
		t.Fatalf("expected 3 backend submissions, got %d", len(keys))
	}
	if keys[0] != keys[1] {
		t.Fatalf("retried submission must reuse the journaled key: %q vs %q", keys[0], keys[1])
	}
	if keys[2] == keys[0] {
		t.Fatalf("a new submission must mint a fresh key")
	}
}

func TestDepositRepeatWithoutSubmissionIDMintsFreshKeys(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	// Two deliberate deposits of the same amount are distinct money
	// moves; only a submission id marks them as retries of one move.
	for range 2 {
		recorder := fixture.do(t, http.MethodPost, "/api/deposits", `{"amount": "1500.00"}`)
		if recorder.Code != http.StatusOK {
			t.Fatalf("deposit failed: %d %s", recorder.Code, recorder.Body.String())
		}
	}

	fixture.backend.mu.Lock()
	keys := append([]string(nil), fixture.backend.depositKeys...)
	fixture.backend.mu.Unlock()
	if len(keys) != 2 {
		t.Fatalf("expected 2 backend submissions, got %d", len(keys))
	}
	if keys[0] == keys[1] {
		t.Fatalf("repeat deposits without a submission id must not share a key: %q", keys[0])
	}
}

func TestDepositRejectsInvalidAmounts(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	for _, body := range []string{
		`{"amount": ""}`,
		`{"amount": "0"}`,
		`{"amount": "-50"}`,
		`{"amount": "abc"}`,
	} {
		recorder := fixture.do(t, http.MethodPost, "/api/deposits", body)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, recorder.Code)
		}
	}
	fixture.backend.mu.Lock()
	defer fixture.backend.mu.Unlock()
	if len(fixture.backend.depositKeys) != 0 {
		t.Fatalf("invalid amounts must never reach the backend")
	}
}

func TestHistoryFiltersInMemory(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	recorder := fixture.do(t, http.MethodGet, "/api/transactions?type=DEPOSIT", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("history failed: %d %s", recorder.Code, recorder.Body.String())
	}
	payload := decodeBody(t, recorder)
	if payload["totalMatched"] != float64(1) {
		t.Fatalf("expected one deposit, got %v", payload["totalMatched"])
	}

	recorder = fixture.do(t, http.MethodGet, "/api/transactions?search=ref-", "")
	payload = decodeBody(t, recorder)
	if payload["totalMatched"] != float64(2) {
		t.Fatalf("expected two reference matches, got %v", payload["totalMatched"])
	}

	recorder = fixture.do(t, http.MethodGet, "/api/transactions?search=landlord", "")
	payload = decodeBody(t, recorder)
	if payload["totalMatched"] != float64(1) {
		t.Fatalf("expected one description match, got %v", payload["totalMatched"])
	}

	recorder = fixture.do(t, http.MethodGet, "/api/transactions?search=withdraw", "")
	payload = decodeBody(t, recorder)
	if payload["totalMatched"] != float64(1) {
		t.Fatalf("expected one type match, got %v", payload["totalMatched"])
	}

	recorder = fixture.do(t, http.MethodGet, "/api/transactions?page=2&pageSize=2", "")
	payload = decodeBody(t, recorder)
	transactions, _ := payload["transactions"].([]any)
	if len(transactions) != 1 {
		t.Fatalf("expected one transaction on the last page, got %d", len(transactions))
	}
}

func TestDeleteRecipientRequiresConfirmation(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	recorder := fixture.do(t, http.MethodDelete, "/api/transfers/recipients/rec-1", "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected confirmation gate, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "confirmation_required") {
		t.Fatalf("expected confirmation_required error, got %s", recorder.Body.String())
	}
	fixture.backend.mu.Lock()
	hits := fixture.backend.recipientHits
	fixture.backend.mu.Unlock()
	if hits != 0 {
		t.Fatalf("unconfirmed delete must not reach the backend")
	}

	recorder = fixture.do(t, http.MethodDelete, "/api/transfers/recipients/rec-1?confirm=true", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("confirmed delete failed: %d %s", recorder.Code, recorder.Body.String())
	}
}

func TestPreferencesHideBalanceOnOverview(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	recorder := fixture.do(t, http.MethodPut, "/api/preferences", `{"showBalance": false, "theme": "dark"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("preferences update failed: %d %s", recorder.Code, recorder.Body.String())
	}

	recorder = fixture.do(t, http.MethodGet, "/api/overview", "")
	payload := decodeBody(t, recorder)
	if payload["balanceVisible"] != false {
		t.Fatalf("expected hidden balance, got %v", payload["balanceVisible"])
	}
	if balance, exists := payload["displayBalance"]; exists && balance != "" {
		t.Fatalf("hidden balance must not be rendered, got %v", balance)
	}
}

func TestUnknownThemeRejected(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	recorder := fixture.do(t, http.MethodPut, "/api/preferences", `{"theme": "neon"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected theme validation failure, got %d", recorder.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	recorder := fixture.do(t, http.MethodPost, "/auth/logout", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", recorder.Code)
	}
	recorder = fixture.do(t, http.MethodGet, "/api/overview", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("cleared session must be rejected, got %d", recorder.Code)
	}
}

func TestSecureCookiesFlagMarksSessionCookies(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t, func(cfg *Config) { cfg.SecureCookies = true })

	if !fixture.cookie.Secure {
		t.Fatalf("login cookie must carry the Secure attribute")
	}

	recorder := fixture.do(t, http.MethodPost, "/auth/logout", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", recorder.Code)
	}
	for _, cookie := range recorder.Result().Cookies() {
		if !cookie.Secure {
			t.Fatalf("logout expiry cookie must carry the Secure attribute")
		}
	}
}

func TestRuleValueCoercion(t *testing.T) {
	t.Parallel()
	fixture := newServerFixture(t)

	recorder := fixture.do(t, http.MethodPost, "/api/allocations/alloc-1/rules",
		`{"type": "SPENDING_LIMIT", "value": "not-a-number"}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric rule value must be rejected locally, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "invalid_rule_value") {
		t.Fatalf("expected invalid_rule_value, got %s", recorder.Body.String())
	}
}
