package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spewpay/walletdash/internal/apiclient"
)

type guardFixture struct {
	manager      *Manager
	store        *memoryStore
	router       *gin.Engine
	backendHits  *atomic.Int64
	handlerRuns  *atomic.Int64
	firstTouched *atomic.Value
}

func newGuardFixture(t *testing.T, backendStatus int) *guardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backendHits := &atomic.Int64{}
	handlerRuns := &atomic.Int64{}
	firstTouched := &atomic.Value{}

	backend := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		backendHits.Add(1)
		firstTouched.CompareAndSwap(nil, "backend")
		writer.WriteHeader(backendStatus)
		if backendStatus == http.StatusOK {
			_, _ = writer.Write([]byte(`{"data": {"id": "user-1", "email": "user@example.com"}}`))
		} else {
			_, _ = writer.Write([]byte(`{"message": "nope"}`))
		}
	}))
	t.Cleanup(backend.Close)

	client, err := apiclient.New(backend.URL, apiclient.WithTokenProvider(TokenFromContext))
	if err != nil {
		t.Fatalf("client init failed: %v", err)
	}

	store := newMemoryStore()
	manager, err := NewManager(store, testConfig(nil))
	if err != nil {
		t.Fatalf("manager init failed: %v", err)
	}
	guard := NewGuard(manager, client, zap.NewNop())

	router := gin.New()
	protected := router.Group("/api")
	protected.Use(guard.Middleware())
	protected.GET("/wallet", func(ginContext *gin.Context) {
		handlerRuns.Add(1)
		firstTouched.CompareAndSwap(nil, "handler")
		record, ok := Current(ginContext)
		if !ok {
			ginContext.JSON(http.StatusInternalServerError, gin.H{"error": "no session in context"})
			return
		}
		ginContext.JSON(http.StatusOK, gin.H{"userId": record.UserID})
	})

	return &guardFixture{
		manager:      manager,
		store:        store,
		router:       router,
		backendHits:  backendHits,
		handlerRuns:  handlerRuns,
		firstTouched: firstTouched,
	}
}

func TestGuardRejectsMissingCookieBeforeAnyFetch(t *testing.T) {
	t.Parallel()
	fixture := newGuardFixture(t, http.StatusOK)
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if fixture.backendHits.Load() != 0 {
		t.Fatalf("guard must run before any data fetch; backend saw %d calls", fixture.backendHits.Load())
	}
	if fixture.handlerRuns.Load() != 0 {
		t.Fatalf("protected handler must not run without a session")
	}
}

func TestGuardAdmitsValidSession(t *testing.T) {
	t.Parallel()
	fixture := newGuardFixture(t, http.StatusOK)
	_, cookieValue, err := fixture.manager.Establish(context.Background(), "bearer-token", "user-1", "user@example.com")
	if err != nil {
		t.Fatalf("establish failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	request.AddCookie(&http.Cookie{Name: fixture.manager.CookieName(), Value: cookieValue})
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if fixture.handlerRuns.Load() != 1 {
		t.Fatalf("expected handler to run once, ran %d times", fixture.handlerRuns.Load())
	}
	// The identity verification fetch precedes the protected handler.
	if fixture.firstTouched.Load() != "backend" {
		t.Fatalf("identity check must precede handler, first touched: %v", fixture.firstTouched.Load())
	}
}

func TestGuardTearsDownSessionWhenAccountGone(t *testing.T) {
	t.Parallel()
	fixture := newGuardFixture(t, http.StatusNotFound)
	record, cookieValue, err := fixture.manager.Establish(context.Background(), "bearer-token", "user-1", "user@example.com")
	if err != nil {
		t.Fatalf("establish failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	request.AddCookie(&http.Cookie{Name: fixture.manager.CookieName(), Value: cookieValue})
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
	if fixture.handlerRuns.Load() != 0 {
		t.Fatalf("handler must not run for an invalidated session")
	}
	if _, exists := fixture.store.sessions[record.SessionID]; exists {
		t.Fatalf("session must be cleared on invalidation")
	}
}

func TestGuardFailsOpenOnTransientBackendError(t *testing.T) {
	t.Parallel()
	fixture := newGuardFixture(t, http.StatusInternalServerError)
	record, cookieValue, err := fixture.manager.Establish(context.Background(), "bearer-token", "user-1", "user@example.com")
	if err != nil {
		t.Fatalf("establish failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	request.AddCookie(&http.Cookie{Name: fixture.manager.CookieName(), Value: cookieValue})
	fixture.router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if _, exists := fixture.store.sessions[record.SessionID]; !exists {
		t.Fatalf("session must survive a transient backend failure")
	}
}
