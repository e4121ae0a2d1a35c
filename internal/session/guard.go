package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spewpay/walletdash/internal/apiclient"
)

const (
	// GinContextKey is where the guard publishes the resolved record.
	GinContextKey = "session_record"

	loginRedirect        = "/login"
	loginRedirectExpired = "/login?session_expired=true"
)

// Guard gates protected routes. It runs before any data-fetching
// handler: a request with no valid session is rejected outright, and an
// upstream identity check that comes back 401/403/404 tears the session
// down. Any other upstream failure fails open so transient connectivity
// loss never logs users out.
type Guard struct {
	manager *Manager
	backend *apiclient.Client
	logger  *zap.Logger
}

// NewGuard wires a Guard.
func NewGuard(manager *Manager, backend *apiclient.Client, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{manager: manager, backend: backend, logger: logger}
}

// Middleware returns the gin handler enforcing the session gate.
func (guard *Guard) Middleware() gin.HandlerFunc {
	return func(ginContext *gin.Context) {
		cookieValue, err := ginContext.Cookie(guard.manager.CookieName())
		if err != nil || cookieValue == "" {
			abortToLogin(ginContext, "session_missing", "authentication required", loginRedirect)
			return
		}

		requestContext := ginContext.Request.Context()
		record, err := guard.manager.Resolve(requestContext, cookieValue)
		if err != nil {
			guard.expireCookie(ginContext)
			abortToLogin(ginContext, "session_invalid", "session is no longer valid", loginRedirectExpired)
			return
		}

		if invalidated := guard.verifyIdentity(requestContext, record); invalidated {
			guard.expireCookie(ginContext)
			abortToLogin(ginContext, "session_expired", "account is no longer available", loginRedirectExpired)
			return
		}

		_ = guard.manager.Touch(requestContext, record)

		authenticated := WithRecord(WithToken(requestContext, record.Token), record)
		ginContext.Request = ginContext.Request.WithContext(authenticated)
		ginContext.Set(GinContextKey, record)
		ginContext.Next()
	}
}

// verifyIdentity checks the session's user still exists upstream and
// reports whether the session was torn down.
func (guard *Guard) verifyIdentity(ctx context.Context, record Record) bool {
	_, err := guard.backend.GetUser(WithToken(ctx, record.Token), record.UserID)
	if err == nil {
		return false
	}
	if apiclient.IsSessionInvalid(err) {
		guard.logger.Info("session invalidated by identity check",
			zap.String("user_id", record.UserID), zap.Error(err))
		if clearErr := guard.manager.Clear(ctx, record.SessionID); clearErr != nil && !errors.Is(clearErr, ErrNotFound) {
			guard.logger.Warn("session clear failed", zap.Error(clearErr))
		}
		return true
	}
	// Transient upstream failure: keep the session, allow retry.
	guard.logger.Warn("identity check failed open",
		zap.String("user_id", record.UserID), zap.Error(err))
	return false
}

func (guard *Guard) expireCookie(ginContext *gin.Context) {
	ginContext.SetCookie(guard.manager.CookieName(), "", -1, "/", "", guard.manager.CookieSecure(), true)
}

// Current returns the session record the guard resolved for a request.
func Current(ginContext *gin.Context) (Record, bool) {
	value, exists := ginContext.Get(GinContextKey)
	if !exists {
		return Record{}, false
	}
	record, ok := value.(Record)
	return record, ok
}

func abortToLogin(ginContext *gin.Context, code string, message string, redirect string) {
	ginContext.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":    gin.H{"code": code, "message": message},
		"redirect": redirect,
	})
}
