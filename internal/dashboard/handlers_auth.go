package dashboard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spewpay/walletdash/internal/apiclient"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type passwordResetRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

type emailVerificationRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

func (server *Server) handleLogin(ginContext *gin.Context) {
	var request loginRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request.Email = strings.TrimSpace(request.Email)
	if request.Email == "" || request.Password == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_credentials", "email and password are required"))
		return
	}

	result, err := server.backend.Login(ginContext.Request.Context(), apiclient.Credentials{
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	server.establishSession(ginContext, result)
}

func (server *Server) handleRegister(ginContext *gin.Context) {
	var request registerRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request.Email = strings.TrimSpace(request.Email)
	if request.Email == "" || request.Password == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_registration", "email and password are required"))
		return
	}

	result, err := server.backend.Register(ginContext.Request.Context(), apiclient.Registration{
		FirstName: strings.TrimSpace(request.FirstName),
		LastName:  strings.TrimSpace(request.LastName),
		Email:     request.Email,
		Password:  request.Password,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	server.establishSession(ginContext, result)
}

// establishSession persists the upstream identity and hands the browser
// its signed cookie. The bearer token never leaves the gateway.
func (server *Server) establishSession(ginContext *gin.Context, result *apiclient.AuthResult) {
	record, cookieValue, err := server.sessions.Establish(
		ginContext.Request.Context(), result.Token, result.User.ID, result.User.Email)
	if err != nil {
		server.logger.Error("session establish failed", zap.Error(err))
		ginContext.JSON(http.StatusInternalServerError, errorResponse("session_error", "could not establish session"))
		return
	}
	ginContext.SetCookie(server.sessions.CookieName(), cookieValue,
		int(server.sessions.TTL().Seconds()), "/", "", server.sessions.CookieSecure(), true)
	ginContext.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":        result.User.ID,
			"firstName": result.User.FirstName,
			"lastName":  result.User.LastName,
			"email":     result.User.Email,
		},
		"sessionId": record.SessionID,
	})
}

// handleLogout clears the session and cached view snapshots. A missing
// or stale cookie still succeeds: logout is idempotent.
func (server *Server) handleLogout(ginContext *gin.Context) {
	cookieValue, err := ginContext.Cookie(server.sessions.CookieName())
	if err == nil && cookieValue != "" {
		record, resolveErr := server.sessions.Resolve(ginContext.Request.Context(), cookieValue)
		if resolveErr == nil {
			if clearErr := server.sessions.Clear(ginContext.Request.Context(), record.SessionID); clearErr != nil {
				server.logger.Warn("session clear on logout failed", zap.Error(clearErr))
			}
			server.snapshots.Forget(record.UserID)
		}
	}
	ginContext.SetCookie(server.sessions.CookieName(), "", -1, "/", "", server.sessions.CookieSecure(), true)
	ginContext.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (server *Server) handleForgotPassword(ginContext *gin.Context) {
	var request emailRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Email) == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "email is required"))
		return
	}
	if err := server.backend.ForgotPassword(ginContext.Request.Context(), strings.TrimSpace(request.Email)); err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "reset_email_sent"})
}

func (server *Server) handleResetPassword(ginContext *gin.Context) {
	var request passwordResetRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	if request.Token == "" || request.Password == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "token and password are required"))
		return
	}
	err := server.backend.ResetPassword(ginContext.Request.Context(), apiclient.PasswordReset{
		Email:    strings.TrimSpace(request.Email),
		Token:    request.Token,
		Password: request.Password,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "password_reset"})
}

func (server *Server) handleVerifyEmail(ginContext *gin.Context) {
	var request emailVerificationRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil || request.Token == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "verification token is required"))
		return
	}
	err := server.backend.VerifyEmail(ginContext.Request.Context(), apiclient.EmailVerification{
		Email: strings.TrimSpace(request.Email),
		Token: request.Token,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "email_verified"})
}

func (server *Server) handleResendVerification(ginContext *gin.Context) {
	var request emailRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Email) == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "email is required"))
		return
	}
	if err := server.backend.ResendVerificationEmail(ginContext.Request.Context(), strings.TrimSpace(request.Email)); err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "verification_email_sent"})
}
