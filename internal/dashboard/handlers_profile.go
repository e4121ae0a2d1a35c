package dashboard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spewpay/walletdash/internal/session"
)

type preferencesRequest struct {
	ShowBalance *bool  `json:"showBalance"`
	Theme       string `json:"theme"`
}

var allowedThemes = map[string]bool{"system": true, "light": true, "dark": true}

func (server *Server) handleProfile(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	user, err := server.backend.GetUser(ginContext.Request.Context(), record.UserID)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":        user.ID,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
			"email":     user.Email,
			"createdAt": user.CreatedAt,
		},
	})
}

// handleDeleteAccount removes the upstream account and then tears down
// every session the user holds, across tabs and devices.
func (server *Server) handleDeleteAccount(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	if !requireConfirmation(ginContext) {
		return
	}
	requestContext := ginContext.Request.Context()
	if err := server.backend.DeleteUser(requestContext, record.UserID); err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	if err := server.sessions.ClearUser(requestContext, record.UserID); err != nil {
		server.logger.Warn("session teardown after account delete failed", zap.Error(err))
	}
	server.snapshots.Forget(record.UserID)
	ginContext.SetCookie(server.sessions.CookieName(), "", -1, "/", "", server.sessions.CookieSecure(), true)
	ginContext.JSON(http.StatusOK, gin.H{
		"status":   "account_deleted",
		"redirect": "/login",
	})
}

func (server *Server) handleGetPreferences(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	preferences, err := server.sessions.Preferences(ginContext.Request.Context(), record.UserID)
	if err != nil {
		server.logger.Error("preferences load failed", zap.Error(err))
		ginContext.JSON(http.StatusInternalServerError, errorResponse("preferences_error", "could not load preferences"))
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"preferences": preferences})
}

// handlePutPreferences merges the submitted fields over the stored
// blob; concurrent tabs race and the last writer wins.
func (server *Server) handlePutPreferences(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request preferencesRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestContext := ginContext.Request.Context()
	preferences, err := server.sessions.Preferences(requestContext, record.UserID)
	if err != nil {
		server.logger.Warn("preferences load failed, starting from defaults", zap.Error(err))
		preferences = session.DefaultPreferences()
	}
	if request.ShowBalance != nil {
		preferences.ShowBalance = *request.ShowBalance
	}
	if theme := strings.TrimSpace(request.Theme); theme != "" {
		if !allowedThemes[theme] {
			ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_theme", "theme must be system, light, or dark"))
			return
		}
		preferences.Theme = theme
	}
	if err := server.sessions.SavePreferences(requestContext, record.UserID, preferences); err != nil {
		server.logger.Error("preferences save failed", zap.Error(err))
		ginContext.JSON(http.StatusInternalServerError, errorResponse("preferences_error", "could not save preferences"))
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"preferences": preferences})
}
