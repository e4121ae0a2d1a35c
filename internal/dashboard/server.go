// Package dashboard is the HTTP gateway serving the wallet dashboard.
// It owns no money logic: every screen is assembled from the remote
// wallet backend through the typed client, normalized by walletview,
// and gated by the session guard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spewpay/walletdash/internal/apiclient"
	"github.com/spewpay/walletdash/internal/session"
	"github.com/spewpay/walletdash/internal/store/gormstore"
	"github.com/spewpay/walletdash/pkg/walletview"
)

// Server aggregates the gateway's dependencies and handlers.
type Server struct {
	logger    *zap.Logger
	backend   *apiclient.Client
	sessions  *session.Manager
	guard     *session.Guard
	store     *gormstore.Store
	formatter walletview.Formatter
	snapshots *viewSnapshots
	cfg       Config
}

// NewServer wires a Server from validated configuration, a database
// handle, and a logger.
func NewServer(cfg Config, db *gorm.DB, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := gormstore.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	store := gormstore.New(db)

	backend, err := apiclient.New(cfg.APIBaseURL,
		apiclient.WithTokenProvider(session.TokenFromContext),
		apiclient.WithLogger(logger),
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
	)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewManager(store, session.Config{
		SigningKey:   []byte(cfg.SessionSigningKey),
		Issuer:       cfg.SessionIssuer,
		CookieName:   cfg.SessionCookieName,
		SecureCookie: cfg.SecureCookies,
		TTL:          cfg.SessionTTL,
	})
	if err != nil {
		return nil, err
	}

	return &Server{
		logger:    logger,
		backend:   backend,
		sessions:  sessions,
		guard:     session.NewGuard(sessions, backend, logger),
		store:     store,
		formatter: walletview.NewNairaFormatter(),
		snapshots: newViewSnapshots(defaultSnapshotTTL, nil),
		cfg:       cfg,
	}, nil
}

// Run boots the gateway and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg Config, db *gorm.DB) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	server, err := NewServer(cfg, db, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("walletdash listening", zap.String("addr", cfg.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Router assembles the route table.
func (server *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     server.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ginContext *gin.Context) {
		ginContext.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/auth")
	auth.POST("/login", server.handleLogin)
	auth.POST("/register", server.handleRegister)
	auth.POST("/logout", server.handleLogout)
	auth.POST("/forgot-password", server.handleForgotPassword)
	auth.POST("/reset-password", server.handleResetPassword)
	auth.POST("/verify-email", server.handleVerifyEmail)
	auth.POST("/resend-verification", server.handleResendVerification)

	api := router.Group("/api")
	api.Use(server.guard.Middleware())

	api.GET("/overview", server.handleOverview)
	api.POST("/wallet", server.handleCreateWallet)
	api.GET("/transactions", server.handleHistory)
	api.GET("/ledger", server.handleLedger)

	api.POST("/deposits", server.handleInitializeDeposit)
	api.GET("/deposits/:reference/verify", server.handleVerifyDeposit)

	api.GET("/transfers/banks", server.handleListBanks)
	api.POST("/transfers/resolve-account", server.handleResolveAccount)
	api.GET("/transfers/recipients", server.handleListRecipients)
	api.POST("/transfers/recipients", server.handleAddRecipient)
	api.DELETE("/transfers/recipients/:recipientId", server.handleDeleteRecipient)
	api.POST("/transfers/withdraw", server.handleWithdraw)
	api.POST("/transfers/internal", server.handleInternalTransfer)

	api.GET("/orgs", server.handleMyOrgs)
	api.POST("/orgs", server.handleCreateOrg)
	api.GET("/orgs/:orgId", server.handleGetOrg)
	api.PATCH("/orgs/:orgId", server.handleUpdateOrg)
	api.GET("/orgs/:orgId/members", server.handleListMembers)
	api.PATCH("/orgs/:orgId/members/:memberId", server.handleUpdateMemberRole)
	api.DELETE("/orgs/:orgId/members/:memberId", server.handleRemoveMember)
	api.GET("/orgs/:orgId/invites", server.handleListOrgInvites)
	api.POST("/orgs/:orgId/invites", server.handleCreateInvite)
	api.GET("/invites", server.handleMyInvites)
	api.POST("/invites/:inviteId/accept", server.handleAcceptInvite)
	api.POST("/invites/:inviteId/decline", server.handleDeclineInvite)

	api.GET("/orgs/:orgId/allocations", server.handleListAllocations)
	api.POST("/orgs/:orgId/allocations", server.handleCreateAllocation)
	api.GET("/allocations/:allocationId", server.handleGetAllocation)
	api.PATCH("/allocations/:allocationId", server.handleUpdateAllocation)
	api.POST("/allocations/:allocationId/fund", server.handleFundAllocation)
	api.POST("/allocations/:allocationId/fund-from-parent", server.handleFundFromParent)
	api.POST("/allocations/:allocationId/freeze", server.handleFreezeAllocation)
	api.POST("/allocations/:allocationId/unfreeze", server.handleUnfreezeAllocation)
	api.GET("/allocations/:allocationId/rules", server.handleListRules)
	api.POST("/allocations/:allocationId/rules", server.handleAddRule)
	api.PATCH("/rules/:ruleId", server.handleUpdateRule)
	api.DELETE("/rules/:ruleId", server.handleDeleteRule)

	api.GET("/profile", server.handleProfile)
	api.DELETE("/profile", server.handleDeleteAccount)
	api.GET("/preferences", server.handleGetPreferences)
	api.PUT("/preferences", server.handlePutPreferences)

	return router
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// respondUpstreamError translates a backend failure into a gateway
// response. Session invalidation becomes a 401 with a login redirect,
// business rejections keep the backend's status and message so screens
// can surface them inline, and everything else is a 502.
func (server *Server) respondUpstreamError(ginContext *gin.Context, err error) {
	if apiclient.IsSessionInvalid(err) {
		ginContext.JSON(http.StatusUnauthorized, gin.H{
			"error":    gin.H{"code": "session_expired", "message": "session is no longer valid"},
			"redirect": "/login?session_expired=true",
		})
		return
	}
	var apiError *apiclient.APIError
	if errors.As(err, &apiError) {
		code := apiError.Code
		if code == "" {
			code = "backend_rejected"
		}
		status := apiError.StatusCode
		if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		ginContext.JSON(status, errorResponse(code, apiError.Message))
		return
	}
	server.logger.Error("backend unavailable", zap.Error(err))
	ginContext.JSON(http.StatusBadGateway, errorResponse("upstream_error", "wallet service unavailable"))
}

// currentRecord loads the session record the guard resolved, aborting
// with 401 when it is missing. The guard always sets it on /api routes;
// the abort is a guard-rail for misregistered handlers.
func (server *Server) currentRecord(ginContext *gin.Context) (session.Record, bool) {
	record, ok := session.Current(ginContext)
	if !ok {
		ginContext.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return session.Record{}, false
	}
	return record, true
}

// requireConfirmation gates destructive endpoints behind an explicit
// confirm=true query parameter.
func requireConfirmation(ginContext *gin.Context) bool {
	if ginContext.Query("confirm") != "true" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("confirmation_required", "pass confirm=true to proceed"))
		return false
	}
	return true
}
