package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spewpay/walletdash/internal/apiclient"
	"github.com/spewpay/walletdash/pkg/walletview"
)

const (
	journalScopeDeposit  = "deposit"
	journalScopeWithdraw = "withdraw"
)

type depositRequest struct {
	Amount       string `json:"amount"`
	SubmissionID string `json:"submissionId"`
}

// handleInitializeDeposit starts a gateway checkout. When the form
// sends a submission id, the idempotency key is journaled against it,
// so a double-click or retried request of that one submission reuses
// the original key and the backend collapses the duplicate. A later
// deposit of the same amount carries a new submission id and is a new
// transaction.
func (server *Server) handleInitializeDeposit(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request depositRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	amount, err := walletview.ParseMajorAmount(request.Amount)
	if err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_amount", amountErrorMessage(err)))
		return
	}

	requestContext := ginContext.Request.Context()
	idempotencyKey, err := server.submissionKey(requestContext, journalScopeDeposit,
		record.UserID, request.SubmissionID, fmt.Sprintf("%d", amount.MinorUnits()))
	if err != nil {
		server.logger.Error("idempotency journal failed", zap.Error(err))
		ginContext.JSON(http.StatusInternalServerError, errorResponse("journal_error", "could not prepare submission"))
		return
	}

	result, err := server.backend.InitializeDeposit(requestContext, apiclient.DepositRequest{
		UserID:      record.UserID,
		Email:       record.UserEmail,
		Amount:      amount,
		CallbackURL: server.cfg.DepositCallbackURL,
		Idempotency: idempotencyKey,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{
		"authorizationUrl": result.AuthorizationURL,
		"accessCode":       result.AccessCode,
		"reference":        result.Reference,
	})
}

func (server *Server) handleVerifyDeposit(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	reference := strings.TrimSpace(ginContext.Param("reference"))
	if reference == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_reference", "deposit reference is required"))
		return
	}
	verification, err := server.backend.VerifyDeposit(ginContext.Request.Context(), reference)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{
		"status":    verification.Status,
		"reference": verification.Reference,
		"amount":    server.formatter.Format(verification.Amount),
	})
}

// submissionKey returns the idempotency key for one logical
// money-moving submission. Reuse is scoped to the client-generated
// submission id: the same id (with the same fields) always maps back to
// the journaled key, so double-clicks and network retries collapse,
// while a deliberate repeat of the same amount arrives under a fresh id
// and mints a fresh key. Requests without a submission id are each
// their own submission.
func (server *Server) submissionKey(ctx context.Context, scope string, userID string, submissionID string, parts ...string) (walletview.IdempotencyKey, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return walletview.NewIdempotencyKey(uuid.NewString())
	}
	fingerprint := submissionFingerprint(scope, append([]string{userID, submissionID}, parts...)...)
	return server.store.IdempotencyKeyFor(ctx, scope, fingerprint, uuid.NewString)
}

// submissionFingerprint hashes the fields that identify one logical
// money-moving submission.
func submissionFingerprint(scope string, parts ...string) string {
	digest := sha256.Sum256([]byte(scope + "\x00" + strings.Join(parts, "\x00")))
	return hex.EncodeToString(digest[:])
}

func amountErrorMessage(err error) string {
	if errors.Is(err, walletview.ErrInvalidAmount) {
		return "amount must be a positive number"
	}
	return "invalid amount"
}
