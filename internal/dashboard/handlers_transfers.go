package dashboard

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spewpay/walletdash/internal/apiclient"
	"github.com/spewpay/walletdash/pkg/walletview"
)

type resolveAccountRequest struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
}

type addRecipientRequest struct {
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
	IsDefault     bool   `json:"isDefault"`
}

type withdrawRequest struct {
	RecipientID  string `json:"recipientId"`
	Amount       string `json:"amount"`
	Reason       string `json:"reason"`
	SubmissionID string `json:"submissionId"`
}

type internalTransferRequest struct {
	DestinationUserID string `json:"destinationUserId"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
}

func (server *Server) handleListBanks(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	banks, err := server.backend.ListBanks(ginContext.Request.Context())
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"banks": banks})
}

func (server *Server) handleResolveAccount(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	var request resolveAccountRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request.AccountNumber = strings.TrimSpace(request.AccountNumber)
	request.BankCode = strings.TrimSpace(request.BankCode)
	if request.AccountNumber == "" || request.BankCode == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "accountNumber and bankCode are required"))
		return
	}
	resolved, err := server.backend.ResolveAccount(ginContext.Request.Context(), request.AccountNumber, request.BankCode)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"account": resolved})
}

func (server *Server) handleListRecipients(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	recipients, err := server.backend.ListRecipients(ginContext.Request.Context(), record.UserID)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"recipients": recipients})
}

func (server *Server) handleAddRecipient(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request addRecipientRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request.AccountNumber = strings.TrimSpace(request.AccountNumber)
	request.BankCode = strings.TrimSpace(request.BankCode)
	if request.AccountNumber == "" || request.BankCode == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "accountNumber and bankCode are required"))
		return
	}
	recipient, err := server.backend.AddRecipient(ginContext.Request.Context(), apiclient.RecipientRequest{
		UserID:        record.UserID,
		AccountNumber: request.AccountNumber,
		BankCode:      request.BankCode,
		IsDefault:     request.IsDefault,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusCreated, gin.H{"recipient": recipient})
}

func (server *Server) handleDeleteRecipient(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	if !requireConfirmation(ginContext) {
		return
	}
	recipientID := strings.TrimSpace(ginContext.Param("recipientId"))
	if recipientID == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "recipient id is required"))
		return
	}
	if err := server.backend.DeleteRecipient(ginContext.Request.Context(), recipientID); err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "recipient_deleted"})
}

// handleWithdraw moves wallet funds to a saved recipient. Like
// deposits, a retried submission id reuses the journaled idempotency
// key; a new submission of the same recipient and amount is a new
// withdrawal.
func (server *Server) handleWithdraw(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request withdrawRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request.RecipientID = strings.TrimSpace(request.RecipientID)
	if request.RecipientID == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "recipientId is required"))
		return
	}
	amount, err := walletview.ParseMajorAmount(request.Amount)
	if err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_amount", amountErrorMessage(err)))
		return
	}

	requestContext := ginContext.Request.Context()
	idempotencyKey, err := server.submissionKey(requestContext, journalScopeWithdraw,
		record.UserID, request.SubmissionID, request.RecipientID, fmt.Sprintf("%d", amount.MinorUnits()))
	if err != nil {
		server.logger.Error("idempotency journal failed", zap.Error(err))
		ginContext.JSON(http.StatusInternalServerError, errorResponse("journal_error", "could not prepare submission"))
		return
	}

	err = server.backend.Withdraw(requestContext, apiclient.WithdrawRequest{
		UserID:      record.UserID,
		RecipientID: request.RecipientID,
		Amount:      amount,
		Reason:      strings.TrimSpace(request.Reason),
		Idempotency: idempotencyKey,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "withdrawal_submitted"})
}

func (server *Server) handleInternalTransfer(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request internalTransferRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request.DestinationUserID = strings.TrimSpace(request.DestinationUserID)
	if request.DestinationUserID == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "destinationUserId is required"))
		return
	}
	if request.DestinationUserID == record.UserID {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_transfer", "cannot transfer to yourself"))
		return
	}
	amount, err := walletview.ParseMajorAmount(request.Amount)
	if err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_amount", amountErrorMessage(err)))
		return
	}
	err = server.backend.InternalTransfer(ginContext.Request.Context(), apiclient.InternalTransferRequest{
		SourceUserID:      record.UserID,
		DestinationUserID: request.DestinationUserID,
		Amount:            amount,
		Description:       strings.TrimSpace(request.Description),
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "transfer_submitted"})
}
