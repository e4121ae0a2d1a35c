package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spewpay/walletdash/pkg/walletview"
)

// Bank is a payout destination bank.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ResolvedAccount is a verified bank account identity.
type ResolvedAccount struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
}

// Recipient is a saved payout destination.
type Recipient struct {
	ID            string `json:"id"`
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	BankCode      string `json:"bankCode"`
	IsDefault     bool   `json:"isDefault"`
}

// RecipientRequest adds a payout destination for a user.
type RecipientRequest struct {
	UserID        string `json:"userId"`
	AccountNumber string `json:"accountNumber"`
	BankCode      string `json:"bankCode"`
	IsDefault     bool   `json:"isDefault"`
}

// WithdrawRequest moves wallet funds to a saved recipient.
type WithdrawRequest struct {
	UserID      string
	RecipientID string
	Amount      walletview.Amount
	Reason      string
	Idempotency walletview.IdempotencyKey
}

// InternalTransferRequest moves funds between two wallet users.
type InternalTransferRequest struct {
	SourceUserID      string
	DestinationUserID string
	Amount            walletview.Amount
	Description       string
}

// ListBanks returns the supported payout banks.
func (client *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := client.do(ctx, http.MethodGet, "/transfers/banks", nil, nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// ResolveAccount verifies an account number against a bank code.
func (client *Client) ResolveAccount(ctx context.Context, accountNumber string, bankCode string) (*ResolvedAccount, error) {
	payload := map[string]string{"accountNumber": accountNumber, "bankCode": bankCode}
	var resolved ResolvedAccount
	if err := client.do(ctx, http.MethodPost, "/transfers/resolve-account", nil, payload, &resolved); err != nil {
		return nil, err
	}
	return &resolved, nil
}

// AddRecipient saves a payout destination.
func (client *Client) AddRecipient(ctx context.Context, request RecipientRequest) (*Recipient, error) {
	var recipient Recipient
	if err := client.do(ctx, http.MethodPost, "/transfers/recipients", nil, request, &recipient); err != nil {
		return nil, err
	}
	return &recipient, nil
}

// ListRecipients returns a user's saved payout destinations.
func (client *Client) ListRecipients(ctx context.Context, userID string) ([]Recipient, error) {
	query := url.Values{}
	query.Set("userId", userID)
	var recipients []Recipient
	if err := client.do(ctx, http.MethodGet, "/transfers/recipients", query, nil, &recipients); err != nil {
		return nil, err
	}
	return recipients, nil
}

// DeleteRecipient removes a saved payout destination.
func (client *Client) DeleteRecipient(ctx context.Context, recipientID string) error {
	return client.do(ctx, http.MethodDelete, "/transfers/recipients/"+recipientID, nil, nil, nil)
}

// Withdraw moves wallet funds to an external bank account. The
// idempotency key is resent verbatim on transport retries.
func (client *Client) Withdraw(ctx context.Context, request WithdrawRequest) error {
	payload := map[string]any{
		"userId":         request.UserID,
		"recipientId":    request.RecipientID,
		"amountInNaira":  request.Amount.MajorUnits().InexactFloat64(),
		"reason":         request.Reason,
		"idempotencyKey": request.Idempotency.String(),
	}
	return client.doIdempotent(ctx, "/transfers/withdraw", payload, nil)
}

// InternalTransfer moves funds between wallets inside the platform.
func (client *Client) InternalTransfer(ctx context.Context, request InternalTransferRequest) error {
	payload := map[string]any{
		"sourceUserId":      request.SourceUserID,
		"destinationUserId": request.DestinationUserID,
		"amountInNaira":     request.Amount.MajorUnits().InexactFloat64(),
		"description":       request.Description,
	}
	return client.do(ctx, http.MethodPost, "/transfers/internal", nil, payload, nil)
}
