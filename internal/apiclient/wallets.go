package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spewpay/walletdash/pkg/walletview"
)

// Transaction is a wallet transaction as returned by the backend. The
// amount decodes through the normalized union, never per screen.
type Transaction struct {
	ID          string                       `json:"id"`
	Type        walletview.TransactionType   `json:"type"`
	Amount      walletview.Amount            `json:"amount"`
	Status      walletview.TransactionStatus `json:"status"`
	Reference   string                       `json:"reference"`
	Description string                       `json:"description"`
	CreatedAt   string                       `json:"createdAt"`
}

// LedgerEntry is one side of a double-entry posting. Entries are
// read-only and always paired server-side.
type LedgerEntry struct {
	ID            string                     `json:"id"`
	Type          walletview.LedgerEntryType `json:"type"`
	Amount        walletview.Amount          `json:"amount"`
	BalanceBefore walletview.Amount          `json:"balanceBefore"`
	BalanceAfter  walletview.Amount          `json:"balanceAfter"`
	Description   string                     `json:"description"`
	Reference     string                     `json:"reference"`
	CreatedAt     string                     `json:"createdAt"`
}

// GetWalletByUser looks up the wallet owned by a user.
func (client *Client) GetWalletByUser(ctx context.Context, userID string) (*walletview.WalletSummary, error) {
	var summary walletview.WalletSummary
	if err := client.do(ctx, http.MethodGet, "/wallets/user/"+userID, nil, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// CreateWallet provisions a wallet for a user.
func (client *Client) CreateWallet(ctx context.Context, userID string) (*walletview.WalletSummary, error) {
	var summary walletview.WalletSummary
	payload := map[string]string{"userId": userID}
	if err := client.do(ctx, http.MethodPost, "/wallets", nil, payload, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetBalance fetches the dedicated balance endpoint, assumed fresher
// than any cached field on the wallet summary.
func (client *Client) GetBalance(ctx context.Context, walletID string) (*walletview.BalanceDocument, error) {
	var document walletview.BalanceDocument
	if err := client.do(ctx, http.MethodGet, "/wallets/"+walletID+"/balance", nil, nil, &document); err != nil {
		return nil, err
	}
	return &document, nil
}

// ListTransactions fetches one page of wallet transactions.
func (client *Client) ListTransactions(ctx context.Context, walletID string, page int, limit int) ([]Transaction, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	var transactions []Transaction
	if err := client.do(ctx, http.MethodGet, "/wallets/"+walletID+"/transactions", query, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetLedger fetches the wallet's double-entry audit trail.
func (client *Client) GetLedger(ctx context.Context, walletID string) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	if err := client.do(ctx, http.MethodGet, "/wallets/"+walletID+"/ledger", nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
