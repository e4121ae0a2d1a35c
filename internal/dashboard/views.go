package dashboard

import (
	"github.com/spewpay/walletdash/internal/apiclient"
	"github.com/spewpay/walletdash/pkg/walletview"
)

// TransactionView is a transaction classified and formatted for display.
type TransactionView struct {
	ID           string                       `json:"id"`
	Type         walletview.TransactionType   `json:"type"`
	Status       walletview.TransactionStatus `json:"status"`
	Amount       string                       `json:"amount"`
	SignedAmount string                       `json:"signedAmount"`
	Reference    string                       `json:"reference"`
	Description  string                       `json:"description,omitempty"`
	CreatedAt    string                       `json:"createdAt"`
	Descriptor   walletview.Descriptor        `json:"descriptor"`
	Badge        *walletview.Badge            `json:"badge,omitempty"`
}

// LedgerEntryView is a ledger posting formatted for display.
type LedgerEntryView struct {
	ID            string                     `json:"id"`
	Type          walletview.LedgerEntryType `json:"type"`
	Amount        string                     `json:"amount"`
	BalanceBefore string                     `json:"balanceBefore"`
	BalanceAfter  string                     `json:"balanceAfter"`
	Description   string                     `json:"description"`
	Reference     string                     `json:"reference"`
	CreatedAt     string                     `json:"createdAt"`
}

// WalletCard is the wallet identity block of the overview.
type WalletCard struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
}

// OverviewView is the dashboard landing payload. Balance and
// transaction list are independent snapshots and may disagree for a
// moment; Degraded names the branches that failed on this refresh.
type OverviewView struct {
	Wallet             *WalletCard       `json:"wallet"`
	DisplayBalance     string            `json:"displayBalance"`
	BalanceVisible     bool              `json:"balanceVisible"`
	RecentTransactions []TransactionView `json:"recentTransactions"`
	Degraded           []string          `json:"degraded,omitempty"`
	Stale              bool              `json:"stale,omitempty"`
}

// HistoryView is one filtered page of transaction history.
type HistoryView struct {
	Transactions []TransactionView `json:"transactions"`
	Page         int               `json:"page"`
	PageSize     int               `json:"pageSize"`
	TotalMatched int               `json:"totalMatched"`
}

func (server *Server) transactionView(transaction apiclient.Transaction) TransactionView {
	descriptor := walletview.Classify(transaction.Type)
	formatted := server.formatter.Format(transaction.Amount)
	view := TransactionView{
		ID:           transaction.ID,
		Type:         transaction.Type,
		Status:       transaction.Status,
		Amount:       formatted,
		SignedAmount: descriptor.Sign.Prefix() + formatted,
		Reference:    transaction.Reference,
		Description:  transaction.Description,
		CreatedAt:    transaction.CreatedAt,
		Descriptor:   descriptor,
	}
	if badge, rendered := walletview.StatusBadge(transaction.Status); rendered {
		view.Badge = &badge
	}
	return view
}

func (server *Server) transactionViews(transactions []apiclient.Transaction) []TransactionView {
	views := make([]TransactionView, 0, len(transactions))
	for _, transaction := range transactions {
		views = append(views, server.transactionView(transaction))
	}
	return views
}

func (server *Server) ledgerEntryView(entry apiclient.LedgerEntry) LedgerEntryView {
	return LedgerEntryView{
		ID:            entry.ID,
		Type:          entry.Type,
		Amount:        server.formatter.Format(entry.Amount),
		BalanceBefore: server.formatter.Format(entry.BalanceBefore),
		BalanceAfter:  server.formatter.Format(entry.BalanceAfter),
		Description:   entry.Description,
		Reference:     entry.Reference,
		CreatedAt:     entry.CreatedAt,
	}
}
