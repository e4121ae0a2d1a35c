package dashboard

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spewpay/walletdash/internal/apiclient"
	"github.com/spewpay/walletdash/internal/session"
	"github.com/spewpay/walletdash/pkg/walletview"
)

const overviewSnapshotName = "overview"

// handleOverview assembles the dashboard landing view. The balance and
// recent-transaction branches fetch concurrently and fail independently:
// one broken branch degrades its section instead of blanking the screen.
// Commits are ordered per user so a slow refresh never replaces a newer
// one.
func (server *Server) handleOverview(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	requestContext := ginContext.Request.Context()
	sequence := server.snapshots.Begin(record.UserID, overviewSnapshotName)

	summary, err := server.backend.GetWalletByUser(requestContext, record.UserID)
	if err != nil {
		if apiclient.IsSessionInvalid(err) {
			server.respondUpstreamError(ginContext, err)
			return
		}
		// No wallet reachable: serve the last committed snapshot if one
		// exists, otherwise an empty degraded view.
		server.logger.Warn("wallet lookup failed", zap.String("user_id", record.UserID), zap.Error(err))
		if cached, exists := server.snapshots.Latest(record.UserID, overviewSnapshotName); exists {
			if view, isView := cached.(OverviewView); isView {
				view.Stale = true
				ginContext.JSON(http.StatusOK, view)
				return
			}
		}
		ginContext.JSON(http.StatusOK, OverviewView{
			DisplayBalance:     server.formatter.Format(walletview.ZeroAmount()),
			BalanceVisible:     true,
			RecentTransactions: []TransactionView{},
			Degraded:           []string{"wallet"},
		})
		return
	}

	var (
		balanceDocument *walletview.BalanceDocument
		transactions    []apiclient.Transaction
		degraded        []string
	)
	group, groupContext := errgroup.WithContext(requestContext)
	group.Go(func() error {
		document, balanceErr := server.backend.GetBalance(groupContext, summary.WalletID())
		if balanceErr != nil {
			server.logger.Warn("balance fetch failed", zap.Error(balanceErr))
			return nil
		}
		balanceDocument = document
		return nil
	})
	group.Go(func() error {
		recent, listErr := server.backend.ListTransactions(groupContext, summary.WalletID(), 1, defaultRecentLimit)
		if listErr != nil {
			server.logger.Warn("recent transactions fetch failed", zap.Error(listErr))
			return nil
		}
		transactions = recent
		return nil
	})
	_ = group.Wait()

	if balanceDocument == nil {
		degraded = append(degraded, "balance")
	}
	if transactions == nil {
		degraded = append(degraded, "transactions")
		transactions = []apiclient.Transaction{}
	}

	preferences, err := server.sessions.Preferences(requestContext, record.UserID)
	if err != nil {
		server.logger.Warn("preferences load failed", zap.Error(err))
		preferences = session.DefaultPreferences()
	}

	view := OverviewView{
		Wallet:             &WalletCard{ID: summary.WalletID(), Currency: summary.Currency},
		BalanceVisible:     preferences.ShowBalance,
		RecentTransactions: server.transactionViews(transactions),
		Degraded:           degraded,
	}
	if preferences.ShowBalance {
		view.DisplayBalance = server.formatter.Format(walletview.ResolveDisplayBalance(balanceDocument, summary))
	}

	if !server.snapshots.Commit(record.UserID, overviewSnapshotName, sequence, view) {
		// A later refresh already committed; serve its payload.
		if cached, exists := server.snapshots.Latest(record.UserID, overviewSnapshotName); exists {
			if latest, isView := cached.(OverviewView); isView {
				ginContext.JSON(http.StatusOK, latest)
				return
			}
		}
	}
	ginContext.JSON(http.StatusOK, view)
}

func (server *Server) handleCreateWallet(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	summary, err := server.backend.CreateWallet(ginContext.Request.Context(), record.UserID)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusCreated, gin.H{
		"wallet": WalletCard{ID: summary.WalletID(), Currency: summary.Currency},
	})
}

// handleHistory serves a filtered page of transaction history. The
// backend paginates but does not filter, so the gateway fetches one
// generous page and applies search and type filters in memory before
// slicing the requested page out of the matches.
func (server *Server) handleHistory(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	requestContext := ginContext.Request.Context()

	page := parsePositiveInt(ginContext.Query("page"), 1)
	pageSize := parsePositiveInt(ginContext.Query("pageSize"), defaultHistoryPageSize)
	search := strings.ToLower(strings.TrimSpace(ginContext.Query("search")))
	typeFilter := walletview.TransactionType(strings.ToUpper(strings.TrimSpace(ginContext.Query("type"))))

	summary, err := server.backend.GetWalletByUser(requestContext, record.UserID)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	transactions, err := server.backend.ListTransactions(requestContext, summary.WalletID(), 1, defaultHistoryFetchLimit)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}

	matched := make([]apiclient.Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		if typeFilter != "" && transaction.Type != typeFilter {
			continue
		}
		if search != "" && !matchesSearch(transaction, search) {
			continue
		}
		matched = append(matched, transaction)
	}

	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	ginContext.JSON(http.StatusOK, HistoryView{
		Transactions: server.transactionViews(matched[start:end]),
		Page:         page,
		PageSize:     pageSize,
		TotalMatched: len(matched),
	})
}

func (server *Server) handleLedger(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	requestContext := ginContext.Request.Context()

	summary, err := server.backend.GetWalletByUser(requestContext, record.UserID)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	entries, err := server.backend.GetLedger(requestContext, summary.WalletID())
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	views := make([]LedgerEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, server.ledgerEntryView(entry))
	}
	ginContext.JSON(http.StatusOK, gin.H{"entries": views})
}

// matchesSearch checks the lowercased search term against a
// transaction's reference, description, and type.
func matchesSearch(transaction apiclient.Transaction, search string) bool {
	for _, field := range []string{
		transaction.Reference,
		transaction.Description,
		string(transaction.Type),
	} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func parsePositiveInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
