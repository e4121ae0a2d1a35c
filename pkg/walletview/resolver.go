package walletview

// BalanceDocument is the payload of the dedicated balance endpoint.
// Both field-naming conventions observed from the backend are decoded.
type BalanceDocument struct {
	Balance          *Amount `json:"balance"`
	CachedBalance    *Amount `json:"cached_balance"`
	CachedBalanceAlt *Amount `json:"cachedBalance"`
}

// WalletSummary is the wallet metadata payload returned by the
// wallet-by-user lookup.
type WalletSummary struct {
	ID               string  `json:"id"`
	UUID             string  `json:"uuid"`
	Currency         string  `json:"currency"`
	CachedBalance    *Amount `json:"cached_balance"`
	CachedBalanceAlt *Amount `json:"cachedBalance"`
}

// WalletID returns whichever identifier the backend populated.
func (summary WalletSummary) WalletID() string {
	if summary.ID != "" {
		return summary.ID
	}
	return summary.UUID
}

// ResolveDisplayBalance picks the single authoritative display value.
// The dedicated balance endpoint is assumed fresher than any cached
// field returned alongside wallet metadata, so its fields win in order:
// balance, then either cached-balance spelling; the wallet summary's
// cached fields come last; everything absent resolves to zero.
func ResolveDisplayBalance(balanceDocument *BalanceDocument, summary *WalletSummary) Amount {
	if balanceDocument != nil {
		for _, candidate := range []*Amount{balanceDocument.Balance, balanceDocument.CachedBalance, balanceDocument.CachedBalanceAlt} {
			if candidate != nil {
				return *candidate
			}
		}
	}
	if summary != nil {
		for _, candidate := range []*Amount{summary.CachedBalance, summary.CachedBalanceAlt} {
			if candidate != nil {
				return *candidate
			}
		}
	}
	return ZeroAmount()
}
