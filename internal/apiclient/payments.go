package apiclient

import (
	"context"
	"net/http"

	"github.com/spewpay/walletdash/pkg/walletview"
)

// DepositRequest initializes a gateway checkout for funding a wallet.
type DepositRequest struct {
	UserID      string
	Email       string
	Amount      walletview.Amount
	CallbackURL string
	Idempotency walletview.IdempotencyKey
}

// DepositInit is the gateway handoff returned by deposit-initialize.
type DepositInit struct {
	AuthorizationURL string `json:"authorizationUrl"`
	AccessCode       string `json:"accessCode"`
	Reference        string `json:"reference"`
}

// DepositVerification is the result of verifying a gateway reference.
type DepositVerification struct {
	Status    string            `json:"status"`
	Reference string            `json:"reference"`
	Amount    walletview.Amount `json:"amount"`
}

// InitializeDeposit starts a deposit. The idempotency key inside the
// payload is the only defense against double-funding on retry, so the
// caller-provided key is sent verbatim on every attempt.
func (client *Client) InitializeDeposit(ctx context.Context, request DepositRequest) (*DepositInit, error) {
	payload := map[string]any{
		"userId":         request.UserID,
		"email":          request.Email,
		"amountInNaira":  request.Amount.MajorUnits().InexactFloat64(),
		"callbackUrl":    request.CallbackURL,
		"idempotencyKey": request.Idempotency.String(),
	}
	var result DepositInit
	if err := client.doIdempotent(ctx, "/payments/deposits/initialize", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyDeposit confirms a checkout reference after gateway redirect.
func (client *Client) VerifyDeposit(ctx context.Context, reference string) (*DepositVerification, error) {
	var result DepositVerification
	if err := client.do(ctx, http.MethodGet, "/payments/deposits/"+reference+"/verify", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
