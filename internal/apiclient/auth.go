package apiclient

import (
	"context"
	"net/http"
)

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the signup payload.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	Token string     `json:"token"`
	User  UserRecord `json:"user"`
}

// PasswordReset is the reset-password payload.
type PasswordReset struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// EmailVerification is the verify-email payload.
type EmailVerification struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token and user identity.
func (client *Client) Login(ctx context.Context, credentials Credentials) (*AuthResult, error) {
	var result AuthResult
	if err := client.do(ctx, http.MethodPost, "/auth/login", nil, credentials, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account and returns the initial auth result.
func (client *Client) Register(ctx context.Context, registration Registration) (*AuthResult, error) {
	var result AuthResult
	if err := client.do(ctx, http.MethodPost, "/auth/register", nil, registration, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ForgotPassword starts the password reset flow.
func (client *Client) ForgotPassword(ctx context.Context, email string) error {
	return client.do(ctx, http.MethodPost, "/auth/forgot-password", nil, map[string]string{"email": email}, nil)
}

// ResetPassword completes the password reset flow.
func (client *Client) ResetPassword(ctx context.Context, reset PasswordReset) error {
	return client.do(ctx, http.MethodPost, "/auth/reset-password", nil, reset, nil)
}

// VerifyEmail confirms an email verification token.
func (client *Client) VerifyEmail(ctx context.Context, verification EmailVerification) error {
	return client.do(ctx, http.MethodPost, "/auth/verify-email", nil, verification, nil)
}

// ResendVerificationEmail reissues the verification email.
func (client *Client) ResendVerificationEmail(ctx context.Context, email string) error {
	return client.do(ctx, http.MethodPost, "/auth/resend-verification-email", nil, map[string]string{"email": email}, nil)
}
