package apiclient

import (
	"context"
	"net/http"
)

// UserRecord is a backend user identity.
type UserRecord struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// ListUsers returns all users visible to the caller.
func (client *Client) ListUsers(ctx context.Context) ([]UserRecord, error) {
	var users []UserRecord
	if err := client.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser looks up one user. A 404 here maps to session invalidation
// when the looked-up user is the session owner: the account is gone.
func (client *Client) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	var user UserRecord
	if err := client.do(ctx, http.MethodGet, "/users/"+userID, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account.
func (client *Client) DeleteUser(ctx context.Context, userID string) error {
	return client.do(ctx, http.MethodDelete, "/users/"+userID, nil, nil, nil)
}
