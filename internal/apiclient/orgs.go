package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spewpay/walletdash/pkg/walletview"
)

// Organization is a team entity owning allocations.
type Organization struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      string             `json:"type"`
	Balance   *walletview.Amount `json:"balance"`
	Metadata  map[string]any     `json:"metadata"`
	CreatedAt string             `json:"createdAt"`
}

// Member is an organization membership record.
type Member struct {
	ID     string                `json:"id"`
	UserID string                `json:"userId"`
	Email  string                `json:"email"`
	Role   walletview.MemberRole `json:"role"`
}

// Invite is a pending organization invitation.
type Invite struct {
	ID        string                `json:"id"`
	OrgID     string                `json:"orgId"`
	OrgName   string                `json:"orgName"`
	Email     string                `json:"email"`
	Role      walletview.MemberRole `json:"role"`
	Status    string                `json:"status"`
	CreatedAt string                `json:"createdAt"`
}

// OrganizationRequest creates or updates an organization.
type OrganizationRequest struct {
	Name     string         `json:"name"`
	Type     string         `json:"type,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func actingUserQuery(userID string) url.Values {
	query := url.Values{}
	query.Set("userId", userID)
	return query
}

// CreateOrg creates an organization owned by the acting user.
func (client *Client) CreateOrg(ctx context.Context, actingUserID string, request OrganizationRequest) (*Organization, error) {
	var organization Organization
	if err := client.do(ctx, http.MethodPost, "/orgs", actingUserQuery(actingUserID), request, &organization); err != nil {
		return nil, err
	}
	return &organization, nil
}

// MyOrgs lists the acting user's organizations.
func (client *Client) MyOrgs(ctx context.Context, actingUserID string) ([]Organization, error) {
	var organizations []Organization
	if err := client.do(ctx, http.MethodGet, "/orgs/my", actingUserQuery(actingUserID), nil, &organizations); err != nil {
		return nil, err
	}
	return organizations, nil
}

// GetOrg fetches one organization.
func (client *Client) GetOrg(ctx context.Context, orgID string) (*Organization, error) {
	var organization Organization
	if err := client.do(ctx, http.MethodGet, "/orgs/"+orgID, nil, nil, &organization); err != nil {
		return nil, err
	}
	return &organization, nil
}

// UpdateOrg patches organization fields.
func (client *Client) UpdateOrg(ctx context.Context, actingUserID string, orgID string, request OrganizationRequest) (*Organization, error) {
	var organization Organization
	if err := client.do(ctx, http.MethodPatch, "/orgs/"+orgID, actingUserQuery(actingUserID), request, &organization); err != nil {
		return nil, err
	}
	return &organization, nil
}

// ListMembers returns an organization's membership.
func (client *Client) ListMembers(ctx context.Context, orgID string) ([]Member, error) {
	var members []Member
	if err := client.do(ctx, http.MethodGet, "/orgs/"+orgID+"/members", nil, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMemberRole changes a member's role; enforcement is server-side.
func (client *Client) UpdateMemberRole(ctx context.Context, actingUserID string, orgID string, memberID string, role walletview.MemberRole) error {
	payload := map[string]string{"role": string(role)}
	return client.do(ctx, http.MethodPatch, "/orgs/"+orgID+"/members/"+memberID, actingUserQuery(actingUserID), payload, nil)
}

// RemoveMember removes a member from an organization.
func (client *Client) RemoveMember(ctx context.Context, actingUserID string, orgID string, memberID string) error {
	return client.do(ctx, http.MethodDelete, "/orgs/"+orgID+"/members/"+memberID, actingUserQuery(actingUserID), nil, nil)
}

// CreateInvite invites an email into an organization; the role defaults
// to MEMBER when unspecified.
func (client *Client) CreateInvite(ctx context.Context, actingUserID string, orgID string, email string, role walletview.MemberRole) (*Invite, error) {
	if role == "" {
		role = walletview.RoleMember
	}
	payload := map[string]string{"email": email, "role": string(role)}
	var invite Invite
	if err := client.do(ctx, http.MethodPost, "/orgs/"+orgID+"/invites", actingUserQuery(actingUserID), payload, &invite); err != nil {
		return nil, err
	}
	return &invite, nil
}

// ListOrgInvites returns an organization's outstanding invitations.
func (client *Client) ListOrgInvites(ctx context.Context, actingUserID string, orgID string) ([]Invite, error) {
	var invites []Invite
	if err := client.do(ctx, http.MethodGet, "/orgs/"+orgID+"/invites", actingUserQuery(actingUserID), nil, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// MyInvites returns invitations addressed to the acting user.
func (client *Client) MyInvites(ctx context.Context, actingUserID string) ([]Invite, error) {
	var invites []Invite
	if err := client.do(ctx, http.MethodGet, "/orgs/invites/my", actingUserQuery(actingUserID), nil, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// AcceptInvite joins the acting user to the inviting organization.
func (client *Client) AcceptInvite(ctx context.Context, actingUserID string, inviteID string) error {
	payload := map[string]string{"userId": actingUserID}
	return client.do(ctx, http.MethodPost, "/orgs/invites/"+inviteID+"/accept", nil, payload, nil)
}

// DeclineInvite rejects an invitation.
func (client *Client) DeclineInvite(ctx context.Context, actingUserID string, inviteID string) error {
	return client.do(ctx, http.MethodPost, "/orgs/invites/"+inviteID+"/decline", actingUserQuery(actingUserID), nil, nil)
}
