package apiclient

import (
	"context"
	"net/http"

	"github.com/spewpay/walletdash/pkg/walletview"
)

// Allocation is a budget sub-account scoped to an organization.
type Allocation struct {
	ID             string                      `json:"id"`
	OrganizationID string                      `json:"organizationId"`
	Name           string                      `json:"name"`
	Description    string                      `json:"description"`
	Balance        walletview.Amount           `json:"balance"`
	Status         walletview.AllocationStatus `json:"status"`
	AssignedUserID string                      `json:"assignedUserId"`
	ParentID       string                      `json:"parentAllocationId"`
}

// SpendingRule constrains how an allocation's balance may be spent.
type SpendingRule struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// AllocationRequest creates or updates an allocation.
type AllocationRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	AssignedUserID     string `json:"assignedUserId,omitempty"`
	ParentAllocationID string `json:"parentAllocationId,omitempty"`
}

// RuleRequest creates or updates a spending rule. Value is numeric by
// the time it reaches the client; string coercion happens at the form
// boundary.
type RuleRequest struct {
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Description string  `json:"description,omitempty"`
}

// CreateAllocation adds a budget sub-account to an organization.
func (client *Client) CreateAllocation(ctx context.Context, orgID string, request AllocationRequest) (*Allocation, error) {
	var allocation Allocation
	if err := client.do(ctx, http.MethodPost, "/orgs/"+orgID+"/allocations", nil, request, &allocation); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// ListOrgAllocations returns an organization's allocations.
func (client *Client) ListOrgAllocations(ctx context.Context, orgID string) ([]Allocation, error) {
	var allocations []Allocation
	if err := client.do(ctx, http.MethodGet, "/orgs/"+orgID+"/allocations", nil, nil, &allocations); err != nil {
		return nil, err
	}
	return allocations, nil
}

// GetAllocation fetches one allocation.
func (client *Client) GetAllocation(ctx context.Context, allocationID string) (*Allocation, error) {
	var allocation Allocation
	if err := client.do(ctx, http.MethodGet, "/allocations/"+allocationID, nil, nil, &allocation); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// UpdateAllocation patches allocation fields.
func (client *Client) UpdateAllocation(ctx context.Context, allocationID string, request AllocationRequest) (*Allocation, error) {
	var allocation Allocation
	if err := client.do(ctx, http.MethodPatch, "/allocations/"+allocationID, nil, request, &allocation); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// FundAllocation tops an allocation up from the organization wallet.
func (client *Client) FundAllocation(ctx context.Context, allocationID string, amount walletview.Amount) error {
	payload := map[string]any{"amountInNaira": amount.MajorUnits().InexactFloat64()}
	return client.do(ctx, http.MethodPost, "/allocations/"+allocationID+"/fund", nil, payload, nil)
}

// FundFromParent moves budget from the parent allocation.
func (client *Client) FundFromParent(ctx context.Context, allocationID string, amount walletview.Amount) error {
	payload := map[string]any{"amountInNaira": amount.MajorUnits().InexactFloat64()}
	return client.do(ctx, http.MethodPost, "/allocations/"+allocationID+"/fund-from-parent", nil, payload, nil)
}

// FreezeAllocation suspends spending from an allocation.
func (client *Client) FreezeAllocation(ctx context.Context, allocationID string) error {
	return client.do(ctx, http.MethodPost, "/allocations/"+allocationID+"/freeze", nil, nil, nil)
}

// UnfreezeAllocation resumes spending from an allocation.
func (client *Client) UnfreezeAllocation(ctx context.Context, allocationID string) error {
	return client.do(ctx, http.MethodPost, "/allocations/"+allocationID+"/unfreeze", nil, nil, nil)
}

// ListRules returns an allocation's spending rules.
func (client *Client) ListRules(ctx context.Context, allocationID string) ([]SpendingRule, error) {
	var rules []SpendingRule
	if err := client.do(ctx, http.MethodGet, "/allocations/"+allocationID+"/rules", nil, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// AddRule attaches a spending rule to an allocation.
func (client *Client) AddRule(ctx context.Context, allocationID string, request RuleRequest) (*SpendingRule, error) {
	var rule SpendingRule
	if err := client.do(ctx, http.MethodPost, "/allocations/"+allocationID+"/rules", nil, request, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateRule patches a spending rule.
func (client *Client) UpdateRule(ctx context.Context, ruleID string, request RuleRequest) (*SpendingRule, error) {
	var rule SpendingRule
	if err := client.do(ctx, http.MethodPatch, "/rules/"+ruleID, nil, request, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

// DeleteRule removes a spending rule.
func (client *Client) DeleteRule(ctx context.Context, ruleID string) error {
	return client.do(ctx, http.MethodDelete, "/rules/"+ruleID, nil, nil, nil)
}
