package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spewpay/walletdash/internal/apiclient"
	"github.com/spewpay/walletdash/pkg/walletview"
)

// AllocationView is a budget sub-account formatted for display.
type AllocationView struct {
	ID             string                      `json:"id"`
	OrganizationID string                      `json:"organizationId"`
	Name           string                      `json:"name"`
	Description    string                      `json:"description,omitempty"`
	Balance        string                      `json:"balance"`
	Status         walletview.AllocationStatus `json:"status"`
	AssignedUserID string                      `json:"assignedUserId,omitempty"`
	ParentID       string                      `json:"parentAllocationId,omitempty"`
}

type allocationRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	AssignedUserID     string `json:"assignedUserId"`
	ParentAllocationID string `json:"parentAllocationId"`
}

type fundRequest struct {
	Amount string `json:"amount"`
}

// ruleRequest accepts the rule value as either a number or a numeric
// string, the two shapes the form layer emits.
type ruleRequest struct {
	Type        string `json:"type"`
	Value       any    `json:"value"`
	Description string `json:"description"`
}

func (server *Server) allocationView(allocation apiclient.Allocation) AllocationView {
	return AllocationView{
		ID:             allocation.ID,
		OrganizationID: allocation.OrganizationID,
		Name:           allocation.Name,
		Description:    allocation.Description,
		Balance:        server.formatter.Format(allocation.Balance),
		Status:         allocation.Status,
		AssignedUserID: allocation.AssignedUserID,
		ParentID:       allocation.ParentID,
	}
}

func (server *Server) handleListAllocations(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	allocations, err := server.backend.ListOrgAllocations(ginContext.Request.Context(), ginContext.Param("orgId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	views := make([]AllocationView, 0, len(allocations))
	for _, allocation := range allocations {
		views = append(views, server.allocationView(allocation))
	}
	ginContext.JSON(http.StatusOK, gin.H{"allocations": views})
}

func (server *Server) handleCreateAllocation(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	var request allocationRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request.Name = strings.TrimSpace(request.Name)
	if request.Name == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "allocation name is required"))
		return
	}
	allocation, err := server.backend.CreateAllocation(ginContext.Request.Context(), ginContext.Param("orgId"), apiclient.AllocationRequest{
		Name:               request.Name,
		Description:        strings.TrimSpace(request.Description),
		AssignedUserID:     strings.TrimSpace(request.AssignedUserID),
		ParentAllocationID: strings.TrimSpace(request.ParentAllocationID),
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusCreated, gin.H{"allocation": server.allocationView(*allocation)})
}

func (server *Server) handleGetAllocation(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	allocation, err := server.backend.GetAllocation(ginContext.Request.Context(), ginContext.Param("allocationId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"allocation": server.allocationView(*allocation)})
}

func (server *Server) handleUpdateAllocation(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	var request allocationRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	allocation, err := server.backend.UpdateAllocation(ginContext.Request.Context(), ginContext.Param("allocationId"), apiclient.AllocationRequest{
		Name:               strings.TrimSpace(request.Name),
		Description:        strings.TrimSpace(request.Description),
		AssignedUserID:     strings.TrimSpace(request.AssignedUserID),
		ParentAllocationID: strings.TrimSpace(request.ParentAllocationID),
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"allocation": server.allocationView(*allocation)})
}

func (server *Server) handleFundAllocation(ginContext *gin.Context) {
	server.fundAllocation(ginContext, server.backend.FundAllocation, "allocation_funded")
}

func (server *Server) handleFundFromParent(ginContext *gin.Context) {
	server.fundAllocation(ginContext, server.backend.FundFromParent, "allocation_funded_from_parent")
}

func (server *Server) fundAllocation(ginContext *gin.Context, fund func(context.Context, string, walletview.Amount) error, status string) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	var request fundRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	amount, err := walletview.ParseMajorAmount(request.Amount)
	if err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_amount", amountErrorMessage(err)))
		return
	}
	if err := fund(ginContext.Request.Context(), ginContext.Param("allocationId"), amount); err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": status})
}

func (server *Server) handleFreezeAllocation(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	if err := server.backend.FreezeAllocation(ginContext.Request.Context(), ginContext.Param("allocationId")); err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "allocation_frozen"})
}

func (server *Server) handleUnfreezeAllocation(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	if err := server.backend.UnfreezeAllocation(ginContext.Request.Context(), ginContext.Param("allocationId")); err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "allocation_unfrozen"})
}

func (server *Server) handleListRules(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	rules, err := server.backend.ListRules(ginContext.Request.Context(), ginContext.Param("allocationId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (server *Server) handleAddRule(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	request, ok := bindRuleRequest(ginContext)
	if !ok {
		return
	}
	rule, err := server.backend.AddRule(ginContext.Request.Context(), ginContext.Param("allocationId"), request)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusCreated, gin.H{"rule": rule})
}

func (server *Server) handleUpdateRule(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	request, ok := bindRuleRequest(ginContext)
	if !ok {
		return
	}
	rule, err := server.backend.UpdateRule(ginContext.Request.Context(), ginContext.Param("ruleId"), request)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"rule": rule})
}

func (server *Server) handleDeleteRule(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	if !requireConfirmation(ginContext) {
		return
	}
	if err := server.backend.DeleteRule(ginContext.Request.Context(), ginContext.Param("ruleId")); err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "rule_deleted"})
}

// bindRuleRequest validates a spending-rule payload and coerces the
// value to a number. The backend silently mangles non-numeric limit
// values, so they are rejected here instead.
func bindRuleRequest(ginContext *gin.Context) (apiclient.RuleRequest, bool) {
	var request ruleRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return apiclient.RuleRequest{}, false
	}
	request.Type = strings.TrimSpace(request.Type)
	if request.Type == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "rule type is required"))
		return apiclient.RuleRequest{}, false
	}
	value, err := coerceRuleValue(request.Value)
	if err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_rule_value", "rule value must be numeric"))
		return apiclient.RuleRequest{}, false
	}
	return apiclient.RuleRequest{
		Type:        request.Type,
		Value:       value,
		Description: strings.TrimSpace(request.Description),
	}, true
}

func coerceRuleValue(raw any) (float64, error) {
	switch value := raw.(type) {
	case float64:
		return value, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric rule value %q", value)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported rule value type %T", raw)
	}
}
