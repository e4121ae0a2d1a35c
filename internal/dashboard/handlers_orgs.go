package dashboard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spewpay/walletdash/internal/apiclient"
	"github.com/spewpay/walletdash/pkg/walletview"
)

// OrganizationView is an organization formatted for display.
type OrganizationView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Balance   string         `json:"balance,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

type orgRequest struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata"`
}

type inviteRequest struct {
	Email string                `json:"email"`
	Role  walletview.MemberRole `json:"role"`
}

type memberRoleRequest struct {
	Role walletview.MemberRole `json:"role"`
}

func (server *Server) organizationView(organization apiclient.Organization) OrganizationView {
	view := OrganizationView{
		ID:        organization.ID,
		Name:      organization.Name,
		Type:      organization.Type,
		Metadata:  organization.Metadata,
		CreatedAt: organization.CreatedAt,
	}
	if organization.Balance != nil {
		view.Balance = server.formatter.Format(*organization.Balance)
	}
	return view
}

func (server *Server) handleMyOrgs(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	organizations, err := server.backend.MyOrgs(ginContext.Request.Context(), record.UserID)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	views := make([]OrganizationView, 0, len(organizations))
	for _, organization := range organizations {
		views = append(views, server.organizationView(organization))
	}
	ginContext.JSON(http.StatusOK, gin.H{"organizations": views})
}

func (server *Server) handleCreateOrg(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request orgRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	request.Name = strings.TrimSpace(request.Name)
	if request.Name == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "organization name is required"))
		return
	}
	organization, err := server.backend.CreateOrg(ginContext.Request.Context(), record.UserID, apiclient.OrganizationRequest{
		Name:     request.Name,
		Type:     strings.TrimSpace(request.Type),
		Metadata: request.Metadata,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusCreated, gin.H{"organization": server.organizationView(*organization)})
}

func (server *Server) handleGetOrg(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	organization, err := server.backend.GetOrg(ginContext.Request.Context(), ginContext.Param("orgId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"organization": server.organizationView(*organization)})
}

func (server *Server) handleUpdateOrg(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request orgRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	organization, err := server.backend.UpdateOrg(ginContext.Request.Context(), record.UserID, ginContext.Param("orgId"), apiclient.OrganizationRequest{
		Name:     strings.TrimSpace(request.Name),
		Type:     strings.TrimSpace(request.Type),
		Metadata: request.Metadata,
	})
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"organization": server.organizationView(*organization)})
}

func (server *Server) handleListMembers(ginContext *gin.Context) {
	if _, ok := server.currentRecord(ginContext); !ok {
		return
	}
	members, err := server.backend.ListMembers(ginContext.Request.Context(), ginContext.Param("orgId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"members": members})
}

func (server *Server) handleUpdateMemberRole(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request memberRoleRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil || request.Role == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "role is required"))
		return
	}
	err := server.backend.UpdateMemberRole(ginContext.Request.Context(), record.UserID,
		ginContext.Param("orgId"), ginContext.Param("memberId"), request.Role)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "role_updated"})
}

func (server *Server) handleRemoveMember(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	if !requireConfirmation(ginContext) {
		return
	}
	err := server.backend.RemoveMember(ginContext.Request.Context(), record.UserID,
		ginContext.Param("orgId"), ginContext.Param("memberId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "member_removed"})
}

func (server *Server) handleListOrgInvites(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	invites, err := server.backend.ListOrgInvites(ginContext.Request.Context(), record.UserID, ginContext.Param("orgId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (server *Server) handleCreateInvite(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	var request inviteRequest
	if err := ginContext.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Email) == "" {
		ginContext.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "invitee email is required"))
		return
	}
	invite, err := server.backend.CreateInvite(ginContext.Request.Context(), record.UserID,
		ginContext.Param("orgId"), strings.TrimSpace(request.Email), request.Role)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusCreated, gin.H{"invite": invite})
}

func (server *Server) handleMyInvites(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	invites, err := server.backend.MyInvites(ginContext.Request.Context(), record.UserID)
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (server *Server) handleAcceptInvite(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	err := server.backend.AcceptInvite(ginContext.Request.Context(), record.UserID, ginContext.Param("inviteId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "invite_accepted"})
}

func (server *Server) handleDeclineInvite(ginContext *gin.Context) {
	record, ok := server.currentRecord(ginContext)
	if !ok {
		return
	}
	err := server.backend.DeclineInvite(ginContext.Request.Context(), record.UserID, ginContext.Param("inviteId"))
	if err != nil {
		server.respondUpstreamError(ginContext, err)
		return
	}
	ginContext.JSON(http.StatusOK, gin.H{"status": "invite_declined"})
}
