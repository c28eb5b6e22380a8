package admin

import (
	"strings"

	"github.com/scentshop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// RolePolicyRequest 角色策略请求
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// UserRolesRequest 用户额外角色请求
type UserRolesRequest struct {
	Roles []string `json:"roles"`
}

// AdminListRoles 角色及其策略
func (h *Handler) AdminListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	result := make([]gin.H, 0, len(roles))
	for _, role := range roles {
		policies, err := h.AuthzService.GetRolePolicies(role)
		if err != nil {
			respondError(c, response.CodeInternal, "role fetch failed", err)
			return
		}
		result = append(result, gin.H{"role": role, "policies": policies})
	}
	response.Success(c, result)
}

// AdminGrantRolePolicy 为角色授予策略
func (h *Handler) AdminGrantRolePolicy(c *gin.Context) {
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	role := strings.TrimSpace(c.Param("role"))
	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	requestLog(c).Infow("authz_policy_granted", "role", role, "object", req.Object, "action", req.Action)
	response.Success(c, gin.H{"granted": true})
}

// AdminRevokeRolePolicy 撤销角色策略
func (h *Handler) AdminRevokeRolePolicy(c *gin.Context) {
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	role := strings.TrimSpace(c.Param("role"))
	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	requestLog(c).Infow("authz_policy_revoked", "role", role, "object", req.Object, "action", req.Action)
	response.Success(c, gin.H{"revoked": true})
}

// AdminSetUserRoles 覆盖设置用户的额外角色
func (h *Handler) AdminSetUserRoles(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthzService.SetUserRoles(id, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, err.Error(), nil)
		return
	}
	roles, err := h.AuthzService.GetUserRoles(id)
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	response.Success(c, gin.H{"user_id": id, "roles": roles})
}
