package handler

import (
	"net/http"

	"pmis/internal/middleware"
	"pmis/internal/service"
	"pmis/internal/workflow"
	"pmis/pkg/response"

	"github.com/gin-gonic/gin"
)

// PrivilegeCache drops cached privileges after a role changes.
type PrivilegeCache interface {
	ClearPrivilegeCache(roleID uint)
}

type RoleHandler struct {
	roleService service.RoleService
	cache       PrivilegeCache
}

func NewRoleHandler(roleService service.RoleService, cache PrivilegeCache) *RoleHandler {
	return &RoleHandler{roleService: roleService, cache: cache}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/api/roles")
	{
		roles.GET("", middleware.Require(workflow.PrivUserRead), h.ListRoles)
		roles.PUT("/:id/privileges", h.UpdateRolePrivileges)
	}

	router.GET("/api/privileges", middleware.Require(workflow.PrivRoleManage), h.ListPrivileges)
}

// ListRoles returns all roles with their privileges
// @Summary      List roles
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.RoleResponse}
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.roleService.ListRoles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, roles))
}

// ListPrivileges returns every stored privilege
// @Summary      List privileges
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.PrivilegeResponse}
// @Router       /api/privileges [get]
func (h *RoleHandler) ListPrivileges(c *gin.Context) {
	privs, err := h.roleService.ListPrivileges(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, privs))
}

// UpdateRolePrivileges replaces all privileges of a role
// @Summary      Replace role privileges
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                                  true  "Role ID"
// @Param        payload  body      service.UpdateRolePrivilegesRequest  true  "Privilege codes"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/roles/{id}/privileges [put]
func (h *RoleHandler) UpdateRolePrivileges(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateRolePrivilegesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	role, err := h.roleService.UpdateRolePrivileges(c.Request.Context(), id, req, viewerOf(c))
	if err != nil {
		writeError(c, err)
		return
	}

	// Sessions of this role pick up the new privileges on their next request.
	h.cache.ClearPrivilegeCache(role.ID)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}
