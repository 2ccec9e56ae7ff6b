package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"aerarium/auth"
	"aerarium/models"
	"aerarium/services"
)

// AdminRolesController serves the administration of roles and their
// permission masks. All routes require the role management permission.
type AdminRolesController struct {
	roleService *services.RoleService
	sessions    *auth.SessionManager
	guard       *auth.Guard
	log         *zap.Logger
}

// NewAdminRolesController creates a new AdminRolesController instance.
func NewAdminRolesController(roleService *services.RoleService, sessions *auth.SessionManager, guard *auth.Guard, log *zap.Logger) *AdminRolesController {
	return &AdminRolesController{roleService: roleService, sessions: sessions, guard: guard, log: log}
}

// RoleResponse is the role representation returned by the API.
type RoleResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Permissions models.Permission `json:"permissions"`
}

// RoleUpdateResponse reports the outcome of a role update, including
// whether the role management permission had to be kept.
type RoleUpdateResponse struct {
	Role               RoleResponse `json:"role"`
	PermissionRestored bool         `json:"permission_restored"`
}

// PaginatedRolesResponse is one page of the role listing.
type PaginatedRolesResponse struct {
	Roles      []RoleResponse `json:"roles"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	TotalRows  int64          `json:"total_rows"`
}

// CreateRoleInput is the payload for creating a role.
type CreateRoleInput struct {
	Name        string            `json:"name"`
	Permissions models.Permission `json:"permissions"`
}

func mapModelToRoleResponse(role *models.Role) RoleResponse {
	if role == nil {
		return RoleResponse{}
	}
	return RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Permissions: role.EffectivePermissions(),
	}
}

// RegisterRoutes sets up the administrative role routes.
func (ctl *AdminRolesController) RegisterRoutes(ws *restful.WebService) {
	sessionFilter := ctl.sessions.Filter()
	editRole := ctl.guard.RequireAll(models.EditRole)

	ws.Route(ws.GET("/admin/roles").Filter(sessionFilter).Filter(editRole).To(ctl.listRolesHandler).
		Doc("List roles with pagination").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Writes(PaginatedRolesResponse{}).
		Returns(http.StatusOK, "Roles listed", PaginatedRolesResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Page out of range", nil))

	ws.Route(ws.GET("/admin/permissions").Filter(sessionFilter).Filter(editRole).To(ctl.listPermissionsHandler).
		Doc("List all defined permissions").
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Writes([]models.PermissionInfo{}).
		Returns(http.StatusOK, "Permissions listed", []models.PermissionInfo{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil))

	ws.Route(ws.GET("/admin/roles/{role-name}").Filter(sessionFilter).Filter(editRole).To(ctl.getRoleHandler).
		Doc("Get a role by name").
		Param(ws.PathParameter("role-name", "Name of the role").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Writes(RoleResponse{}).
		Returns(http.StatusOK, "Role found", RoleResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Role not found", nil))

	ws.Route(ws.POST("/admin/roles").Filter(sessionFilter).Filter(editRole).To(ctl.createRoleHandler).
		Doc("Create a new role").
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Reads(CreateRoleInput{}).
		Returns(http.StatusCreated, "Role created", RoleResponse{}).
		Returns(http.StatusBadRequest, "Invalid name or permissions", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusConflict, "Role name already exists", nil))

	ws.Route(ws.PUT("/admin/roles/{role-name}").Filter(sessionFilter).Filter(editRole).To(ctl.updateRoleHandler).
		Doc("Update a role's name or permissions").
		Param(ws.PathParameter("role-name", "Name of the role").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Reads(services.RoleUpdateInput{}).
		Returns(http.StatusOK, "Role updated", RoleUpdateResponse{}).
		Returns(http.StatusBadRequest, "Invalid name or permissions", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Role not found", nil).
		Returns(http.StatusConflict, "Role name already exists", nil))

	ws.Route(ws.DELETE("/admin/roles/{role-name}").Filter(sessionFilter).Filter(editRole).To(ctl.deleteRoleHandler).
		Doc("Delete a role, reassigning its users to a replacement role").
		Param(ws.PathParameter("role-name", "Name of the role").DataType("string")).
		Param(ws.QueryParameter("replacement", "Role to move the deleted role's users to").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Returns(http.StatusOK, "Role deleted", MessageResponse{}).
		Returns(http.StatusBadRequest, "Replacement role missing or invalid", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Role not found", nil).
		Returns(http.StatusConflict, "No other role can manage roles", nil))
}

func (ctl *AdminRolesController) listRolesHandler(request *restful.Request, response *restful.Response) {
	result, err := ctl.roleService.List(pageParameter(request))
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	roles := make([]RoleResponse, len(result.Rows))
	for i := range result.Rows {
		roles[i] = mapModelToRoleResponse(&result.Rows[i])
	}

	writeJSON(response, http.StatusOK, PaginatedRolesResponse{
		Roles:      roles,
		Page:       result.CurrentPage,
		TotalPages: result.TotalPages(),
		TotalRows:  result.TotalRows,
	})
}

func (ctl *AdminRolesController) listPermissionsHandler(request *restful.Request, response *restful.Response) {
	writeJSON(response, http.StatusOK, ctl.roleService.Permissions())
}

func (ctl *AdminRolesController) getRoleHandler(request *restful.Request, response *restful.Response) {
	role, err := ctl.roleService.Get(request.PathParameter("role-name"))
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, mapModelToRoleResponse(role))
}

func (ctl *AdminRolesController) createRoleHandler(request *restful.Request, response *restful.Response) {
	input := new(CreateRoleInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	role, err := ctl.roleService.Create(input.Name, input.Permissions)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusCreated, mapModelToRoleResponse(role))
}

func (ctl *AdminRolesController) updateRoleHandler(request *restful.Request, response *restful.Response) {
	input := new(services.RoleUpdateInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	result, err := ctl.roleService.Update(request.PathParameter("role-name"), input)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, RoleUpdateResponse{
		Role:               mapModelToRoleResponse(result.Role),
		PermissionRestored: result.PermissionRestored,
	})
}

func (ctl *AdminRolesController) deleteRoleHandler(request *restful.Request, response *restful.Response) {
	err := ctl.roleService.Delete(request.PathParameter("role-name"), request.QueryParameter("replacement"))
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, MessageResponse{Message: "Role deleted"})
}
