package controllers

import (
	"net/http"
	"strconv"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"aerarium/auth"
	"aerarium/models"
	"aerarium/services"
)

// AdminUsersController serves the administrative user listing. All
// routes require the user management permission.
type AdminUsersController struct {
	userService *services.UserService
	sessions    *auth.SessionManager
	guard       *auth.Guard
	log         *zap.Logger
}

// NewAdminUsersController creates a new AdminUsersController instance.
func NewAdminUsersController(userService *services.UserService, sessions *auth.SessionManager, guard *auth.Guard, log *zap.Logger) *AdminUsersController {
	return &AdminUsersController{userService: userService, sessions: sessions, guard: guard, log: log}
}

// PaginatedUsersResponse is one page of the administrative user listing.
type PaginatedUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	TotalRows  int64          `json:"total_rows"`
	InfoText   string         `json:"info_text"`
}

// RegisterRoutes sets up the administrative user routes.
func (ctl *AdminUsersController) RegisterRoutes(ws *restful.WebService) {
	sessionFilter := ctl.sessions.Filter()
	editUser := ctl.guard.RequireAll(models.EditUser)

	ws.Route(ws.GET("/admin/users").Filter(sessionFilter).Filter(editUser).To(ctl.listUsersHandler).
		Doc("List users with pagination and optional search").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("search", "Term matched against name and email").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Writes(PaginatedUsersResponse{}).
		Returns(http.StatusOK, "Users listed", PaginatedUsersResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "Page out of range", nil))

	ws.Route(ws.GET("/admin/users/{user-id}").Filter(sessionFilter).Filter(editUser).To(ctl.getUserHandler).
		Doc("Get a user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the user").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "User found", UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.PUT("/admin/users/{user-id}/settings").Filter(sessionFilter).Filter(editUser).To(ctl.updateSettingsHandler).
		Doc("Update a user's settings on their behalf").
		Param(ws.PathParameter("user-id", "Identifier of the user").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Reads(UpdateSettingsInput{}).
		Returns(http.StatusOK, "Settings updated", models.UserSettings{}).
		Returns(http.StatusBadRequest, "Unsupported language", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.POST("/admin/users/{user-id}/settings/reset").Filter(sessionFilter).Filter(editUser).To(ctl.resetSettingsHandler).
		Doc("Reset a user's settings to their defaults").
		Param(ws.PathParameter("user-id", "Identifier of the user").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"administration"}).
		Returns(http.StatusOK, "Settings reset", models.UserSettings{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "User not found", nil))
}

func (ctl *AdminUsersController) listUsersHandler(request *restful.Request, response *restful.Response) {
	page := pageParameter(request)
	search := request.QueryParameter("search")

	result, err := ctl.userService.List(page, search)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	users := make([]UserResponse, len(result.Rows))
	for i := range result.Rows {
		users[i] = mapModelToUserResponse(&result.Rows[i])
	}

	writeJSON(response, http.StatusOK, PaginatedUsersResponse{
		Users:      users,
		Page:       result.CurrentPage,
		TotalPages: result.TotalPages(),
		TotalRows:  result.TotalRows,
		InfoText:   result.InfoText,
	})
}

func (ctl *AdminUsersController) getUserHandler(request *restful.Request, response *restful.Response) {
	userID, ok := ctl.pathUserID(request, response)
	if !ok {
		return
	}

	user, err := ctl.userService.Get(userID)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, mapModelToUserResponse(user))
}

func (ctl *AdminUsersController) updateSettingsHandler(request *restful.Request, response *restful.Response) {
	userID, ok := ctl.pathUserID(request, response)
	if !ok {
		return
	}

	input := new(UpdateSettingsInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	settings, err := ctl.userService.UpdateSettings(userID, input.Language)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, settings)
}

func (ctl *AdminUsersController) resetSettingsHandler(request *restful.Request, response *restful.Response) {
	userID, ok := ctl.pathUserID(request, response)
	if !ok {
		return
	}

	settings, err := ctl.userService.ResetSettings(userID)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, settings)
}

func (ctl *AdminUsersController) pathUserID(request *restful.Request, response *restful.Response) (uint, bool) {
	userID, err := strconv.ParseUint(request.PathParameter("user-id"), 10, 32)
	if err != nil {
		writeBadRequest(response, "Invalid user ID format")
		return 0, false
	}
	return uint(userID), true
}
