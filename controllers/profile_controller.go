package controllers

import (
	"net/http"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"aerarium/auth"
	"aerarium/localization"
	"aerarium/models"
	"aerarium/services"
)

// ProfileController serves the authenticated user's own profile,
// settings, and the emailed confirmation flows for email change and
// account deletion.
type ProfileController struct {
	profileService *services.ProfileService
	sessions       *auth.SessionManager
	log            *zap.Logger
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(profileService *services.ProfileService, sessions *auth.SessionManager, log *zap.Logger) *ProfileController {
	return &ProfileController{profileService: profileService, sessions: sessions, log: log}
}

// UserResponse is the user representation returned by the API.
type UserResponse struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsActivated bool      `json:"is_activated"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdateResponse reports the outcome of a profile update. When an
// email change was part of the update, the validity of the emailed
// confirmation link is included.
type ProfileUpdateResponse struct {
	User                 UserResponse `json:"user"`
	EmailChangeRequested bool         `json:"email_change_requested"`
	EmailChangeValidity  int          `json:"email_change_validity_minutes,omitempty"`
}

// SettingsResponse carries the user's settings together with the
// languages they can choose from.
type SettingsResponse struct {
	Language  string                      `json:"language"`
	Languages []localization.LanguageName `json:"languages"`
}

// UpdateSettingsInput is the payload for changing the user's settings.
type UpdateSettingsInput struct {
	Language string `json:"language"`
}

func mapModelToUserResponse(user *models.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	resp := UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		IsActivated: user.IsActivated,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
	if user.Role != nil {
		resp.Role = user.Role.Name
	}
	return resp
}

// RegisterRoutes sets up the profile routes. The email change
// confirmation is public so the link also works from a browser without
// an active session; every other route requires a session.
func (ctl *ProfileController) RegisterRoutes(ws *restful.WebService) {
	sessionFilter := ctl.sessions.Filter()

	ws.Route(ws.GET("/profile").Filter(sessionFilter).To(ctl.getProfileHandler).
		Doc("Get the authenticated user's profile").
		Metadata(restfulspec.KeyOpenAPITags, []string{"profile"}).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "Profile", UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.PUT("/profile").Filter(sessionFilter).To(ctl.updateProfileHandler).
		Doc("Update name or password, or request an email change").
		Metadata(restfulspec.KeyOpenAPITags, []string{"profile"}).
		Reads(services.UpdateProfileInput{}).
		Returns(http.StatusOK, "Profile updated", ProfileUpdateResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.POST("/profile/email/{token}").To(ctl.confirmEmailChangeHandler).
		Doc("Confirm an email change using an emailed token").
		Param(ws.PathParameter("token", "The emailed confirmation token").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"profile"}).
		Returns(http.StatusOK, "Email address changed", MessageResponse{}).
		Returns(http.StatusNotFound, "Invalid or expired token", nil).
		Returns(http.StatusConflict, "Email address already in use", nil))

	ws.Route(ws.POST("/profile/delete").Filter(sessionFilter).To(ctl.requestDeletionHandler).
		Doc("Request an account deletion mail").
		Metadata(restfulspec.KeyOpenAPITags, []string{"profile"}).
		Returns(http.StatusOK, "Deletion mail sent", ValidityResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.DELETE("/profile/delete/{token}").Filter(sessionFilter).To(ctl.confirmDeletionHandler).
		Doc("Delete the account using an emailed token").
		Param(ws.PathParameter("token", "The emailed confirmation token").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"profile"}).
		Returns(http.StatusOK, "Account deleted", MessageResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusNotFound, "Invalid or expired token", nil))

	ws.Route(ws.GET("/profile/settings").Filter(sessionFilter).To(ctl.getSettingsHandler).
		Doc("Get the authenticated user's settings").
		Metadata(restfulspec.KeyOpenAPITags, []string{"profile"}).
		Writes(SettingsResponse{}).
		Returns(http.StatusOK, "Settings", SettingsResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.PUT("/profile/settings").Filter(sessionFilter).To(ctl.updateSettingsHandler).
		Doc("Update the authenticated user's settings").
		Metadata(restfulspec.KeyOpenAPITags, []string{"profile"}).
		Reads(UpdateSettingsInput{}).
		Returns(http.StatusOK, "Settings updated", SettingsResponse{}).
		Returns(http.StatusBadRequest, "Unsupported language", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.POST("/profile/settings/reset").Filter(sessionFilter).To(ctl.resetSettingsHandler).
		Doc("Reset the authenticated user's settings to their defaults").
		Metadata(restfulspec.KeyOpenAPITags, []string{"profile"}).
		Returns(http.StatusOK, "Settings reset", SettingsResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))
}

func (ctl *ProfileController) getProfileHandler(request *restful.Request, response *restful.Response) {
	userID, ok := auth.UserID(request)
	if !ok {
		writeError(response, ctl.log, services.ErrUnauthorized)
		return
	}

	user, err := ctl.profileService.GetProfile(userID)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, mapModelToUserResponse(user))
}

func (ctl *ProfileController) updateProfileHandler(request *restful.Request, response *restful.Response) {
	userID, ok := auth.UserID(request)
	if !ok {
		writeError(response, ctl.log, services.ErrUnauthorized)
		return
	}

	input := new(services.UpdateProfileInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	result, err := ctl.profileService.UpdateProfile(userID, input)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, ProfileUpdateResponse{
		User:                 mapModelToUserResponse(result.User),
		EmailChangeRequested: result.EmailChangeRequested,
		EmailChangeValidity:  result.EmailChangeValidity,
	})
}

func (ctl *ProfileController) confirmEmailChangeHandler(request *restful.Request, response *restful.Response) {
	err := ctl.profileService.ConfirmEmailChange(request.PathParameter("token"))
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, MessageResponse{Message: "Email address changed"})
}

func (ctl *ProfileController) requestDeletionHandler(request *restful.Request, response *restful.Response) {
	userID, ok := auth.UserID(request)
	if !ok {
		writeError(response, ctl.log, services.ErrUnauthorized)
		return
	}

	validity, err := ctl.profileService.RequestAccountDeletion(userID)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, ValidityResponse{
		Message:         "A confirmation mail is on its way",
		ValidityMinutes: validity,
	})
}

func (ctl *ProfileController) confirmDeletionHandler(request *restful.Request, response *restful.Response) {
	userID, ok := auth.UserID(request)
	if !ok {
		writeError(response, ctl.log, services.ErrUnauthorized)
		return
	}

	err := ctl.profileService.ConfirmAccountDeletion(request.PathParameter("token"), userID)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, MessageResponse{Message: "Account deleted"})
}

func (ctl *ProfileController) getSettingsHandler(request *restful.Request, response *restful.Response) {
	userID, ok := auth.UserID(request)
	if !ok {
		writeError(response, ctl.log, services.ErrUnauthorized)
		return
	}

	settings, names, err := ctl.profileService.Settings(userID, request.HeaderParameter("Accept-Language"))
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, SettingsResponse{
		Language:  settings.Language,
		Languages: names,
	})
}

func (ctl *ProfileController) updateSettingsHandler(request *restful.Request, response *restful.Response) {
	userID, ok := auth.UserID(request)
	if !ok {
		writeError(response, ctl.log, services.ErrUnauthorized)
		return
	}

	input := new(UpdateSettingsInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	settings, err := ctl.profileService.UpdateSettings(userID, input.Language)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	ctl.writeSettings(response, settings)
}

func (ctl *ProfileController) resetSettingsHandler(request *restful.Request, response *restful.Response) {
	userID, ok := auth.UserID(request)
	if !ok {
		writeError(response, ctl.log, services.ErrUnauthorized)
		return
	}

	settings, err := ctl.profileService.ResetSettings(userID)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	ctl.writeSettings(response, settings)
}

func (ctl *ProfileController) writeSettings(response *restful.Response, settings *models.UserSettings) {
	writeJSON(response, http.StatusOK, SettingsResponse{
		Language:  settings.Language,
		Languages: ctl.profileService.LanguageNames(settings.Language),
	})
}
