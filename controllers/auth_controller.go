package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"aerarium/services"
)

// AuthController serves login and the password reset flow.
type AuthController struct {
	authService    *services.AuthService
	profileService *services.ProfileService
	log            *zap.Logger
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(authService *services.AuthService, profileService *services.ProfileService, log *zap.Logger) *AuthController {
	return &AuthController{authService: authService, profileService: profileService, log: log}
}

// LoginInput is the credentials payload for the login endpoint.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token issued on a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ResetPasswordRequestInput is the payload requesting a reset mail.
type ResetPasswordRequestInput struct {
	Email string `json:"email"`
}

// ResetPasswordConfirmInput is the payload setting the new password.
type ResetPasswordConfirmInput struct {
	Password string `json:"password"`
}

// ValidityResponse reports how long an emailed action link stays valid.
type ValidityResponse struct {
	Message         string `json:"message"`
	ValidityMinutes int    `json:"validity_minutes"`
}

// RegisterRoutes sets up the authentication routes. All of them are
// public: the reset flow must work for users who cannot log in.
func (ctl *AuthController) RegisterRoutes(ws *restful.WebService) {
	ws.Route(ws.POST("/auth/login").To(ctl.loginHandler).
		Doc("Log in with email and password").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(LoginInput{}).
		Returns(http.StatusOK, "Logged in", LoginResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusUnauthorized, "Invalid credentials", nil))

	ws.Route(ws.POST("/auth/logout").To(ctl.logoutHandler).
		Doc("Log out").
		Notes("Sessions are stateless tokens: logging out means discarding the token client-side. The endpoint exists for symmetry.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Returns(http.StatusOK, "Logged out", MessageResponse{}))

	ws.Route(ws.GET("/health").To(ctl.healthHandler).
		Doc("Liveness probe").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "Service is up", MessageResponse{}))

	ws.Route(ws.POST("/auth/reset-password").To(ctl.requestResetHandler).
		Doc("Request a password reset mail").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(ResetPasswordRequestInput{}).
		Returns(http.StatusOK, "Reset mail sent if the account exists", ValidityResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil))

	ws.Route(ws.POST("/auth/reset-password/{token}").To(ctl.confirmResetHandler).
		Doc("Set a new password using an emailed reset token").
		Param(ws.PathParameter("token", "The emailed reset token").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(ResetPasswordConfirmInput{}).
		Returns(http.StatusOK, "Password changed", MessageResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusNotFound, "Invalid or expired token", nil))
}

func (ctl *AuthController) loginHandler(request *restful.Request, response *restful.Response) {
	input := new(LoginInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	user, token, err := ctl.authService.Login(input.Email, input.Password)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, LoginResponse{
		Token: token,
		User:  mapModelToUserResponse(user),
	})
}

func (ctl *AuthController) logoutHandler(request *restful.Request, response *restful.Response) {
	writeJSON(response, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (ctl *AuthController) healthHandler(request *restful.Request, response *restful.Response) {
	writeJSON(response, http.StatusOK, MessageResponse{Message: "ok"})
}

func (ctl *AuthController) requestResetHandler(request *restful.Request, response *restful.Response) {
	input := new(ResetPasswordRequestInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	// The response is the same whether or not the address belongs to an
	// account.
	validity, err := ctl.profileService.RequestPasswordReset(input.Email)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, ValidityResponse{
		Message:         "If the address belongs to an account, a reset mail is on its way",
		ValidityMinutes: validity,
	})
}

func (ctl *AuthController) confirmResetHandler(request *restful.Request, response *restful.Response) {
	input := new(ResetPasswordConfirmInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	err := ctl.profileService.ConfirmPasswordReset(request.PathParameter("token"), input.Password)
	if err != nil {
		writeError(response, ctl.log, err)
		return
	}

	writeJSON(response, http.StatusOK, MessageResponse{Message: "Password changed"})
}
