package auth

import (
	"net/http"

	restful "github.com/emicklei/go-restful/v3"

	"aerarium/models"
	"aerarium/repositories"
)

// Guard enforces permission requirements on routes. It must run behind
// the session filter since it relies on the authenticated user ID.
type Guard struct {
	users repositories.UserRepository
}

// NewGuard creates a new Guard instance.
func NewGuard(users repositories.UserRepository) *Guard {
	return &Guard{users: users}
}

// RequireAll creates a filter that rejects the request with 403 unless
// the current user's role grants all of the given permissions.
func (g *Guard) RequireAll(permissions ...models.Permission) restful.FilterFunction {
	return g.require(func(user *models.User) bool {
		return user.HasPermissionsAll(permissions...)
	})
}

// RequireOneOf creates a filter that rejects the request with 403 unless
// the current user's role grants at least one of the given permissions.
func (g *Guard) RequireOneOf(permissions ...models.Permission) restful.FilterFunction {
	return g.require(func(user *models.User) bool {
		return user.HasPermissionsOneOf(permissions...)
	})
}

func (g *Guard) require(allowed func(user *models.User) bool) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		userID, ok := UserID(req)
		if !ok {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Authentication required"}, restful.MIME_JSON)
			return
		}

		user, err := g.users.FindByID(userID)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Unknown user"}, restful.MIME_JSON)
			return
		}

		if !allowed(user) {
			_ = resp.WriteHeaderAndJson(http.StatusForbidden, map[string]string{"message": "Insufficient permissions"}, restful.MIME_JSON)
			return
		}

		chain.ProcessFilter(req, resp)
	}
}
