package context

import (
	"context"
	"net/http"

	"github.com/cradoe/coinledger/internal/models"
)

type authenticatedUserKey struct{}

func ContextSetAuthenticatedUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authenticatedUserKey{}, user))
}

// ContextGetAuthenticatedUser returns nil for anonymous requests.
func ContextGetAuthenticatedUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(authenticatedUserKey{}).(*models.User)
	return user
}

// ContextGetOwnerID returns the id of the authenticated user, whose wallet every
// ledger call on the request acts on. It must only be called behind
// RequireAuthenticatedUser.
func ContextGetOwnerID(r *http.Request) int64 {
	user := ContextGetAuthenticatedUser(r)
	if user == nil {
		panic("context: owner requested on an anonymous request")
	}
	return user.ID
}
