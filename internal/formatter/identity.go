package formatter

import (
	"net/http"

	"github.com/tkingovr/logbridge/api"
)

// IdentityProvider supplies the display name of the principal behind an exchange.
type IdentityProvider interface {
	DisplayName(ex *api.Exchange) (name string, ok bool)
}

// IdentityFunc adapts a function to IdentityProvider.
type IdentityFunc func(ex *api.Exchange) (string, bool)

func (f IdentityFunc) DisplayName(ex *api.Exchange) (string, bool) { return f(ex) }

// HeaderIdentity reads the display name from a request header set by an
// authenticating proxy, e.g. X-Remote-User.
func HeaderIdentity(header string) IdentityProvider {
	return IdentityFunc(func(ex *api.Exchange) (string, bool) {
		v := ex.RequestHeaders.Get(header)
		return v, v != ""
	})
}

// BasicAuthIdentity reads the username of HTTP basic authentication.
func BasicAuthIdentity() IdentityProvider {
	return IdentityFunc(func(ex *api.Exchange) (string, bool) {
		r := &http.Request{Header: ex.RequestHeaders}
		user, _, ok := r.BasicAuth()
		return user, ok && user != ""
	})
}

type noIdentity struct{}

func (noIdentity) DisplayName(*api.Exchange) (string, bool) { return "", false }
