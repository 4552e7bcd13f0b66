package mock

import (
	"net/http"
)

// Handler routes HTTP requests to the appropriate mock OAuth2 server endpoints.
type Handler struct {
	// Server is the mock authorization server with endpoint handlers.
	Server *AuthorizationService
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Server.hit(r.URL.Path)
	switch r.URL.Path {
	case "/token":
		h.dispatch(w, r, h.Server.TokenHandler, h.Server.defaultTokenHandler)
	case "/authorize":
		h.dispatch(w, r, h.Server.AuthorizeHandler, h.Server.defaultAuthorizeHandler)
	case "/register":
		h.dispatch(w, r, h.Server.RegisterHandler, h.Server.defaultRegisterHandler)
	case "/.well-known/oauth-authorization-server":
		h.dispatch(w, r, h.Server.MetadataHandler, h.Server.defaultMetadataHandler)
	case "/resource":
		h.dispatch(w, r, h.Server.ResourceHandler, h.Server.defaultResourceHandler)
	case "/resource-metadata", "/.well-known/oauth-protected-resource":
		h.dispatch(w, r, h.Server.ResourceMetadataHandler, h.Server.defaultResourceMetadataHandler)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, custom, fallback http.HandlerFunc) {
	if custom != nil {
		custom(w, r)
		return
	}
	fallback(w, r)
}
