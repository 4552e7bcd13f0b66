package mock

import "net/http/httptest"

// HTTPTestAuthorizationServer runs an AuthorizationService on an httptest server.
type HTTPTestAuthorizationServer struct {
	*AuthorizationService
	Server *httptest.Server
}

// NewHTTPTestAuthorizationServer starts a mock authorization server; Issuer is set to its URL.
func NewHTTPTestAuthorizationServer(opts ...Option) (*HTTPTestAuthorizationServer, error) {
	service, err := NewAuthorizationService(opts...)
	if err != nil {
		return nil, err
	}
	server := &HTTPTestAuthorizationServer{AuthorizationService: service}
	server.Server = httptest.NewServer(service.Handler())
	service.Issuer = server.Server.URL
	return server, nil
}

// Close stops the server.
func (s *HTTPTestAuthorizationServer) Close() {
	if s.Server != nil {
		s.Server.Close()
	}
}
