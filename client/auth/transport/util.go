package transport

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

func clone(r *http.Request) *http.Request {
	cloned := r.Clone(r.Context())
	// deep-copy body for idempotent POST replay
	if r.Body != nil && r.Body != http.NoBody {
		buf, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		cloned.Body = io.NopCloser(bytes.NewReader(buf))
	}
	return cloned
}

// challenge holds the Bearer parameters of a WWW-Authenticate header.
type challenge struct {
	ResourceMetadata string
	Scope            string
}

func parseChallenge(resp *http.Response) (*challenge, error) {
	header := resp.Header.Get("WWW-Authenticate")
	header = strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	ret := &challenge{}
	for _, part := range strings.Split(header, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, "\"")
		switch strings.ToLower(name) {
		case "resource_metadata":
			ret.ResourceMetadata = value
		case "scope":
			ret.Scope = value
		}
	}
	if ret.ResourceMetadata == "" {
		return nil, errors.New("WWW-Authenticate missing resource_metadata param")
	}
	return ret, nil
}
