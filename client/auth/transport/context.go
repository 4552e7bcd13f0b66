package transport

import (
	"context"
	"strings"

	"github.com/viant/scy/auth/flow"
)

type (
	contextScopeKey string
)

const contextFlowOptionKey contextScopeKey = "authFlowOptions"

// WithFlowOptions returns a context carrying options for an interactive authorization
// triggered by a request made with it. Scopes set here are used when the challenge names none.
func WithFlowOptions(ctx context.Context, options ...flow.Option) context.Context {
	return context.WithValue(ctx, contextFlowOptionKey, append(getFlowOptions(ctx), options...))
}

func getFlowOptions(ctx context.Context) []flow.Option {
	options, _ := ctx.Value(contextFlowOptionKey).([]flow.Option)
	return append([]flow.Option(nil), options...)
}

func getAuthFlowOptions(ctx context.Context) []flow.Option {
	return append(getFlowOptions(ctx), flow.WithPKCE(true))
}

func getScope(ctx context.Context) string {
	return strings.Join(flow.NewOptions(getFlowOptions(ctx)).Scopes(), " ")
}
