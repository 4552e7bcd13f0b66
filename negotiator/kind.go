package negotiator

// Kind identifies a transport generation.
type Kind string

const (
	// Modern is the streamable HTTP transport.
	Modern Kind = "streamable"
	// Legacy is the HTTP+SSE transport.
	Legacy Kind = "sse"
)

func (k Kind) String() string {
	return string(k)
}
