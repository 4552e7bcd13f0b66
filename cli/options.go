package cli

// Options are the command line flags.
type Options struct {
	URL             string   `short:"u" long:"url" description:"mcp server url"`
	OptionsURL      string   `short:"o" long:"options" description:"client options JSON file or URL"`
	LegacyURL       string   `long:"legacy-url" description:"sse endpoint when it differs from url"`
	OAuth2ConfigURL []string `short:"c" long:"config" description:"oauth2 client config file"`
	EncryptionKey   string   `short:"k" long:"key" description:"encryption key"`
	StorePath       string   `short:"s" long:"store" description:"token store file"`
	Port            int      `short:"p" long:"port" description:"oauth redirect port"`
	NoAuth          bool     `long:"no-auth" description:"do not authorize the streamable transport"`
	Tool            string   `short:"t" long:"tool" description:"tool to call after connecting"`
	Arguments       string   `short:"a" long:"args" description:"tool arguments as JSON object"`
	LogFile         string   `short:"l" long:"log-file" description:"log file, stderr when empty"`
	Verbose         bool     `short:"V" long:"verbose" description:"debug logging"`
}
