package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/viant/afs"
	"github.com/viant/mcp-protocol/schema"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/viant/mcpconnect"
)

// Run connects to the server named by args and prints its tools, or the result of
// calling --tool, to stdout.
func Run(ctx context.Context, args []string, stdout io.Writer) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	logger, closeLog := newLogger(options)
	defer closeLog()

	clientOptions, err := options.clientOptions(ctx)
	if err != nil {
		return err
	}
	clientOptions.Logger = logger
	result, err := mcpconnect.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}
	defer result.Close()
	logger.Info("connected", "transport", result.Kind.String(), "server", result.Client.ServerResult().ServerInfo.Name)

	var output interface{}
	if options.Tool == "" {
		output, err = result.Client.ListTools(ctx, nil)
	} else {
		params := &schema.CallToolRequestParams{Name: options.Tool}
		if options.Arguments != "" {
			arguments := map[string]interface{}{}
			if err = json.Unmarshal([]byte(options.Arguments), &arguments); err != nil {
				return fmt.Errorf("invalid --args: %w", err)
			}
			params.Arguments = arguments
		}
		output, err = result.Client.CallTool(ctx, params)
	}
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func (o *Options) clientOptions(ctx context.Context) (*mcpconnect.ClientOptions, error) {
	ret := &mcpconnect.ClientOptions{}
	if o.OptionsURL != "" {
		data, err := afs.New().DownloadWithURL(ctx, o.OptionsURL)
		if err != nil {
			return nil, fmt.Errorf("failed to read options %s: %w", o.OptionsURL, err)
		}
		if ret, err = mcpconnect.LoadClientOptions(data); err != nil {
			return nil, err
		}
	}
	if o.URL != "" {
		ret.URL = o.URL
	}
	if ret.URL == "" {
		return nil, fmt.Errorf("the required flag `-u, --url' was not specified")
	}
	if o.LegacyURL != "" {
		ret.LegacyURL = o.LegacyURL
	}
	if o.NoAuth {
		ret.Auth = nil
		return ret, nil
	}
	if ret.Auth == nil {
		ret.Auth = &mcpconnect.ClientAuth{}
	}
	if len(o.OAuth2ConfigURL) > 0 {
		ret.Auth.OAuth2ConfigURL = o.OAuth2ConfigURL
	}
	if o.EncryptionKey != "" {
		ret.Auth.EncryptionKey = o.EncryptionKey
	}
	if o.StorePath != "" {
		ret.Auth.StorePath = o.StorePath
	}
	if o.Port != 0 {
		ret.Auth.Redirect.Port = o.Port
	}
	return ret, nil
}

func newLogger(options *Options) (*slog.Logger, func()) {
	level := slog.LevelInfo
	if options.Verbose {
		level = slog.LevelDebug
	}
	var writer io.Writer = os.Stderr
	closer := func() {}
	if options.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   options.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
		writer = rotating
		closer = func() { _ = rotating.Close() }
	}
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})), closer
}
