// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stacklok/popup-login/cmd/popup-login/app/ui"
	"github.com/stacklok/popup-login/pkg/config"
	"github.com/stacklok/popup-login/pkg/logger"
	"github.com/stacklok/popup-login/pkg/popup"
	"github.com/stacklok/popup-login/pkg/popup/browserwindow"
	"github.com/stacklok/popup-login/pkg/query"
	"github.com/stacklok/popup-login/pkg/telemetry"
	"github.com/stacklok/popup-login/pkg/validation"
	"github.com/stacklok/popup-login/pkg/versions"
)

const (
	outputTable = "table"
	outputJSON  = "json"

	telemetryShutdownTimeout = 5 * time.Second
)

type loginFlags struct {
	provider     string
	clientID     string
	redirectURI  string
	authorizeURL string
	callbackURL  string
	scopes       []string
	params       []string
	sessionID    string
	height       int
	width        int
	pollInterval time.Duration
	holdOpen     time.Duration
	timeout      time.Duration
	noBrowser    bool
	output       string
	otelEndpoint string
	otelInsecure bool
}

// newOpener is replaced in tests.
var newOpener = func(flags *loginFlags, out io.Writer) popup.Opener {
	opts := []browserwindow.OpenerOption{browserwindow.WithLogger(logger.Get())}
	if flags.callbackURL != "" {
		opts = append(opts, browserwindow.WithCallbackURL(flags.callbackURL))
	}
	if flags.noBrowser {
		opts = append(opts, browserwindow.WithNoBrowser(out))
	}
	return browserwindow.NewOpener(opts...)
}

func newLoginCmd() *cobra.Command {
	flags := &loginFlags{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open the provider's authorize page and wait for the redirect",
		Long: `Open the provider's authorize page in a browser window and wait until it
redirects back to the callback URL. The query parameters of that redirect are
printed once the window has closed.

Values not given as flags come from the config file, then from built-in
defaults.`,
		Example: `  popup-login login --client-id Iv1.abc123
  popup-login login --provider google --client-id abc --scope openid,email --param state=xyz
  popup-login login --authorize-url https://idp.example/authorize --client-id abc --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.provider, "provider", "", "Provider preset ("+strings.Join(config.ProviderNames(), ", ")+")")
	f.StringVar(&flags.clientID, "client-id", "", "OAuth client ID")
	f.StringVar(&flags.redirectURI, "redirect-uri", "", "Callback URL registered with the provider")
	f.StringVar(&flags.authorizeURL, "authorize-url", "", "Authorize endpoint, overrides --provider")
	f.StringVar(&flags.callbackURL, "callback-url", "",
		"Loopback URL to listen on when it differs from --redirect-uri")
	f.StringSliceVar(&flags.scopes, "scope", nil, "Scopes to request")
	f.StringArrayVar(&flags.params, "param", nil, "Extra authorize parameter as key=value (repeatable)")
	f.StringVar(&flags.sessionID, "session-id", "", "Window name; generated when empty")
	f.IntVar(&flags.height, "height", 0, "Popup height in pixels")
	f.IntVar(&flags.width, "width", 0, "Popup width in pixels")
	f.DurationVar(&flags.pollInterval, "poll-interval", 0, "Time between window checks")
	f.DurationVar(&flags.holdOpen, "hold-open", 0, "How long the window stays open after the redirect")
	f.DurationVar(&flags.timeout, "timeout", 0, "Give up after this long (0 waits until the window closes)")
	f.BoolVar(&flags.noBrowser, "no-browser", false, "Print the URL instead of launching a browser")
	f.StringVarP(&flags.output, "output", "o", outputTable, "Output format (table, json)")
	f.StringVar(&flags.otelEndpoint, "otel-endpoint", "", "OTLP/HTTP collector host:port for session metrics")
	f.BoolVar(&flags.otelInsecure, "otel-insecure", false, "Export metrics over plain HTTP")

	return cmd
}

func runLogin(cmd *cobra.Command, flags *loginFlags) error {
	if flags.output != outputTable && flags.output != outputJSON {
		return fmt.Errorf("unsupported output format %q", flags.output)
	}

	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	if err := validation.ValidateSessionID(flags.sessionID); err != nil {
		return err
	}
	applyLoginFlags(cmd, flags, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	authorizeURL, err := cfg.ResolveAuthorizeURL()
	if err != nil {
		return err
	}
	extra, err := parseParams(flags.params)
	if err != nil {
		return err
	}
	req := cfg.AuthRequest(flags.clientID, extra)
	if req.ClientID == "" {
		return errors.New("a client ID is required: pass --client-id or run 'popup-login config set client-id <id>'")
	}

	opener := newOpener(flags, cmd.ErrOrStderr())
	if closer, ok := opener.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warnf("failed to close popup windows: %v", err)
			}
		}()
	}

	mp, shutdown, err := telemetry.NewMeterProvider(cmd.Context(), cfg.OTEL, versions.GetVersionInfo().Version)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warnf("failed to flush metrics: %v", err)
		}
	}()

	logger.Debugw("starting popup login",
		"provider", cfg.Provider,
		"authorize_url", authorizeURL,
		"redirect_uri", req.RedirectURI,
	)
	opts := append(cfg.SessionOptions(), popup.WithLogger(logger.Get()), popup.WithMeterProvider(mp))
	result, err := popup.Login(cmd.Context(), opener, req, cfg.WindowOptions(), authorizeURL, flags.sessionID, opts...)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	logger.Infow("popup login completed", "provider", cfg.Provider, "params", result.Len())

	if err := renderParams(cmd.OutOrStdout(), result, flags.output); err != nil {
		return err
	}
	if code := result.Get("error"); code != "" {
		return fmt.Errorf("provider returned error %q", code)
	}
	return nil
}

// applyLoginFlags overlays the flags the user set on cfg.
func applyLoginFlags(cmd *cobra.Command, flags *loginFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("provider") {
		cfg.Provider = flags.provider
		if !changed("authorize-url") {
			cfg.AuthorizeURL = ""
		}
	}
	if changed("authorize-url") {
		cfg.AuthorizeURL = flags.authorizeURL
	}
	if changed("redirect-uri") {
		cfg.RedirectURI = flags.redirectURI
	}
	if changed("scope") {
		cfg.Scopes = flags.scopes
	}
	if changed("height") {
		cfg.Window.Height = flags.height
	}
	if changed("width") {
		cfg.Window.Width = flags.width
	}
	if changed("poll-interval") {
		cfg.Polling.Interval = config.Duration(flags.pollInterval)
	}
	if changed("hold-open") {
		cfg.Polling.HoldOpen = config.Duration(flags.holdOpen)
	}
	if changed("timeout") {
		cfg.Polling.Timeout = config.Duration(flags.timeout)
	}
	if changed("otel-endpoint") {
		cfg.OTEL.Endpoint = flags.otelEndpoint
	}
	if changed("otel-insecure") {
		cfg.OTEL.Insecure = flags.otelInsecure
	}
}

// parseParams turns key=value flags into ordered parameters.
func parseParams(raw []string) (*query.Params, error) {
	p := query.NewParams()
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", kv)
		}
		if err := validation.ValidateParamKey(key); err != nil {
			return nil, fmt.Errorf("invalid parameter %q: %w", kv, err)
		}
		p.Set(key, value)
	}
	return p, nil
}

func renderParams(w io.Writer, p *query.Params, format string) error {
	if format == outputJSON {
		return ui.WriteParamsJSON(w, p)
	}
	return ui.RenderParamsTable(w, p)
}
