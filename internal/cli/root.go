// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/b-dont/tuitch/internal/chat"
	"github.com/b-dont/tuitch/internal/config"
	"github.com/b-dont/tuitch/internal/logging"
	"github.com/b-dont/tuitch/internal/screen"
	"github.com/b-dont/tuitch/internal/twitch"
)

// connectTimeout bounds dialing plus the login handshake.
const connectTimeout = 15 * time.Second

// options holds the global flags.
type options struct {
	configPath string
	channel    string
	logFile    string
	debug      bool
}

// Execute runs the tuitch command line. Errors have already been shown to
// the user when it returns; map them with GetExitCode.
func Execute(ctx context.Context, version string) error {
	return fang.Execute(ctx, NewRootCommand(version), fang.WithVersion(version))
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tuitch",
		Short: "Chat in a Twitch channel from the terminal",
		Long: `tuitch joins a Twitch chat and shows it as a scrolling stream above a
single input line. Type to compose; Enter sends. Lines starting with the
command prefix (":" by default) are commands; :help lists them.

Ctrl+C or :quit exits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/tuitch/config.toml)")
	root.Flags().StringVar(&opts.channel, "channel", "", "channel to join, overriding the config file")
	root.Flags().StringVar(&opts.logFile, "log-file", "", "log file (default in the user cache directory)")
	root.Flags().BoolVar(&opts.debug, "debug", false, "log at debug level")

	root.AddCommand(newVersionCommand(version), newInitCommand(opts))
	return root
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tuitch version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tuitch %s\n", version)
		},
	}
}

func newInitCommand(opts *options) *cobra.Command {
	var username, token, channel string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Writes a config file with the given credentials. An existing file is
never overwritten. The file is created with 0600 permissions because it
holds the OAuth token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return &config.LoadError{Err: err}
				}
				path = p
			}

			cfg := config.Default()
			cfg.Username = username
			cfg.Token = token
			cfg.Channel = chat.NormalizeChannel(channel)
			if err := cfg.Validate(); err != nil {
				return &config.LoadError{Path: path, Err: fmt.Errorf("invalid config: %w", err)}
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return &config.LoadError{Path: path, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Twitch login")
	cmd.Flags().StringVar(&token, "token", "", "OAuth token")
	cmd.Flags().StringVar(&channel, "channel", "", "channel to join at startup")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

// =============================================================================
// CHAT
// =============================================================================

// runChat loads configuration, connects, switches the terminal to raw mode
// and runs a session until shutdown. The terminal is restored on every path
// after raw mode was entered.
func runChat(ctx context.Context, opts *options) error {
	cfg, path, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.channel != "" {
		cfg.Channel = opts.channel
		if chat.NormalizeChannel(cfg.Channel) == "" {
			return &UsageError{Flag: "channel", Reason: "empty channel name"}
		}
	}

	logPath := opts.logFile
	if logPath == "" {
		logPath = cfg.Log.Path
	}
	logger, logPath, err := logging.New(logging.Options{Path: logPath, Level: cfg.Log.Level, Debug: opts.debug})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting", zap.String("config_path", path), zap.Stringer("config", cfg), zap.String("log_path", logPath))

	if !screen.IsTerminal(os.Stdin) {
		return fmt.Errorf("stdin: %w; tuitch needs an interactive terminal", screen.ErrNotTerminal)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	identity := chat.NewIdentity(cfg.Username, cfg.Channel)
	client, err := connect(ctx, cfg, identity, logger)
	if err != nil {
		return err
	}

	raw, err := screen.EnterRaw(os.Stdin)
	if err != nil {
		_ = client.Close()
		return err
	}
	defer func() {
		if err := raw.Restore(); err != nil {
			logger.Error("terminal restore failed", zap.Error(err))
		}
	}()

	session := &Session{
		In:         os.Stdin,
		Out:        os.Stdout,
		Client:     client,
		Identity:   identity,
		Formatter:  chat.NewFormatter(ColorProfile(cfg.UI.Color)),
		Prefix:     cfg.Prefix(),
		ConfigPath: path,
		Logger:     logger,
	}
	return session.Run(ctx)
}

func connect(ctx context.Context, cfg *config.Config, identity *chat.Identity, logger *zap.Logger) (*twitch.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := twitch.Dial(ctx, cfg.Server, twitch.Options{User: cfg.Username, Token: cfg.Token}, logger)
	if err != nil {
		return nil, &ConnectError{Server: cfg.Server, Err: err}
	}
	if err := client.Login(ctx, identity.Channel()); err != nil {
		_ = client.Close()
		return nil, &ConnectError{Server: cfg.Server, Err: err}
	}
	logger.Info("connected", zap.String("server", cfg.Server), zap.String("channel", identity.Channel()))
	return client, nil
}
