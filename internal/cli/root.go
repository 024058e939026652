package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lachlan2k/rta-portal/internal/apiclient"
	"github.com/lachlan2k/rta-portal/internal/auth"
	"github.com/lachlan2k/rta-portal/internal/config"
	"github.com/lachlan2k/rta-portal/internal/session"
	"github.com/lachlan2k/rta-portal/internal/views"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// portal is everything a command needs to talk to the backend as the
// persisted user.
type portal struct {
	conf   *config.Config
	logger *slog.Logger
	store  *session.FileStore
	client *apiclient.Client
	auth   *auth.Service
	views  *views.Service
}

// NewRootCmd builds the full command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "rta-portal",
		Short: "Mutual fund registrar portal for investors, RTA staff and AMCs",
		Long: `rta-portal is a client for the registrar and transfer agent backend.

It keeps one logged-in session on disk and can either serve the portal over
HTTP (with role-gated investor, admin and AMC screens) or be used directly
from the terminal to log in, browse the audit log and export reports.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.toml", "Path to config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newAuditCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// loadConfig reads the config file. Without one, the defaults plus
// RTA_API_URL are enough to run.
func loadConfig(path string) (*config.Config, error) {
	conf, err := config.LoadFromTomlFileAndValidate(path)
	if errors.Is(err, os.ErrNotExist) && os.Getenv("RTA_API_URL") != "" {
		return config.LoadFromTomlAndValidate([]byte{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return conf, nil
}

func (o *rootOptions) open(cmd *cobra.Command) (*portal, error) {
	conf, err := loadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), o.logLevel)

	store, err := session.NewFileStore(conf.Session.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open session %s: %w", conf.Session.File, err)
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL: conf.APIBaseURL,
		Store:   store,
		Timeout: conf.Timeout(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &portal{
		conf:   conf,
		logger: logger,
		store:  store,
		client: client,
		auth:   auth.NewService(client, conf, logger),
		views:  views.NewService(client, conf.Audit.Path),
	}, nil
}

// friendly turns the errors every command can hit into something to print
func friendly(err error) error {
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return errors.New("not logged in, or the session has expired: run `rta-portal login`")
	case errors.Is(err, apiclient.ErrBackendUnavailable):
		return errors.New("could not reach the server, please try again")
	}
	return err
}
