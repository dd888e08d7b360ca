package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/spf13/cobra"

	"techlam/internal/admin"
	"techlam/internal/authctx"
	"techlam/internal/client"
	"techlam/internal/logger"
)

type cliConfig struct {
	APIURL          string        `env:"TECHLAM_API_URL" envDefault:"http://localhost:8080/api"`
	CredentialsPath string        `env:"TECHLAM_CREDENTIALS"`
	Timeout         time.Duration `env:"TECHLAM_TIMEOUT" envDefault:"30s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"warn"`
}

// session is everything a command needs once the auth context has been restored.
type session struct {
	auth    *authctx.Manager
	anon    *client.Client
	api     *client.Client
	surface *admin.Surface
	out     io.Writer
}

func (s *session) close() {
	s.surface.Unmount()
	s.auth.Close()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var reported errReported
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, admin.Message(err))
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg     cliConfig
		apiFlag string
	)
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Manage site projects and contact info",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Parse(&cfg); err != nil {
				return fmt.Errorf("parse environment: %w", err)
			}
			if apiFlag != "" {
				cfg.APIURL = apiFlag
			}
			if cfg.CredentialsPath == "" {
				path, err := authctx.DefaultCredentialPath()
				if err != nil {
					return err
				}
				cfg.CredentialsPath = path
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&apiFlag, "api", "", "API base URL (default $TECHLAM_API_URL)")

	open := func(cmd *cobra.Command) (*session, error) {
		return openSession(cmd, cfg)
	}
	root.AddCommand(
		newSignUpCmd(open),
		newSignInCmd(open),
		newSignOutCmd(open),
		newWhoAmICmd(open),
		newProjectsCmd(open),
		newContactCmd(open),
		newImageCmd(open),
		newEnquiriesCmd(open),
		newUsersCmd(open),
	)
	return root
}

type opener func(cmd *cobra.Command) (*session, error)

func openSession(cmd *cobra.Command, cfg cliConfig) (*session, error) {
	log := logger.Setup(os.Stderr, cfg.LogLevel)

	anon := client.New(cfg.APIURL, client.WithHTTPClient(newHTTPClient(cfg.Timeout)))
	mgr := authctx.New(anon, authctx.FileCredentialStore{Path: cfg.CredentialsPath}, authctx.WithLogger(log))
	if err := mgr.Init(cmd.Context()); err != nil {
		log.Warn("could not restore the saved session", "error", err)
	}
	api := anon.WithTokens(mgr)
	return &session{
		auth:    mgr,
		anon:    anon,
		api:     api,
		surface: admin.NewSurface(mgr, admin.NewRepository(api), log),
		out:     cmd.OutOrStdout(),
	}, nil
}

// mount opens the admin surface and fails when the signed-in user may not use it.
func (s *session) mount(ctx context.Context) error {
	if err := s.surface.Mount(ctx); err != nil {
		return err
	}
	switch s.surface.View() {
	case admin.ViewUnauthenticated:
		return errors.New("not signed in, run `adminctl signin <email>` first")
	case admin.ViewDenied:
		return errors.New("this account has no editor or admin role")
	}
	return nil
}

// report prints the surface notifications. err is marked as reported when a failure
// notification already described it.
func (s *session) report(err error) error {
	printed := false
	for _, n := range s.surface.Notifications() {
		if n.Failed {
			fmt.Fprintf(os.Stderr, "%s: %s\n", n.Title, n.Detail)
			printed = true
			continue
		}
		fmt.Fprintln(s.out, n.Title)
	}
	if err != nil && printed {
		return errReported{err}
	}
	return err
}

// errReported marks an error whose message has already been printed.
type errReported struct{ error }

func (e errReported) Unwrap() error { return e.error }

func readPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv("TECHLAM_PASSWORD"); v != "" {
		return v, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
