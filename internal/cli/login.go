package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lachlan2k/rta-portal/internal/accesscontrol"
	"github.com/lachlan2k/rta-portal/internal/auth"
	"github.com/lachlan2k/rta-portal/internal/session"
)

type audienceFlags struct {
	admin bool
	amc   bool
}

func (f *audienceFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.admin, "admin", false, "Use the back-office (RTA staff) endpoints")
	cmd.Flags().BoolVar(&f.amc, "amc", false, "Use the AMC endpoints")
}

func (f *audienceFlags) audience() (accesscontrol.Audience, error) {
	return accesscontrol.AudienceOf(f.admin, f.amc)
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var (
		aud      audienceFlags
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Long: `Log in with email and password. Missing values are prompted for.

The token and profile are stored together in the session file, and are only
written once the profile has been fetched successfully.

Example:
  rta-portal login
  rta-portal login --admin --email ops@rta.in`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := aud.audience()
			if err != nil {
				return err
			}
			p, err := opts.open(cmd)
			if err != nil {
				return err
			}

			var fields []huh.Field
			if email == "" {
				fields = append(fields, huh.NewInput().
					Title("Email").
					Value(&email).
					Validate(auth.ValidateEmail))
			}
			if password == "" {
				fields = append(fields, huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password).
					Validate(auth.ValidateRequired("Password")))
			}
			if len(fields) > 0 {
				if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
					return fmt.Errorf("prompt failed: %w", err)
				}
			}

			res, err := p.auth.Login(commandContext(cmd), strings.TrimSpace(email), password, a)
			if err != nil {
				var flowErr *auth.FlowError
				if errors.As(err, &flowErr) {
					return errors.New(flowErr.Message)
				}
				return friendly(err)
			}

			name := res.Profile.Field("name")
			if name == "" {
				name = strings.TrimSpace(email)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s). Home: %s\n", name, res.Profile.Role, res.Home)
			return nil
		},
	}

	aud.register(cmd)
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.open(cmd)
			if err != nil {
				return err
			}
			if _, err := p.auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored session belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.open(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			sess := p.store.Get()
			if !sess.LoggedIn() {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}

			fmt.Fprintf(out, "Role:  %s\n", sess.Role())
			for _, field := range []string{"name", "email", "pan"} {
				if v := sess.User.Field(field); v != "" {
					fmt.Fprintf(out, "%-6s %s\n", strings.ToUpper(field[:1])+field[1:]+":", v)
				}
			}
			if claims, err := session.Claims(sess.Token); err == nil {
				if exp := claims.Expiry(); !exp.IsZero() {
					fmt.Fprintf(out, "Token expires %s\n", exp.Local().Format("2006-01-02 15:04"))
				}
			}
			return nil
		},
	}
}
