package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lachlan2k/rta-portal/internal/accesscontrol"
	"github.com/lachlan2k/rta-portal/internal/auth"
)

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var admin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an investor (or back-office) account",
		Long: `Create an account by filling in the registration form. Registering does
not log you in.

Example:
  rta-portal register
  rta-portal register --admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.open(cmd)
			if err != nil {
				return err
			}

			aud := accesscontrol.AudienceInvestor
			var payload any
			if admin {
				aud = accesscontrol.AudienceAdmin
				payload, err = promptAdminRegistration()
			} else {
				payload, err = promptRegistration()
			}
			if err != nil {
				return err
			}

			if err := p.auth.Register(commandContext(cmd), payload, aud); err != nil {
				var flowErr *auth.FlowError
				if errors.As(err, &flowErr) {
					return errors.New(flowErr.Message)
				}
				return friendly(err)
			}

			login := "rta-portal login"
			if admin {
				login += " --admin"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registration successful! Log in with `%s`.\n", login)
			return nil
		},
	}

	cmd.Flags().BoolVar(&admin, "admin", false, "Register a back-office account")
	return cmd
}

func promptRegistration() (auth.Registration, error) {
	var r auth.Registration

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&r.Name).Validate(auth.ValidateName),
			huh.NewInput().Title("PAN").Placeholder("ABCDE1234F").Value(&r.PAN).
				Validate(func(s string) error { return auth.ValidatePAN(strings.ToUpper(s)) }),
			huh.NewInput().Title("Email").Value(&r.Email).Validate(auth.ValidateEmail),
			huh.NewInput().Title("Mobile").Value(&r.Mobile).Validate(auth.ValidateMobile),
			huh.NewInput().Title("Date of birth").Placeholder("YYYY-MM-DD").Value(&r.DOB).
				Validate(auth.ValidateRequired("Date of Birth")),
			huh.NewText().Title("Address").Value(&r.Address).Validate(auth.ValidateAddress),
		),
		huh.NewGroup(
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&r.Password).
				Validate(auth.ValidatePassword),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&r.ConfirmPassword).
				Validate(func(s string) error {
					if s != r.Password {
						return errors.New("Passwords do not match")
					}
					return nil
				}),
			huh.NewConfirm().Title("I accept the Terms & Conditions").Value(&r.Terms),
		),
	)
	if err := form.Run(); err != nil {
		return r, fmt.Errorf("prompt failed: %w", err)
	}

	r.PAN = strings.ToUpper(strings.TrimSpace(r.PAN))
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return r, nil
}

func promptAdminRegistration() (auth.AdminRegistration, error) {
	var r auth.AdminRegistration

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Full name").Value(&r.Name).Validate(auth.ValidateName),
		huh.NewInput().Title("Email").Value(&r.Email).Validate(auth.ValidateEmail),
		huh.NewSelect[string]().Title("Role").Options(
			huh.NewOption("Admin", "admin"),
			huh.NewOption("AMC", "amc"),
			huh.NewOption("RTA CEO", "RTA CEO"),
		).Value(&r.Role),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&r.Password).
			Validate(auth.ValidatePassword),
	))
	if err := form.Run(); err != nil {
		return r, fmt.Errorf("prompt failed: %w", err)
	}

	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return r, nil
}
