package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/identity"
	apierrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/navigation"
	"github.com/jrsteele09/go-session-client/session"
)

const refreshWait = 10 * time.Second

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Session.Login(cmd.Context(), email, password); err != nil {
				fmt.Fprintln(c.out, session.LoginMessage(err))
				return err
			}
			return c.printWelcome()
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) socialCmd() *cobra.Command {
	var provider, idToken string
	var cred identity.Credential
	cmd := &cobra.Command{
		Use:   "social",
		Short: "Sign in with an Apple or Google identity",
		Long: "Sign in with an Apple or Google identity. With --id-token the token is verified\n" +
			"against the provider's keys; otherwise the identity fields are sent as given.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p := identity.Provider(provider)
			var src identity.Source
			if idToken != "" {
				s, err := c.app.IdentitySource(ctx, p, func(context.Context) (string, error) { return idToken, nil })
				if err != nil {
					return err
				}
				src = s
			} else {
				cred.Provider = p
				src = identity.StaticSource{Cred: cred}
			}

			ok, err := c.app.Session.SignInWith(ctx, src)
			if err != nil {
				fmt.Fprintln(c.out, session.LoginMessage(err))
				return err
			}
			if !ok {
				fmt.Fprintln(c.out, "sign-in canceled")
				return nil
			}
			return c.printWelcome()
		},
	}
	cmd.Flags().StringVar(&provider, "provider", string(identity.ProviderGoogle), "APPLE or GOOGLE")
	cmd.Flags().StringVar(&idToken, "id-token", "", "raw provider ID token to verify")
	cmd.Flags().StringVar(&cred.ProviderUserID, "provider-user-id", "", "provider subject, when no ID token is given")
	cmd.Flags().StringVar(&cred.Email, "email", "", "email shared by the provider")
	cmd.Flags().StringVar(&cred.Name, "name", "", "display name shared by the provider")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Session.Logout(cmd.Context())
			fmt.Fprintln(c.out, "signed out")
			return nil
		},
	}
}

func (c *cli) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Restore the stored session and print the first screen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			controller, err := c.app.Controller(navigation.NavigatorFunc(func(navigation.Route) {}))
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), refreshWait)
			defer cancel()
			route, err := controller.Start(ctx)
			fmt.Fprintf(c.out, "status=%s state=%s route=%s\n", c.app.Session.Status(), controller.State(), route)
			return err
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r, err := c.app.Session.CheckAuth(ctx)
			if err != nil {
				return err
			}
			if r.Status() != session.StatusAuthenticated {
				fmt.Fprintln(c.out, "not signed in")
				return nil
			}
			waitCtx, cancel := context.WithTimeout(ctx, refreshWait)
			defer cancel()
			if err := r.Wait(waitCtx); err != nil {
				return err
			}
			if r.Err() != nil {
				fmt.Fprintf(c.out, "warning: showing cached profile: %v\n", r.Err())
			}
			return c.printJSON(c.app.Session.Profile())
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	var req api.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Session.Register(cmd.Context(), req); err != nil {
				fmt.Fprintln(c.out, session.RegisterMessage(err))
				return err
			}
			fmt.Fprintln(c.out, "registered; verify your email before signing in")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "username")
	cmd.Flags().StringVar(&req.Email, "email", "", "email")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	cmd.Flags().IntVar(&req.CountryID, "country", 0, "country id")
	return cmd
}

func (c *cli) checkEmailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-email EMAIL",
		Short: "Check whether an email can be registered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printAvailability(c.app.API.CheckEmailAvailable(cmd.Context(), args[0]))
		},
	}
}

func (c *cli) checkNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-name NAME",
		Short: "Check whether a username is free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.printAvailability(c.app.API.CheckNameAvailable(cmd.Context(), args[0]))
		},
	}
}

func (c *cli) onboardedCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "onboarded",
		Short: "Mark onboarding as seen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reset {
				if err := c.app.Onboarding.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "onboarding will be shown again")
				return nil
			}
			if err := c.app.Onboarding.MarkSeen(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "onboarding marked as seen")
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the flag instead")
	return cmd
}

func (c *cli) printWelcome() error {
	p := c.app.Session.Profile()
	if p == nil {
		fmt.Fprintln(c.out, "signed in")
		return nil
	}
	fmt.Fprintf(c.out, "signed in as %s\n", p.Username)
	if !p.ComplianceAccepted() {
		fmt.Fprintln(c.out, "terms and privacy policy still need to be accepted")
	}
	return nil
}

func (c *cli) printAvailability(available bool, err error) error {
	switch {
	case apierrors.Is(err, apierrors.ErrConflict):
		fmt.Fprintln(c.out, "taken")
		return nil
	case err != nil:
		return err
	case available:
		fmt.Fprintln(c.out, "available")
	default:
		fmt.Fprintln(c.out, "taken")
	}
	return nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
