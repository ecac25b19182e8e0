package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/amo-inventory/internal/api"
	"github.com/Veraticus/amo-inventory/internal/cli"
)

func loginCmd(opts *rootOptions) *cobra.Command {
	var creds api.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the bearer token",
		Long:  `Exchange a username and password for a bearer token. Missing values are prompted for.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := promptCredentials(ctx, cmd, &creds); err != nil {
				return err
			}

			return opts.withApp(ctx, func(a *app) error {
				resp, err := a.client.Login(ctx, creds)
				if err != nil {
					return err
				}
				if err := a.sessions.Save(ctx, resp.AccessToken, resp.Username); err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess("Logged in as "+resp.Username))
			})
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password")
	return cmd
}

func registerCmd(opts *rootOptions) *cobra.Command {
	var creds api.Credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Long: `Create an account on the backend. Usernames are 3-30 characters of letters, digits,
'.', '_' or '-'; passwords need at least 8 characters.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := promptCredentials(ctx, cmd, &creds); err != nil {
				return err
			}

			return opts.withApp(ctx, func(a *app) error {
				resp, err := a.client.Register(ctx, creds)
				if err != nil {
					return err
				}
				msg := resp.Message
				if msg == "" {
					msg = "Account created"
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess(msg+". Run `amo login` to sign in."))
			})
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password")
	return cmd
}

func logoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				if err := a.sessions.Clear(ctx); err != nil {
					return err
				}
				return printLine(cmd.OutOrStdout(), cli.FormatSuccess("Logged out"))
			})
		},
	}
}

func whoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and token expiry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return opts.withApp(ctx, func(a *app) error {
				s, err := a.sessions.Load(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				lines := fmt.Sprintf("User:      %s\nLogged in: %s", s.Username, s.SavedAt.Local().Format(time.RFC1123))
				if info, err := a.sessions.Inspect(s.Token); err == nil && info.HasExpiry {
					lines += "\nExpires:   " + info.ExpiresAt.Local().Format(time.RFC1123)
				}
				if a.client.Token() != s.Token {
					lines += "\nToken:     api.token overrides the saved session"
				}
				if err := printLine(out, cli.RenderBox("Session", lines)); err != nil {
					return err
				}
				if warning := a.sessions.Warning(ctx); warning != "" {
					return printLine(out, cli.FormatWarning(warning))
				}
				return nil
			})
		},
	}
}

func promptCredentials(ctx context.Context, cmd *cobra.Command, creds *api.Credentials) error {
	if creds.Username != "" && creds.Password != "" {
		return nil
	}
	reader := cli.NewNonBlockingReader(cmd.InOrStdin())
	out := cmd.ErrOrStderr()

	var err error
	if creds.Username == "" {
		if creds.Username, err = reader.Prompt(ctx, out, "Username"); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}
	if creds.Password == "" {
		if creds.Password, err = reader.Prompt(ctx, out, "Password"); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	return nil
}

func printLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
