package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCommand(a *app) *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "sign in and store the credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}
			if _, err := a.session.SignIn(cmd.Context(), args[0], password); err != nil {
				if errors.Is(err, goSession.ErrAuthenticationFailed) {
					return errors.New("Invalid email or password. Please try again.")
				}
				return fmt.Errorf("login failed: %w", err)
			}
			st := a.session.State(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome! Logged in as %s until %s\n", st.Subject, st.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !fromStdin && cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

func logoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "clear the stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func whoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "print the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st := a.session.State(ctx)
			if !st.Authenticated {
				return errors.New("not logged in")
			}
			if st.Expired {
				return errors.New("session expired, run taskflow login")
			}
			p, err := a.session.FetchCurrentUser(ctx)
			if errors.Is(err, goSession.ErrUnauthorized) {
				return errors.New("the API rejected the stored credential, run taskflow login")
			}
			if err != nil {
				return err
			}
			if p == nil {
				return errors.New("not logged in")
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}

type sessionView struct {
	Authenticated bool       `json:"authenticated"`
	Expired       bool       `json:"expired"`
	Subject       string     `json:"subject,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func viewState(st goSession.State) sessionView {
	v := sessionView{Authenticated: st.Authenticated, Expired: st.Expired, Subject: st.Subject}
	if !st.ExpiresAt.IsZero() {
		exp := st.ExpiresAt.UTC()
		v.ExpiresAt = &exp
	}
	return v
}

func statusCommand(a *app) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "status",
		Short: "print session state and API health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				h   *goSession.Health
				err error
			)
			if wait > 0 {
				h, err = a.session.WaitHealthy(cmd.Context(), wait)
			} else {
				h, err = a.session.Health(cmd.Context())
			}
			out := struct {
				Session sessionView       `json:"session"`
				Health  *goSession.Health `json:"health,omitempty"`
			}{
				Session: viewState(a.session.State(cmd.Context())),
				Health:  h,
			}
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
			if err != nil {
				return err
			}
			if !h.Healthy() {
				return goSession.ErrUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "poll until healthy for up to this long")
	return cmd
}

func tokenCommand(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "token",
		Short: "print the stored credential's subject and expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, ok, err := a.session.Store().Get(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("not logged in")
			}
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), viewState(a.session.State(cmd.Context())))
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the encoded credential")
	return cmd
}

func openCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "show where a route resolves in the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := a.session.Open(cmd.Context(), args[0])
			if d.Allow {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", d.Route)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", d.Path, d.Route, d.Reason)
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
