package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unimarket/authctx/internal/cli"
	"github.com/unimarket/authctx/pkg/domain"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the restored session",
	Long:  `Restores the session the way a freshly opened client would and prints it. Output is JSON unless stdout is a terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		out := cmd.OutOrStdout()
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.PrintState(out, w.Store.Snapshot(), !asJSON && cli.IsTerminal(out))
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a session obtained from the authentication service",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		id, _ := f.GetString("id")
		email, _ := f.GetString("email")
		if id == "" || email == "" {
			return fmt.Errorf("--id and --email are required")
		}
		sess := &domain.Session{ID: id, Email: email}
		sess.FullName, _ = f.GetString("name")
		sess.Role, _ = f.GetString("role")
		sess.PhoneNumber, _ = f.GetString("phone")
		sess.AvatarURL, _ = f.GetString("avatar")
		sess.Token, _ = f.GetString("token")
		sess.LoginProvider, _ = f.GetString("provider")
		sess.EmailConfirmed, _ = f.GetBool("confirmed")

		w, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		w.Store.SetUser(cmd.Context(), sess)
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", sess.Email, w.Store.Role())
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update key=value...",
	Short: "Merge fields into the current session",
	Long:  `Merges the given fields (JSON names, e.g. fullName=Ann emailConfirmed=true) into the current session. Does nothing when logged out.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := make(map[string]any, len(args))
		for _, arg := range args {
			k, v, ok := strings.Cut(arg, "=")
			if !ok || k == "" {
				return fmt.Errorf("invalid field %q: want key=value", arg)
			}
			raw[k] = v
		}
		patch, err := domain.PatchFromMap(raw)
		if err != nil {
			return err
		}

		w, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		if w.Store.User() == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in; nothing updated.")
			return nil
		}
		w.Store.UpdateUser(cmd.Context(), patch)
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %d field(s).\n", len(raw))
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the bearer credential",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Replace the bearer credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return fmt.Errorf("token cannot be empty; use 'token clear'")
		}
		return withStore(cmd, func(w *cli.Wiring) {
			w.Store.SetToken(cmd.Context(), args[0])
			fmt.Fprintln(cmd.OutOrStdout(), "Token updated.")
		})
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored bearer credential, keeping the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(w *cli.Wiring) {
			w.Store.SetToken(cmd.Context(), "")
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out every context sharing this storage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		w.Store.Logout(cmd.Context())
		// Pulse removal runs after the delay; stay alive until it has.
		<-cli.After(cmd.Context(), cfg.PulseDelay)
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

func withStore(cmd *cobra.Command, fn func(w *cli.Wiring)) error {
	w, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer w.Close()
	fn(w)
	return nil
}

func init() {
	rootCmd.AddCommand(whoamiCmd, loginCmd, updateCmd, tokenCmd, logoutCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd)

	whoamiCmd.Flags().Bool("json", false, "Always print JSON")

	lf := loginCmd.Flags()
	lf.String("id", "", "User id")
	lf.String("email", "", "Email address")
	lf.String("name", "", "Full name")
	lf.String("role", "", "Role (defaults to User)")
	lf.String("phone", "", "Phone number")
	lf.String("avatar", "", "Avatar URL")
	lf.String("token", "", "Bearer credential")
	lf.String("provider", "", "Login provider (defaults to Email)")
	lf.Bool("confirmed", false, "Email address is confirmed")
}
