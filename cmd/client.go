/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/daycare-hub/apiserver/config"
	"github.com/daycare-hub/apiserver/internal/client"
	"github.com/spf13/cobra"
)

var signupFlags struct {
	name     string
	email    string
	password string
	role     string
	adminKey string
}

var loginFlags struct {
	email    string
	password string
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and remember its session",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, sessions, err := newAPIClient()
		if err != nil {
			return err
		}
		session, err := api.Signup(cmd.Context(), client.SignupRequest{
			Name:     signupFlags.name,
			Email:    signupFlags.email,
			Password: signupFlags.password,
			Role:     signupFlags.role,
			AdminKey: signupFlags.adminKey,
		})
		if err != nil {
			return err
		}
		if err := sessions.Save(session); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), session.User)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, sessions, err := newAPIClient()
		if err != nil {
			return err
		}
		session, err := api.Login(cmd.Context(), client.LoginRequest{
			Email:    loginFlags.email,
			Password: loginFlags.password,
		})
		if err != nil {
			return err
		}
		if err := sessions.Save(session); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), session.User)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions := client.NewFileSessionStore(config.LoadConfig().Client.SessionFile)
		return sessions.Clear()
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, sessions, err := newAPIClient()
		if err != nil {
			return err
		}
		session, err := sessions.Load()
		if errors.Is(err, client.ErrNoSession) {
			return errors.New("not logged in")
		}
		if err != nil {
			return err
		}
		user, err := api.Me(cmd.Context(), session.Token)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), user)
	},
}

var openCmd = &cobra.Command{
	Use:   "open <view>",
	Short: "Open a view the way the app would",
	Long: `Runs the client-side guard for a view and, when it may be shown, fetches
its data. Known views: ` + strings.Join(client.ViewNames(), ", ") + `.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: client.ViewNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, sessions, err := newAPIClient()
		if err != nil {
			return err
		}
		decision, data, err := client.NewNavigator(api, sessions).Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if decision.Action != client.Render {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", decision.Action, decision.Location)
			return nil
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd, openCmd)

	signupCmd.Flags().StringVar(&signupFlags.name, "name", "", "display name")
	signupCmd.Flags().StringVar(&signupFlags.email, "email", "", "email address")
	signupCmd.Flags().StringVar(&signupFlags.password, "password", "", "password")
	signupCmd.Flags().StringVar(&signupFlags.role, "role", "", "role (parent, staff, supervisor, admin)")
	signupCmd.Flags().StringVar(&signupFlags.adminKey, "admin-key", os.Getenv("DAYCARE_ADMIN_KEY"), "admin key for privileged roles")

	loginCmd.Flags().StringVar(&loginFlags.email, "email", "", "email address")
	loginCmd.Flags().StringVar(&loginFlags.password, "password", "", "password")
}

func newAPIClient() (*client.Client, *client.FileSessionStore, error) {
	cfg := config.LoadConfig()
	api, err := client.New(cfg.Client.BaseURL, nil)
	if err != nil {
		return nil, nil, err
	}
	return api, client.NewFileSessionStore(cfg.Client.SessionFile), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
