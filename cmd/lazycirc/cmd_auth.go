package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazycirc/internal/credentials"
)

// loginCmd stores the admin password for the configured server
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the admin password in the system keyring",
	Long: `Reads the admin password for server.username from standard input and
stores it in the system keyring for server.base_url.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Server.Username == "" {
			return fmt.Errorf("server.username is not set")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s at %s: ", cfg.Server.Username, cfg.Server.BaseURL)

		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return fmt.Errorf("empty password")
		}

		if err := credentials.NewPasswordStore().Save(cfg.Server.BaseURL, cfg.Server.Username, password); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Saved.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored admin password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Server.Username == "" {
			return fmt.Errorf("server.username is not set")
		}
		return credentials.NewPasswordStore().Delete(cfg.Server.BaseURL, cfg.Server.Username)
	},
}
