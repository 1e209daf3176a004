package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"igharvest/pkg/auth"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/prompt"
	"igharvest/pkg/ui"
)

var (
	manualLogin  bool
	revokeLogout bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage saved Instagram sessions",
	Long: `Manage the Instagram sessions igharvest reuses when you choose to log in.

Sessions are stored in:
  - the system keychain, when available
  - an AES-GCM encrypted file with a PBKDF2 derived key
  - IGHARVEST_SESSION_ID / IGHARVEST_CSRF_TOKEN (read-only)`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and save the session",
	Long: `Log in with username and password (and a two-factor code when asked) and
save the resulting session. With --manual the session cookies are copied from
a browser instead.`,
	Example: `  igharvest auth login
  igharvest auth login myaccount --manual`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove a saved session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)

	loginCmd.Flags().BoolVar(&manualLogin, "manual", false, "enter browser session cookies instead of a password")
	logoutCmd.Flags().BoolVar(&revokeLogout, "revoke", false, "also end the session on Instagram")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	p := prompt.NewTerminal()

	if manualLogin {
		var username string
		if len(args) > 0 {
			username = args[0]
		}
		account, err := askCookies(p, username)
		if err != nil {
			return err
		}
		if err := manager.Store(account); err != nil {
			return err
		}
		ui.PrintSuccess("Session saved: " + account.Username)
		return nil
	}

	client := instagram.NewClientWithConfig(cfg, logger.GetLogger())
	session, err := login(cmd.Context(), p, client, manager, logger.GetLogger())
	if err != nil {
		return err
	}
	ui.PrintSuccess("Logged in as " + session.Username)
	return nil
}

// askCookies reads a session copied out of a browser
func askCookies(p *prompt.Prompter, username string) (*auth.Account, error) {
	out := ui.Out
	auth.WriteQuickGuide(out)

	if username == "" {
		var err error
		if username, err = p.Text("Instagram username:"); err != nil {
			return nil, err
		}
	}

	account := &auth.Account{Username: instagram.SanitizeUsername(username)}
	for {
		sessionID, err := p.Password("sessionid:")
		if err != nil {
			return nil, err
		}
		sessionID = strings.TrimSpace(sessionID)
		if sessionID == "help" {
			auth.WriteCookieGuide(out)
			continue
		}
		if len(sessionID) < 20 {
			p.Println("That does not look like a sessionid. It is a long value such as 12345678%3Aabcdef%3A26...")
			continue
		}
		account.SessionID = sessionID
		break
	}

	csrf, err := p.Password("csrftoken (optional):")
	if err != nil {
		return nil, err
	}
	account.CSRFToken = strings.TrimSpace(csrf)
	return account, nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	username := instagram.SanitizeUsername(args[0])

	if revokeLogout {
		account, err := manager.Retrieve(username)
		if err != nil {
			return err
		}
		client := instagram.NewClientWithConfig(cfg, logger.GetLogger())
		if err := client.LoadSession(account.Session()); err != nil {
			return err
		}
		if err := client.Logout(cmd.Context()); err != nil {
			ui.PrintWarning("Could not end the session on Instagram", err)
		}
	}

	if err := manager.Delete(username); err != nil {
		return err
	}
	ui.PrintSuccess("Session removed: " + username)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No saved sessions", "use 'igharvest auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Saved sessions")
	for i, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Fprintf(ui.Out, "%d. %s\n", i+1, masked.Username)
		if masked.UserID != "" {
			fmt.Fprintf(ui.Out, "   User ID:       %s\n", masked.UserID)
		}
		fmt.Fprintf(ui.Out, "   Session ID:    %s\n", masked.SessionID)
		if masked.CSRFToken != "" {
			fmt.Fprintf(ui.Out, "   CSRF Token:    %s\n", masked.CSRFToken)
		}
		fmt.Fprintf(ui.Out, "   Last Modified: %s\n", masked.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}
