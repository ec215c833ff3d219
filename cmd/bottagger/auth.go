package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bottagger/pkg/auth"
	"bottagger/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Reddit access tokens",
	Long: `Manage stored Reddit OAuth bearer tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (BOTTAGGER_ACCESS_TOKEN, read only)

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store an access token securely",
	Long: `Store a Reddit OAuth bearer token in the system keychain or encrypted file.

You will be prompted for:
  - Account name (if not provided)
  - Access token (hidden as you type)
  - User Agent (optional, press Enter for default)`,
	Example: `  # Interactive login
  bottagger auth login

  # Login for a named account
  bottagger auth login myaccount`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [account]",
	Short: "Remove a stored token",
	Long: `Remove a stored access token.

If no account is provided, you will be shown a list of stored accounts
to choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with masked tokens.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var name string
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	} else {
		fmt.Print("Account name: ")
		name = readLine(reader)
	}
	if name == "" {
		return fmt.Errorf("account name is required")
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\nAccount '%s' already exists. Replace its token? (y/N): ", name)
		if !strings.HasPrefix(strings.ToLower(readLine(reader)), "y") {
			return nil
		}
	}

	fmt.Println()
	ui.PrintInfo("Token", auth.QuickTokenHint)

	var token string
	for {
		fmt.Print("Access token: ")
		token, err = readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		if strings.EqualFold(token, "help") {
			fmt.Println()
			auth.WriteTokenGuide(os.Stdout)
			fmt.Println()
			continue
		}
		if err := validateToken(token); err != nil {
			ui.PrintWarning(err.Error())
			fmt.Print("Try again? (Y/n): ")
			if strings.ToLower(readLine(reader)) == "n" {
				return err
			}
			continue
		}
		break
	}

	fmt.Print("User Agent (press Enter to use default): ")
	userAgent := readLine(reader)

	account := &auth.Account{
		Username:     name,
		AccessToken:  token,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("\nAccount saved: %s", name))
	fmt.Printf("Stored in: %s\n", strings.Join(manager.Backends(), ", "))
	fmt.Println("\nUse it with:")
	fmt.Printf("  bottagger watch <url> --account %s\n", name)
	return nil
}

// validateToken rejects obviously wrong input such as a pasted client id.
func validateToken(token string) error {
	if len(token) < 20 {
		return fmt.Errorf("that token looks too short; bearer tokens are usually 30+ characters")
	}
	if strings.ContainsAny(token, " \t") {
		return fmt.Errorf("tokens do not contain spaces; paste only the access_token value")
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer") {
		return fmt.Errorf("paste the token without the 'bearer' prefix")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) == 1 {
		if err := manager.Delete(args[0]); err != nil {
			return fmt.Errorf("failed to remove account: %w", err)
		}
		ui.PrintSuccess("Account removed: " + args[0])
		return nil
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintWarning("No stored accounts found")
		return nil
	}

	fmt.Println("Select account to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Username)
	}
	fmt.Printf("  0. Cancel\n\n")
	fmt.Print("Choice: ")

	var choice int
	fmt.Sscanf(readLine(bufio.NewReader(os.Stdin)), "%d", &choice)
	if choice == 0 {
		return nil
	}
	if choice < 0 || choice > len(accounts) {
		return fmt.Errorf("invalid choice %d", choice)
	}

	username := accounts[choice-1].Username
	if err := manager.Delete(username); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + username)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	printAccounts(os.Stdout, accounts)
	return nil
}

func printAccounts(w io.Writer, accounts []*auth.Account) {
	if len(accounts) == 0 {
		fmt.Fprintf(w, "%s: %s\n", ui.Cyan("No stored accounts"), ui.Yellow("Use 'bottagger auth login' to add one"))
		return
	}

	fmt.Fprintln(w, ui.Magenta("Stored Accounts"))
	fmt.Fprintln(w)
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(w, "%d. Account: %s\n", i+1, sanitized.Username)
		fmt.Fprintf(w, "   Token: %s\n", sanitized.AccessToken)
		if sanitized.UserAgent != "" {
			fmt.Fprintf(w, "   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Fprintf(w, "   Last Modified: %s\n\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}
}

func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readSecret reads a token without echo when stdin is a terminal.
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
