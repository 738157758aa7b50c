package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// passwordCmd groups the keychain management subcommands
var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the stored server password",
	Long: `Manage the torrent client password stored in the OS keychain.

The password is keyed by the configured server URL and username, so
switching servers in the config keeps each credential separate.`,
}

var passwordSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the server password in the keychain",
	RunE:  runPasswordSet,
}

var passwordClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored server password",
	RunE:  runPasswordClear,
}

func init() {
	rootCmd.AddCommand(passwordCmd)
	passwordCmd.AddCommand(passwordSetCmd)
	passwordCmd.AddCommand(passwordClearCmd)
}

func runPasswordSet(cmd *cobra.Command, args []string) error {
	fmt.Printf("Password for %s@%s: ", cfg.Server.Username, cfg.Server.URL)

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		return fmt.Errorf("no password entered")
	}

	secret := strings.TrimSpace(scanner.Text())
	if secret == "" {
		return fmt.Errorf("no password entered")
	}

	if err := store.SetPassword(cfg.Server.URL, cfg.Server.Username, secret); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}

	fmt.Println("✓ Password stored.")
	return nil
}

func runPasswordClear(cmd *cobra.Command, args []string) error {
	if err := store.DeletePassword(cfg.Server.URL, cfg.Server.Username); err != nil {
		return fmt.Errorf("failed to remove password: %w", err)
	}

	fmt.Println("✓ Password removed.")
	return nil
}
