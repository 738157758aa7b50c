package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgpillar/magnetrelay/relay"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to the configured torrent client",
	Long: `Test the connection to the remote torrent client: perform the client's
authentication handshake plus one lightweight call, without changing any
remote state.`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to %s at %s...\n", cfg.Server.Client, cfg.Server.BaseURL())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := handler.TestConnection(ctx)
	if !res.OK() {
		return fmt.Errorf("connection test failed: %s", relay.UserMessage(res.Err))
	}

	fmt.Println("✓ Connection successful!")
	return nil
}
