package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgpillar/magnetrelay/relay"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <magnet-uri>...",
	Short: "Send one or more magnet links to the configured client",
	Long: `Send magnet links to the remote torrent client configured in server.client.

Multiple links are dispatched concurrently; each one performs its own
authentication handshake. Failed links are reported individually and are
never retried automatically.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	// Ctrl-C aborts the in-flight relays instead of leaving them dangling.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := handler.HandleMagnets(ctx, args)

	var failed int
	for i, res := range results {
		if res.OK() {
			fmt.Printf("✓ sent %s\n", shorten(args[i]))
			continue
		}
		failed++
		fmt.Printf("✗ %s: %s\n", shorten(args[i]), relay.UserMessage(res.Err))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d magnet links failed", failed, len(results))
	}
	return nil
}

// shorten trims a magnet URI for terminal display; the full URI is still
// what gets relayed.
func shorten(uri string) string {
	if len(uri) > 60 {
		return uri[:57] + "..."
	}
	return uri
}
