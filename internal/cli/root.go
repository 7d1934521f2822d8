// Package cli wires the sesh subcommands to the client library.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/willothy/sesh/internal/protocol"
)

// exitStatus is the process exit code for successful command runs; attach
// flows set it to the child's status when the session exited.
var exitStatus int

var rootCmd = &cobra.Command{
	Use:   "sesh [program [args...]]",
	Short: "Terminal session manager",
	Long: `sesh keeps interactive programs running after their terminal goes away
and lets any terminal re-attach later as if nothing happened.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation starts the default shell and attaches to it.
		name, _ := cmd.Flags().GetString("name")
		detached, _ := cmd.Flags().GetBool("detached")
		return runStart(name, detached, args)
	},
}

func init() {
	rootCmd.Flags().StringP("name", "n", "", "name for the new session")
	rootCmd.Flags().BoolP("detached", "d", false, "start without attaching")

	rootCmd.AddCommand(
		startCmd,
		attachCmd,
		detachCmd,
		killCmd,
		listCmd,
		resumeCmd,
		shutdownCmd,
	)
}

// Execute runs the CLI and returns the process exit code: 0 on success or
// clean detach, 1 on CLI errors, 2 on RPC errors, the child's status after
// an attached session exits.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err.Error()))
		var pe *protocol.Error
		if errors.As(err, &pe) {
			return 2
		}
		return 1
	}
	return exitStatus
}
