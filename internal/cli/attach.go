package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/willothy/sesh/internal/client"
)

var attachCmd = &cobra.Command{
	Use:     "attach <session>",
	Aliases: []string{"a"},
	Short:   "Attach to a session by id or name",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(true)
		if err != nil {
			return err
		}
		return runAttach(c, args[0])
	},
}

// runAttach bridges the terminal to the session and reports how it ended.
// The child's exit status becomes the process exit code.
func runAttach(c *client.Client, selector string) error {
	outcome, err := c.Attach(selector)
	if err != nil {
		return err
	}
	if outcome.Exited {
		fmt.Println(successText(fmt.Sprintf("[exited: %d]", outcome.Status)))
		exitStatus = outcome.Status
		return nil
	}
	fmt.Println(successText("[detached]"))
	return nil
}
