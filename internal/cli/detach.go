package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var detachCmd = &cobra.Command{
	Use:     "detach [session]",
	Aliases: []string{"d"},
	Short:   "Detach the current session or the specified session",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(false)
		if err != nil {
			return err
		}
		selector := ""
		if len(args) == 1 {
			selector = args[0]
		}
		noPeer, _ := cmd.Flags().GetBool("no-detach-peer")
		detached, err := c.Detach(selector, noPeer)
		if err != nil {
			return err
		}
		if detached {
			fmt.Println(successText("[detached]"))
		} else {
			fmt.Println(successText("[no attached session]"))
		}
		return nil
	},
}

func init() {
	detachCmd.Flags().Bool("no-detach-peer", false,
		"detach attachments owned by other clients, not just this one")
}
