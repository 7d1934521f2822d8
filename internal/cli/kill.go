package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:     "kill <session>",
	Aliases: []string{"k"},
	Short:   "Kill a session by id or name",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(false)
		if err != nil {
			return err
		}
		killed, err := c.Kill(args[0])
		if err != nil {
			return err
		}
		if !killed {
			return fmt.Errorf("could not kill %s", args[0])
		}
		fmt.Println(successText(fmt.Sprintf("[killed %s]", args[0])))
		return nil
	},
}
