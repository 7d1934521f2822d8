package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/willothy/sesh/internal/protocol"
)

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Shut down the server, killing all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(false)
		if err != nil {
			var pe *protocol.Error
			if errors.As(err, &pe) && pe.Kind == protocol.KindServerUnavailable {
				fmt.Println(successText("[not running]"))
				return nil
			}
			return err
		}
		if err := c.Shutdown(); err != nil {
			return err
		}
		fmt.Println(successText("[shutdown]"))
		return nil
	},
}
