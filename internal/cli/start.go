package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/willothy/sesh/internal/protocol"
)

var startCmd = &cobra.Command{
	Use:     "start [-n name] [-d] [program [args...]]",
	Aliases: []string{"s"},
	Short:   "Start a new session, optionally specifying a name",
	Args:    cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		detached, _ := cmd.Flags().GetBool("detached")
		return runStart(name, detached, args)
	},
}

func init() {
	startCmd.Flags().StringP("name", "n", "", "name for the new session")
	startCmd.Flags().BoolP("detached", "d", false, "start without attaching")
}

// runStart creates a session and, unless detached, immediately attaches.
func runStart(name string, detached bool, args []string) error {
	c, err := connect(true)
	if err != nil {
		return err
	}

	var program string
	var progArgs []string
	if len(args) > 0 {
		program = args[0]
		progArgs = args[1:]
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	res, err := c.Start(&protocol.StartRequest{
		Name:     name,
		Program:  program,
		Args:     progArgs,
		Env:      environMap(),
		Cwd:      cwd,
		Size:     terminalSize(),
		Detached: detached,
	})
	if err != nil {
		return err
	}

	if detached {
		fmt.Println(successText(fmt.Sprintf("[started %s]", res.Name)))
		return nil
	}
	return runAttach(c, strconv.Itoa(res.ID))
}
