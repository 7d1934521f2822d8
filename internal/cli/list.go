package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connect(true)
		if err != nil {
			return err
		}
		sessions, err := c.List()
		if err != nil {
			return err
		}

		info, _ := cmd.Flags().GetBool("info")
		if !info {
			for _, s := range sessions {
				marker := ""
				if s.Attached {
					marker = " *"
				}
				fmt.Printf("%d\t%s%s\n", s.ID, s.Name, marker)
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPROGRAM\tPID\tSIZE\tSTARTED\tATTACHED")
		for _, s := range sessions {
			attached := "never"
			if !s.LastAttachedAt.IsZero() {
				attached = s.LastAttachedAt.Format("01/02 15:04:05")
			}
			if s.Attached {
				attached += " *"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%dx%d\t%s\t%s\n",
				s.ID, s.Name, s.Program, s.ChildPid,
				s.Size.Cols, s.Size.Rows,
				s.CreatedAt.Format("01/02 15:04:05"), attached)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolP("info", "i", false, "print detailed info about sessions")
}
