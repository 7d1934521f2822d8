package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/willothy/sesh/internal/protocol"
)

var resumeCmd = &cobra.Command{
	Use:     "resume",
	Aliases: []string{"r"},
	Short:   "Resume the most recently used detached session",
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

		var best *protocol.SessionInfo
		var bestUsed time.Time
		for i := range sessions {
			s := &sessions[i]
			if s.Attached {
				continue
			}
			used := s.CreatedAt
			if s.LastAttachedAt.After(used) {
				used = s.LastAttachedAt
			}
			if best == nil || used.After(bestUsed) {
				best, bestUsed = s, used
			}
		}

		if best == nil {
			create, _ := cmd.Flags().GetBool("create")
			if create {
				return runStart("", false, nil)
			}
			fmt.Println(successText("[no sessions to resume]"))
			return nil
		}
		return runAttach(c, strconv.Itoa(best.ID))
	},
}

func init() {
	resumeCmd.Flags().BoolP("create", "c", false, "start a new session when none can be resumed")
}
